// Package transposition implements a bounded cache of game state values
// keyed by the states' fingerprints.
//
// A game state can be the result of different sequences of the same (or a
// different) set of moves. The table caches the value of a state
// regardless of the moves used to reach it, thus the name "transposition"
// table.
package transposition

import (
	"math"
	"sync"

	"gameplayer/game"
	"gameplayer/metrics"
)

// Bound classifies a cached value the standard alpha-beta way.
type Bound uint8

const (
	// Exact means the value is the true minimax value of the state.
	Exact Bound = iota
	// Lower means the true value is at least the cached value (the search
	// was cut off after the value exceeded beta).
	Lower
	// Upper means the true value is at most the cached value (the search
	// never raised alpha).
	Upper
)

func (b Bound) String() string {
	switch b {
	case Exact:
		return "exact"
	case Lower:
		return "lower"
	case Upper:
		return "upper"
	}
	return "unknown"
}

// unused marks an empty slot. Fingerprints are assumed to be uniformly
// distributed 64-bit values and never equal to this sentinel.
const unused = game.Fingerprint(math.MaxUint64)

// Entry is a cached search result for one state.
type Entry struct {
	fingerprint game.Fingerprint
	Value       float64
	Depth       int16 // plies searched below the state to produce Value
	Bound       Bound
	age         int16 // turns since the entry was last referenced
}

// quality ranks how trustworthy and expensive-to-recompute an entry is:
// exact bounds outrank one-sided ones, then deeper outranks shallower.
func (e Entry) quality() int {
	q := int(e.Depth)
	if e.Bound == Exact {
		q += 1 << 16
	}
	return q
}

// outranks reports whether e strictly outranks candidate. Ties lose so
// that stale entries of equal quality rotate out (recency tiebreak).
func (e Entry) outranks(candidate Entry) bool {
	return e.quality() > candidate.quality()
}

// Table is a fixed-capacity map from state fingerprints to cached values.
//
// Slots are not unique to the state being stored: a fingerprint maps to
// exactly one slot, and a colliding store displaces the occupant only when
// the occupant does not outrank the incoming entry. The table never holds
// more entries than its capacity. It is safe for concurrent use.
type Table struct {
	mu        sync.Mutex
	entries   []Entry
	maxAge    int16
	collector metrics.Collector
}

// Option configures a Table.
type Option func(*Table)

// WithCollector attaches an instrumentation collector, notified when a
// store displaces a live entry.
func WithCollector(c metrics.Collector) Option {
	return func(t *Table) {
		if c != nil {
			t.collector = c
		}
	}
}

// New creates an empty table with a fixed capacity. maxAge is the number
// of Age sweeps an unreferenced entry survives. Panics if capacity or
// maxAge is not positive.
func New(capacity, maxAge int, options ...Option) *Table {
	if capacity <= 0 {
		panic("transposition: capacity must be positive")
	}
	if maxAge <= 0 || maxAge > math.MaxInt16 {
		panic("transposition: maxAge out of range")
	}

	entries := make([]Entry, capacity)
	for i := range entries {
		entries[i].fingerprint = unused
	}

	t := &Table{
		entries:   entries,
		maxAge:    int16(maxAge),
		collector: metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(t)
	}
	return t
}

// Lookup returns the cached entry for fingerprint if one is stored at a
// depth of at least minDepth. A shallower entry is reported as a miss: it
// was computed with less lookahead than the query requires and must not be
// trusted silently. A found entry has its age reset.
func (t *Table) Lookup(fingerprint game.Fingerprint, minDepth int) (Entry, bool) {
	if fingerprint == unused {
		panic("transposition: reserved fingerprint")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	entry := &t.entries[t.slot(fingerprint)]
	if entry.fingerprint != fingerprint {
		return Entry{}, false
	}

	// The entry was referenced, so it is relevant again.
	entry.age = 0

	if int(entry.Depth) < minDepth {
		return Entry{}, false
	}
	return *entry, true
}

// Store caches a value for fingerprint. If the slot holds a different
// live fingerprint, the occupant is evicted only when it does not outrank
// the incoming entry; otherwise the store is rejected. A store for an
// already-present fingerprint follows the same ranking, so a cached result
// is never silently downgraded.
func (t *Table) Store(fingerprint game.Fingerprint, value float64, depth int, bound Bound) {
	if fingerprint == unused {
		panic("transposition: reserved fingerprint")
	}
	if depth < 0 || depth > math.MaxInt16 {
		panic("transposition: depth out of range")
	}

	candidate := Entry{
		fingerprint: fingerprint,
		Value:       value,
		Depth:       int16(depth),
		Bound:       bound,
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	entry := &t.entries[t.slot(fingerprint)]
	if entry.fingerprint != unused && entry.outranks(candidate) {
		return
	}
	if entry.fingerprint != unused && entry.fingerprint != fingerprint {
		t.collector.AddEviction()
	}
	*entry = candidate
}

// Set caches a value for fingerprint unconditionally, displacing whatever
// occupies the slot. Intended for seeding known values; searches use Store.
func (t *Table) Set(fingerprint game.Fingerprint, value float64, depth int, bound Bound) {
	if fingerprint == unused {
		panic("transposition: reserved fingerprint")
	}
	if depth < 0 || depth > math.MaxInt16 {
		panic("transposition: depth out of range")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[t.slot(fingerprint)] = Entry{
		fingerprint: fingerprint,
		Value:       value,
		Depth:       int16(depth),
		Bound:       bound,
	}
}

// Age increments the age of every live entry and clears entries whose age
// exceeds the configured maximum. The table is persistent across turns;
// aging gradually disposes of entries that are no longer reachable.
func (t *Table) Age() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.entries {
		entry := &t.entries[i]
		if entry.fingerprint == unused {
			continue
		}
		entry.age++
		if entry.age > t.maxAge {
			entry.fingerprint = unused
		}
	}
}

// Capacity returns the fixed maximum number of entries.
func (t *Table) Capacity() int {
	return len(t.entries)
}

// Len returns the number of live entries.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for i := range t.entries {
		if t.entries[i].fingerprint != unused {
			n++
		}
	}
	return n
}

func (t *Table) slot(fingerprint game.Fingerprint) int {
	return int(uint64(fingerprint) % uint64(len(t.entries)))
}
