package metrics

import (
	"sync/atomic"
	"time"
)

// SearchMetrics summarizes one search invocation. All counts are
// diagnostic only and never feed back into search decisions.
type SearchMetrics struct {
	Duration     time.Duration
	Nodes        int // nodes visited (recursion frames or tree descents)
	Evaluations  int // static evaluator calls
	Prunes       int // alpha-beta cutoffs
	TableHits    int // usable transposition table hits
	Evictions    int // transposition table entries displaced by a store
	Episodes     int // MCTS iterations completed
	FullPlayouts int // rollouts that reached a terminal state before cutoff
}

// Collector gathers instrumentation from a search engine. Engines call it
// at defined points; a no-op implementation is the default so the
// instrumented and production code paths are identical.
type Collector interface {
	Start()
	AddNode()
	AddEvaluation()
	AddPrune()
	AddTableHit()
	AddEviction()
	AddEpisode()
	AddFullPlayout()
	Complete() SearchMetrics
}

type collector struct {
	startTime    time.Time
	nodes        atomic.Int64
	evaluations  atomic.Int64
	prunes       atomic.Int64
	tableHits    atomic.Int64
	evictions    atomic.Int64
	episodes     atomic.Int64
	fullPlayouts atomic.Int64
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start() {
	m.startTime = time.Now()
	m.nodes.Store(0)
	m.evaluations.Store(0)
	m.prunes.Store(0)
	m.tableHits.Store(0)
	m.evictions.Store(0)
	m.episodes.Store(0)
	m.fullPlayouts.Store(0)
}

func (m *collector) AddNode()        { m.nodes.Add(1) }
func (m *collector) AddEvaluation()  { m.evaluations.Add(1) }
func (m *collector) AddPrune()       { m.prunes.Add(1) }
func (m *collector) AddTableHit()    { m.tableHits.Add(1) }
func (m *collector) AddEviction()    { m.evictions.Add(1) }
func (m *collector) AddEpisode()     { m.episodes.Add(1) }
func (m *collector) AddFullPlayout() { m.fullPlayouts.Add(1) }

func (m *collector) Complete() SearchMetrics {
	return SearchMetrics{
		Duration:     time.Since(m.startTime),
		Nodes:        int(m.nodes.Load()),
		Evaluations:  int(m.evaluations.Load()),
		Prunes:       int(m.prunes.Load()),
		TableHits:    int(m.tableHits.Load()),
		Evictions:    int(m.evictions.Load()),
		Episodes:     int(m.episodes.Load()),
		FullPlayouts: int(m.fullPlayouts.Load()),
	}
}

type dummyCollector struct{}

// NewDummyCollector returns a Collector that discards everything.
func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start()                  {}
func (m *dummyCollector) AddNode()                {}
func (m *dummyCollector) AddEvaluation()          {}
func (m *dummyCollector) AddPrune()               {}
func (m *dummyCollector) AddTableHit()            {}
func (m *dummyCollector) AddEviction()            {}
func (m *dummyCollector) AddEpisode()             {}
func (m *dummyCollector) AddFullPlayout()         {}
func (m *dummyCollector) Complete() SearchMetrics { return SearchMetrics{} }
