// Package searcher implements Monte Carlo Tree Search with UCT-based
// selection over the contracts in package game. The tree is built by
// repeated selection, expansion, rollout, and back-propagation cycles;
// the response is the root's most visited child.
package searcher

import (
	"math"
	"sync"
	"time"

	"gameplayer/game"
	"gameplayer/metrics"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// MaxCutoff effectively disables the rollout depth cutoff: rollouts run
// until a terminal state.
const MaxCutoff = math.MaxInt32

// Option configures an MCTS.
type Option func(*MCTS)

// WithIterations sets the number of simulations per decision. Panics if
// iterations is not positive.
func WithIterations(iterations int) Option {
	return func(m *MCTS) {
		if iterations <= 0 {
			panic("searcher: iterations must be positive")
		}
		m.iterations = iterations
	}
}

// WithDuration bounds a decision by wall time instead of a fixed
// iteration count. Panics if duration is not positive.
func WithDuration(duration time.Duration) Option {
	return func(m *MCTS) {
		if duration <= 0 {
			panic("searcher: duration must be positive")
		}
		m.duration = duration
	}
}

// WithGoroutines sets the number of parallel simulation workers. The
// default is 1. Panics if goroutines is not positive.
func WithGoroutines(goroutines int) Option {
	return func(m *MCTS) {
		if goroutines <= 0 {
			panic("searcher: goroutines must be positive")
		}
		m.goroutines = goroutines
	}
}

// WithExploration sets the exploration constant c in the UCT formula.
// The default is sqrt(2). Panics if c is not positive.
func WithExploration(c float64) Option {
	return func(m *MCTS) {
		if c <= 0 {
			panic("searcher: exploration constant must be positive")
		}
		m.exploration = c
	}
}

// WithCutoff limits rollouts to the given number of plies before falling
// back to the static evaluator. A cutoff of 0 skips rollouts entirely and
// takes the evaluator's score of the expanded node as the reward. Panics
// if plies is negative.
func WithCutoff(plies int) Option {
	return func(m *MCTS) {
		if plies < 0 {
			panic("searcher: cutoff must not be negative")
		}
		m.cutoff = plies
	}
}

// WithTreeRetention keeps the statistics tree between calls and re-roots
// it onto the node matching the incoming state, when one exists.
func WithTreeRetention() Option {
	return func(m *MCTS) {
		m.retain = true
	}
}

// WithCollector attaches an instrumentation collector. Diagnostic only.
func WithCollector(c metrics.Collector) Option {
	return func(m *MCTS) {
		if c != nil {
			m.collector = c
		}
	}
}

// MCTS is a Monte Carlo Tree Search engine. A single FindBestResponse
// call is synchronous; the configured goroutines only parallelize the
// simulations inside it, coordinated through per-node virtual losses.
type MCTS struct {
	goroutines  int
	iterations  int
	duration    time.Duration
	cutoff      int
	exploration float64
	retain      bool
	generate    game.ResponseGenerator
	evaluator   game.Evaluator
	root        *node
	collector   metrics.Collector
}

// NewMCTS creates an MCTS engine. The evaluator scores rollout end states
// (and terminal states), from Alice's perspective. Either WithIterations
// or WithDuration must be given; a missing or invalid configuration
// panics at construction, not during search.
func NewMCTS(generate game.ResponseGenerator, evaluator game.Evaluator, options ...Option) *MCTS {
	if generate == nil {
		panic("searcher: response generator is required")
	}
	if evaluator == nil {
		panic("searcher: static evaluator is required")
	}
	if evaluator.WinValue(game.Alice) <= evaluator.WinValue(game.Bob) {
		panic("searcher: evaluator win values must satisfy WinValue(Alice) > WinValue(Bob)")
	}

	m := &MCTS{ // Default values
		goroutines:  1,
		cutoff:      MaxCutoff,
		exploration: math.Sqrt2,
		generate:    generate,
		evaluator:   evaluator,
		collector:   metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(m)
	}
	if m.iterations <= 0 && m.duration <= 0 {
		panic("searcher: must specify search iterations or duration")
	}
	return m
}

// FindBestResponse runs the configured number of simulations from state
// and returns the best response found. The input state is not modified.
// Returns game.ErrNoResponses if the player cannot respond.
func (m *MCTS) FindBestResponse(state game.State) (game.State, error) {
	m.collector.Start()

	root := m.findRoot(state)
	if root.terminal() {
		return nil, game.ErrNoResponses
	}

	if m.iterations > 0 {
		m.iterate(root)
	} else {
		m.countdown(root)
	}

	if m.retain {
		m.root = root
	}
	return root.bestChild().state, nil
}

// Metrics returns the instrumentation gathered since the last search
// started.
func (m *MCTS) Metrics() metrics.SearchMetrics {
	return m.collector.Complete()
}

// findRoot locates a retained node for state, or starts a fresh tree. At
// most two plies below the previous root are searched: the engine's own
// last response and the opponent's reply.
func (m *MCTS) findRoot(state game.State) *node {
	if !m.retain || m.root == nil {
		return m.newRoot(state)
	}

	fingerprint := state.Fingerprint()
	if m.root.state.Fingerprint() == fingerprint {
		return m.root
	}
	for _, child := range m.root.children {
		if child.state.Fingerprint() == fingerprint {
			child.parent = nil
			return child
		}
		for _, grandchild := range child.children {
			if grandchild.state.Fingerprint() == fingerprint {
				grandchild.parent = nil
				return grandchild
			}
		}
	}

	log.Warn().Uint64("fingerprint", uint64(fingerprint)).Msg("no retained node for state, starting a fresh tree")
	return m.newRoot(state)
}

func (m *MCTS) newRoot(state game.State) *node {
	root := m.newNode(nil, state, 0)
	// The implicit initial visit, so the UCT normalizer is defined as
	// soon as the root is fully expanded.
	root.visits = 1
	return root
}

// newNode materializes a tree node for state, enumerating its successors.
// ply is the node's distance from the root, passed through to the
// generator.
func (m *MCTS) newNode(parent *node, state game.State, ply int) *node {
	player := state.Player()
	untried := m.generate(state, ply)
	for _, successor := range untried {
		if successor.Player() != player.Other() {
			panic("searcher: response generator returned a state out of turn")
		}
	}

	perspective := player
	if parent != nil {
		perspective = parent.player
	}

	return &node{
		parent:      parent,
		state:       state,
		player:      player,
		perspective: perspective,
		untried:     untried,
	}
}

// iterate runs a fixed number of simulations, fanned out over the
// configured workers.
func (m *MCTS) iterate(root *node) {
	task := make(chan struct{}, m.iterations)
	for i := 0; i < m.iterations; i++ {
		task <- struct{}{}
	}
	close(task)

	var wg sync.WaitGroup
	for i := 0; i < m.goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for range task {
				m.simulate(root)
				m.collector.AddEpisode()
			}
		}()
	}

	wg.Wait()
}

// countdown runs simulations until the configured duration elapses. The
// elapsed time is checked after each simulation, not before, so every
// worker completes at least one and the decision is always backed by a
// playout, however short the budget.
func (m *MCTS) countdown(root *node) {
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < m.goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for {
				m.simulate(root)
				m.collector.AddEpisode()
				if time.Since(start) >= m.duration {
					return
				}
			}
		}()
	}

	wg.Wait()
}

// simulate is one full Selection -> Expansion -> Rollout ->
// Back-propagation cycle.
func (m *MCTS) simulate(root *node) {
	leaf, ply := m.selectThenExpand(root)
	value := m.rollout(leaf, ply)
	for n := leaf; n != nil; n = n.parent {
		n.backup(value)
	}
}

// selectThenExpand descends from the root through fully expanded nodes by
// UCT score until it expands a new child or bottoms out on a node with no
// successors. Returns the reached node and its ply.
func (m *MCTS) selectThenExpand(root *node) (*node, int) {
	n := root
	ply := 0
	for {
		child, expanded := m.selectOrExpand(n, ply)
		if child == n { // no successors, nothing to descend into
			return n, ply
		}
		ply++
		if expanded {
			return child, ply
		}
		n = child
	}
}

// selectOrExpand materializes one untried successor if any remain,
// otherwise selects the child with the best UCT score. The returned child
// carries a virtual loss until back-propagation.
func (m *MCTS) selectOrExpand(n *node, ply int) (*node, bool) {
	n.Lock()
	defer n.Unlock()

	if len(n.untried) == 0 && len(n.children) == 0 { // terminal
		return n, false
	}

	if len(n.untried) > 0 { // expandable
		state := n.untried[0]
		n.untried = n.untried[1:]
		child := m.newNode(n, state, ply+1)
		child.applyLoss()
		n.children = append(n.children, child)
		return child, true
	}

	// Fully expanded: select by UCT.
	child := n.pickChild(m.exploration * m.exploration)
	child.applyLoss()
	return child, false
}

// rollout produces a reward estimate for the node: random play until a
// terminal state or the cutoff, then the static evaluator's score of the
// end state, normalized to [-1, 1] from Alice's perspective. With a
// cutoff of 0 the evaluator scores the node's own state directly.
func (m *MCTS) rollout(n *node, ply int) float64 {
	n.RLock()
	state, responses := n.state, n.untried
	n.RUnlock()

	depth := 0
	for len(responses) > 0 && depth < m.cutoff {
		state = responses[rand.Intn(len(responses))] // random rollout policy
		depth++
		responses = m.generate(state, ply+depth)
	}
	if len(responses) == 0 { // reached a terminal state before the cutoff
		m.collector.AddFullPlayout()
	}

	m.collector.AddEvaluation()
	return m.normalize(m.evaluator.Evaluate(state))
}

// normalize maps an evaluator score into [-1, 1] using the evaluator's
// win values.
func (m *MCTS) normalize(value float64) float64 {
	lo := m.evaluator.WinValue(game.Bob)
	hi := m.evaluator.WinValue(game.Alice)
	switch {
	case value <= lo:
		return -1
	case value >= hi:
		return 1
	}
	return 2*(value-lo)/(hi-lo) - 1
}
