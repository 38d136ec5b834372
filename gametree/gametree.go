// Package gametree implements a depth-bounded game tree search using
// minimax strategy, alpha-beta pruning, and a transposition table. The
// game-specific components are provided at construction.
package gametree

import (
	"math"

	"gameplayer/game"
	"gameplayer/metrics"
	"gameplayer/transposition"
)

// Option configures a GameTree.
type Option func(*GameTree)

// WithCollector attaches an instrumentation collector. Diagnostic only;
// it never affects search results.
func WithCollector(c metrics.Collector) Option {
	return func(gt *GameTree) {
		if c != nil {
			gt.collector = c
		}
	}
}

// GameTree searches for the best response to a state. The transposition
// table and the evaluator are long-lived and may be shared across
// searches; states produced during a search are released when the search
// returns, except for the chosen response.
type GameTree struct {
	table     *transposition.Table
	evaluator game.Evaluator
	generate  game.ResponseGenerator
	maxDepth  int
	collector metrics.Collector
}

// New creates a game tree searching maxDepth plies. Panics if any
// collaborator is missing or maxDepth is not positive.
func New(table *transposition.Table, evaluator game.Evaluator, generate game.ResponseGenerator, maxDepth int, options ...Option) *GameTree {
	if table == nil {
		panic("gametree: transposition table is required")
	}
	if evaluator == nil {
		panic("gametree: static evaluator is required")
	}
	if generate == nil {
		panic("gametree: response generator is required")
	}
	if maxDepth <= 0 {
		panic("gametree: maxDepth must be positive")
	}

	gt := &GameTree{
		table:     table,
		evaluator: evaluator,
		generate:  generate,
		maxDepth:  maxDepth,
		collector: metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(gt)
	}
	return gt
}

// FindBestResponse searches for the best response to state for the player
// to move and returns the chosen successor. The input state is not
// modified; applying the response is the caller's job. Returns
// game.ErrNoResponses if the player cannot respond.
//
// Ties in value are broken by generator order (first seen wins), which is
// deterministic but arbitrary.
func (gt *GameTree) FindBestResponse(state game.State) (game.State, error) {
	gt.collector.Start()

	player := state.Player()
	responses := gt.responses(state, gt.maxDepth)
	if len(responses) == 0 {
		return nil, game.ErrNoResponses
	}

	alpha, beta := math.Inf(-1), math.Inf(1)
	var best game.State
	bestValue := worstFor(player)

	for _, response := range responses {
		value := gt.search(response, alpha, beta, gt.maxDepth-1)
		if best != nil && !player.Prefers(value, bestValue) {
			continue
		}
		best = response
		bestValue = value

		// A winning response cannot be improved on.
		if !player.Prefers(gt.evaluator.WinValue(player), bestValue) {
			break
		}
		if player == game.Alice && bestValue > alpha {
			alpha = bestValue
		}
		if player == game.Bob && bestValue < beta {
			beta = bestValue
		}
	}

	return best, nil
}

// Evaluate returns the minimax value of state searched to the configured
// depth, from Alice's perspective. A state with no responses evaluates
// statically.
func (gt *GameTree) Evaluate(state game.State) float64 {
	gt.collector.Start()
	return gt.search(state, math.Inf(-1), math.Inf(1), gt.maxDepth)
}

// Metrics returns the instrumentation gathered since the last search
// started.
func (gt *GameTree) Metrics() metrics.SearchMetrics {
	return gt.collector.Complete()
}

// search returns the value of state from Alice's perspective, searching
// depth more plies. alpha is the best value the maximizer can already
// guarantee, beta the best the minimizer can.
func (gt *GameTree) search(state game.State, alpha, beta float64, depth int) float64 {
	gt.collector.AddNode()

	fingerprint := state.Fingerprint()
	if entry, ok := gt.table.Lookup(fingerprint, depth); ok {
		gt.collector.AddTableHit()
		switch entry.Bound {
		case transposition.Exact:
			return entry.Value
		case transposition.Lower:
			if entry.Value > alpha {
				alpha = entry.Value
			}
		case transposition.Upper:
			if entry.Value < beta {
				beta = entry.Value
			}
		}
		if alpha >= beta {
			gt.collector.AddPrune()
			return entry.Value
		}
	}

	if depth == 0 {
		return gt.leafValue(state, fingerprint)
	}

	responses := gt.responses(state, depth)
	if len(responses) == 0 {
		// The player cannot respond: a terminal position for search
		// purposes, evaluated directly.
		return gt.leafValue(state, fingerprint)
	}

	player := state.Player()
	alphaOrig, betaOrig := alpha, beta
	value := worstFor(player)
	pruned := false

	for _, response := range responses {
		v := gt.search(response, alpha, beta, depth-1)
		if !player.Prefers(v, value) {
			continue
		}
		value = v

		// A proven win ends the node: no sibling can improve on it.
		if !player.Prefers(gt.evaluator.WinValue(player), value) {
			break
		}
		if player == game.Alice && value > alpha {
			alpha = value
		}
		if player == game.Bob && value < beta {
			beta = value
		}
		if alpha >= beta {
			pruned = true
			gt.collector.AddPrune()
			break
		}
	}

	// Classify the value for the table. A cutoff leaves a one-sided
	// bound; a value that never entered the original window is one-sided
	// from the other direction.
	bound := transposition.Exact
	switch {
	case pruned && player == game.Alice:
		bound = transposition.Lower
	case pruned && player == game.Bob:
		bound = transposition.Upper
	case player == game.Alice && value <= alphaOrig:
		bound = transposition.Upper
	case player == game.Bob && value >= betaOrig:
		bound = transposition.Lower
	}
	gt.table.Store(fingerprint, value, depth, bound)

	return value
}

// leafValue evaluates a horizon or terminal state. A cached exact value is
// as good as a fresh evaluation and much cheaper, so the table is checked
// first.
func (gt *GameTree) leafValue(state game.State, fingerprint game.Fingerprint) float64 {
	if entry, ok := gt.table.Lookup(fingerprint, 0); ok && entry.Bound == transposition.Exact {
		gt.collector.AddTableHit()
		return entry.Value
	}

	gt.collector.AddEvaluation()
	value := gt.evaluator.Evaluate(state)
	gt.table.Store(fingerprint, value, 0, transposition.Exact)
	return value
}

// responses invokes the generator and enforces the turn-alternation
// contract. A violation is a programming error in the caller's game, not
// a condition the search can recover from.
func (gt *GameTree) responses(state game.State, depth int) []game.State {
	responses := gt.generate(state, depth)
	next := state.Player().Other()
	for _, response := range responses {
		if response.Player() != next {
			panic("gametree: response generator returned a state out of turn")
		}
	}
	return responses
}

func worstFor(p game.PlayerID) float64 {
	if p == game.Alice {
		return math.Inf(-1)
	}
	return math.Inf(1)
}
