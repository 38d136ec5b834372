package searcher

import (
	"gameplayer/game"
)

// mockState identifies a position in a hand-built game tree.
type mockState struct {
	id     uint64
	player game.PlayerID
}

func (s mockState) Fingerprint() game.Fingerprint {
	return game.Fingerprint(s.id)
}

func (s mockState) Player() game.PlayerID {
	return s.player
}

// mockGame defines a game tree by parent id -> child ids, with leaf values
// from Alice's perspective. Non-listed ids have no responses.
type mockGame struct {
	children map[uint64][]uint64
	values   map[uint64]float64
}

func (g mockGame) generate(state game.State, depth int) []game.State {
	s := state.(mockState)
	responses := make([]game.State, 0, len(g.children[s.id]))
	for _, id := range g.children[s.id] {
		responses = append(responses, mockState{id: id, player: s.player.Other()})
	}
	return responses
}

func (g mockGame) Evaluate(state game.State) float64 {
	return g.values[state.(mockState).id]
}

func (g mockGame) WinValue(p game.PlayerID) float64 {
	if p == game.Alice {
		return 1000.0
	}
	return -1000.0
}
