package gametree

import (
	"sync/atomic"
	"testing"

	"gameplayer/game"
	"gameplayer/metrics"
	"gameplayer/transposition"

	"github.com/stretchr/testify/require"
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
	children  map[uint64][]uint64
	values    map[uint64]float64
	generated atomic.Int64
}

func (g *mockGame) generate(state game.State, depth int) []game.State {
	g.generated.Add(1)
	s := state.(mockState)
	responses := make([]game.State, 0, len(g.children[s.id]))
	for _, id := range g.children[s.id] {
		responses = append(responses, mockState{id: id, player: s.player.Other()})
	}
	return responses
}

func (g *mockGame) Evaluate(state game.State) float64 {
	return g.values[state.(mockState).id]
}

func (g *mockGame) WinValue(p game.PlayerID) float64 {
	if p == game.Alice {
		return 1000.0
	}
	return -1000.0
}

// minimax is an exhaustive reference implementation with no pruning and no
// caching, used to verify that alpha-beta never changes the result.
func minimax(g *mockGame, state mockState, depth int) float64 {
	children := g.children[state.id]
	if depth == 0 || len(children) == 0 {
		return g.values[state.id]
	}

	value := 0.0
	for i, id := range children {
		child := mockState{id: id, player: state.player.Other()}
		v := minimax(g, child, depth-1)
		if i == 0 || state.player.Prefers(v, value) {
			value = v
		}
	}
	return value
}

func newTable(t *testing.T) *transposition.Table {
	t.Helper()
	return transposition.New(4096, 100)
}

func TestNew(t *testing.T) {
	g := &mockGame{}

	t.Run("panics without a table", func(t *testing.T) {
		require.Panics(t, func() { New(nil, g, g.generate, 3) })
	})

	t.Run("panics without an evaluator", func(t *testing.T) {
		require.Panics(t, func() { New(newTable(t), nil, g.generate, 3) })
	})

	t.Run("panics without a generator", func(t *testing.T) {
		require.Panics(t, func() { New(newTable(t), g, nil, 3) })
	})

	t.Run("panics with non-positive depth", func(t *testing.T) {
		require.Panics(t, func() { New(newTable(t), g, g.generate, 0) })
		require.Panics(t, func() { New(newTable(t), g, g.generate, -1) })
	})
}

func TestFindBestResponseTerminal(t *testing.T) {
	g := &mockGame{
		children: map[uint64][]uint64{},
		values:   map[uint64]float64{1: 7.5},
	}
	gt := New(newTable(t), g, g.generate, 3)

	response, err := gt.FindBestResponse(mockState{id: 1, player: game.Alice})

	require.ErrorIs(t, err, game.ErrNoResponses)
	require.Nil(t, response)
	require.Equal(t, int64(1), g.generated.Load(),
		"A terminal root must not query the generator further")
}

func TestEvaluateTerminal(t *testing.T) {
	g := &mockGame{
		children: map[uint64][]uint64{},
		values:   map[uint64]float64{1: 7.5},
	}
	gt := New(newTable(t), g, g.generate, 3)

	require.Equal(t, 7.5, gt.Evaluate(mockState{id: 1, player: game.Alice}),
		"A state with no responses must evaluate to its static value")
}

func TestTwoPlyScenario(t *testing.T) {
	// root -> {A, B}; A -> {+1, -1}; B -> {0, 0}. Under optimal opposing
	// play A is worth -1 and B is worth 0, so Alice must choose B.
	g := &mockGame{
		children: map[uint64][]uint64{
			1: {2, 3}, // A=2, B=3
			2: {4, 5},
			3: {6, 7},
		},
		values: map[uint64]float64{4: 1, 5: -1, 6: 0, 7: 0},
	}
	gt := New(newTable(t), g, g.generate, 2)

	response, err := gt.FindBestResponse(mockState{id: 1, player: game.Alice})

	require.NoError(t, err)
	require.Equal(t, uint64(3), response.(mockState).id)
	require.Equal(t, 0.0, gt.Evaluate(mockState{id: 1, player: game.Alice}))
}

func TestNoSuccessorsMidTree(t *testing.T) {
	// State 2 has no responses at depth > 0: it is a terminal position and
	// evaluates directly, not an error.
	g := &mockGame{
		children: map[uint64][]uint64{
			1: {2, 3},
			3: {4},
		},
		values: map[uint64]float64{2: 5, 4: 1},
	}
	gt := New(newTable(t), g, g.generate, 3)

	response, err := gt.FindBestResponse(mockState{id: 1, player: game.Alice})

	require.NoError(t, err)
	require.Equal(t, uint64(2), response.(mockState).id,
		"The dead-end response is worth its static value 5, beating 1")
}

func TestAlphaBetaEquivalence(t *testing.T) {
	// A fixed full tree of branching 3, depth 4, with leaf values chosen
	// by a small LCG so the shape is deterministic but irregular.
	g := &mockGame{
		children: map[uint64][]uint64{},
		values:   map[uint64]float64{},
	}
	seed := uint64(0x9E3779B97F4A7C15)
	next := func() uint64 {
		seed = seed*6364136223846793005 + 1442695040888963407
		return seed
	}

	id := uint64(1)
	var build func(parent uint64, depth int)
	build = func(parent uint64, depth int) {
		if depth == 0 {
			g.values[parent] = float64(int64(next()%2001) - 1000)
			return
		}
		for i := 0; i < 3; i++ {
			id++
			g.children[parent] = append(g.children[parent], id)
			build(id, depth-1)
		}
	}
	build(1, 4)

	for _, player := range []game.PlayerID{game.Alice, game.Bob} {
		for depth := 1; depth <= 4; depth++ {
			gt := New(newTable(t), g, g.generate, depth)
			want := minimax(g, mockState{id: 1, player: player}, depth)
			got := gt.Evaluate(mockState{id: 1, player: player})
			require.Equal(t, want, got,
				"Pruning must not change the search value (player=%v depth=%d)", player, depth)
		}
	}
}

func TestPruningReducesWork(t *testing.T) {
	g := &mockGame{
		children: map[uint64][]uint64{},
		values:   map[uint64]float64{},
	}
	// Ordered leaf values make cutoffs frequent.
	id := uint64(1)
	for i := 0; i < 8; i++ {
		id++
		g.children[1] = append(g.children[1], id)
		branch := id
		for j := 0; j < 8; j++ {
			id++
			g.children[branch] = append(g.children[branch], id)
			g.values[id] = float64(100 - 10*i - j)
		}
	}

	collector := metrics.NewCollector()
	gt := New(newTable(t), g, g.generate, 2, WithCollector(collector))

	_, err := gt.FindBestResponse(mockState{id: 1, player: game.Alice})

	require.NoError(t, err)
	m := gt.Metrics()
	require.Greater(t, m.Prunes, 0, "Cutoffs should occur on an ordered tree")
	require.Less(t, m.Nodes, 1+8+8*8, "Pruning should skip part of the tree")
}

func TestDeterminism(t *testing.T) {
	g := &mockGame{
		children: map[uint64][]uint64{
			1: {2, 3, 4},
			2: {5, 6},
			3: {7, 8},
			4: {9, 10},
		},
		values: map[uint64]float64{5: 1, 6: 2, 7: 2, 8: 1, 9: 0, 10: 3},
	}

	table := newTable(t)
	gt := New(table, g, g.generate, 2)
	state := mockState{id: 1, player: game.Alice}

	first, err := gt.FindBestResponse(state)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		response, err := gt.FindBestResponse(state)
		require.NoError(t, err)
		require.Equal(t, first, response,
			"Repeated searches with a shared table must return the same response")
	}
}

func TestTieBreakGeneratorOrder(t *testing.T) {
	g := &mockGame{
		children: map[uint64][]uint64{1: {2, 3, 4}},
		values:   map[uint64]float64{2: 5, 3: 5, 4: 5},
	}
	gt := New(newTable(t), g, g.generate, 1)

	response, err := gt.FindBestResponse(mockState{id: 1, player: game.Alice})

	require.NoError(t, err)
	require.Equal(t, uint64(2), response.(mockState).id, "First-seen response wins ties")
}

func TestTranspositionReuse(t *testing.T) {
	// A diamond: both of Alice's responses lead to the same position 4,
	// reachable by two move orders.
	g := &mockGame{
		children: map[uint64][]uint64{
			1: {2, 3},
			2: {4},
			3: {4},
			4: {5, 6},
		},
		values: map[uint64]float64{5: 3, 6: 8},
	}

	collector := metrics.NewCollector()
	table := newTable(t)
	gt := New(table, g, g.generate, 3, WithCollector(collector))

	_, err := gt.FindBestResponse(mockState{id: 1, player: game.Alice})
	require.NoError(t, err)
	require.Greater(t, gt.Metrics().TableHits, 0,
		"The transposed position should be served from the table")

	// A repeated search is answered almost entirely from the table.
	before := g.generated.Load()
	_, err = gt.FindBestResponse(mockState{id: 1, player: game.Alice})
	require.NoError(t, err)
	require.Less(t, g.generated.Load()-before, before,
		"Cached results should reduce generator work on a repeat search")
}

func TestWinCutoffStopsSearch(t *testing.T) {
	g := &mockGame{
		children: map[uint64][]uint64{1: {2, 3, 4}},
		values:   map[uint64]float64{2: 1000, 3: 500, 4: 700},
	}
	gt := New(newTable(t), g, g.generate, 1)

	response, err := gt.FindBestResponse(mockState{id: 1, player: game.Alice})

	require.NoError(t, err)
	require.Equal(t, uint64(2), response.(mockState).id)
	// Root generation (1) plus no deeper calls: children are leaves at
	// depth 1, evaluated statically.
	require.Equal(t, int64(1), g.generated.Load())
}

func TestOutOfTurnResponsePanics(t *testing.T) {
	g := &mockGame{children: map[uint64][]uint64{}, values: map[uint64]float64{}}
	generate := func(state game.State, depth int) []game.State {
		return []game.State{mockState{id: 2, player: state.Player()}}
	}
	gt := New(newTable(t), g, generate, 2)

	require.Panics(t, func() {
		gt.FindBestResponse(mockState{id: 1, player: game.Alice})
	})
}

func TestBobPerspective(t *testing.T) {
	// Bob minimizes: with responses worth 4 and -2 he must choose -2.
	g := &mockGame{
		children: map[uint64][]uint64{1: {2, 3}},
		values:   map[uint64]float64{2: 4, 3: -2},
	}
	gt := New(newTable(t), g, g.generate, 1)

	response, err := gt.FindBestResponse(mockState{id: 1, player: game.Bob})

	require.NoError(t, err)
	require.Equal(t, uint64(3), response.(mockState).id)
}
