// Package tictactoe is a complete example game for the search engines:
// it implements the state, response generation, and evaluation contracts
// for 3x3 tic-tac-toe. Alice plays X and moves first.
package tictactoe

import (
	"math/rand"
	"strings"

	"gameplayer/game"
)

type cell uint8

const (
	empty cell = iota
	cross      // Alice's mark
	nought     // Bob's mark
)

// Zobrist keys for fingerprinting: one key per (square, mark) pair plus a
// side-to-move key. A fixed seed keeps fingerprints stable across runs.
var (
	zobrist [9][2]uint64
	turnKey uint64
)

func init() {
	rng := rand.New(rand.NewSource(0x7C3))
	for square := range zobrist {
		zobrist[square][0] = rng.Uint64()
		zobrist[square][1] = rng.Uint64()
	}
	turnKey = rng.Uint64()
}

var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, // rows
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8}, // columns
	{0, 4, 8}, {2, 4, 6}, // diagonals
}

// State is an immutable tic-tac-toe position.
type State struct {
	board  [9]cell
	player game.PlayerID
}

// New returns the empty board with Alice to move.
func New() State {
	return State{player: game.Alice}
}

// Fingerprint is the xor of the occupied squares' zobrist keys and the
// side-to-move key, so transpositions reached by different move orders
// collide as intended.
func (s State) Fingerprint() game.Fingerprint {
	h := uint64(0)
	for square, c := range s.board {
		switch c {
		case cross:
			h ^= zobrist[square][0]
		case nought:
			h ^= zobrist[square][1]
		}
	}
	if s.player == game.Bob {
		h ^= turnKey
	}
	return game.Fingerprint(h)
}

func (s State) Player() game.PlayerID {
	return s.player
}

// Winner returns the player holding a completed line, if any.
func (s State) Winner() (game.PlayerID, bool) {
	for _, line := range lines {
		c := s.board[line[0]]
		if c != empty && c == s.board[line[1]] && c == s.board[line[2]] {
			if c == cross {
				return game.Alice, true
			}
			return game.Bob, true
		}
	}
	return 0, false
}

// Play marks the given square for the player to move and flips the turn.
// Panics if the square is occupied.
func (s State) Play(square int) State {
	if s.board[square] != empty {
		panic("tictactoe: square is occupied")
	}
	next := s
	next.board[square] = mark(s.player)
	next.player = s.player.Other()
	return next
}

func mark(p game.PlayerID) cell {
	if p == game.Alice {
		return cross
	}
	return nought
}

// Responses enumerates the successor states of a position, one per empty
// square, scanning squares in board order. A decided game has no
// responses.
func Responses(state game.State, depth int) []game.State {
	s := state.(State)
	if _, over := s.Winner(); over {
		return nil
	}

	var responses []game.State
	for square, c := range s.board {
		if c == empty {
			responses = append(responses, s.Play(square))
		}
	}
	return responses
}

// Evaluator scores positions by line potential: a line holding only one
// player's marks is worth 1 per single mark and 10 per pair, and a
// completed line is a win.
type Evaluator struct{}

const winValue = 100.0

func (Evaluator) Evaluate(state game.State) float64 {
	s := state.(State)
	score := 0.0
	for _, line := range lines {
		crosses, noughts := 0, 0
		for _, square := range line {
			switch s.board[square] {
			case cross:
				crosses++
			case nought:
				noughts++
			}
		}
		switch {
		case crosses == 3:
			return winValue
		case noughts == 3:
			return -winValue
		case noughts == 0:
			score += lineScore(crosses)
		case crosses == 0:
			score -= lineScore(noughts)
		}
	}
	return score
}

func lineScore(marks int) float64 {
	switch marks {
	case 1:
		return 1
	case 2:
		return 10
	}
	return 0
}

func (Evaluator) WinValue(p game.PlayerID) float64 {
	if p == game.Alice {
		return winValue
	}
	return -winValue
}

func (s State) String() string {
	var b strings.Builder
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			switch s.board[3*row+col] {
			case cross:
				b.WriteByte('X')
			case nought:
				b.WriteByte('O')
			default:
				b.WriteByte('.')
			}
		}
		if row < 2 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
