package game

import "errors"

// ErrNoResponses is returned by a search when the player to move has no
// responses to the given state. It marks a defined terminal condition,
// not a failure: the caller decides how to score or end the game.
var ErrNoResponses = errors.New("game: no responses to state")

// PlayerID identifies one of the two players. The numeric values (0 and 1)
// can be used for array indexing.
type PlayerID uint8

const (
	Alice PlayerID = 0
	Bob   PlayerID = 1
)

// Other returns the opposing player.
func (p PlayerID) Other() PlayerID {
	if p == Alice {
		return Bob
	}
	return Alice
}

// Prefers reports whether value a is better than value b from p's
// perspective. Values are always expressed from Alice's perspective:
// Alice maximizes and Bob minimizes. Both search engines compare values
// through this one function so the perspective flip lives in one place.
func (p PlayerID) Prefers(a, b float64) bool {
	if p == Alice {
		return a > b
	}
	return a < b
}

func (p PlayerID) String() string {
	if p == Alice {
		return "alice"
	}
	return "bob"
}

// Fingerprint is a compact identity for a game state, used as the key for
// transposition tables and duplicate position detection. Identical
// positions must always produce identical fingerprints, regardless of the
// move order used to reach them.
type Fingerprint uint64

// State is the interface a game-specific state must implement for the
// search engines. State should be immutable - the engines never modify a
// state, they only read its identity and turn.
type State interface {
	// Fingerprint returns the state's 64-bit fingerprint. It must be
	// deterministic and depend only on the position, not on move history.
	Fingerprint() Fingerprint
	// Player returns the player to move.
	Player() PlayerID
}

// ResponseGenerator enumerates all possible responses to a state, in the
// order they should be tried. The engines iterate in generator order and
// never reorder, so any move-ordering heuristics belong here. Returning
// no responses means the player cannot respond; it is not an error. The
// depth argument is the current ply, letting a generator tailor its output
// to how deep the search is.
type ResponseGenerator func(state State, depth int) []State

// Evaluator assigns a value to a state without lookahead. Values are from
// Alice's perspective and must lie in [WinValue(Bob), WinValue(Alice)].
// A terminal state that Alice has won must evaluate to WinValue(Alice),
// and one that Bob has won to WinValue(Bob).
type Evaluator interface {
	Evaluate(s State) float64
	// WinValue returns the value meaning p has won: the maximum value for
	// Alice, the minimum for Bob.
	WinValue(p PlayerID) float64
}
