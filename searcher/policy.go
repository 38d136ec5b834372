package searcher

import "math"

// Rewards are kept in [-1, 1] regardless of the evaluator's scale.
const (
	Win  = 1.0  // reward for a winning outcome
	Loss = -Win // reward for a losing outcome, and the virtual loss
)

type uct struct {
	numerator float64
}

func newUCT(cSquared float64, n float64) uct {
	if n == 0 {
		panic("searcher: cannot compute UCT with 0 parent visits")
	}
	return uct{numerator: cSquared * math.Log(n)}
}

func (u uct) evaluate(q float64, n float64) float64 {
	if n == 0 {
		panic("searcher: cannot compute UCT with 0 child visits")
	}
	// UCT = q/n + sqrt(c^2*ln(N)/n)
	return q/n + math.Sqrt(u.numerator/n)
}
