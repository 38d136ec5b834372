package searcher

import (
	"math"
	"sync"

	"gameplayer/game"
)

// node is one state in the statistics tree. Rewards are accumulated from
// the perspective of the player to move at the node's parent (the player
// who chose the edge into this node), so selection at any node maximizes
// plain average reward. Nodes are created on first visit and never deleted
// during a search.
type node struct {
	sync.RWMutex
	parent      *node
	state       game.State
	player      game.PlayerID // player to move at this state
	perspective game.PlayerID // player whose choice led here
	untried     []game.State  // successors not yet materialized as children
	children    []*node
	rewards     float64
	visits      float64
}

// terminal reports whether the node has no successors at all.
func (n *node) terminal() bool {
	n.RLock()
	defer n.RUnlock()
	return len(n.untried) == 0 && len(n.children) == 0
}

// applyLoss charges a virtual loss so concurrent descents spread across
// the tree instead of piling onto one path. Reversed during backup.
func (n *node) applyLoss() {
	n.Lock()
	defer n.Unlock()
	n.rewards += Loss
	n.visits++
}

func (n *node) reverseLoss() {
	n.rewards -= Loss
	n.visits--
}

// backup records one simulation outcome. value is from Alice's
// perspective, normalized to [-1, 1].
func (n *node) backup(value float64) {
	n.Lock()
	defer n.Unlock()

	if n.parent != nil { // non-root nodes carry a virtual loss
		n.reverseLoss()
	}
	n.rewards += n.reward(value)
	n.visits++
}

// reward flips the sign of a normalized Alice-perspective value so it is
// measured from this node's perspective player.
func (n *node) reward(value float64) float64 {
	if n.perspective == game.Alice {
		return value
	}
	return -value
}

func (n *node) score(policy uct) float64 {
	n.RLock()
	defer n.RUnlock()
	return policy.evaluate(n.rewards, n.visits)
}

func (n *node) stats() (visits, rewards float64) {
	n.RLock()
	defer n.RUnlock()
	return n.visits, n.rewards
}

// bestChild is the final decision: the most visited child, ties broken by
// highest average reward, then by generator order (first seen wins).
func (n *node) bestChild() *node {
	n.RLock()
	defer n.RUnlock()

	if len(n.children) == 0 {
		panic("searcher: node has no children")
	}

	best := n.children[0]
	bestVisits, bestRewards := best.stats()
	for _, child := range n.children[1:] {
		visits, rewards := child.stats()
		if visits < bestVisits {
			continue
		}
		if visits > bestVisits || rewards/visits > bestRewards/bestVisits {
			best, bestVisits, bestRewards = child, visits, rewards
		}
	}
	return best
}

// pickChild selects the child maximizing the UCT score. Only called on
// fully expanded nodes, so every child has at least one visit.
func (n *node) pickChild(cSquared float64) *node {
	if n.visits == 0 {
		panic("searcher: node has children but no visits")
	}

	policy := newUCT(cSquared, n.visits)
	var best *node
	bestScore := math.Inf(-1)
	for _, child := range n.children {
		score := child.score(policy)
		if score > bestScore {
			best = child
			bestScore = score
		}
	}
	return best
}
