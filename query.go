package bandit

import (
	"github.com/abemo/causalquestioning/cpt"
	"github.com/abemo/causalquestioning/graph"
	"github.com/abemo/causalquestioning/scm"
)

// RewardQuery estimates E[reward | do(action), context] from a count
// table over a reduced parent set: the action variable plus every
// ancestor of the action that is not d-separated from the reward given
// the action.
type RewardQuery struct {
	action  string
	reward  string
	domain  []int
	parents []string
}

// NewRewardQuery builds the reduced parent set for reward in g.
func NewRewardQuery(g *graph.DAG, action, reward string, rewardDomain []int) (*RewardQuery, error) {
	if !g.Has(reward) {
		return nil, &graph.UnknownNodeError{Node: reward}
	}

	ancestors, err := g.Ancestors(action)
	if err != nil {
		return nil, err
	}

	parents := graph.NewSet(action)
	for a := range ancestors {
		sep, err := g.IsDSeparated(a, reward, []string{action})
		if err != nil {
			return nil, err
		}
		if !sep {
			parents.Add(a)
		}
	}

	return &RewardQuery{
		action:  action,
		reward:  reward,
		domain:  append([]int(nil), rewardDomain...),
		parents: parents.Sorted(),
	}, nil
}

// Parents returns the reduced parent set, sorted.
func (q *RewardQuery) Parents() []string {
	return append([]string(nil), q.parents...)
}

// Table returns an empty count table shaped for this query.
func (q *RewardQuery) Table() *cpt.Table {
	return cpt.NewTable(q.reward, q.parents, q.domain)
}

// ExpectedReward returns the sum over reward values y of y times the
// estimated P(y | givens). Query parents not assigned by givens are
// summed over. A value whose conditional has no supporting observation
// contributes zero.
func (q *RewardQuery) ExpectedReward(givens scm.Assignment, table *cpt.Table) float64 {
	givens = givens.Project(q.parents)

	var ev float64
	for _, y := range q.domain {
		p, ok := table.Prob(y, givens)
		if !ok {
			continue
		}
		ev += float64(y) * p
	}

	return ev
}
