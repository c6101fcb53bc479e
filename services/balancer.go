package services

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/hackdayhq/hackathon-system/models"
)

// TeamLoad annotates a team with its live member count for assignment
// decisions.
type TeamLoad struct {
	Team        *models.Team
	MemberCount int
}

// Balancer decides which team a participant lands on. The random source is
// injected so reshuffles are deterministic under test; rand.Rand is not safe
// for concurrent use, so access to it is serialized here (two admin
// reshuffles can overlap).
type Balancer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewBalancer(rng *rand.Rand) *Balancer {
	return &Balancer{rng: rng}
}

// PickLeastLoaded returns the team with the fewest members, ties broken by
// ascending team number. Team balance is a soft-fairness goal: two
// concurrent registrations may both observe the same least-loaded team, and
// that race is accepted rather than serialized.
func (b *Balancer) PickLeastLoaded(teams []TeamLoad) (*models.Team, error) {
	if len(teams) == 0 {
		return nil, ErrNoTeamsAvailable
	}
	best := teams[0]
	for _, candidate := range teams[1:] {
		if candidate.MemberCount < best.MemberCount ||
			(candidate.MemberCount == best.MemberCount && candidate.Team.Number < best.Team.Number) {
			best = candidate
		}
	}
	return best.Team, nil
}

// ShuffleResult maps participant ids to their newly assigned teams.
// Skipped lists the ids of participants excluded from assignment because
// they carry no alias (a data-integrity guard, not a failure).
type ShuffleResult struct {
	Assignments map[string]*models.Team
	Skipped     []string
}

// ShuffleAssign produces an even redistribution of participants across
// teams: a Fisher-Yates permutation of the participants (uniform regardless
// of team count) followed by round-robin assignment modulo team count. Team
// sizes in the result differ by at most one.
func (b *Balancer) ShuffleAssign(participants []*models.Participant, teams []*models.Team) (*ShuffleResult, error) {
	if len(teams) == 0 {
		return nil, ErrNoTeamsAvailable
	}

	assignable := make([]*models.Participant, 0, len(participants))
	result := &ShuffleResult{Assignments: make(map[string]*models.Team, len(participants))}
	for _, p := range participants {
		if p.Alias == "" {
			result.Skipped = append(result.Skipped, p.ID)
			continue
		}
		assignable = append(assignable, p)
	}

	// Stable round-robin target order.
	ordered := append([]*models.Team(nil), teams...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Number < ordered[j].Number })

	b.mu.Lock()
	for i := len(assignable) - 1; i > 0; i-- {
		j := b.rng.Intn(i + 1)
		assignable[i], assignable[j] = assignable[j], assignable[i]
	}
	b.mu.Unlock()
	for i, p := range assignable {
		result.Assignments[p.ID] = ordered[i%len(ordered)]
	}
	return result, nil
}
