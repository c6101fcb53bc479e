package services

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/hackdayhq/hackathon-system/models"
	"github.com/stretchr/testify/require"
)

func TestPickLeastLoaded(t *testing.T) {
	balancer := NewBalancer(rand.New(rand.NewSource(1)))

	t.Run("picks the team with the fewest members", func(t *testing.T) {
		team, err := balancer.PickLeastLoaded([]TeamLoad{
			{Team: &models.Team{ID: "team-1", Number: 1}, MemberCount: 3},
			{Team: &models.Team{ID: "team-2", Number: 2}, MemberCount: 1},
			{Team: &models.Team{ID: "team-3", Number: 3}, MemberCount: 2},
		})
		require.NoError(t, err)
		require.Equal(t, "team-2", team.ID)
	})

	t.Run("ties break by ascending team number", func(t *testing.T) {
		team, err := balancer.PickLeastLoaded([]TeamLoad{
			{Team: &models.Team{ID: "team-3", Number: 3}, MemberCount: 2},
			{Team: &models.Team{ID: "team-1", Number: 1}, MemberCount: 2},
			{Team: &models.Team{ID: "team-2", Number: 2}, MemberCount: 2},
		})
		require.NoError(t, err)
		require.Equal(t, "team-1", team.ID)
	})

	t.Run("empty input is a programming error", func(t *testing.T) {
		_, err := balancer.PickLeastLoaded(nil)
		require.ErrorIs(t, err, ErrNoTeamsAvailable)
	})
}

func TestShuffleAssign(t *testing.T) {
	makeParticipants := func(n int) []*models.Participant {
		out := make([]*models.Participant, n)
		for i := range out {
			out[i] = &models.Participant{
				ID:    fmt.Sprintf("hacker-%d", i+1),
				Alias: fmt.Sprintf("Alpha-Hacker%d", i+1),
			}
		}
		return out
	}
	teams := []*models.Team{
		{ID: "team-2", Name: "Bravo", Number: 2},
		{ID: "team-1", Name: "Alpha", Number: 1},
		{ID: "team-3", Name: "Charlie", Number: 3},
	}

	t.Run("team sizes differ by at most one", func(t *testing.T) {
		balancer := NewBalancer(rand.New(rand.NewSource(42)))
		result, err := balancer.ShuffleAssign(makeParticipants(10), teams)
		require.NoError(t, err)
		require.Len(t, result.Assignments, 10)

		sizes := make(map[string]int)
		for _, team := range result.Assignments {
			sizes[team.ID]++
		}
		min, max := 10, 0
		for _, team := range teams {
			if sizes[team.ID] < min {
				min = sizes[team.ID]
			}
			if sizes[team.ID] > max {
				max = sizes[team.ID]
			}
		}
		require.LessOrEqual(t, max-min, 1)
	})

	t.Run("deterministic under a fixed seed", func(t *testing.T) {
		first, err := NewBalancer(rand.New(rand.NewSource(7))).ShuffleAssign(makeParticipants(9), teams)
		require.NoError(t, err)
		second, err := NewBalancer(rand.New(rand.NewSource(7))).ShuffleAssign(makeParticipants(9), teams)
		require.NoError(t, err)

		require.Equal(t, len(first.Assignments), len(second.Assignments))
		for id, team := range first.Assignments {
			require.Equal(t, team.ID, second.Assignments[id].ID)
		}
	})

	t.Run("participants without an alias are skipped and reported", func(t *testing.T) {
		participants := makeParticipants(4)
		participants[2].Alias = ""

		balancer := NewBalancer(rand.New(rand.NewSource(3)))
		result, err := balancer.ShuffleAssign(participants, teams)
		require.NoError(t, err)
		require.Len(t, result.Assignments, 3)
		require.Equal(t, []string{"hacker-3"}, result.Skipped)
		require.NotContains(t, result.Assignments, "hacker-3")
	})

	t.Run("no teams is an error", func(t *testing.T) {
		balancer := NewBalancer(rand.New(rand.NewSource(3)))
		_, err := balancer.ShuffleAssign(makeParticipants(2), nil)
		require.ErrorIs(t, err, ErrNoTeamsAvailable)
	})

	// One balancer is shared by the registration and relocation services, and
	// overlapping admin reshuffles drive it from separate goroutines.
	t.Run("concurrent shuffles on one balancer stay valid", func(t *testing.T) {
		balancer := NewBalancer(rand.New(rand.NewSource(11)))

		const shuffles = 8
		results := make([]*ShuffleResult, shuffles)
		errs := make([]error, shuffles)
		var wg sync.WaitGroup
		for i := 0; i < shuffles; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = balancer.ShuffleAssign(makeParticipants(30), teams)
			}(i)
		}
		wg.Wait()

		for i := 0; i < shuffles; i++ {
			require.NoError(t, errs[i])
			require.Len(t, results[i].Assignments, 30)
			sizes := make(map[string]int)
			for _, team := range results[i].Assignments {
				sizes[team.ID]++
			}
			for _, team := range teams {
				require.Equal(t, 10, sizes[team.ID])
			}
		}
	})
}
