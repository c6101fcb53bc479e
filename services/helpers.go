package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/hackdayhq/hackathon-system/models"
	"github.com/hackdayhq/hackathon-system/repositories"
	"github.com/hackdayhq/hackathon-system/store"
)

// rosterUpdateMaxAttempts bounds version-conflict retries on a single team
// roster document.
const rosterUpdateMaxAttempts = 3

// addAliasToRoster appends alias to the team's member list with bounded
// optimistic-concurrency retries. Adding an alias that is already present is
// a no-op, which keeps retries idempotent.
func addAliasToRoster(ctx context.Context, teams repositories.TeamRepository, teamID, alias string) error {
	return updateRoster(ctx, teams, teamID, func(team *models.Team) bool {
		if team.HasMember(alias) {
			return false
		}
		team.MemberAliases = append(team.MemberAliases, alias)
		return true
	})
}

// removeAliasFromRoster removes alias from the team's member list with the
// same retry semantics.
func removeAliasFromRoster(ctx context.Context, teams repositories.TeamRepository, teamID, alias string) error {
	return updateRoster(ctx, teams, teamID, func(team *models.Team) bool {
		for i, a := range team.MemberAliases {
			if a == alias {
				team.MemberAliases = append(team.MemberAliases[:i], team.MemberAliases[i+1:]...)
				return true
			}
		}
		return false
	})
}

// replaceRoster swaps a team's member list wholesale (bulk reshuffle).
func replaceRoster(ctx context.Context, teams repositories.TeamRepository, teamID string, aliases []string) error {
	return updateRoster(ctx, teams, teamID, func(team *models.Team) bool {
		if slicesEqual(team.MemberAliases, aliases) {
			return false
		}
		team.MemberAliases = append([]string(nil), aliases...)
		return true
	})
}

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func updateRoster(ctx context.Context, teams repositories.TeamRepository, teamID string, mutate func(*models.Team) bool) error {
	for attempt := 1; attempt <= rosterUpdateMaxAttempts; attempt++ {
		team, err := teams.Get(ctx, teamID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTeamNotFound
			}
			return fmt.Errorf("%w: read team %s: %v", ErrStoreUnavailable, teamID, err)
		}
		if !mutate(team) {
			return nil // already in the desired state
		}
		if _, err := teams.Replace(ctx, team); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				continue
			}
			return fmt.Errorf("%w: update team %s roster: %v", ErrStoreUnavailable, teamID, err)
		}
		return nil
	}
	return fmt.Errorf("%w: team %s roster", ErrConflictRetryExceeded, teamID)
}
