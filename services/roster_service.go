package services

import (
	"context"
	"fmt"

	"github.com/hackdayhq/hackathon-system/models"
	"github.com/hackdayhq/hackathon-system/repositories"
	"golang.org/x/sync/errgroup"
)

// RosterService assembles the dashboard view of the event.
type RosterService interface {
	Overview(ctx context.Context) (*models.RosterOverview, error)
}

type rosterService struct {
	teams        repositories.TeamRepository
	participants repositories.ParticipantRepository
}

func NewRosterService(teams repositories.TeamRepository, participants repositories.ParticipantRepository) RosterService {
	return &rosterService{teams: teams, participants: participants}
}

// Overview fetches teams and participants concurrently and reports team
// sizes from the participant documents (the source of truth), with the
// denormalized roster shown as the member list.
func (s *rosterService) Overview(ctx context.Context) (*models.RosterOverview, error) {
	var (
		teams        []*models.Team
		participants []*models.Participant
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		teams, err = s.teams.List(gCtx)
		if err != nil {
			return fmt.Errorf("fetch teams: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		participants, err = s.participants.List(gCtx)
		if err != nil {
			return fmt.Errorf("fetch participants: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	sizes := make(map[string]int, len(teams))
	for _, p := range participants {
		sizes[p.TeamID]++
	}

	overview := &models.RosterOverview{
		Teams:             make([]models.TeamSummary, 0, len(teams)),
		TotalParticipants: len(participants),
	}
	for _, team := range teams {
		overview.Teams = append(overview.Teams, models.TeamSummary{
			ID:          team.ID,
			Name:        team.Name,
			Number:      team.Number,
			MemberCount: sizes[team.ID],
			Members:     append([]string(nil), team.MemberAliases...),
			BadgeURL:    team.BadgeURL,
		})
	}
	return overview, nil
}
