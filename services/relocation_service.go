package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/hackdayhq/hackathon-system/live"
	"github.com/hackdayhq/hackathon-system/models"
	"github.com/hackdayhq/hackathon-system/repositories"
	"github.com/hackdayhq/hackathon-system/store"
)

// ReshuffleSummary reports the outcome of a bulk redistribution. Bulk
// relocation is resilient per participant: one corrupt record lands in
// Failed instead of aborting the run.
type ReshuffleSummary struct {
	Moved     int      `json:"moved"`
	Unchanged int      `json:"unchanged"`
	Skipped   []string `json:"skipped,omitempty"` // participant ids with no derivable alias
	Failed    []string `json:"failed,omitempty"`  // aliases whose relocation failed
}

type RelocationService interface {
	// Move relocates one participant to the given team. Moving to the
	// current team is a no-op success with zero store writes.
	Move(ctx context.Context, alias, toTeamID string) error
	// BulkReshuffle redistributes all participants evenly across all teams.
	BulkReshuffle(ctx context.Context) (*ReshuffleSummary, error)
}

type relocationService struct {
	participants repositories.ParticipantRepository
	teams        repositories.TeamRepository
	balancer     *Balancer
	hub          *live.Hub
	logger       *slog.Logger
}

func NewRelocationService(
	participants repositories.ParticipantRepository,
	teams repositories.TeamRepository,
	balancer *Balancer,
	hub *live.Hub,
	logger *slog.Logger,
) RelocationService {
	return &relocationService{
		participants: participants,
		teams:        teams,
		balancer:     balancer,
		hub:          hub,
		logger:       logger,
	}
}

func (s *relocationService) Move(ctx context.Context, alias, toTeamID string) error {
	alias = strings.TrimSpace(alias)
	if alias == "" || strings.TrimSpace(toTeamID) == "" {
		return fmt.Errorf("%w: alias and target team are required", ErrValidationFailed)
	}

	participant, err := s.participants.GetByAlias(ctx, alias)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrParticipantNotFound
		}
		return fmt.Errorf("%w: lookup participant: %v", ErrStoreUnavailable, err)
	}

	toTeam, err := s.teams.Get(ctx, toTeamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("%w: read team %s: %v", ErrStoreUnavailable, toTeamID, err)
	}

	if participant.TeamID == toTeam.ID {
		return nil
	}

	if err := s.relocate(ctx, participant, toTeam); err != nil {
		return err
	}
	s.hub.Broadcast(live.EventParticipantMoved, participant)
	return nil
}

// relocate moves the participant document between partitions, then fixes up
// both denormalized rosters. The document move is the source-of-truth write;
// roster fixups that fail afterwards are logged as partial inconsistencies,
// not surfaced, because the participant's own record is already correct.
func (s *relocationService) relocate(ctx context.Context, participant *models.Participant, toTeam *models.Team) error {
	fromTeamID := participant.TeamID
	participant.TeamID = toTeam.ID
	participant.TeamName = toTeam.Name

	moved, err := s.participants.Relocate(ctx, participant, fromTeamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrParticipantNotFound
		}
		return fmt.Errorf("%w: relocate participant %s: %v", ErrStoreUnavailable, participant.Alias, err)
	}
	*participant = *moved
	s.logger.Info("participant relocated",
		slog.String("alias", participant.Alias),
		slog.String("from_team", fromTeamID),
		slog.String("to_team", toTeam.ID))

	// The believed source team can itself be stale, so sweep the alias out
	// of every roster except the destination's.
	teams, err := s.teams.List(ctx)
	if err != nil {
		s.logger.Warn("partial inconsistency: source rosters not swept after relocation",
			slog.String("alias", participant.Alias),
			slog.Any("error", err))
	} else {
		for _, team := range teams {
			if team.ID == toTeam.ID || !team.HasMember(participant.Alias) {
				continue
			}
			if err := removeAliasFromRoster(ctx, s.teams, team.ID, participant.Alias); err != nil {
				s.logger.Warn("partial inconsistency: source roster not updated after relocation",
					slog.String("alias", participant.Alias),
					slog.String("team_id", team.ID),
					slog.Any("error", err))
			}
		}
	}
	if err := addAliasToRoster(ctx, s.teams, toTeam.ID, participant.Alias); err != nil {
		s.logger.Warn("partial inconsistency: destination roster not updated after relocation",
			slog.String("alias", participant.Alias),
			slog.String("team_id", toTeam.ID),
			slog.Any("error", err))
	}
	return nil
}

func (s *relocationService) BulkReshuffle(ctx context.Context) (*ReshuffleSummary, error) {
	participants, err := s.participants.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list participants: %v", ErrStoreUnavailable, err)
	}
	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list teams: %v", ErrStoreUnavailable, err)
	}
	if len(participants) == 0 {
		return nil, fmt.Errorf("%w: no participants to reshuffle", ErrValidationFailed)
	}
	if len(teams) == 0 {
		return nil, fmt.Errorf("%w: no teams to reshuffle into", ErrValidationFailed)
	}

	shuffle, err := s.balancer.ShuffleAssign(participants, teams)
	if err != nil {
		return nil, err
	}

	summary := &ReshuffleSummary{Skipped: shuffle.Skipped}
	byID := make(map[string]*models.Participant, len(participants))
	for _, p := range participants {
		byID[p.ID] = p
	}

	// Rewrite every roster wholesale first so the denormalized view reflects
	// the computed assignment even while individual documents still move.
	rosters := make(map[string][]string, len(teams))
	for _, team := range teams {
		rosters[team.ID] = []string{}
	}
	for id, team := range shuffle.Assignments {
		rosters[team.ID] = append(rosters[team.ID], byID[id].Alias)
	}
	for _, team := range teams {
		sort.Strings(rosters[team.ID])
		if err := replaceRoster(ctx, s.teams, team.ID, rosters[team.ID]); err != nil {
			s.logger.Warn("partial inconsistency: roster rewrite failed during reshuffle",
				slog.String("team_id", team.ID),
				slog.Any("error", err))
		}
	}

	for id, team := range shuffle.Assignments {
		participant := byID[id]
		if participant.TeamID == team.ID {
			summary.Unchanged++
			continue
		}
		fromTeamID := participant.TeamID
		participant.TeamID = team.ID
		participant.TeamName = team.Name
		if _, err := s.participants.Relocate(ctx, participant, fromTeamID); err != nil {
			// Skip the record, report it, keep going: one corrupt document
			// must not abort the whole redistribution.
			s.logger.Error("reshuffle: participant relocation failed",
				slog.String("alias", participant.Alias),
				slog.String("from_team", fromTeamID),
				slog.String("to_team", team.ID),
				slog.Any("error", err))
			summary.Failed = append(summary.Failed, participant.Alias)
			continue
		}
		summary.Moved++
	}

	s.logger.Info("bulk reshuffle complete",
		slog.Int("moved", summary.Moved),
		slog.Int("unchanged", summary.Unchanged),
		slog.Int("skipped", len(summary.Skipped)),
		slog.Int("failed", len(summary.Failed)))
	s.hub.Broadcast(live.EventRosterReshuffled, summary)
	return summary, nil
}
