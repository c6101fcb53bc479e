package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hackdayhq/hackathon-system/live"
	"github.com/hackdayhq/hackathon-system/models"
	"github.com/hackdayhq/hackathon-system/repositories"
	"github.com/hackdayhq/hackathon-system/storage"
	"github.com/hackdayhq/hackathon-system/store"
)

type TeamService interface {
	List(ctx context.Context) ([]*models.Team, error)
	Create(ctx context.Context, name string) (*models.Team, error)
	// Delete refuses to remove a team that still has members.
	Delete(ctx context.Context, teamID string) error
	UploadBadge(ctx context.Context, teamID, contentType string, badge io.Reader) (*models.Team, error)
}

type teamService struct {
	teams    repositories.TeamRepository
	uploader storage.FileUploader // nil when badge storage is not configured
	hub      *live.Hub
	logger   *slog.Logger
}

func NewTeamService(teams repositories.TeamRepository, uploader storage.FileUploader, hub *live.Hub, logger *slog.Logger) TeamService {
	return &teamService{teams: teams, uploader: uploader, hub: hub, logger: logger}
}

func (s *teamService) List(ctx context.Context) ([]*models.Team, error) {
	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list teams: %v", ErrStoreUnavailable, err)
	}
	return teams, nil
}

func (s *teamService) Create(ctx context.Context, name string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	existing, err := s.teams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list teams: %v", ErrStoreUnavailable, err)
	}
	number := 0
	for _, t := range existing {
		if t.Number > number {
			number = t.Number
		}
	}

	// A racing admin may claim the same number; step past it and retry.
	for attempt := 0; attempt < 3; attempt++ {
		number++
		team := &models.Team{
			ID:            fmt.Sprintf("team-%d", number),
			Name:          name,
			Number:        number,
			MemberAliases: []string{},
			CreatedAt:     time.Now().UTC(),
		}
		created, err := s.teams.Create(ctx, team)
		if err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				continue
			}
			return nil, fmt.Errorf("%w: create team: %v", ErrStoreUnavailable, err)
		}
		s.logger.Info("team created", slog.String("team_id", created.ID), slog.String("name", created.Name))
		s.hub.Broadcast(live.EventTeamCreated, created)
		return created, nil
	}
	return nil, fmt.Errorf("%w: team number contention", ErrConflictRetryExceeded)
}

func (s *teamService) Delete(ctx context.Context, teamID string) error {
	team, err := s.teams.Get(ctx, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("%w: read team %s: %v", ErrStoreUnavailable, teamID, err)
	}
	if len(team.MemberAliases) > 0 {
		return ErrTeamNotEmpty
	}
	if err := s.teams.Delete(ctx, teamID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("%w: delete team %s: %v", ErrStoreUnavailable, teamID, err)
	}
	if s.uploader != nil && team.BadgeKey != "" {
		if err := s.uploader.Delete(ctx, team.BadgeKey); err != nil {
			s.logger.Warn("failed to delete team badge from storage",
				slog.String("team_id", teamID), slog.Any("error", err))
		}
	}
	s.logger.Info("team deleted", slog.String("team_id", teamID))
	s.hub.Broadcast(live.EventTeamDeleted, map[string]string{"id": teamID})
	return nil
}

func (s *teamService) UploadBadge(ctx context.Context, teamID, contentType string, badge io.Reader) (*models.Team, error) {
	if s.uploader == nil {
		return nil, ErrBadgeStorageDisabled
	}

	key := fmt.Sprintf("badges/%s", teamID)
	result, err := s.uploader.Upload(ctx, key, contentType, badge)
	if err != nil {
		return nil, fmt.Errorf("upload badge for team %s: %w", teamID, err)
	}

	for attempt := 1; attempt <= rosterUpdateMaxAttempts; attempt++ {
		team, err := s.teams.Get(ctx, teamID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrTeamNotFound
			}
			return nil, fmt.Errorf("%w: read team %s: %v", ErrStoreUnavailable, teamID, err)
		}
		team.BadgeKey = result.Key
		team.BadgeURL = result.Location
		updated, err := s.teams.Replace(ctx, team)
		if err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				continue
			}
			return nil, fmt.Errorf("%w: update team %s: %v", ErrStoreUnavailable, teamID, err)
		}
		s.hub.Broadcast(live.EventTeamUpdated, updated)
		return updated, nil
	}
	return nil, fmt.Errorf("%w: team %s badge", ErrConflictRetryExceeded, teamID)
}
