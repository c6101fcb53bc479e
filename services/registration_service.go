package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hackdayhq/hackathon-system/live"
	"github.com/hackdayhq/hackathon-system/models"
	"github.com/hackdayhq/hackathon-system/repositories"
	"github.com/hackdayhq/hackathon-system/store"
)

// defaultTeamNames seed the event on the very first registration when no
// admin has created teams yet.
var defaultTeamNames = []string{"Alpha", "Bravo", "Charlie", "Delta"}

// Polling bounds for a caller that lost the identity-claim race and is
// waiting for the winner's participant to become visible.
const (
	claimLookupMaxAttempts = 10
	claimLookupDelay       = 25 * time.Millisecond
)

type RegistrationService interface {
	// Register is idempotent per identity: a repeat call returns the existing
	// participant with isNew=false and performs no writes.
	Register(ctx context.Context, externalIdentity string) (participant *models.Participant, isNew bool, err error)
	GetProfile(ctx context.Context, externalIdentity string) (*models.Participant, error)
}

type registrationService struct {
	participants repositories.ParticipantRepository
	teams        repositories.TeamRepository
	allocator    SequenceAllocator
	balancer     *Balancer
	hub          *live.Hub
	logger       *slog.Logger
}

func NewRegistrationService(
	participants repositories.ParticipantRepository,
	teams repositories.TeamRepository,
	allocator SequenceAllocator,
	balancer *Balancer,
	hub *live.Hub,
	logger *slog.Logger,
) RegistrationService {
	return &registrationService{
		participants: participants,
		teams:        teams,
		allocator:    allocator,
		balancer:     balancer,
		hub:          hub,
		logger:       logger,
	}
}

// Register allocates a hacker number, picks the least-loaded team and
// creates the participant document in that team's partition.
//
// Two concurrent registrations for different identities may both observe the
// same least-loaded team and both land on it. Team balance is soft fairness,
// so that race is accepted instead of serializing registrations behind a
// lock; the per-team ordinal in the alias can skip or collide under heavy
// concurrency.
func (s *registrationService) Register(ctx context.Context, externalIdentity string) (*models.Participant, bool, error) {
	identity := strings.TrimSpace(externalIdentity)
	if identity == "" {
		return nil, false, ErrIdentityRequired
	}

	existing, err := s.participants.GetByIdentity(ctx, identity)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("%w: lookup identity: %v", ErrStoreUnavailable, err)
	}

	// An identity maps to at most one participant ever, and the lookup above
	// is only a fast path: concurrent first registrations all miss it. The
	// identity is claimed with a create in its own collection, so exactly one
	// caller proceeds and the rest wait for the winner's participant.
	if err := s.participants.ClaimIdentity(ctx, identity); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return s.awaitClaimedParticipant(ctx, identity)
		}
		return nil, false, fmt.Errorf("%w: claim identity: %v", ErrStoreUnavailable, err)
	}

	participant, err := s.completeRegistration(ctx, identity)
	if err != nil {
		// Free the claim so the identity can try again.
		if releaseErr := s.participants.ReleaseIdentity(ctx, identity); releaseErr != nil {
			s.logger.Warn("failed to release identity claim after registration failure",
				slog.String("identity", identity),
				slog.Any("error", releaseErr))
		}
		return nil, false, err
	}
	return participant, true, nil
}

func (s *registrationService) completeRegistration(ctx context.Context, identity string) (*models.Participant, error) {
	teams, err := s.ensureTeams(ctx)
	if err != nil {
		return nil, err
	}

	sequence, err := s.allocator.Allocate(ctx)
	if err != nil {
		return nil, err
	}

	loads := make([]TeamLoad, len(teams))
	for i, team := range teams {
		loads[i] = TeamLoad{Team: team, MemberCount: len(team.MemberAliases)}
	}
	team, err := s.balancer.PickLeastLoaded(loads)
	if err != nil {
		return nil, err
	}

	ordinal := len(team.MemberAliases) + 1
	participant := &models.Participant{
		ID:               fmt.Sprintf("hacker-%d", sequence),
		Alias:            fmt.Sprintf("%s-Hacker%d", team.Name, ordinal),
		SequenceNumber:   sequence,
		TeamID:           team.ID,
		TeamName:         team.Name,
		ExternalIdentity: identity,
		RegisteredAt:     time.Now().UTC(),
	}

	created, err := s.participants.Create(ctx, participant)
	if err != nil {
		return nil, fmt.Errorf("%w: create participant: %v", ErrStoreUnavailable, err)
	}
	s.logger.Info("participant registered",
		slog.String("alias", created.Alias),
		slog.Int("sequence", created.SequenceNumber),
		slog.String("team", created.TeamName))

	// The participant document is the source of truth; the team roster is a
	// denormalized view. If the roster append fails the registration has
	// still succeeded and the gap is left for operational reconciliation.
	if err := addAliasToRoster(ctx, s.teams, team.ID, created.Alias); err != nil {
		s.logger.Warn("partial inconsistency: roster append failed after participant creation",
			slog.String("alias", created.Alias),
			slog.String("team_id", team.ID),
			slog.Any("error", err))
	}

	s.hub.Broadcast(live.EventParticipantRegistered, created)
	return created, nil
}

// awaitClaimedParticipant resolves a lost identity-claim race. The winner is
// mid-registration, so its participant document may not be visible yet; poll
// briefly before giving up with a retryable error.
func (s *registrationService) awaitClaimedParticipant(ctx context.Context, identity string) (*models.Participant, bool, error) {
	for attempt := 1; attempt <= claimLookupMaxAttempts; attempt++ {
		participant, err := s.participants.GetByIdentity(ctx, identity)
		if err == nil {
			return participant, false, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, false, fmt.Errorf("%w: lookup claimed identity: %v", ErrStoreUnavailable, err)
		}
		select {
		case <-ctx.Done():
			return nil, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, ctx.Err())
		case <-time.After(claimLookupDelay):
		}
	}
	return nil, false, fmt.Errorf("%w: identity %q is claimed but its participant is not yet visible", ErrStoreUnavailable, identity)
}

func (s *registrationService) GetProfile(ctx context.Context, externalIdentity string) (*models.Participant, error) {
	identity := strings.TrimSpace(externalIdentity)
	if identity == "" {
		return nil, ErrIdentityRequired
	}
	participant, err := s.participants.GetByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("%w: lookup identity: %v", ErrStoreUnavailable, err)
	}
	return participant, nil
}

// ensureTeams returns the current team list, seeding the default teams when
// the event has none yet. A seeding race with another registration is
// harmless: AlreadyExists is ignored and the list is re-read.
func (s *registrationService) ensureTeams(ctx context.Context) ([]*models.Team, error) {
	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list teams: %v", ErrStoreUnavailable, err)
	}
	if len(teams) > 0 {
		return teams, nil
	}

	for i, name := range defaultTeamNames {
		team := &models.Team{
			ID:            fmt.Sprintf("team-%d", i+1),
			Name:          name,
			Number:        i + 1,
			MemberAliases: []string{},
			CreatedAt:     time.Now().UTC(),
		}
		if _, err := s.teams.Create(ctx, team); err != nil && !errors.Is(err, store.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: seed team %s: %v", ErrStoreUnavailable, team.ID, err)
		}
	}
	s.logger.Info("seeded default teams", slog.Int("count", len(defaultTeamNames)))

	teams, err = s.teams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list teams after seeding: %v", ErrStoreUnavailable, err)
	}
	if len(teams) == 0 {
		return nil, ErrNoTeamsAvailable
	}
	return teams, nil
}
