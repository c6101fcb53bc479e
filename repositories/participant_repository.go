package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hackdayhq/hackathon-system/models"
	"github.com/hackdayhq/hackathon-system/store"
)

// ParticipantRepository persists participant documents, which are physically
// partitioned by team id. Lookups that do not know the team go through
// cross-partition queries.
type ParticipantRepository interface {
	Create(ctx context.Context, p *models.Participant) (*models.Participant, error)
	GetByIdentity(ctx context.Context, externalIdentity string) (*models.Participant, error)
	GetByAlias(ctx context.Context, alias string) (*models.Participant, error)
	List(ctx context.Context) ([]*models.Participant, error)
	// Relocate moves the participant document into the partition of its
	// (already updated) TeamID. fromTeamID is the caller's belief about the
	// current partition; the store falls back to a scan when it is stale.
	Relocate(ctx context.Context, p *models.Participant, fromTeamID string) (*models.Participant, error)
	// ClaimIdentity reserves an identity for one registration; a second
	// claim returns store.ErrAlreadyExists.
	ClaimIdentity(ctx context.Context, externalIdentity string) error
	// ReleaseIdentity frees a claim after a failed registration. Releasing
	// an unclaimed identity is a no-op.
	ReleaseIdentity(ctx context.Context, externalIdentity string) error
}

type participantRepository struct {
	store store.DocumentStore
}

func NewParticipantRepository(s store.DocumentStore) ParticipantRepository {
	return &participantRepository{store: s}
}

func (r *participantRepository) Create(ctx context.Context, p *models.Participant) (*models.Participant, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal participant %s: %w", p.ID, err)
	}
	doc, err := r.store.Create(ctx, store.Participants, store.Doc{
		ID:           p.ID,
		PartitionKey: p.TeamID,
		Data:         data,
	})
	if err != nil {
		return nil, err
	}
	created := *p
	created.Version = doc.Version
	return &created, nil
}

func (r *participantRepository) GetByIdentity(ctx context.Context, externalIdentity string) (*models.Participant, error) {
	return r.queryOne(ctx, map[string]string{"external_identity": externalIdentity})
}

func (r *participantRepository) GetByAlias(ctx context.Context, alias string) (*models.Participant, error) {
	return r.queryOne(ctx, map[string]string{"alias": alias})
}

func (r *participantRepository) List(ctx context.Context) ([]*models.Participant, error) {
	docs, err := r.store.Query(ctx, store.Participants, store.Filter{})
	if err != nil {
		return nil, err
	}
	out := make([]*models.Participant, 0, len(docs))
	for i := range docs {
		p, err := decodeParticipant(&docs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceNumber < out[j].SequenceNumber })
	return out, nil
}

func (r *participantRepository) Relocate(ctx context.Context, p *models.Participant, fromTeamID string) (*models.Participant, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal participant %s: %w", p.ID, err)
	}
	doc, err := r.store.Relocate(ctx, store.Participants, p.ID, fromTeamID, p.TeamID, data)
	if err != nil {
		return nil, err
	}
	moved := *p
	moved.Version = doc.Version
	return &moved, nil
}

func (r *participantRepository) ClaimIdentity(ctx context.Context, externalIdentity string) error {
	data, err := json.Marshal(models.IdentityClaim{
		Identity:  externalIdentity,
		ClaimedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal identity claim: %w", err)
	}
	_, err = r.store.Create(ctx, store.Identities, store.Doc{
		ID:           externalIdentity,
		PartitionKey: externalIdentity,
		Data:         data,
	})
	return err
}

func (r *participantRepository) ReleaseIdentity(ctx context.Context, externalIdentity string) error {
	err := r.store.Delete(ctx, store.Identities, externalIdentity, externalIdentity)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

func (r *participantRepository) queryOne(ctx context.Context, equals map[string]string) (*models.Participant, error) {
	docs, err := r.store.Query(ctx, store.Participants, store.Filter{Equals: equals})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: participant matching %v", store.ErrNotFound, equals)
	}
	return decodeParticipant(&docs[0])
}

func decodeParticipant(doc *store.Doc) (*models.Participant, error) {
	var p models.Participant
	if err := json.Unmarshal(doc.Data, &p); err != nil {
		return nil, fmt.Errorf("decode participant document %s: %w", doc.ID, err)
	}
	p.Version = doc.Version
	return &p, nil
}
