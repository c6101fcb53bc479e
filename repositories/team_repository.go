package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hackdayhq/hackathon-system/models"
	"github.com/hackdayhq/hackathon-system/store"
)

// TeamRepository persists team documents. Each team is its own partition
// (partition key = team id).
type TeamRepository interface {
	List(ctx context.Context) ([]*models.Team, error)
	Get(ctx context.Context, teamID string) (*models.Team, error)
	Create(ctx context.Context, team *models.Team) (*models.Team, error)
	// Replace is guarded by the version token carried on the team.
	Replace(ctx context.Context, team *models.Team) (*models.Team, error)
	Delete(ctx context.Context, teamID string) error
}

type teamRepository struct {
	store store.DocumentStore
}

func NewTeamRepository(s store.DocumentStore) TeamRepository {
	return &teamRepository{store: s}
}

func (r *teamRepository) List(ctx context.Context) ([]*models.Team, error) {
	docs, err := r.store.Query(ctx, store.Teams, store.Filter{})
	if err != nil {
		return nil, err
	}
	teams := make([]*models.Team, 0, len(docs))
	for i := range docs {
		team, err := decodeTeam(&docs[i])
		if err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Number < teams[j].Number })
	return teams, nil
}

func (r *teamRepository) Get(ctx context.Context, teamID string) (*models.Team, error) {
	doc, err := r.store.Get(ctx, store.Teams, teamID, teamID)
	if err != nil {
		return nil, err
	}
	return decodeTeam(doc)
}

func (r *teamRepository) Create(ctx context.Context, team *models.Team) (*models.Team, error) {
	data, err := json.Marshal(team)
	if err != nil {
		return nil, fmt.Errorf("marshal team %s: %w", team.ID, err)
	}
	doc, err := r.store.Create(ctx, store.Teams, store.Doc{
		ID:           team.ID,
		PartitionKey: team.ID,
		Data:         data,
	})
	if err != nil {
		return nil, err
	}
	created := *team
	created.Version = doc.Version
	return &created, nil
}

func (r *teamRepository) Replace(ctx context.Context, team *models.Team) (*models.Team, error) {
	data, err := json.Marshal(team)
	if err != nil {
		return nil, fmt.Errorf("marshal team %s: %w", team.ID, err)
	}
	doc, err := r.store.Replace(ctx, store.Teams, team.ID, team.ID, data, team.Version)
	if err != nil {
		return nil, err
	}
	updated := *team
	updated.Version = doc.Version
	return &updated, nil
}

func (r *teamRepository) Delete(ctx context.Context, teamID string) error {
	return r.store.Delete(ctx, store.Teams, teamID, teamID)
}

func decodeTeam(doc *store.Doc) (*models.Team, error) {
	var team models.Team
	if err := json.Unmarshal(doc.Data, &team); err != nil {
		return nil, fmt.Errorf("decode team document %s: %w", doc.ID, err)
	}
	team.Version = doc.Version
	return &team, nil
}
