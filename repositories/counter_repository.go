package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hackdayhq/hackathon-system/models"
	"github.com/hackdayhq/hackathon-system/store"
)

// CounterRepository persists the singleton sequence counter. The counter
// collection is partitioned by document id, so the singleton lives alone in
// its own partition.
type CounterRepository interface {
	Get(ctx context.Context) (*models.Counter, error)
	Create(ctx context.Context, value int) (*models.Counter, error)
	Replace(ctx context.Context, counter *models.Counter) (*models.Counter, error)
}

type counterRepository struct {
	store store.DocumentStore
}

func NewCounterRepository(s store.DocumentStore) CounterRepository {
	return &counterRepository{store: s}
}

func (r *counterRepository) Get(ctx context.Context) (*models.Counter, error) {
	doc, err := r.store.Get(ctx, store.Counters, models.HackerNumberCounterID, models.HackerNumberCounterID)
	if err != nil {
		return nil, err
	}
	return decodeCounter(doc)
}

func (r *counterRepository) Create(ctx context.Context, value int) (*models.Counter, error) {
	counter := &models.Counter{ID: models.HackerNumberCounterID, Value: value}
	data, err := json.Marshal(counter)
	if err != nil {
		return nil, fmt.Errorf("marshal counter: %w", err)
	}
	doc, err := r.store.Create(ctx, store.Counters, store.Doc{
		ID:           counter.ID,
		PartitionKey: counter.ID,
		Data:         data,
	})
	if err != nil {
		return nil, err
	}
	counter.Version = doc.Version
	return counter, nil
}

// Replace writes a new counter value guarded by the version token the
// counter was read with.
func (r *counterRepository) Replace(ctx context.Context, counter *models.Counter) (*models.Counter, error) {
	data, err := json.Marshal(counter)
	if err != nil {
		return nil, fmt.Errorf("marshal counter: %w", err)
	}
	doc, err := r.store.Replace(ctx, store.Counters, counter.ID, counter.ID, data, counter.Version)
	if err != nil {
		return nil, err
	}
	updated := *counter
	updated.Version = doc.Version
	return &updated, nil
}

func decodeCounter(doc *store.Doc) (*models.Counter, error) {
	var counter models.Counter
	if err := json.Unmarshal(doc.Data, &counter); err != nil {
		return nil, fmt.Errorf("decode counter document %s: %w", doc.ID, err)
	}
	counter.Version = doc.Version
	return &counter, nil
}
