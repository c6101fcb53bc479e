package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// MemoryStore is an in-memory DocumentStore used by tests and by local
// development without a database. It honors the full contract, including
// version tokens and the delete+recreate relocation semantics.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[Collection]map[string]map[string]Doc // partition key -> id -> doc
	version     uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[Collection]map[string]map[string]Doc),
	}
}

func (s *MemoryStore) nextVersion() string {
	s.version++
	return strconv.FormatUint(s.version, 10)
}

func (s *MemoryStore) partition(c Collection, pk string) map[string]Doc {
	coll, ok := s.collections[c]
	if !ok {
		coll = make(map[string]map[string]Doc)
		s.collections[c] = coll
	}
	part, ok := coll[pk]
	if !ok {
		part = make(map[string]Doc)
		coll[pk] = part
	}
	return part
}

func (s *MemoryStore) Get(ctx context.Context, c Collection, id, partitionKey string) (*Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[c][partitionKey][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s in partition %q", ErrNotFound, c, id, partitionKey)
	}
	return cloneDoc(doc), nil
}

func (s *MemoryStore) Create(ctx context.Context, c Collection, doc Doc) (*Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	part := s.partition(c, doc.PartitionKey)
	if _, exists := part[doc.ID]; exists {
		return nil, fmt.Errorf("%w: %s/%s", ErrAlreadyExists, c, doc.ID)
	}
	doc.Version = s.nextVersion()
	doc.Data = append(json.RawMessage(nil), doc.Data...)
	part[doc.ID] = doc
	return cloneDoc(doc), nil
}

func (s *MemoryStore) Replace(ctx context.Context, c Collection, id, partitionKey string, data json.RawMessage, expectedVersion string) (*Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	part := s.partition(c, partitionKey)
	doc, ok := part[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s in partition %q", ErrNotFound, c, id, partitionKey)
	}
	if doc.Version != expectedVersion {
		return nil, fmt.Errorf("%w: %s/%s expected %q got %q", ErrVersionConflict, c, id, expectedVersion, doc.Version)
	}
	doc.Data = append(json.RawMessage(nil), data...)
	doc.Version = s.nextVersion()
	part[id] = doc
	return cloneDoc(doc), nil
}

func (s *MemoryStore) Delete(ctx context.Context, c Collection, id, partitionKey string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	part, ok := s.collections[c][partitionKey]
	if !ok {
		return fmt.Errorf("%w: %s/%s in partition %q", ErrNotFound, c, id, partitionKey)
	}
	if _, ok := part[id]; !ok {
		return fmt.Errorf("%w: %s/%s in partition %q", ErrNotFound, c, id, partitionKey)
	}
	delete(part, id)
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, c Collection, f Filter) ([]Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Doc
	for pk, part := range s.collections[c] {
		if f.PartitionKey != "" && pk != f.PartitionKey {
			continue
		}
		for _, doc := range part {
			if matches(doc, f.Equals) {
				out = append(out, *cloneDoc(doc))
			}
		}
	}
	// Stable order so callers and tests see deterministic results.
	sort.Slice(out, func(i, j int) bool {
		if out[i].PartitionKey != out[j].PartitionKey {
			return out[i].PartitionKey < out[j].PartitionKey
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) Relocate(ctx context.Context, c Collection, id, fromPartitionKey, toPartitionKey string, data json.RawMessage) (*Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Direct read first; fall back to a scan by id when the believed
	// partition is stale.
	sourcePK := fromPartitionKey
	if _, ok := s.collections[c][sourcePK][id]; !ok {
		found := false
		for pk, part := range s.collections[c] {
			if _, ok := part[id]; ok {
				sourcePK = pk
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s/%s in any partition", ErrNotFound, c, id)
		}
	}

	delete(s.collections[c][sourcePK], id)

	doc := Doc{
		ID:           id,
		PartitionKey: toPartitionKey,
		Data:         append(json.RawMessage(nil), data...),
		Version:      s.nextVersion(),
	}
	s.partition(c, toPartitionKey)[id] = doc
	return cloneDoc(doc), nil
}

func matches(doc Doc, equals map[string]string) bool {
	if len(equals) == 0 {
		return true
	}
	var body map[string]any
	if err := json.Unmarshal(doc.Data, &body); err != nil {
		return false
	}
	for field, want := range equals {
		got, ok := body[field].(string)
		if !ok || got != want {
			return false
		}
	}
	return true
}

func cloneDoc(d Doc) *Doc {
	out := d
	out.Data = append(json.RawMessage(nil), d.Data...)
	return &out
}

var _ DocumentStore = (*MemoryStore)(nil)
