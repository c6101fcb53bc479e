// Package store is the roster store: a document collection abstraction with
// single-document optimistic concurrency (version tokens) and physical
// partitioning by a per-document partition key. It deliberately offers no
// multi-document transactions; workflows that touch several documents must
// handle partial failure themselves.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

type Collection string

const (
	Teams        Collection = "teams"
	Participants Collection = "participants"
	Counters     Collection = "counters"
	Identities   Collection = "identities"
)

// Sentinel errors of the store contract. Backends wrap driver errors so
// callers can match with errors.Is.
var (
	ErrNotFound        = errors.New("document not found")
	ErrAlreadyExists   = errors.New("document already exists")
	ErrVersionConflict = errors.New("document version conflict")
	ErrUnavailable     = errors.New("store unavailable")
)

// Doc is a stored document. Version is an opaque token assigned by the store
// on every write; Replace requires the caller to present the token it read.
type Doc struct {
	ID           string
	PartitionKey string
	Data         json.RawMessage
	Version      string
}

// Filter scopes a Query. An empty PartitionKey means a cross-partition scan.
// Equals matches top-level JSON string fields of the document body.
type Filter struct {
	PartitionKey string
	Equals       map[string]string
}

type DocumentStore interface {
	// Get reads one document by id within a partition.
	Get(ctx context.Context, c Collection, id, partitionKey string) (*Doc, error)

	// Create inserts a new document and returns it with its initial version.
	Create(ctx context.Context, c Collection, doc Doc) (*Doc, error)

	// Replace overwrites a document's body iff expectedVersion still matches.
	Replace(ctx context.Context, c Collection, id, partitionKey string, data json.RawMessage, expectedVersion string) (*Doc, error)

	// Delete removes a document from its partition.
	Delete(ctx context.Context, c Collection, id, partitionKey string) error

	// Query returns all documents matching the filter.
	Query(ctx context.Context, c Collection, f Filter) ([]Doc, error)

	// Relocate moves a document from one partition to another. The partition
	// key is immutable in place, so the move is delete + recreate:
	//
	//	Stable(from) -> PendingDelete -> Deleted -> PendingCreate -> Stable(to)
	//
	// If the document is not found under fromPartitionKey the store falls
	// back to a cross-partition scan by id before deleting (the caller's view
	// of partitioning may be stale). Between delete and create the document
	// is visible in neither partition; there is no rollback from the Deleted
	// state, recovery from a crash inside the window is operational.
	Relocate(ctx context.Context, c Collection, id, fromPartitionKey, toPartitionKey string, data json.RawMessage) (*Doc, error)
}
