package sync

import (
	"context"
	"encoding/json"

	"github.com/DevJhojan/justice-driven-task-power/internal/models"
)

// Record is one syncable row in wire form. UpdatedAt stays a raw string so
// malformed remote timestamps surface as per-record failures in the engine
// rather than aborting a fetch.
type Record struct {
	Entity    models.EntityType
	ID        string
	UpdatedAt string
	Payload   json.RawMessage
}

// Deletion is a tombstone in wire form.
type Deletion struct {
	Entity    models.EntityType
	ID        string
	DeletedAt string
}

// LocalStore is the engine's view of the local database.
type LocalStore interface {
	// GetAll returns every live record of the given entity type.
	GetAll(entity models.EntityType) ([]Record, error)

	// Upsert inserts or replaces a record by id, preserving the id verbatim.
	Upsert(rec Record) error

	// ApplyRemoteDeletion removes the record and stores a tombstone already
	// marked synced, so the deletion is not pushed back on the next run.
	// Returns true if a live record was actually removed.
	ApplyRemoteDeletion(entity models.EntityType, id, deletedAt string) (bool, error)

	// PendingDeletions returns local tombstones not yet pushed.
	PendingDeletions(entity models.EntityType) ([]Deletion, error)

	// Tombstones returns all local tombstones for the entity, keyed by id,
	// with the deletion timestamp as value.
	Tombstones(entity models.EntityType) (map[string]string, error)

	// MarkDeletionSynced records that a tombstone was pushed.
	MarkDeletionSynced(entity models.EntityType, id string) error
}

// RemoteStore is the engine's view of the remote document store.
type RemoteStore interface {
	FetchAll(ctx context.Context, entity models.EntityType) ([]Record, error)
	FetchDeletions(ctx context.Context, entity models.EntityType) ([]Deletion, error)
	Push(ctx context.Context, rec Record) error
	PushDeletion(ctx context.Context, del Deletion) error
}

// Counts tallies one entity type's reconciliation outcome.
type Counts struct {
	Uploaded            int `json:"uploaded"`
	Downloaded          int `json:"downloaded"`
	SkippedUpload       int `json:"skipped_upload"`
	SkippedDownload     int `json:"skipped_download"`
	DeletionsUploaded   int `json:"deletions_uploaded"`
	DeletionsDownloaded int `json:"deletions_downloaded"`
}

// Failure records a single record that could not be reconciled.
type Failure struct {
	Entity models.EntityType `json:"entity"`
	ID     string            `json:"id"`
	Op     string            `json:"op"` // "upload", "download", "delete"
	Reason string            `json:"reason"`
}

// Result summarises a full sync run across all entity types.
type Result struct {
	Counts   map[models.EntityType]Counts `json:"counts"`
	Failures []Failure                    `json:"failures,omitempty"`
}

// TotalChanges sums every applied change across all entity types and
// directions. Skips do not count.
func (r *Result) TotalChanges() int {
	total := 0
	for _, c := range r.Counts {
		total += c.Uploaded + c.Downloaded + c.DeletionsUploaded + c.DeletionsDownloaded
	}
	return total
}

// NoChanges reports whether the run applied nothing in either direction.
// A run with failures but zero applied changes still reports true.
func (r *Result) NoChanges() bool {
	return r.TotalChanges() == 0
}
