package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/DevJhojan/justice-driven-task-power/internal/models"
)

// Mode restricts a run to one direction.
type Mode int

const (
	ModeTwoWay Mode = iota
	ModePushOnly
	ModePullOnly
)

// Engine reconciles the local store against the remote store using
// last-write-wins on updated_at. Uploads run before downloads so local
// edits are never clobbered by a stale remote copy within one run.
type Engine struct {
	Local  LocalStore
	Remote RemoteStore
	Mode   Mode
}

// NewEngine builds an engine over the given stores.
func NewEngine(local LocalStore, remote RemoteStore) *Engine {
	return &Engine{Local: local, Remote: remote}
}

// Run performs a full two-phase sync over every entity type, sequentially.
// Local store failures abort the run; a remote fetch failure skips only the
// affected entity type; per-record failures are recorded and the run
// continues. The partial result is returned alongside any fatal error.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	result := &Result{Counts: make(map[models.EntityType]Counts)}

	for _, entity := range models.SyncableEntities() {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		counts, err := e.syncEntity(ctx, entity, result)
		result.Counts[entity] = counts
		if err != nil {
			return result, fmt.Errorf("sync %s: %w", entity, err)
		}
	}

	slog.Debug("sync complete", "changes", result.TotalChanges(), "failures", len(result.Failures))
	return result, nil
}

func (e *Engine) syncEntity(ctx context.Context, entity models.EntityType, result *Result) (Counts, error) {
	var counts Counts

	local, err := e.Local.GetAll(entity)
	if err != nil {
		return counts, fmt.Errorf("read local: %w", err)
	}
	pending, err := e.Local.PendingDeletions(entity)
	if err != nil {
		return counts, fmt.Errorf("read pending deletions: %w", err)
	}
	tombstones, err := e.Local.Tombstones(entity)
	if err != nil {
		return counts, fmt.Errorf("read tombstones: %w", err)
	}

	remote, err := e.Remote.FetchAll(ctx, entity)
	if err != nil {
		// Skip this entity type; the rest of the run proceeds.
		slog.Warn("remote fetch failed", "entity", entity, "err", err)
		result.Failures = append(result.Failures, Failure{
			Entity: entity, Op: "download", Reason: fmt.Sprintf("fetch: %v", err),
		})
		return counts, nil
	}
	remoteDels, err := e.Remote.FetchDeletions(ctx, entity)
	if err != nil {
		slog.Warn("remote deletions fetch failed", "entity", entity, "err", err)
		result.Failures = append(result.Failures, Failure{
			Entity: entity, Op: "delete", Reason: fmt.Sprintf("fetch deletions: %v", err),
		})
		return counts, nil
	}

	remoteByID := recordIndex(remote)
	localByID := recordIndex(local)

	pendingIDs := make(map[string]bool, len(pending))
	for _, d := range pending {
		pendingIDs[d.ID] = true
	}

	if e.Mode != ModePullOnly {
		if err := e.uploadPhase(ctx, entity, localByID, remoteByID, pending, pendingIDs, &counts, result); err != nil {
			return counts, err
		}
	}
	if e.Mode != ModePushOnly {
		if err := e.downloadPhase(ctx, entity, localByID, remoteByID, remoteDels, tombstones, &counts, result); err != nil {
			return counts, err
		}
	}

	return counts, nil
}

// uploadPhase pushes records the remote is missing or holds a strictly
// older copy of, then pushes pending tombstones. Tombstones go out
// unconditionally; the local user deleted the record deliberately,
// regardless of remote edits. Records queued for deletion never upload.
func (e *Engine) uploadPhase(ctx context.Context, entity models.EntityType,
	localByID, remoteByID map[string]Record, pending []Deletion,
	pendingIDs map[string]bool, counts *Counts, result *Result) error {

	for _, id := range sortedIDs(localByID) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if pendingIDs[id] {
			continue
		}
		rec := localByID[id]
		localTS, err := ParseTimestamp(rec.UpdatedAt)
		if err != nil {
			result.Failures = append(result.Failures, failure(entity, id, "upload", err))
			continue
		}
		if remoteRec, ok := remoteByID[id]; ok {
			remoteTS, err := ParseTimestamp(remoteRec.UpdatedAt)
			if err != nil {
				result.Failures = append(result.Failures, failure(entity, id, "upload", err))
				continue
			}
			if !StrictlyNewer(localTS, remoteTS) {
				counts.SkippedUpload++
				continue
			}
		}
		if err := e.Remote.Push(ctx, rec); err != nil {
			result.Failures = append(result.Failures, failure(entity, id, "upload", err))
			continue
		}
		counts.Uploaded++
	}

	for _, d := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.Remote.PushDeletion(ctx, d); err != nil {
			result.Failures = append(result.Failures, failure(entity, d.ID, "delete", err))
			continue
		}
		if err := e.Local.MarkDeletionSynced(entity, d.ID); err != nil {
			result.Failures = append(result.Failures, failure(entity, d.ID, "delete", err))
			continue
		}
		counts.DeletionsUploaded++
	}

	return nil
}

// downloadPhase pulls records we are missing or hold a strictly older
// copy of, then applies remote tombstones. A local tombstone blocks a
// pull unless the remote copy was edited after the deletion. A remote
// deletion only wins over a local record edited before it; a newer local
// edit survives and uploads on the next run. A remote marker that the
// remote's own live copy postdates is ignored entirely, since an edit
// after a deletion leaves the stale marker behind.
func (e *Engine) downloadPhase(ctx context.Context, entity models.EntityType,
	localByID, remoteByID map[string]Record, remoteDels []Deletion,
	tombstones map[string]string, counts *Counts, result *Result) error {

	for _, id := range sortedIDs(remoteByID) {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := remoteByID[id]
		remoteTS, err := ParseTimestamp(rec.UpdatedAt)
		if err != nil {
			result.Failures = append(result.Failures, failure(entity, id, "download", err))
			continue
		}
		if deletedAt, ok := tombstones[id]; ok {
			tombTS, err := ParseTimestamp(deletedAt)
			if err != nil {
				result.Failures = append(result.Failures, failure(entity, id, "download", err))
				continue
			}
			if !StrictlyNewer(remoteTS, tombTS) {
				counts.SkippedDownload++
				continue
			}
		}
		if localRec, ok := localByID[id]; ok {
			localTS, err := ParseTimestamp(localRec.UpdatedAt)
			if err != nil {
				result.Failures = append(result.Failures, failure(entity, id, "download", err))
				continue
			}
			if !StrictlyNewer(remoteTS, localTS) {
				counts.SkippedDownload++
				continue
			}
		}
		if err := e.Local.Upsert(rec); err != nil {
			result.Failures = append(result.Failures, failure(entity, id, "download", err))
			continue
		}
		counts.Downloaded++
	}

	for _, d := range sortedDeletions(remoteDels) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := tombstones[d.ID]; ok {
			continue // already deleted locally
		}
		deletedTS, err := ParseTimestamp(d.DeletedAt)
		if err != nil {
			result.Failures = append(result.Failures, failure(entity, d.ID, "delete", err))
			continue
		}
		// A live remote copy at or after the marker means the record was
		// re-edited after deletion; the stale marker must not undo the
		// record we just pulled.
		if remoteRec, ok := remoteByID[d.ID]; ok {
			remoteTS, err := ParseTimestamp(remoteRec.UpdatedAt)
			if err != nil {
				result.Failures = append(result.Failures, failure(entity, d.ID, "delete", err))
				continue
			}
			if !StrictlyNewer(deletedTS, remoteTS) {
				continue
			}
		}
		if localRec, ok := localByID[d.ID]; ok {
			localTS, err := ParseTimestamp(localRec.UpdatedAt)
			if err != nil {
				result.Failures = append(result.Failures, failure(entity, d.ID, "delete", err))
				continue
			}
			if !StrictlyNewer(deletedTS, localTS) {
				continue
			}
		}
		removed, err := e.Local.ApplyRemoteDeletion(entity, d.ID, d.DeletedAt)
		if err != nil {
			result.Failures = append(result.Failures, failure(entity, d.ID, "delete", err))
			continue
		}
		if removed {
			counts.DeletionsDownloaded++
		}
	}

	return nil
}

func failure(entity models.EntityType, id, op string, err error) Failure {
	return Failure{Entity: entity, ID: id, Op: op, Reason: err.Error()}
}

func recordIndex(recs []Record) map[string]Record {
	m := make(map[string]Record, len(recs))
	for _, r := range recs {
		m[r.ID] = r
	}
	return m
}

func sortedIDs(m map[string]Record) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedDeletions(dels []Deletion) []Deletion {
	out := make([]Deletion, len(dels))
	copy(out, dels)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
