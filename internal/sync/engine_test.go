package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DevJhojan/justice-driven-task-power/internal/models"
)

// fakeLocal is an in-memory LocalStore.
type fakeLocal struct {
	records    map[models.EntityType]map[string]Record
	tombstones map[models.EntityType]map[string]string // id -> deleted_at
	pending    map[models.EntityType]map[string]bool   // ids not yet pushed
	upsertErr  error
}

func newFakeLocal() *fakeLocal {
	return &fakeLocal{
		records:    make(map[models.EntityType]map[string]Record),
		tombstones: make(map[models.EntityType]map[string]string),
		pending:    make(map[models.EntityType]map[string]bool),
	}
}

func (f *fakeLocal) put(entity models.EntityType, id, updatedAt string) {
	if f.records[entity] == nil {
		f.records[entity] = make(map[string]Record)
	}
	f.records[entity][id] = Record{
		Entity: entity, ID: id, UpdatedAt: updatedAt,
		Payload: []byte(fmt.Sprintf(`{"id":%q,"updated_at":%q}`, id, updatedAt)),
	}
}

func (f *fakeLocal) tombstone(entity models.EntityType, id, deletedAt string, pending bool) {
	if f.tombstones[entity] == nil {
		f.tombstones[entity] = make(map[string]string)
	}
	f.tombstones[entity][id] = deletedAt
	if pending {
		if f.pending[entity] == nil {
			f.pending[entity] = make(map[string]bool)
		}
		f.pending[entity][id] = true
	}
}

func (f *fakeLocal) GetAll(entity models.EntityType) ([]Record, error) {
	var out []Record
	for _, r := range f.records[entity] {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeLocal) Upsert(rec Record) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if f.records[rec.Entity] == nil {
		f.records[rec.Entity] = make(map[string]Record)
	}
	f.records[rec.Entity][rec.ID] = rec
	return nil
}

func (f *fakeLocal) ApplyRemoteDeletion(entity models.EntityType, id, deletedAt string) (bool, error) {
	_, existed := f.records[entity][id]
	delete(f.records[entity], id)
	if f.tombstones[entity] == nil {
		f.tombstones[entity] = make(map[string]string)
	}
	f.tombstones[entity][id] = deletedAt
	return existed, nil
}

func (f *fakeLocal) PendingDeletions(entity models.EntityType) ([]Deletion, error) {
	var out []Deletion
	for id := range f.pending[entity] {
		out = append(out, Deletion{Entity: entity, ID: id, DeletedAt: f.tombstones[entity][id]})
	}
	return out, nil
}

func (f *fakeLocal) Tombstones(entity models.EntityType) (map[string]string, error) {
	out := make(map[string]string)
	for id, at := range f.tombstones[entity] {
		out[id] = at
	}
	return out, nil
}

func (f *fakeLocal) MarkDeletionSynced(entity models.EntityType, id string) error {
	delete(f.pending[entity], id)
	return nil
}

// fakeRemote is an in-memory RemoteStore.
type fakeRemote struct {
	records   map[models.EntityType]map[string]Record
	deletions map[models.EntityType]map[string]string
	fetchErr  map[models.EntityType]error
	pushErr   map[string]error // by record id
	pushes    []string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		records:   make(map[models.EntityType]map[string]Record),
		deletions: make(map[models.EntityType]map[string]string),
		fetchErr:  make(map[models.EntityType]error),
		pushErr:   make(map[string]error),
	}
}

func (f *fakeRemote) put(entity models.EntityType, id, updatedAt string) {
	if f.records[entity] == nil {
		f.records[entity] = make(map[string]Record)
	}
	f.records[entity][id] = Record{
		Entity: entity, ID: id, UpdatedAt: updatedAt,
		Payload: []byte(fmt.Sprintf(`{"id":%q,"updated_at":%q}`, id, updatedAt)),
	}
}

func (f *fakeRemote) tombstone(entity models.EntityType, id, deletedAt string) {
	if f.deletions[entity] == nil {
		f.deletions[entity] = make(map[string]string)
	}
	f.deletions[entity][id] = deletedAt
}

func (f *fakeRemote) FetchAll(_ context.Context, entity models.EntityType) ([]Record, error) {
	if err := f.fetchErr[entity]; err != nil {
		return nil, err
	}
	var out []Record
	for _, r := range f.records[entity] {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRemote) FetchDeletions(_ context.Context, entity models.EntityType) ([]Deletion, error) {
	var out []Deletion
	for id, at := range f.deletions[entity] {
		out = append(out, Deletion{Entity: entity, ID: id, DeletedAt: at})
	}
	return out, nil
}

func (f *fakeRemote) Push(_ context.Context, rec Record) error {
	if err := f.pushErr[rec.ID]; err != nil {
		return err
	}
	if f.records[rec.Entity] == nil {
		f.records[rec.Entity] = make(map[string]Record)
	}
	f.records[rec.Entity][rec.ID] = rec
	f.pushes = append(f.pushes, rec.ID)
	return nil
}

func (f *fakeRemote) PushDeletion(_ context.Context, del Deletion) error {
	if err := f.pushErr[del.ID]; err != nil {
		return err
	}
	delete(f.records[del.Entity], del.ID)
	f.tombstone(del.Entity, del.ID, del.DeletedAt)
	return nil
}

func runSync(t *testing.T, local *fakeLocal, remote *fakeRemote) *Result {
	t.Helper()
	result, err := NewEngine(local, remote).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return result
}

const (
	t1 = "2024-01-01T10:00:00Z"
	t2 = "2024-01-01T11:00:00Z"
	t3 = "2024-01-01T12:00:00Z"
)

func TestRun_FreshDeviceDownloadsEverything(t *testing.T) {
	local := newFakeLocal()
	remote := newFakeRemote()
	remote.put(models.EntityTasks, "tk-1", t1)
	remote.put(models.EntityTasks, "tk-2", t2)
	remote.put(models.EntityHabits, "hb-1", t1)

	result := runSync(t, local, remote)

	if got := result.Counts[models.EntityTasks].Downloaded; got != 2 {
		t.Fatalf("tasks downloaded: got %d, want 2", got)
	}
	if got := result.Counts[models.EntityHabits].Downloaded; got != 1 {
		t.Fatalf("habits downloaded: got %d, want 1", got)
	}
	if result.TotalChanges() != 3 {
		t.Fatalf("total changes: got %d, want 3", result.TotalChanges())
	}
	// Remote ids are preserved verbatim
	if _, ok := local.records[models.EntityTasks]["tk-1"]; !ok {
		t.Error("remote record tk-1 not stored under its original id")
	}
}

func TestRun_NewRemoteStoreUploadsEverything(t *testing.T) {
	local := newFakeLocal()
	local.put(models.EntityTasks, "tk-1", t1)
	local.put(models.EntitySubtasks, "st-1", t1)
	remote := newFakeRemote()

	result := runSync(t, local, remote)

	if got := result.Counts[models.EntityTasks].Uploaded; got != 1 {
		t.Fatalf("tasks uploaded: got %d, want 1", got)
	}
	if got := result.Counts[models.EntitySubtasks].Uploaded; got != 1 {
		t.Fatalf("subtasks uploaded: got %d, want 1", got)
	}
	if _, ok := remote.records[models.EntityTasks]["tk-1"]; !ok {
		t.Error("tk-1 not pushed to remote")
	}
}

func TestRun_ConcurrentEditNewerRemoteWins(t *testing.T) {
	local := newFakeLocal()
	local.put(models.EntityTasks, "tk-1", t1)
	remote := newFakeRemote()
	remote.put(models.EntityTasks, "tk-1", t2)

	result := runSync(t, local, remote)

	c := result.Counts[models.EntityTasks]
	if c.Uploaded != 0 {
		t.Fatalf("uploaded: got %d, want 0", c.Uploaded)
	}
	if c.Downloaded != 1 {
		t.Fatalf("downloaded: got %d, want 1", c.Downloaded)
	}
	if got := local.records[models.EntityTasks]["tk-1"].UpdatedAt; got != t2 {
		t.Fatalf("local updated_at: got %q, want %q", got, t2)
	}
}

func TestRun_ConcurrentEditNewerLocalWins(t *testing.T) {
	local := newFakeLocal()
	local.put(models.EntityTasks, "tk-1", t2)
	remote := newFakeRemote()
	remote.put(models.EntityTasks, "tk-1", t1)

	result := runSync(t, local, remote)

	c := result.Counts[models.EntityTasks]
	if c.Uploaded != 1 {
		t.Fatalf("uploaded: got %d, want 1", c.Uploaded)
	}
	// After upload the remote copy carries the local timestamp, so the
	// download phase sees equal stamps and skips.
	if c.Downloaded != 0 {
		t.Fatalf("downloaded: got %d, want 0", c.Downloaded)
	}
	if got := remote.records[models.EntityTasks]["tk-1"].UpdatedAt; got != t2 {
		t.Fatalf("remote updated_at: got %q, want %q", got, t2)
	}
}

func TestRun_EqualTimestampsNoOp(t *testing.T) {
	local := newFakeLocal()
	local.put(models.EntityTasks, "tk-1", t1)
	remote := newFakeRemote()
	remote.put(models.EntityTasks, "tk-1", t1)

	result := runSync(t, local, remote)

	if !result.NoChanges() {
		t.Fatalf("expected no changes, got %d", result.TotalChanges())
	}
	c := result.Counts[models.EntityTasks]
	if c.SkippedUpload != 1 || c.SkippedDownload != 1 {
		t.Fatalf("skips: upload=%d download=%d, want 1/1", c.SkippedUpload, c.SkippedDownload)
	}
}

func TestRun_LocalDeletionPropagates(t *testing.T) {
	local := newFakeLocal()
	local.tombstone(models.EntityTasks, "tk-1", t2, true)
	remote := newFakeRemote()
	// A newer remote edit does not resurrect a deliberate local delete.
	remote.put(models.EntityTasks, "tk-1", t1)

	result := runSync(t, local, remote)

	c := result.Counts[models.EntityTasks]
	if c.DeletionsUploaded != 1 {
		t.Fatalf("deletions uploaded: got %d, want 1", c.DeletionsUploaded)
	}
	if _, ok := remote.records[models.EntityTasks]["tk-1"]; ok {
		t.Error("remote record survived deletion push")
	}
	if local.pending[models.EntityTasks]["tk-1"] {
		t.Error("tombstone still pending after push")
	}
}

func TestRun_RemoteDeletionAppliesWhenNewer(t *testing.T) {
	local := newFakeLocal()
	local.put(models.EntityTasks, "tk-1", t1)
	remote := newFakeRemote()
	remote.tombstone(models.EntityTasks, "tk-1", t2)

	result := runSync(t, local, remote)

	if got := result.Counts[models.EntityTasks].DeletionsDownloaded; got != 1 {
		t.Fatalf("deletions downloaded: got %d, want 1", got)
	}
	if _, ok := local.records[models.EntityTasks]["tk-1"]; ok {
		t.Error("local record survived newer remote deletion")
	}
}

func TestRun_RemoteDeletionIgnoredWhenLocalEditNewer(t *testing.T) {
	local := newFakeLocal()
	local.put(models.EntityTasks, "tk-1", t3)
	remote := newFakeRemote()
	remote.tombstone(models.EntityTasks, "tk-1", t2)

	result := runSync(t, local, remote)

	if got := result.Counts[models.EntityTasks].DeletionsDownloaded; got != 0 {
		t.Fatalf("deletions downloaded: got %d, want 0", got)
	}
	if _, ok := local.records[models.EntityTasks]["tk-1"]; !ok {
		t.Error("newer local edit was deleted by stale remote tombstone")
	}
}

func TestRun_TombstoneBlocksStaleRedownload(t *testing.T) {
	local := newFakeLocal()
	local.tombstone(models.EntityTasks, "tk-1", t2, false) // already synced
	remote := newFakeRemote()
	remote.put(models.EntityTasks, "tk-1", t1)

	result := runSync(t, local, remote)

	c := result.Counts[models.EntityTasks]
	if c.Downloaded != 0 {
		t.Fatalf("downloaded: got %d, want 0", c.Downloaded)
	}
	if c.SkippedDownload != 1 {
		t.Fatalf("skipped download: got %d, want 1", c.SkippedDownload)
	}
	if _, ok := local.records[models.EntityTasks]["tk-1"]; ok {
		t.Error("tombstoned record resurrected by stale remote copy")
	}
}

func TestRun_TombstoneAllowsGenuinelyNewerRemote(t *testing.T) {
	local := newFakeLocal()
	local.tombstone(models.EntityTasks, "tk-1", t1, false)
	remote := newFakeRemote()
	remote.put(models.EntityTasks, "tk-1", t2) // edited after the deletion

	result := runSync(t, local, remote)

	if got := result.Counts[models.EntityTasks].Downloaded; got != 1 {
		t.Fatalf("downloaded: got %d, want 1", got)
	}
	if _, ok := local.records[models.EntityTasks]["tk-1"]; !ok {
		t.Error("record edited after deletion should re-download")
	}
}

// An edit that undoes a deletion leaves the old marker sitting next to the
// newer live copy on the remote. A device seeing both for the first time
// must keep the record.
func TestRun_StaleRemoteMarkerBesideNewerLiveCopy(t *testing.T) {
	local := newFakeLocal()
	remote := newFakeRemote()
	remote.put(models.EntityTasks, "tk-1", t3)
	remote.tombstone(models.EntityTasks, "tk-1", t2)

	first := runSync(t, local, remote)

	c := first.Counts[models.EntityTasks]
	if c.Downloaded != 1 {
		t.Fatalf("downloaded: got %d, want 1", c.Downloaded)
	}
	if c.DeletionsDownloaded != 0 {
		t.Fatalf("deletions downloaded: got %d, want 0", c.DeletionsDownloaded)
	}
	rec, ok := local.records[models.EntityTasks]["tk-1"]
	if !ok {
		t.Fatal("record deleted by a marker its own live copy postdates")
	}
	if rec.UpdatedAt != t3 {
		t.Errorf("updated_at: got %q, want %q", rec.UpdatedAt, t3)
	}

	second := runSync(t, local, remote)
	if !second.NoChanges() {
		t.Fatalf("second run: got %d changes, want 0", second.TotalChanges())
	}
}

func TestRun_StaleRemoteMarkerBesideNewerLiveCopyOverOlderLocal(t *testing.T) {
	local := newFakeLocal()
	local.put(models.EntityTasks, "tk-1", t1)
	remote := newFakeRemote()
	remote.put(models.EntityTasks, "tk-1", t3)
	remote.tombstone(models.EntityTasks, "tk-1", t2)

	result := runSync(t, local, remote)

	if got := result.Counts[models.EntityTasks].DeletionsDownloaded; got != 0 {
		t.Fatalf("deletions downloaded: got %d, want 0", got)
	}
	rec, ok := local.records[models.EntityTasks]["tk-1"]
	if !ok {
		t.Fatal("record deleted by a marker its own live copy postdates")
	}
	if rec.UpdatedAt != t3 {
		t.Errorf("updated_at: got %q, want %q", rec.UpdatedAt, t3)
	}
}

// The marker still wins when nothing on the remote supersedes it.
func TestRun_RemoteMarkerNewerThanLiveCopyDeletes(t *testing.T) {
	local := newFakeLocal()
	local.put(models.EntityTasks, "tk-1", t1)
	remote := newFakeRemote()
	remote.put(models.EntityTasks, "tk-1", t2)
	remote.tombstone(models.EntityTasks, "tk-1", t3)

	result := runSync(t, local, remote)

	if got := result.Counts[models.EntityTasks].DeletionsDownloaded; got != 1 {
		t.Fatalf("deletions downloaded: got %d, want 1", got)
	}
	if _, ok := local.records[models.EntityTasks]["tk-1"]; ok {
		t.Error("marker newer than the live copy should delete the record")
	}
}

func TestRun_SecondRunIsNoOp(t *testing.T) {
	local := newFakeLocal()
	local.put(models.EntityTasks, "tk-1", t2)
	local.tombstone(models.EntityHabits, "hb-1", t1, true)
	remote := newFakeRemote()
	remote.put(models.EntityTasks, "tk-2", t1)
	remote.put(models.EntitySubtasks, "st-1", t1)

	first := runSync(t, local, remote)
	if first.NoChanges() {
		t.Fatal("first run should apply changes")
	}

	second := runSync(t, local, remote)
	if !second.NoChanges() {
		t.Fatalf("second run: got %d changes, want 0", second.TotalChanges())
	}
	if len(second.Failures) != 0 {
		t.Fatalf("second run failures: got %d, want 0", len(second.Failures))
	}
}

func TestRun_MalformedRemoteTimestampIsPerRecordFailure(t *testing.T) {
	local := newFakeLocal()
	remote := newFakeRemote()
	remote.put(models.EntityTasks, "tk-bad", "not-a-timestamp")
	remote.put(models.EntityTasks, "tk-ok", t1)

	result := runSync(t, local, remote)

	if got := result.Counts[models.EntityTasks].Downloaded; got != 1 {
		t.Fatalf("downloaded: got %d, want 1", got)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("failures: got %d, want 1", len(result.Failures))
	}
	f := result.Failures[0]
	if f.ID != "tk-bad" || f.Op != "download" {
		t.Fatalf("failure: got %+v", f)
	}
}

func TestRun_FetchFailureSkipsOnlyThatEntity(t *testing.T) {
	local := newFakeLocal()
	local.put(models.EntityTasks, "tk-1", t1)
	local.put(models.EntityHabits, "hb-1", t1)
	remote := newFakeRemote()
	remote.fetchErr[models.EntityTasks] = errors.New("boom")

	result := runSync(t, local, remote)

	if got := result.Counts[models.EntityTasks].Uploaded; got != 0 {
		t.Fatalf("tasks uploaded despite fetch failure: got %d", got)
	}
	if got := result.Counts[models.EntityHabits].Uploaded; got != 1 {
		t.Fatalf("habits uploaded: got %d, want 1", got)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("failures: got %d, want 1", len(result.Failures))
	}
}

func TestRun_PushFailureContinuesWithRemaining(t *testing.T) {
	local := newFakeLocal()
	local.put(models.EntityTasks, "tk-1", t1)
	local.put(models.EntityTasks, "tk-2", t1)
	remote := newFakeRemote()
	remote.pushErr["tk-1"] = errors.New("write refused")

	result := runSync(t, local, remote)

	c := result.Counts[models.EntityTasks]
	if c.Uploaded != 1 {
		t.Fatalf("uploaded: got %d, want 1", c.Uploaded)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("failures: got %d, want 1", len(result.Failures))
	}
	if result.Failures[0].ID != "tk-1" {
		t.Fatalf("failed id: got %q, want tk-1", result.Failures[0].ID)
	}
}

func TestRun_PendingDeletionExcludedFromUpload(t *testing.T) {
	local := newFakeLocal()
	local.put(models.EntityTasks, "tk-1", t3)
	local.tombstone(models.EntityTasks, "tk-1", t3, true)
	remote := newFakeRemote()

	result := runSync(t, local, remote)

	c := result.Counts[models.EntityTasks]
	if c.Uploaded != 0 {
		t.Fatalf("uploaded: got %d, want 0", c.Uploaded)
	}
	if c.DeletionsUploaded != 1 {
		t.Fatalf("deletions uploaded: got %d, want 1", c.DeletionsUploaded)
	}
}

func TestRun_PushOnlyNeverWritesLocally(t *testing.T) {
	local := newFakeLocal()
	local.put(models.EntityTasks, "tk-1", t1)
	remote := newFakeRemote()
	remote.put(models.EntityTasks, "tk-2", t2)
	remote.tombstone(models.EntityHabits, "hb-1", t2)

	engine := NewEngine(local, remote)
	engine.Mode = ModePushOnly
	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	c := result.Counts[models.EntityTasks]
	if c.Uploaded != 1 || c.Downloaded != 0 {
		t.Fatalf("counts: %+v", c)
	}
	if _, ok := local.records[models.EntityTasks]["tk-2"]; ok {
		t.Fatal("push-only run wrote to local store")
	}
}

func TestRun_PullOnlyNeverWritesRemotely(t *testing.T) {
	local := newFakeLocal()
	local.put(models.EntityTasks, "tk-1", t1)
	local.tombstone(models.EntityHabits, "hb-1", t1, true)
	remote := newFakeRemote()
	remote.put(models.EntityTasks, "tk-2", t2)

	engine := NewEngine(local, remote)
	engine.Mode = ModePullOnly
	result, err := engine.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	c := result.Counts[models.EntityTasks]
	if c.Uploaded != 0 || c.Downloaded != 1 {
		t.Fatalf("counts: %+v", c)
	}
	if len(remote.pushes) != 0 {
		t.Fatalf("pull-only run pushed: %v", remote.pushes)
	}
	if result.Counts[models.EntityHabits].DeletionsUploaded != 0 {
		t.Fatal("pull-only run pushed a deletion")
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	local := newFakeLocal()
	local.put(models.EntityTasks, "tk-1", t1)

	_, err := NewEngine(local, newFakeRemote()).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err: got %v, want context.Canceled", err)
	}
}

func TestResult_NoChangesWithFailures(t *testing.T) {
	r := &Result{
		Counts:   map[models.EntityType]Counts{models.EntityTasks: {SkippedUpload: 3}},
		Failures: []Failure{{Entity: models.EntityTasks, ID: "tk-1", Op: "upload", Reason: "x"}},
	}
	if !r.NoChanges() {
		t.Error("skips and failures alone should still report no changes")
	}
}
