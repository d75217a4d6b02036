package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/DevJhojan/justice-driven-task-power/internal/models"
	enginesync "github.com/DevJhojan/justice-driven-task-power/internal/sync"
)

// fakeStore serves a document tree the way the hosted store does:
// GET on a missing location returns the literal null, PUT replaces,
// DELETE removes.
type fakeStore struct {
	mu   sync.Mutex
	docs map[string]json.RawMessage // path without .json suffix -> doc
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string]json.RawMessage)}
}

func (s *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("auth") != "secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	path := strings.TrimSuffix(r.URL.Path, ".json")
	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		// Collection read: gather docs one level below the path
		children := make(map[string]json.RawMessage)
		for p, doc := range s.docs {
			if strings.HasPrefix(p, path+"/") && !strings.Contains(strings.TrimPrefix(p, path+"/"), "/") {
				children[strings.TrimPrefix(p, path+"/")] = doc
			}
		}
		if doc, ok := s.docs[path]; ok {
			w.Write(doc)
			return
		}
		if len(children) == 0 {
			w.Write([]byte("null"))
			return
		}
		json.NewEncoder(w).Encode(children)
	case http.MethodPut:
		var doc json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.docs[path] = doc
		w.Write(doc)
	case http.MethodDelete:
		delete(s.docs, path)
		w.Write([]byte("null"))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func setupClient(t *testing.T) (*Client, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	srv := httptest.NewServer(store)
	t.Cleanup(srv.Close)
	return New(srv.URL, "secret", "uid-1"), store
}

func TestFetchAll_EmptyCollection(t *testing.T) {
	client, _ := setupClient(t)

	recs, err := client.FetchAll(context.Background(), models.EntityTasks)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("records: got %d, want 0", len(recs))
	}
}

func TestFetchAll_ParsesRecords(t *testing.T) {
	client, store := setupClient(t)
	store.docs["/users/uid-1/tasks/tk-1"] = json.RawMessage(`{"id":"tk-1","title":"a","updated_at":"2024-06-01T10:00:00Z"}`)
	store.docs["/users/uid-1/tasks/tk-2"] = json.RawMessage(`{"id":"tk-2","title":"b","updated_at":"2024-06-01T11:00:00Z"}`)

	recs, err := client.FetchAll(context.Background(), models.EntityTasks)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records: got %d, want 2", len(recs))
	}
	byID := make(map[string]enginesync.Record)
	for _, r := range recs {
		byID[r.ID] = r
	}
	if byID["tk-1"].UpdatedAt != "2024-06-01T10:00:00Z" {
		t.Fatalf("updated_at: got %q", byID["tk-1"].UpdatedAt)
	}
	if !strings.Contains(string(byID["tk-2"].Payload), `"title":"b"`) {
		t.Fatalf("payload: got %s", byID["tk-2"].Payload)
	}
}

func TestFetchAll_MissingUpdatedAtPassesThrough(t *testing.T) {
	client, store := setupClient(t)
	store.docs["/users/uid-1/tasks/tk-1"] = json.RawMessage(`{"id":"tk-1","title":"no stamp"}`)

	recs, err := client.FetchAll(context.Background(), models.EntityTasks)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("records: got %d, want 1", len(recs))
	}
	// The reconciler decides what to do with the empty stamp
	if recs[0].UpdatedAt != "" {
		t.Fatalf("updated_at: got %q, want empty", recs[0].UpdatedAt)
	}
}

func TestFetchAll_NonObjectDocumentDoesNotFailCollection(t *testing.T) {
	client, store := setupClient(t)
	store.docs["/users/uid-1/tasks/tk-1"] = json.RawMessage(`"garbage"`)
	store.docs["/users/uid-1/tasks/tk-2"] = json.RawMessage(`{"id":"tk-2","title":"b","updated_at":"2024-06-01T11:00:00Z"}`)

	recs, err := client.FetchAll(context.Background(), models.EntityTasks)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records: got %d, want 2", len(recs))
	}
	byID := make(map[string]enginesync.Record)
	for _, r := range recs {
		byID[r.ID] = r
	}
	// The bad document rides along with an empty stamp so the reconciler
	// can report it by id; the good one is intact.
	if byID["tk-1"].UpdatedAt != "" {
		t.Fatalf("bad doc updated_at: got %q, want empty", byID["tk-1"].UpdatedAt)
	}
	if byID["tk-2"].UpdatedAt != "2024-06-01T11:00:00Z" {
		t.Fatalf("good doc updated_at: got %q", byID["tk-2"].UpdatedAt)
	}
}

func TestFetchDeletions_NonObjectMarkerDoesNotFailCollection(t *testing.T) {
	client, store := setupClient(t)
	store.docs["/users/uid-1/deletions/tasks/tk-1"] = json.RawMessage(`42`)
	store.docs["/users/uid-1/deletions/tasks/tk-2"] = json.RawMessage(`{"deleted_at":"2024-06-01T12:00:00Z"}`)

	dels, err := client.FetchDeletions(context.Background(), models.EntityTasks)
	if err != nil {
		t.Fatalf("fetch deletions: %v", err)
	}
	if len(dels) != 2 {
		t.Fatalf("deletions: got %d, want 2", len(dels))
	}
	for _, d := range dels {
		if d.ID == "tk-2" && d.DeletedAt != "2024-06-01T12:00:00Z" {
			t.Fatalf("good marker deleted_at: got %q", d.DeletedAt)
		}
		if d.ID == "tk-1" && d.DeletedAt != "" {
			t.Fatalf("bad marker deleted_at: got %q, want empty", d.DeletedAt)
		}
	}
}

func TestPush_WritesDocument(t *testing.T) {
	client, store := setupClient(t)

	err := client.Push(context.Background(), enginesync.Record{
		Entity:    models.EntityHabits,
		ID:        "hb-1",
		UpdatedAt: "2024-06-01T10:00:00Z",
		Payload:   json.RawMessage(`{"id":"hb-1","title":"run","updated_at":"2024-06-01T10:00:00Z"}`),
	})
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	doc, ok := store.docs["/users/uid-1/habits/hb-1"]
	if !ok {
		t.Fatal("document not written")
	}
	if !strings.Contains(string(doc), `"title":"run"`) {
		t.Fatalf("doc: got %s", doc)
	}
}

func TestPushDeletion_RemovesRecordAndWritesTombstone(t *testing.T) {
	client, store := setupClient(t)
	store.docs["/users/uid-1/tasks/tk-1"] = json.RawMessage(`{"id":"tk-1"}`)

	err := client.PushDeletion(context.Background(), enginesync.Deletion{
		Entity:    models.EntityTasks,
		ID:        "tk-1",
		DeletedAt: "2024-06-01T12:00:00Z",
	})
	if err != nil {
		t.Fatalf("push deletion: %v", err)
	}
	if _, ok := store.docs["/users/uid-1/tasks/tk-1"]; ok {
		t.Fatal("record not removed")
	}
	tomb, ok := store.docs["/users/uid-1/deletions/tasks/tk-1"]
	if !ok {
		t.Fatal("tombstone not written")
	}
	if !strings.Contains(string(tomb), "2024-06-01T12:00:00Z") {
		t.Fatalf("tombstone: got %s", tomb)
	}
}

func TestFetchDeletions(t *testing.T) {
	client, store := setupClient(t)
	store.docs["/users/uid-1/deletions/tasks/tk-1"] = json.RawMessage(`{"deleted_at":"2024-06-01T12:00:00Z"}`)

	dels, err := client.FetchDeletions(context.Background(), models.EntityTasks)
	if err != nil {
		t.Fatalf("fetch deletions: %v", err)
	}
	if len(dels) != 1 {
		t.Fatalf("deletions: got %d, want 1", len(dels))
	}
	if dels[0].ID != "tk-1" || dels[0].DeletedAt != "2024-06-01T12:00:00Z" {
		t.Fatalf("deletion: got %+v", dels[0])
	}
}

func TestBadToken_Unauthorized(t *testing.T) {
	store := newFakeStore()
	srv := httptest.NewServer(store)
	t.Cleanup(srv.Close)
	client := New(srv.URL, "wrong", "uid-1")

	_, err := client.FetchAll(context.Background(), models.EntityTasks)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err: got %v, want ErrUnauthorized", err)
	}
}

func TestCancelledContext(t *testing.T) {
	client, _ := setupClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchAll(ctx, models.EntityTasks)
	if err == nil {
		t.Fatal("expected context error")
	}
}
