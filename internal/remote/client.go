// Package remote talks to the hosted document store over its REST API.
// Each user owns a tree of JSON documents:
//
//	/users/{uid}/{collection}/{id}          the live records
//	/users/{uid}/deletions/{collection}/{id} tombstones
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/DevJhojan/justice-driven-task-power/internal/models"
	"github.com/DevJhojan/justice-driven-task-power/internal/sync"
)

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// Client is an HTTP client for the remote document store.
// It implements the sync engine's RemoteStore.
type Client struct {
	BaseURL string
	Token   string
	UserID  string
	HTTP    *http.Client
}

// New creates a new remote client.
func New(baseURL, token, userID string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		UserID:  userID,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchAll downloads every record of a collection. A missing collection is
// an empty one, not an error.
func (c *Client) FetchAll(ctx context.Context, entity models.EntityType) ([]sync.Record, error) {
	body, err := c.get(ctx, c.collectionPath(entity))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	docs, err := decodeCollection(body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", entity, err)
	}

	recs := make([]sync.Record, 0, len(docs))
	for id, raw := range docs {
		// updated_at is pulled out for the reconciler; the payload itself
		// passes through untouched so unknown fields survive a round trip.
		// A document that is not an object keeps an empty updated_at and
		// ends up a per-record failure, leaving the rest of the collection
		// to reconcile.
		var meta struct {
			UpdatedAt string `json:"updated_at"`
		}
		if err := json.Unmarshal(raw, &meta); err != nil {
			slog.Warn("malformed remote document", "entity", entity, "id", id, "err", err)
		}
		recs = append(recs, sync.Record{
			Entity:    entity,
			ID:        id,
			UpdatedAt: meta.UpdatedAt,
			Payload:   raw,
		})
	}
	return recs, nil
}

// FetchDeletions downloads every tombstone of a collection.
func (c *Client) FetchDeletions(ctx context.Context, entity models.EntityType) ([]sync.Deletion, error) {
	body, err := c.get(ctx, c.deletionsPath(entity))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	docs, err := decodeCollection(body)
	if err != nil {
		return nil, fmt.Errorf("decode %s deletions: %w", entity, err)
	}

	dels := make([]sync.Deletion, 0, len(docs))
	for id, raw := range docs {
		var meta struct {
			DeletedAt string `json:"deleted_at"`
		}
		if err := json.Unmarshal(raw, &meta); err != nil {
			slog.Warn("malformed remote deletion marker", "entity", entity, "id", id, "err", err)
		}
		dels = append(dels, sync.Deletion{Entity: entity, ID: id, DeletedAt: meta.DeletedAt})
	}
	return dels, nil
}

// Push uploads one record, replacing any remote copy.
func (c *Client) Push(ctx context.Context, rec sync.Record) error {
	return c.put(ctx, c.documentPath(rec.Entity, rec.ID), rec.Payload)
}

// PushDeletion removes the remote record and writes its tombstone, so
// other devices see the deletion rather than a silent disappearance.
func (c *Client) PushDeletion(ctx context.Context, del sync.Deletion) error {
	if err := c.delete(ctx, c.documentPath(del.Entity, del.ID)); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	body, err := json.Marshal(map[string]string{"deleted_at": del.DeletedAt})
	if err != nil {
		return fmt.Errorf("marshal tombstone: %w", err)
	}
	return c.put(ctx, c.tombstonePath(del.Entity, del.ID), body)
}

// --- Paths ---

func (c *Client) collectionPath(entity models.EntityType) string {
	return fmt.Sprintf("/users/%s/%s.json", c.UserID, entity)
}

func (c *Client) documentPath(entity models.EntityType, id string) string {
	return fmt.Sprintf("/users/%s/%s/%s.json", c.UserID, entity, url.PathEscape(id))
}

func (c *Client) deletionsPath(entity models.EntityType) string {
	return fmt.Sprintf("/users/%s/deletions/%s.json", c.UserID, entity)
}

func (c *Client) tombstonePath(entity models.EntityType, id string) string {
	return fmt.Sprintf("/users/%s/deletions/%s/%s.json", c.UserID, entity, url.PathEscape(id))
}

// --- HTTP helpers ---

func decodeCollection(body []byte) (map[string]json.RawMessage, error) {
	// The store returns the literal null for an empty location
	if len(body) == 0 || string(body) == "null" {
		return nil, nil
	}
	var docs map[string]json.RawMessage
	if err := json.Unmarshal(body, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.doRequest(ctx, http.MethodGet, path, nil)
}

func (c *Client) put(ctx context.Context, path string, body []byte) error {
	_, err := c.doRequest(ctx, http.MethodPut, path, body)
	return err
}

func (c *Client) delete(ctx context.Context, path string) error {
	_, err := c.doRequest(ctx, http.MethodDelete, path, nil)
	return err
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	u := c.BaseURL + path
	if c.Token != "" {
		u += "?auth=" + url.QueryEscape(c.Token)
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: check your auth token", ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%s %s: HTTP %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
