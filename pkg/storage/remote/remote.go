// Package remote adapts a hosted memory API to the Store interface.
//
// The hosted API is loosely shaped: list responses may wrap records in
// "results", "memories" or "data", bodies may be "content" or "summary",
// and metadata values may arrive as strings. All of that is resolved here
// so callers only ever see normalized memory.Record values.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/recallhq/recall/pkg/memory"
	"github.com/recallhq/recall/pkg/storage"
)

const maxBodySize = 8 << 20

// Config holds configuration for Store.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Store implements storage.Store against the hosted API.
type Store struct {
	base   string
	apiKey string
	client *http.Client
	now    func() time.Time
}

// New creates a remote store.
func New(config *Config) (*Store, error) {
	if strings.TrimSpace(config.BaseURL) == "" {
		return nil, errors.New("remote: base URL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("remote: invalid base URL: %w", err)
	}
	client := config.HTTPClient
	if client == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Store{
		base:   strings.TrimRight(config.BaseURL, "/"),
		apiKey: config.APIKey,
		client: client,
		now:    time.Now,
	}, nil
}

type writeRequest struct {
	ContainerTag string           `json:"containerTag"`
	Content      string           `json:"content"`
	Metadata     *memory.Metadata `json:"metadata,omitempty"`
}

type searchRequest struct {
	Q            string `json:"q"`
	ContainerTag string `json:"containerTag"`
	Limit        int    `json:"limit,omitempty"`
}

// do performs a request and returns the body of a 2xx response. 404 maps to
// memory.ErrNotFound, 400/422 to memory.ErrInvalidRecord, and everything
// else to an UnavailableError.
func (s *Store) do(ctx context.Context, method, path string, query url.Values, body any, id string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &storage.SerializationError{Operation: "marshal", Cause: err}
		}
		reader = bytes.NewReader(data)
	}

	u := s.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &storage.UnavailableError{Backend: "remote", Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &storage.UnavailableError{Backend: "remote", Cause: err}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, storage.NotFound(id)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("%w: %s", memory.ErrInvalidRecord, strings.TrimSpace(string(data)))
	default:
		return nil, &storage.UnavailableError{
			Backend: "remote",
			Cause:   fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode),
		}
	}
}

func tagQuery(containerTag string) url.Values {
	return url.Values{"containerTag": []string{containerTag}}
}

// List fetches the container's records and filters them locally.
func (s *Store) List(ctx context.Context, containerTag string, filter storage.Filter) ([]*memory.Record, error) {
	if err := storage.CheckContainer(containerTag); err != nil {
		return nil, err
	}
	body, err := s.do(ctx, http.MethodGet, "/memories", tagQuery(containerTag), nil, "")
	if err != nil {
		return nil, err
	}
	records, err := decodeList(body, containerTag)
	if err != nil {
		return nil, err
	}
	var out []*memory.Record
	for _, r := range records {
		if filter.Match(r) {
			out = append(out, r)
		}
	}
	storage.SortNewest(out)
	return filter.Page(out), nil
}

// Get fetches one record.
func (s *Store) Get(ctx context.Context, containerTag, id string) (*memory.Record, error) {
	if err := storage.CheckContainer(containerTag); err != nil {
		return nil, err
	}
	body, err := s.do(ctx, http.MethodGet, "/memories/"+url.PathEscape(id), tagQuery(containerTag), nil, id)
	if err != nil {
		return nil, err
	}
	r, ok := decodeObject(body, containerTag)
	if !ok || r.ID != id {
		return nil, storage.NotFound(id)
	}
	return r, nil
}

// Add creates a record. When the API echoes only an id, the record is
// completed from the request.
func (s *Store) Add(ctx context.Context, containerTag, content string, md memory.Metadata) (*memory.Record, error) {
	draft, err := storage.NewRecord(containerTag, content, md, s.now())
	if err != nil {
		return nil, err
	}
	body, err := s.do(ctx, http.MethodPost, "/memories", nil, writeRequest{
		ContainerTag: containerTag,
		Content:      draft.Content,
		Metadata:     &draft.Metadata,
	}, "")
	if err != nil {
		return nil, err
	}

	if r, ok := decodeObject(body, containerTag); ok {
		if r.Content == "" {
			r.Content = draft.Content
			r.Metadata = draft.Metadata
		}
		return r, nil
	}
	if id := idOnly(body); id != "" {
		draft.ID = id
		return draft, nil
	}
	return nil, &storage.SerializationError{Operation: "unmarshal", Cause: errors.New("add response carried no id")}
}

func idOnly(body []byte) string {
	var v struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return ""
	}
	return v.ID
}

// Update reads the record, applies the patch locally and writes the full
// body back. Concurrent updates are last-write-wins.
func (s *Store) Update(ctx context.Context, containerTag, id string, patch memory.Patch) (*memory.Record, error) {
	if patch.Content != nil {
		if err := memory.ValidateContent(*patch.Content); err != nil {
			return nil, err
		}
	}
	r, err := s.Get(ctx, containerTag, id)
	if err != nil {
		return nil, err
	}
	r.Apply(patch, s.now())

	if _, err := s.do(ctx, http.MethodPatch, "/memories/"+url.PathEscape(id), nil, writeRequest{
		ContainerTag: containerTag,
		Content:      r.Content,
		Metadata:     &r.Metadata,
	}, id); err != nil {
		return nil, err
	}
	return r, nil
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, containerTag, id string) error {
	if err := storage.CheckContainer(containerTag); err != nil {
		return err
	}
	_, err := s.do(ctx, http.MethodDelete, "/memories/"+url.PathEscape(id), tagQuery(containerTag), nil, id)
	return err
}

// Search delegates to the hosted search endpoint.
func (s *Store) Search(ctx context.Context, containerTag, query string, limit int) ([]*memory.Record, error) {
	if err := storage.CheckContainer(containerTag); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	body, err := s.do(ctx, http.MethodPost, "/search", nil, searchRequest{
		Q:            query,
		ContainerTag: containerTag,
		Limit:        limit,
	}, "")
	if err != nil {
		return nil, err
	}
	out, err := decodeList(body, containerTag)
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// Close releases idle connections.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
