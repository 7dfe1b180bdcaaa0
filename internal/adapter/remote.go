package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/nikbrunner/bmsync/internal/logger"
	"github.com/nikbrunner/bmsync/internal/model"
)

// TokenProvider returns the current bearer token, or "" when signed out.
type TokenProvider func() string

// Remote talks to the account service over HTTP/JSON.
type Remote struct {
	baseURL string
	tokens  TokenProvider
	client  *http.Client
	log     logger.Logger
}

// RemoteOption customizes a Remote adapter.
type RemoteOption func(*Remote)

// WithHTTPClient replaces the default client. Apply it before WithTimeout.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *Remote) { r.client = c }
}

// WithTimeout sets the timeout of the client in use.
func WithTimeout(d time.Duration) RemoteOption {
	return func(r *Remote) { r.client.Timeout = d }
}

// WithLogger logs one debug line per request.
func WithLogger(l logger.Logger) RemoteOption {
	return func(r *Remote) { r.log = l }
}

// NewRemote creates a Remote adapter for the service at baseURL.
func NewRemote(baseURL string, tokens TokenProvider, opts ...RemoteOption) *Remote {
	r := &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// do performs one request. body is JSON-encoded when non-nil and out is
// decoded from the response when non-nil.
func (r *Remote) do(ctx context.Context, method, path string, body, out any) error {
	token := ""
	if r.tokens != nil {
		token = r.tokens()
	}
	if token == "" {
		return model.ErrNotAuthenticated
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}

	r.log.Debug("remote request",
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode >= 300 {
		return responseError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// responseError maps a failed response onto the model sentinels.
func responseError(status int, body []byte) error {
	msg := gjson.GetBytes(body, "error").String()
	if msg == "" {
		msg = http.StatusText(status)
	}

	var kind error
	switch status {
	case http.StatusUnauthorized:
		kind = model.ErrNotAuthenticated
	case http.StatusNotFound:
		kind = model.ErrNotFound
	case http.StatusConflict:
		kind = model.ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = model.ErrValidation
	default:
		return fmt.Errorf("remote: %s (status %d)", msg, status)
	}
	return fmt.Errorf("%w: %s", kind, strings.TrimPrefix(msg, kind.Error()+": "))
}

func escape(id string) string {
	return url.PathEscape(id)
}

type orderRequest struct {
	Items []model.OrderItem `json:"items"`
}

// === Bookmarks ===

func (r *Remote) ListBookmarks(ctx context.Context) ([]model.Bookmark, error) {
	var out []model.Bookmark
	if err := r.do(ctx, http.MethodGet, "/api/bookmarks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Remote) CreateBookmark(ctx context.Context, in model.BookmarkInput) (model.Bookmark, error) {
	var out model.Bookmark
	err := r.do(ctx, http.MethodPost, "/api/bookmarks", in, &out)
	return out, err
}

func (r *Remote) UpdateBookmark(ctx context.Context, id string, patch model.BookmarkPatch) (model.Bookmark, error) {
	var out model.Bookmark
	err := r.do(ctx, http.MethodPatch, "/api/bookmarks/"+escape(id), patch, &out)
	return out, err
}

func (r *Remote) DeleteBookmark(ctx context.Context, id string) error {
	return r.do(ctx, http.MethodDelete, "/api/bookmarks/"+escape(id), nil, nil)
}

func (r *Remote) ReorderBookmarks(ctx context.Context, items []model.OrderItem) error {
	return r.do(ctx, http.MethodPut, "/api/bookmarks/reorder", orderRequest{Items: items}, nil)
}

func (r *Remote) TrackClick(ctx context.Context, id string) error {
	return r.do(ctx, http.MethodPost, "/api/bookmarks/"+escape(id)+"/click", nil, nil)
}

func (r *Remote) FindDuplicate(ctx context.Context, rawURL string) (*model.Bookmark, error) {
	var out struct {
		Bookmark *model.Bookmark `json:"bookmark"`
	}
	path := "/api/bookmarks/duplicate?url=" + url.QueryEscape(rawURL)
	if err := r.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Bookmark, nil
}

func (r *Remote) ImportBookmarks(ctx context.Context, inputs []model.BookmarkInput) (model.ImportResult, error) {
	var out model.ImportResult
	body := struct {
		Bookmarks []model.BookmarkInput `json:"bookmarks"`
	}{Bookmarks: inputs}
	err := r.do(ctx, http.MethodPost, "/api/bookmarks/import", body, &out)
	return out, err
}

// === Folders ===

func (r *Remote) ListFolders(ctx context.Context) ([]model.Folder, error) {
	var out []model.Folder
	if err := r.do(ctx, http.MethodGet, "/api/folders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Remote) CreateFolder(ctx context.Context, in model.FolderInput) (model.Folder, error) {
	var out model.Folder
	err := r.do(ctx, http.MethodPost, "/api/folders", in, &out)
	return out, err
}

func (r *Remote) UpdateFolder(ctx context.Context, id string, patch model.FolderPatch) (model.Folder, error) {
	var out model.Folder
	err := r.do(ctx, http.MethodPatch, "/api/folders/"+escape(id), patch, &out)
	return out, err
}

func (r *Remote) DeleteFolder(ctx context.Context, id string) error {
	return r.do(ctx, http.MethodDelete, "/api/folders/"+escape(id), nil, nil)
}

func (r *Remote) ReorderFolders(ctx context.Context, items []model.OrderItem) error {
	return r.do(ctx, http.MethodPut, "/api/folders/reorder", orderRequest{Items: items}, nil)
}

// === Tags ===

func (r *Remote) ListTags(ctx context.Context) ([]model.Tag, error) {
	var out []model.Tag
	if err := r.do(ctx, http.MethodGet, "/api/tags", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Remote) CreateTag(ctx context.Context, in model.TagInput) (model.Tag, error) {
	var out model.Tag
	err := r.do(ctx, http.MethodPost, "/api/tags", in, &out)
	return out, err
}

func (r *Remote) UpdateTag(ctx context.Context, id string, patch model.TagPatch) (model.Tag, error) {
	var out model.Tag
	err := r.do(ctx, http.MethodPatch, "/api/tags/"+escape(id), patch, &out)
	return out, err
}

func (r *Remote) DeleteTag(ctx context.Context, id string) error {
	return r.do(ctx, http.MethodDelete, "/api/tags/"+escape(id), nil, nil)
}
