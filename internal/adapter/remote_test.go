package adapter_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/bmsync/internal/adapter"
	"github.com/nikbrunner/bmsync/internal/config"
	"github.com/nikbrunner/bmsync/internal/logger"
	"github.com/nikbrunner/bmsync/internal/model"
	"github.com/nikbrunner/bmsync/internal/server"
)

func newRemote(t *testing.T, token string) *adapter.Remote {
	t.Helper()
	srv, err := server.New(config.Server{
		Accounts: []config.Account{{Name: "alice", Token: "secret"}},
	}, logger.Nop())
	assert.NilError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return adapter.NewRemote(ts.URL, func() string { return token }, adapter.WithHTTPClient(ts.Client()))
}

func TestRemote_EmptyTokenSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer ts.Close()

	r := adapter.NewRemote(ts.URL, func() string { return "" })
	_, err := r.ListBookmarks(context.Background())
	assert.Assert(t, errors.Is(err, model.ErrNotAuthenticated))
	assert.Equal(t, hits.Load(), int32(0))
}

func TestRemote_WrongTokenIsUnauthenticated(t *testing.T) {
	r := newRemote(t, "stolen")
	_, err := r.ListFolders(context.Background())
	assert.Assert(t, errors.Is(err, model.ErrNotAuthenticated), "got %v", err)
}

func TestRemote_RoundTrip(t *testing.T) {
	ctx := context.Background()
	r := newRemote(t, "secret")

	folder, err := r.CreateFolder(ctx, model.FolderInput{Name: "Dev"})
	assert.NilError(t, err)

	b, err := r.CreateBookmark(ctx, model.BookmarkInput{
		URL: "https://go.dev", Title: "Go", FolderID: &folder.ID, Tags: []string{"lang"},
	})
	assert.NilError(t, err)
	assert.Equal(t, *b.FolderID, folder.ID)
	assert.Check(t, is.Len(b.TagIDs, 1))

	updated, err := r.UpdateBookmark(ctx, b.ID, model.BookmarkPatch{
		FolderID: model.Set[*string](nil),
		Title:    model.Set("Go home"),
	})
	assert.NilError(t, err)
	assert.Assert(t, updated.FolderID == nil, "explicit null clears the folder")
	assert.Equal(t, updated.Title, "Go home")

	assert.NilError(t, r.TrackClick(ctx, b.ID))

	dup, err := r.FindDuplicate(ctx, "https://go.dev")
	assert.NilError(t, err)
	assert.Equal(t, dup.ID, b.ID)
	assert.Equal(t, dup.ClickCount, 1)

	none, err := r.FindDuplicate(ctx, "https://zig.dev")
	assert.NilError(t, err)
	assert.Assert(t, none == nil)

	tags, err := r.ListTags(ctx)
	assert.NilError(t, err)
	assert.Check(t, is.Len(tags, 1))
	assert.Equal(t, tags[0].BookmarkCount, 1)

	assert.NilError(t, r.DeleteBookmark(ctx, b.ID))
	list, err := r.ListBookmarks(ctx)
	assert.NilError(t, err)
	assert.Check(t, is.Len(list, 0))
}

func TestRemote_ErrorMapping(t *testing.T) {
	ctx := context.Background()
	r := newRemote(t, "secret")

	_, err := r.CreateTag(ctx, model.TagInput{Name: "go"})
	assert.NilError(t, err)

	_, err = r.CreateTag(ctx, model.TagInput{Name: "GO"})
	assert.Assert(t, errors.Is(err, model.ErrConflict), "got %v", err)
	assert.ErrorContains(t, err, `tag "GO" already exists`)

	_, err = r.UpdateBookmark(ctx, "missing", model.BookmarkPatch{Title: model.Set("x")})
	assert.Assert(t, errors.Is(err, model.ErrNotFound), "got %v", err)

	_, err = r.CreateBookmark(ctx, model.BookmarkInput{URL: ""})
	assert.Assert(t, errors.Is(err, model.ErrValidation), "got %v", err)
}

func TestRemote_ImportAndReorder(t *testing.T) {
	ctx := context.Background()
	r := newRemote(t, "secret")

	res, err := r.ImportBookmarks(ctx, []model.BookmarkInput{
		{URL: "https://a.dev", Title: "A"},
		{URL: "https://b.dev", Title: "B"},
		{URL: "https://a.dev", Title: "A again"},
	})
	assert.NilError(t, err)
	assert.Equal(t, res, model.ImportResult{Added: 2, Skipped: 1})

	list, err := r.ListBookmarks(ctx)
	assert.NilError(t, err)
	assert.NilError(t, r.ReorderBookmarks(ctx, model.Sequence(list[1].ID, list[0].ID)))

	reordered, err := r.ListBookmarks(ctx)
	assert.NilError(t, err)
	assert.Equal(t, reordered[0].URL, "https://b.dev")

	f1, err := r.CreateFolder(ctx, model.FolderInput{Name: "One"})
	assert.NilError(t, err)
	f2, err := r.CreateFolder(ctx, model.FolderInput{Name: "Two"})
	assert.NilError(t, err)
	assert.NilError(t, r.ReorderFolders(ctx, model.Sequence(f2.ID, f1.ID)))

	folders, err := r.ListFolders(ctx)
	assert.NilError(t, err)
	assert.Equal(t, folders[0].Name, "Two")
}
