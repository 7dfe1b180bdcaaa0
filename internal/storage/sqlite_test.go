package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/bmsync/internal/model"
	"github.com/nikbrunner/bmsync/internal/storage"
)

func openSQLite(t *testing.T, path string) *storage.SQLiteStorage {
	t.Helper()
	s, err := storage.NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStorage_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t, filepath.Join(t.TempDir(), "bookmarks.db"))

	folderID := "f1"
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	desc := "Everything about Go"

	store := &model.Store{
		Folders: []model.Folder{
			{ID: folderID, Name: "Development", Color: model.Ptr("#00ADD8"), CreatedAt: now, UpdatedAt: now},
			{ID: "f2", Name: "Sub", ParentID: &folderID, SortOrder: 1, CreatedAt: now, UpdatedAt: now},
		},
		Tags: []model.Tag{
			{ID: "t1", Name: "go", CreatedAt: now},
			{ID: "t2", Name: "docs", CreatedAt: now},
		},
		Bookmarks: []model.Bookmark{
			{
				ID:          "b1",
				Title:       "Go",
				URL:         "https://go.dev",
				Description: &desc,
				IsFavorite:  true,
				ClickCount:  4,
				SortOrder:   0,
				FolderID:    &folderID,
				TagIDs:      []string{"t2", "t1"},
				CreatedAt:   now,
				UpdatedAt:   now,
			},
		},
	}

	assert.NilError(t, s.Save(ctx, store))

	loaded, err := s.Load(ctx)
	assert.NilError(t, err)

	assert.Assert(t, is.Len(loaded.Folders, 2))
	assert.Equal(t, *loaded.Folders[0].Color, "#00ADD8")
	assert.Equal(t, *loaded.Folders[1].ParentID, folderID)

	assert.Assert(t, is.Len(loaded.Bookmarks, 1))
	b := loaded.Bookmarks[0]
	assert.Equal(t, *b.Description, desc)
	assert.Assert(t, b.IsFavorite)
	assert.Equal(t, b.ClickCount, 4)
	assert.Equal(t, *b.FolderID, folderID)
	assert.DeepEqual(t, b.TagIDs, []string{"t2", "t1"})
	assert.Assert(t, b.CreatedAt.Equal(now))
}

func TestSQLiteStorage_EmptyDatabase(t *testing.T) {
	s := openSQLite(t, filepath.Join(t.TempDir(), "empty.db"))

	store, err := s.Load(context.Background())
	assert.NilError(t, err)
	assert.Assert(t, store.IsEmpty())
	assert.Assert(t, is.Len(store.Tags, 0))
}

func TestSQLiteStorage_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "dir", "bookmarks.db")

	first, err := storage.NewSQLiteStorage(path)
	assert.NilError(t, err)
	assert.NilError(t, first.Save(ctx, sampleStore()))
	assert.NilError(t, first.Close())

	// Opening again must not fail on already-applied migrations.
	second := openSQLite(t, path)
	loaded, err := second.Load(ctx)
	assert.NilError(t, err)
	assert.Assert(t, is.Len(loaded.Bookmarks, 1))
}

func TestSQLiteStorage_NullableFields(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t, filepath.Join(t.TempDir(), "nullable.db"))

	store := &model.Store{
		Bookmarks: []model.Bookmark{
			{ID: "b1", Title: "Orphan", URL: "https://orphan.com", TagIDs: nil},
		},
	}
	assert.NilError(t, s.Save(ctx, store))

	loaded, err := s.Load(ctx)
	assert.NilError(t, err)

	b := loaded.Bookmarks[0]
	assert.Assert(t, b.FolderID == nil)
	assert.Assert(t, b.Description == nil)
	assert.Assert(t, b.Favicon == nil)
	assert.Assert(t, b.TagIDs != nil)
	assert.Assert(t, is.Len(b.TagIDs, 0))
}

func TestSQLiteStorage_SaveReplacesPreviousContent(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t, filepath.Join(t.TempDir(), "replace.db"))

	assert.NilError(t, s.Save(ctx, sampleStore()))
	assert.NilError(t, s.Save(ctx, model.NewStore()))

	loaded, err := s.Load(ctx)
	assert.NilError(t, err)
	assert.Assert(t, loaded.IsEmpty())
	assert.Assert(t, is.Len(loaded.Tags, 0))
}
