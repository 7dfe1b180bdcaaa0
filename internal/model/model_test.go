package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/bmsync/internal/model"
)

func stringPtr(s string) *string { return &s }

func TestBookmark_JSONSerialization(t *testing.T) {
	tests := []struct {
		name     string
		bookmark model.Bookmark
	}{
		{
			name: "bookmark with all fields",
			bookmark: model.Bookmark{
				ID:          "b1",
				Title:       "TanStack Router",
				URL:         "https://tanstack.com/router",
				Description: stringPtr("Type-safe routing"),
				IsFavorite:  true,
				ClickCount:  3,
				SortOrder:   2,
				FolderID:    stringPtr("f1"),
				TagIDs:      []string{"t1", "t2"},
				CreatedAt:   time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
			},
		},
		{
			name: "uncategorized bookmark",
			bookmark: model.Bookmark{
				ID:        "b2",
				Title:     "Hacker News",
				URL:       "https://news.ycombinator.com",
				TagIDs:    []string{},
				CreatedAt: time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.bookmark)
			assert.NilError(t, err)

			var got model.Bookmark
			assert.NilError(t, json.Unmarshal(data, &got))
			assert.DeepEqual(t, got, tt.bookmark)
		})
	}
}

func TestBookmarkPatch_OmitsUnsetFields(t *testing.T) {
	patch := model.BookmarkPatch{
		Title:    model.Set("New title"),
		FolderID: model.Set[*string](nil),
	}

	data, err := json.Marshal(patch)
	assert.NilError(t, err)
	assert.Equal(t, string(data), `{"title":"New title","folderId":null}`)
}

func TestBookmarkPatch_UnmarshalDistinguishesNullFromMissing(t *testing.T) {
	var patch model.BookmarkPatch
	assert.NilError(t, json.Unmarshal([]byte(`{"folderId":null,"description":""}`), &patch))

	folderID, ok := patch.FolderID.Get()
	assert.Assert(t, ok, "explicit null must count as supplied")
	assert.Assert(t, folderID == nil)

	desc, ok := patch.Description.Get()
	assert.Assert(t, ok)
	assert.Equal(t, *desc, "")

	assert.Assert(t, !patch.Title.IsSet())
	assert.Assert(t, !patch.URL.IsSet())
}

func TestBookmarkPatch_Apply(t *testing.T) {
	b := model.Bookmark{
		ID:          "b1",
		Title:       "Old",
		URL:         "https://old.example",
		Description: stringPtr("keep me"),
		FolderID:    stringPtr("f1"),
	}

	model.BookmarkPatch{
		Title:    model.Set(""),
		FolderID: model.Set[*string](nil),
	}.Apply(&b)

	assert.Equal(t, b.Title, "", "empty value must still be applied")
	assert.Equal(t, b.URL, "https://old.example")
	assert.Equal(t, *b.Description, "keep me")
	assert.Assert(t, b.FolderID == nil)
}

func TestStore_GetBookmarksInFolder(t *testing.T) {
	f1ID := "f1"
	store := model.Store{
		Bookmarks: []model.Bookmark{
			{ID: "b1", Title: "Root Bookmark", SortOrder: 2},
			{ID: "b2", Title: "Nested Bookmark", FolderID: &f1ID},
			{ID: "b3", Title: "Another Root", SortOrder: 1},
		},
	}

	root := store.GetBookmarksInFolder(nil)
	assert.Assert(t, is.Len(root, 2))
	assert.Equal(t, root[0].ID, "b3")

	nested := store.GetBookmarksInFolder(&f1ID)
	assert.Assert(t, is.Len(nested, 1))
}

func TestStore_Lookups(t *testing.T) {
	store := model.Store{
		Folders: []model.Folder{{ID: "f1", Name: "Development"}},
		Tags:    []model.Tag{{ID: "t1", Name: "Golang"}},
		Bookmarks: []model.Bookmark{
			{ID: "b1", URL: "https://example.com"},
		},
	}

	assert.Assert(t, store.FolderByID("f1") != nil)
	assert.Assert(t, store.FolderByID("nonexistent") == nil)
	assert.Equal(t, store.FolderByName("development").ID, "f1")
	assert.Equal(t, store.TagByName("GOLANG").ID, "t1")
	assert.Assert(t, store.TagByName("rust") == nil)
	assert.Assert(t, store.HasBookmarkURL("https://example.com"))
	assert.Assert(t, !store.HasBookmarkURL("https://notfound.com"))
	assert.DeepEqual(t, store.TagNames([]string{"t1", "missing"}), []string{"Golang"})
}

func TestStore_Recount(t *testing.T) {
	f1 := "f1"
	store := model.Store{
		Folders: []model.Folder{{ID: "f1"}, {ID: "f2", BookmarkCount: 7}},
		Tags:    []model.Tag{{ID: "t1"}, {ID: "t2"}},
		Bookmarks: []model.Bookmark{
			{ID: "b1", FolderID: &f1, TagIDs: []string{"t1", "t2"}},
			{ID: "b2", FolderID: &f1, TagIDs: []string{"t1"}},
			{ID: "b3"},
		},
	}

	store.Recount()

	assert.Equal(t, store.Folders[0].BookmarkCount, 2)
	assert.Equal(t, store.Folders[1].BookmarkCount, 0)
	assert.Equal(t, store.Tags[0].BookmarkCount, 2)
	assert.Equal(t, store.Tags[1].BookmarkCount, 1)
}

func TestStore_CloneIsDeep(t *testing.T) {
	f1 := "f1"
	store := &model.Store{
		Bookmarks: []model.Bookmark{{ID: "b1", FolderID: &f1, TagIDs: []string{"t1"}}},
		Folders:   []model.Folder{{ID: "f1", Name: "Dev"}},
	}

	clone := store.Clone()
	*clone.Bookmarks[0].FolderID = "changed"
	clone.Bookmarks[0].TagIDs[0] = "changed"
	clone.Folders[0].Name = "changed"

	assert.Equal(t, *store.Bookmarks[0].FolderID, "f1")
	assert.Equal(t, store.Bookmarks[0].TagIDs[0], "t1")
	assert.Equal(t, store.Folders[0].Name, "Dev")
}

func TestStore_IsEmpty(t *testing.T) {
	store := model.NewStore()
	assert.Assert(t, store.IsEmpty())

	store.Tags = append(store.Tags, model.Tag{ID: "t1", Name: "lonely"})
	assert.Assert(t, store.IsEmpty(), "tags alone are not migratable data")

	store.Folders = append(store.Folders, model.Folder{ID: "f1", Name: "Dev"})
	assert.Assert(t, !store.IsEmpty())
}

func TestMoveTo(t *testing.T) {
	ids := []string{"a", "b", "c"}

	tests := []struct {
		name     string
		id       string
		position int
		want     []model.OrderItem
	}{
		{"move last to front", "c", 0, model.Sequence("c", "a", "b")},
		{"move first to end", "a", 2, model.Sequence("b", "c", "a")},
		{"clamp past end", "a", 99, model.Sequence("b", "c", "a")},
		{"clamp negative", "b", -1, model.Sequence("b", "a", "c")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.DeepEqual(t, model.MoveTo(ids, tt.id, tt.position), tt.want)
		})
	}
}
