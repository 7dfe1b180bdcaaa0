package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nikbrunner/bmsync/internal/model"
	"github.com/nikbrunner/bmsync/internal/storage"
)

func sampleStore() *model.Store {
	f1 := "f1"
	return &model.Store{
		Folders: []model.Folder{
			{ID: f1, Name: "Development"},
		},
		Tags: []model.Tag{
			{ID: "t1", Name: "go"},
		},
		Bookmarks: []model.Bookmark{
			{ID: "b1", Title: "Test", URL: "https://example.com", FolderID: &f1, TagIDs: []string{"t1"}},
		},
	}
}

func TestJSONStorage_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	configPath := filepath.Join(t.TempDir(), "bookmarks.json")

	s := storage.NewJSONStorage(configPath)
	if err := s.Save(ctx, sampleStore()); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	if len(loaded.Folders) != 1 {
		t.Errorf("expected 1 folder, got %d", len(loaded.Folders))
	}
	if len(loaded.Tags) != 1 {
		t.Errorf("expected 1 tag, got %d", len(loaded.Tags))
	}
	if len(loaded.Bookmarks) != 1 {
		t.Fatalf("expected 1 bookmark, got %d", len(loaded.Bookmarks))
	}
	if loaded.Folders[0].Name != "Development" {
		t.Errorf("expected folder name 'Development', got %q", loaded.Folders[0].Name)
	}
	if got := loaded.Bookmarks[0].TagIDs; len(got) != 1 || got[0] != "t1" {
		t.Errorf("expected tag ids [t1], got %v", got)
	}
}

func TestJSONStorage_LoadNonexistent(t *testing.T) {
	s := storage.NewJSONStorage(filepath.Join(t.TempDir(), "nonexistent.json"))
	store, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}

	if !store.IsEmpty() || len(store.Tags) != 0 {
		t.Error("expected empty store for missing file")
	}
	if store.Bookmarks == nil || store.Folders == nil || store.Tags == nil {
		t.Error("expected initialized slices")
	}
}

func TestJSONStorage_LoadNormalizesNilSlices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookmarks.json")
	blob := `{"bookmarks":[{"id":"b1","url":"https://a.example","title":"A"}]}`
	if err := os.WriteFile(path, []byte(blob), 0644); err != nil {
		t.Fatal(err)
	}

	store, err := storage.NewJSONStorage(path).Load(context.Background())
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if store.Folders == nil || store.Tags == nil {
		t.Error("expected missing collections to become empty slices")
	}
	if store.Bookmarks[0].TagIDs == nil {
		t.Error("expected nil tag ids to be normalized")
	}
}

func TestJSONStorage_CreatesDirectory(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "dir", "bookmarks.json")

	s := storage.NewJSONStorage(configPath)
	if err := s.Save(context.Background(), model.NewStore()); err != nil {
		t.Fatalf("failed to save with nested dir: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("config file was not created in nested directory")
	}
}

func TestJSONStorage_PreservesOrder(t *testing.T) {
	ctx := context.Background()
	s := storage.NewJSONStorage(filepath.Join(t.TempDir(), "bookmarks.json"))

	store := &model.Store{
		Folders: []model.Folder{
			{ID: "f1", Name: "First"},
			{ID: "f2", Name: "Second"},
			{ID: "f3", Name: "Third"},
		},
	}
	if err := s.Save(ctx, store); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	for i, name := range []string{"First", "Second", "Third"} {
		if loaded.Folders[i].Name != name {
			t.Errorf("order not preserved: expected %q at position %d, got %q",
				name, i, loaded.Folders[i].Name)
		}
	}
}

func TestMemoryStorage_IsolatesCallers(t *testing.T) {
	ctx := context.Background()
	s := storage.NewMemoryStorage(sampleStore())

	loaded, _ := s.Load(ctx)
	loaded.Bookmarks[0].Title = "mutated"

	again, _ := s.Load(ctx)
	if again.Bookmarks[0].Title != "Test" {
		t.Errorf("memory storage leaked a mutable reference, got %q", again.Bookmarks[0].Title)
	}
}
