package migration

import (
	"context"
	"fmt"
	"strings"

	"github.com/nikbrunner/bmsync/internal/adapter"
	"github.com/nikbrunner/bmsync/internal/model"
)

// Transfer copies src into dst. Folders are created parents first, reusing
// any destination folder with the same name (ignoring case). Bookmarks go
// through the bulk import, so URLs dst already has are skipped. Tags travel
// as names and are created on the other side as needed.
func Transfer(ctx context.Context, dst adapter.Adapter, src *model.Store) (model.ImportResult, error) {
	folderIDs, err := transferFolders(ctx, dst, src.Folders)
	if err != nil {
		return model.ImportResult{}, err
	}

	bookmarks := model.CloneBookmarks(src.Bookmarks)
	model.SortBookmarks(bookmarks)

	inputs := make([]model.BookmarkInput, 0, len(bookmarks))
	for _, b := range bookmarks {
		in := model.BookmarkInput{
			URL:         b.URL,
			Title:       b.Title,
			Description: b.Description,
			Favicon:     b.Favicon,
			IsFavorite:  b.IsFavorite,
			Tags:        src.TagNames(b.TagIDs),
		}
		if b.FolderID != nil {
			if id, ok := folderIDs[*b.FolderID]; ok {
				in.FolderID = &id
			}
		}
		inputs = append(inputs, in)
	}
	if len(inputs) == 0 {
		return model.ImportResult{}, nil
	}

	res, err := dst.ImportBookmarks(ctx, inputs)
	if err != nil {
		return model.ImportResult{}, fmt.Errorf("import bookmarks: %w", err)
	}
	return res, nil
}

// transferFolders returns a map from source folder ID to destination ID.
func transferFolders(ctx context.Context, dst adapter.Adapter, folders []model.Folder) (map[string]string, error) {
	ids := make(map[string]string, len(folders))
	if len(folders) == 0 {
		return ids, nil
	}

	existing, err := dst.ListFolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list destination folders: %w", err)
	}
	byName := make(map[string]string, len(existing))
	for _, f := range existing {
		byName[strings.ToLower(f.Name)] = f.ID
	}

	for _, f := range parentsFirst(folders) {
		key := strings.ToLower(f.Name)
		if id, ok := byName[key]; ok {
			ids[f.ID] = id
			continue
		}

		in := model.FolderInput{Name: f.Name, Color: f.Color, Icon: f.Icon}
		if f.ParentID != nil {
			if parent, ok := ids[*f.ParentID]; ok {
				in.ParentID = &parent
			}
		}
		created, err := dst.CreateFolder(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("create folder %q: %w", f.Name, err)
		}
		ids[f.ID] = created.ID
		byName[key] = created.ID
	}
	return ids, nil
}

// parentsFirst orders folders so every parent precedes its children,
// keeping sort order among siblings. Folders whose parent is missing are
// treated as roots, and cycles are broken arbitrarily.
func parentsFirst(folders []model.Folder) []model.Folder {
	sorted := append([]model.Folder{}, folders...)
	model.SortFolders(sorted)

	known := make(map[string]bool, len(sorted))
	for _, f := range sorted {
		known[f.ID] = true
	}

	out := make([]model.Folder, 0, len(sorted))
	placed := make(map[string]bool, len(sorted))
	for len(out) < len(sorted) {
		progress := false
		for _, f := range sorted {
			if placed[f.ID] {
				continue
			}
			if f.ParentID == nil || !known[*f.ParentID] || placed[*f.ParentID] {
				out = append(out, f)
				placed[f.ID] = true
				progress = true
			}
		}
		if !progress {
			for _, f := range sorted {
				if !placed[f.ID] {
					out = append(out, f)
					placed[f.ID] = true
					break
				}
			}
		}
	}
	return out
}
