// Package cascade reassigns dependent bookmarks before a folder or tag is
// deleted.
//
// Bookmarks are updated one at a time. The first failure stops the run, the
// parent delete is not issued and nothing already reassigned is undone; the
// returned *PartialError says exactly how far it got.
package cascade

import (
	"context"
	"fmt"
	"strings"

	"github.com/nikbrunner/bmsync/internal/model"
)

// Mutator is the slice of the coordinator the cascade needs.
type Mutator interface {
	Bookmarks() []model.Bookmark
	UpdateBookmark(ctx context.Context, id string, patch model.BookmarkPatch) (model.Bookmark, error)
	DeleteFolder(ctx context.Context, id string) error
	DeleteTag(ctx context.Context, id string) error
}

// FolderOptions controls what happens to a folder's bookmarks.
type FolderOptions struct {
	// Move reassigns every bookmark to Target before deleting. Without it
	// the bookmarks stay and end up uncategorized by the delete itself.
	Move   bool
	Target *string // nil = uncategorized
}

// TagOptions controls what happens to a tag's bookmarks.
type TagOptions struct {
	Replacement *string // tag ID added to every carrying bookmark; nil = none
}

// Report describes a completed cascade.
type Report struct {
	Reassigned []string
}

// PartialError is returned when a reassignment failed midway.
type PartialError struct {
	Op         string // "delete folder" or "delete tag"
	ID         string // folder or tag being deleted
	Reassigned []string
	Failed     string
	Pending    []string
	Err        error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%s %s: reassigning bookmark %s failed after %d of %d: %v",
		e.Op, e.ID, e.Failed, len(e.Reassigned), len(e.Reassigned)+1+len(e.Pending), e.Err)
}

func (e *PartialError) Unwrap() error {
	return e.Err
}

// DeleteFolder reassigns the folder's bookmarks as opts say, then deletes
// the folder.
func DeleteFolder(ctx context.Context, m Mutator, folderID string, opts FolderOptions) (Report, error) {
	if opts.Move && opts.Target != nil && *opts.Target == folderID {
		return Report{}, fmt.Errorf("%w: cannot move bookmarks into the folder being deleted", model.ErrValidation)
	}

	var report Report
	if opts.Move {
		var ids []string
		for _, b := range m.Bookmarks() {
			if b.InFolder(&folderID) {
				ids = append(ids, b.ID)
			}
		}

		patch := model.BookmarkPatch{FolderID: model.Set(opts.Target)}
		reassigned, perr := run(ctx, ids, func(ctx context.Context, id string) error {
			_, err := m.UpdateBookmark(ctx, id, patch)
			return err
		})
		if perr != nil {
			perr.Op, perr.ID = "delete folder", folderID
			return Report{}, perr
		}
		report.Reassigned = reassigned
	}

	if err := m.DeleteFolder(ctx, folderID); err != nil {
		return report, fmt.Errorf("delete folder %s: %w", folderID, err)
	}
	return report, nil
}

// DeleteTag swaps the tag for opts.Replacement on every carrying bookmark,
// or just strips it, then deletes the tag.
func DeleteTag(ctx context.Context, m Mutator, tagID string, opts TagOptions) (Report, error) {
	if opts.Replacement != nil && *opts.Replacement == tagID {
		return Report{}, fmt.Errorf("%w: replacement is the tag being deleted", model.ErrValidation)
	}

	var report Report
	if opts.Replacement != nil {
		tagIDs := make(map[string][]string)
		var ids []string
		for _, b := range m.Bookmarks() {
			if b.HasTag(tagID) {
				ids = append(ids, b.ID)
				tagIDs[b.ID] = replaceTag(b.TagIDs, tagID, *opts.Replacement)
			}
		}

		reassigned, perr := run(ctx, ids, func(ctx context.Context, id string) error {
			_, err := m.UpdateBookmark(ctx, id, model.BookmarkPatch{TagIDs: model.Set(tagIDs[id])})
			return err
		})
		if perr != nil {
			perr.Op, perr.ID = "delete tag", tagID
			return Report{}, perr
		}
		report.Reassigned = reassigned
	}

	if err := m.DeleteTag(ctx, tagID); err != nil {
		return report, fmt.Errorf("delete tag %s: %w", tagID, err)
	}
	return report, nil
}

// replaceTag drops oldID and appends newID unless already present.
func replaceTag(ids []string, oldID, newID string) []string {
	out := make([]string, 0, len(ids))
	has := false
	for _, id := range ids {
		if id == oldID {
			continue
		}
		if id == newID {
			has = true
		}
		out = append(out, id)
	}
	if !has {
		out = append(out, newID)
	}
	return out
}

// run calls fn for each id in order and stops at the first error. The
// returned *PartialError still lacks Op and ID.
func run(ctx context.Context, ids []string, fn func(context.Context, string) error) ([]string, *PartialError) {
	done := make([]string, 0, len(ids))
	for i, id := range ids {
		err := ctx.Err()
		if err == nil {
			err = fn(ctx, id)
		}
		if err != nil {
			return done, &PartialError{
				Reassigned: done,
				Failed:     id,
				Pending:    append([]string{}, ids[i+1:]...),
				Err:        err,
			}
		}
		done = append(done, id)
	}
	return done, nil
}

// Describe renders the error as a short multi-line summary for the CLI.
func (e *PartialError) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s stopped: %v\n", e.Op, e.ID, e.Err)
	fmt.Fprintf(&b, "  reassigned: %s\n", list(e.Reassigned))
	fmt.Fprintf(&b, "  failed:     %s\n", e.Failed)
	fmt.Fprintf(&b, "  untouched:  %s", list(e.Pending))
	return b.String()
}

func list(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ", ")
}
