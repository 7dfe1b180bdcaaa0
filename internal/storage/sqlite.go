package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/nikbrunner/bmsync/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStorage implements Storage using a SQLite database.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage creates a new SQLiteStorage with the given database path.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	s := &SQLiteStorage{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// migrate applies the embedded schema migrations.
func (s *SQLiteStorage) migrate() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	driver, err := sqlitemigrate.WithInstance(s.db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("init migration driver: %w", err)
	}

	// Not closing m: that would close the shared *sql.DB.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Load reads the store from the SQLite database.
func (s *SQLiteStorage) Load(ctx context.Context) (*model.Store, error) {
	store := model.NewStore()

	folders, err := s.loadFolders(ctx)
	if err != nil {
		return nil, err
	}
	store.Folders = folders

	tags, err := s.loadTags(ctx)
	if err != nil {
		return nil, err
	}
	store.Tags = tags

	bookmarks, err := s.loadBookmarks(ctx)
	if err != nil {
		return nil, err
	}
	store.Bookmarks = bookmarks

	return store, nil
}

func (s *SQLiteStorage) loadFolders(ctx context.Context) ([]model.Folder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, color, icon, sort_order, parent_id, created_at, updated_at
		FROM folders
		ORDER BY sort_order, rowid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	folders := []model.Folder{}
	for rows.Next() {
		var f model.Folder
		var color, icon, parentID sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&f.ID, &f.Name, &color, &icon, &f.SortOrder, &parentID, &createdAt, &updatedAt); err != nil {
			return nil, err
		}

		f.Color = nullString(color)
		f.Icon = nullString(icon)
		f.ParentID = nullString(parentID)
		f.CreatedAt = parseTime(createdAt)
		f.UpdatedAt = parseTime(updatedAt)

		folders = append(folders, f)
	}
	return folders, rows.Err()
}

func (s *SQLiteStorage) loadTags(ctx context.Context) ([]model.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, color, created_at
		FROM tags
		ORDER BY name COLLATE NOCASE
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		var color sql.NullString
		var createdAt string

		if err := rows.Scan(&t.ID, &t.Name, &color, &createdAt); err != nil {
			return nil, err
		}
		t.Color = nullString(color)
		t.CreatedAt = parseTime(createdAt)

		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *SQLiteStorage) loadBookmarks(ctx context.Context) ([]model.Bookmark, error) {
	tagIDs, err := s.loadBookmarkTags(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, title, description, favicon, is_favorite, click_count,
		       sort_order, folder_id, created_at, updated_at
		FROM bookmarks
		ORDER BY sort_order, rowid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookmarks := []model.Bookmark{}
	for rows.Next() {
		var b model.Bookmark
		var description, favicon, folderID sql.NullString
		var favorite int
		var createdAt, updatedAt string

		if err := rows.Scan(
			&b.ID, &b.URL, &b.Title, &description, &favicon, &favorite, &b.ClickCount,
			&b.SortOrder, &folderID, &createdAt, &updatedAt,
		); err != nil {
			return nil, err
		}

		b.Description = nullString(description)
		b.Favicon = nullString(favicon)
		b.FolderID = nullString(folderID)
		b.IsFavorite = favorite == 1
		b.CreatedAt = parseTime(createdAt)
		b.UpdatedAt = parseTime(updatedAt)
		b.TagIDs = tagIDs[b.ID]
		if b.TagIDs == nil {
			b.TagIDs = []string{}
		}

		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}

func (s *SQLiteStorage) loadBookmarkTags(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT bookmark_id, tag_id FROM bookmark_tags ORDER BY bookmark_id, position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]string)
	for rows.Next() {
		var bookmarkID, tagID string
		if err := rows.Scan(&bookmarkID, &tagID); err != nil {
			return nil, err
		}
		result[bookmarkID] = append(result[bookmarkID], tagID)
	}
	return result, rows.Err()
}

// Save writes the store to the SQLite database.
// Uses a transaction for atomicity - all or nothing.
func (s *SQLiteStorage) Save(ctx context.Context, store *model.Store) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"bookmark_tags", "bookmarks", "tags", "folders"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}

	folderStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO folders (id, name, color, icon, sort_order, parent_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer folderStmt.Close()

	for _, f := range store.Folders {
		if _, err := folderStmt.ExecContext(ctx,
			f.ID, f.Name, f.Color, f.Icon, f.SortOrder, f.ParentID,
			formatTime(f.CreatedAt), formatTime(f.UpdatedAt),
		); err != nil {
			return fmt.Errorf("insert folder %s: %w", f.ID, err)
		}
	}

	tagStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tags (id, name, color, created_at) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer tagStmt.Close()

	for _, t := range store.Tags {
		if _, err := tagStmt.ExecContext(ctx, t.ID, t.Name, t.Color, formatTime(t.CreatedAt)); err != nil {
			return fmt.Errorf("insert tag %s: %w", t.ID, err)
		}
	}

	bookmarkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bookmarks (id, url, title, description, favicon, is_favorite, click_count,
		                       sort_order, folder_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer bookmarkStmt.Close()

	linkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bookmark_tags (bookmark_id, tag_id, position) VALUES (?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer linkStmt.Close()

	for _, b := range store.Bookmarks {
		favorite := 0
		if b.IsFavorite {
			favorite = 1
		}

		if _, err := bookmarkStmt.ExecContext(ctx,
			b.ID, b.URL, b.Title, b.Description, b.Favicon, favorite, b.ClickCount,
			b.SortOrder, b.FolderID, formatTime(b.CreatedAt), formatTime(b.UpdatedAt),
		); err != nil {
			return fmt.Errorf("insert bookmark %s: %w", b.ID, err)
		}

		for pos, tagID := range b.TagIDs {
			if _, err := linkStmt.ExecContext(ctx, b.ID, tagID, pos); err != nil {
				return fmt.Errorf("link bookmark %s to tag %s: %w", b.ID, tagID, err)
			}
		}
	}

	return tx.Commit()
}

// DefaultSQLitePath returns the default SQLite database path: ~/.config/bm/bookmarks.db
func DefaultSQLitePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "bm", "bookmarks.db"), nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
