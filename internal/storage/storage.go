package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nikbrunner/bmsync/internal/config"
	"github.com/nikbrunner/bmsync/internal/model"
)

// Storage persists the whole bookmark blob. Every Save replaces what was
// stored before; there are no partial writes.
type Storage interface {
	Load(ctx context.Context) (*model.Store, error)
	Save(ctx context.Context, store *model.Store) error
	Close() error
}

// JSONStorage implements Storage using a JSON file.
type JSONStorage struct {
	path string
}

// NewJSONStorage creates a new JSONStorage with the given file path.
func NewJSONStorage(path string) *JSONStorage {
	return &JSONStorage{path: path}
}

// Path returns the storage file path.
func (s *JSONStorage) Path() string {
	return s.path
}

// Load reads the store from the JSON file.
// Returns an empty store if the file doesn't exist.
func (s *JSONStorage) Load(_ context.Context) (*model.Store, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.NewStore(), nil
		}
		return nil, err
	}

	var store model.Store
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	store.Normalize()

	return &store, nil
}

// Save writes the store to the JSON file.
// Creates the directory if it doesn't exist.
func (s *JSONStorage) Save(_ context.Context, store *model.Store) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return err
	}

	// Write to a sibling file first so a crash never leaves half a blob.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Close is a no-op for file storage.
func (s *JSONStorage) Close() error { return nil }

// Open opens the storage backend selected in the configuration.
func Open(ctx context.Context, cfg config.Storage) (Storage, error) {
	switch cfg.Backend {
	case config.BackendJSON, "":
		return NewJSONStorage(cfg.Path), nil
	case config.BackendSQLite:
		return NewSQLiteStorage(cfg.Path)
	case config.BackendRedis:
		client, err := DialRedis(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return NewRedisStorage(client, cfg.RedisKey), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
