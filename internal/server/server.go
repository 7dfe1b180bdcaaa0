// Package server is a reference implementation of the account service the
// remote adapter talks to. Each account is backed by its own local adapter.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nikbrunner/bmsync/internal/adapter"
	"github.com/nikbrunner/bmsync/internal/config"
	"github.com/nikbrunner/bmsync/internal/logger"
	"github.com/nikbrunner/bmsync/internal/storage"
)

// Server wraps the HTTP server and the per-account stores.
type Server struct {
	http     *http.Server
	logger   logger.Logger
	accounts *accounts
	started  time.Time
}

// New builds the router and opens one store per configured account.
func New(cfg config.Server, log logger.Logger) (*Server, error) {
	if len(cfg.Accounts) == 0 {
		return nil, errors.New("server: no accounts configured")
	}

	accts := newAccounts()
	for _, acct := range cfg.Accounts {
		if acct.Token == "" || acct.Name == "" {
			return nil, fmt.Errorf("server: account %q needs a name and a token", acct.Name)
		}
		var s storage.Storage
		if cfg.DataDir != "" {
			s = storage.NewJSONStorage(filepath.Join(cfg.DataDir, acct.Name+".json"))
		} else {
			s = storage.NewMemoryStorage(nil)
		}
		accts.add(acct.Token, acct.Name, adapter.NewLocal(s))
	}

	srv := &Server{
		logger:   log,
		accounts: accts,
		started:  time.Now(),
	}
	srv.http = &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return srv, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog(s.logger))

	r.Get("/healthz", s.healthz)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Route("/bookmarks", func(r chi.Router) {
			r.Get("/", s.listBookmarks)
			r.Post("/", s.createBookmark)
			r.Put("/reorder", s.reorderBookmarks)
			r.Get("/duplicate", s.findDuplicate)
			r.Post("/import", s.importBookmarks)
			r.Patch("/{id}", s.updateBookmark)
			r.Delete("/{id}", s.deleteBookmark)
			r.Post("/{id}/click", s.trackClick)
		})

		r.Route("/folders", func(r chi.Router) {
			r.Get("/", s.listFolders)
			r.Post("/", s.createFolder)
			r.Put("/reorder", s.reorderFolders)
			r.Patch("/{id}", s.updateFolder)
			r.Delete("/{id}", s.deleteFolder)
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", s.listTags)
			r.Post("/", s.createTag)
			r.Patch("/{id}", s.updateTag)
			r.Delete("/{id}", s.deleteTag)
		})
	})

	return r
}

// Start runs the HTTP server (blocks until error or shutdown).
func (s *Server) Start() error {
	s.logger.Infof("HTTP server listening on %s", s.http.Addr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down...")
	return s.http.Shutdown(ctx)
}
