package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/nikbrunner/bmsync/internal/adapter"
	"github.com/nikbrunner/bmsync/internal/auth"
	"github.com/nikbrunner/bmsync/internal/config"
	"github.com/nikbrunner/bmsync/internal/coordinator"
	"github.com/nikbrunner/bmsync/internal/logger"
	"github.com/nikbrunner/bmsync/internal/model"
	"github.com/nikbrunner/bmsync/internal/storage"
)

// app carries everything a command needs. Fields are filled in stages:
// setup (config, logger) runs for every command, wire and load only for
// commands that touch bookmark data.
type app struct {
	cfgPath  string
	logLevel string

	cfg *config.Config
	log logger.Logger

	storage storage.Storage
	session *auth.Session
	local   *adapter.Local
	remote  *adapter.Remote
	factory *adapter.Factory
	coord   *coordinator.Coordinator
}

// setup loads the configuration and builds the logger.
func (a *app) setup() error {
	path := a.cfgPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return fmt.Errorf("resolve config path: %w", err)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	a.cfgPath = path
	a.cfg = cfg
	a.log = logger.New(cfg.Log.Level, cfg.Log.Pretty)
	return nil
}

// wire opens the local store and the session and builds the adapters and
// the coordinator. It does not fetch anything.
func (a *app) wire(ctx context.Context) error {
	if a.coord != nil {
		return nil
	}

	s, err := storage.Open(ctx, a.cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	session, err := auth.Open(a.cfg.Remote.TokenFile)
	if err != nil {
		_ = s.Close()
		return err
	}

	a.storage = s
	a.session = session
	a.local = adapter.NewLocal(s)
	a.remote = adapter.NewRemote(a.cfg.Remote.BaseURL, session.Token,
		adapter.WithTimeout(a.cfg.Remote.Timeout),
		adapter.WithLogger(a.log))
	a.factory = adapter.NewFactory(a.local, a.remote, session)
	a.coord = coordinator.New(a.factory, a.log)

	a.log.Debug("wired adapters",
		logger.String("backend", a.cfg.Storage.Backend),
		logger.Bool("authenticated", session.Authenticated()))
	return nil
}

// load wires the app and fetches the working set from the active adapter.
func (a *app) load(ctx context.Context) error {
	if err := a.wire(ctx); err != nil {
		return err
	}
	if err := a.coord.Load(ctx); err != nil {
		if errors.Is(err, model.ErrNotAuthenticated) {
			return fmt.Errorf("%w (run `bm login` again)", err)
		}
		return err
	}
	return nil
}

// close waits for background writes and releases the store.
func (a *app) close() {
	if a.coord != nil {
		a.coord.Wait()
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.log.Warn("close storage", logger.Error(err))
		}
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}
