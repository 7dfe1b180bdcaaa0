// Package migration moves signed-out (local) data into the account right
// after the user signs in.
package migration

import (
	"context"
	"fmt"
	"sync"

	"github.com/nikbrunner/bmsync/internal/adapter"
	"github.com/nikbrunner/bmsync/internal/logger"
	"github.com/nikbrunner/bmsync/internal/model"
)

// Decision is the user's answer to the migration offer. A prompt must
// return Migrate or Skip; DecisionNone only marks an Outcome where nothing
// was offered.
type Decision int

const (
	DecisionNone Decision = iota
	Migrate
	Skip
)

func (d Decision) String() string {
	switch d {
	case Migrate:
		return "migrate"
	case Skip:
		return "skip"
	default:
		return "none"
	}
}

// Summary describes the local data on offer.
type Summary struct {
	Bookmarks int
	Folders   int
	Tags      int
}

// Prompt asks the user what to do with local data.
type Prompt func(ctx context.Context, s Summary) (Decision, error)

// LocalStore is the signed-out store being drained.
type LocalStore interface {
	Snapshot(ctx context.Context) (*model.Store, error)
	Clear(ctx context.Context) error
}

// Loader reloads the working set after a migration.
type Loader interface {
	Load(ctx context.Context) error
}

// Outcome reports what OnAuthChange did.
type Outcome struct {
	Offered  bool
	Decision Decision
	Imported int
	Skipped  int // URLs the account already had
}

// Reconciler runs the offer once per session.
type Reconciler struct {
	local  LocalStore
	remote adapter.Adapter
	loader Loader
	prompt Prompt
	log    logger.Logger

	mu       sync.Mutex
	signedIn bool
	fired    bool
}

// NewReconciler returns a Reconciler that assumes the user starts signed
// out. Use Observe when the session was already signed in.
func NewReconciler(local LocalStore, remote adapter.Adapter, loader Loader, prompt Prompt, log logger.Logger) *Reconciler {
	if log == nil {
		log = logger.Nop()
	}
	return &Reconciler{local: local, remote: remote, loader: loader, prompt: prompt, log: log}
}

// Observe records the current sign-in state without reacting to it.
func (r *Reconciler) Observe(authenticated bool) {
	r.mu.Lock()
	r.signedIn = authenticated
	r.mu.Unlock()
}

// OnAuthChange reacts to a change of the sign-in state. Only the first
// transition from signed out to signed in does anything; every other call
// returns a zero Outcome. On failure local data is left in place.
func (r *Reconciler) OnAuthChange(ctx context.Context, authenticated bool) (Outcome, error) {
	r.mu.Lock()
	transition := authenticated && !r.signedIn && !r.fired
	r.signedIn = authenticated
	if transition {
		r.fired = true
	}
	r.mu.Unlock()
	if !transition {
		return Outcome{}, nil
	}

	snap, err := r.local.Snapshot(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("read local data: %w", err)
	}
	if snap.IsEmpty() {
		r.log.Debug("no local data to migrate")
		return Outcome{}, nil
	}

	summary := Summary{Bookmarks: len(snap.Bookmarks), Folders: len(snap.Folders), Tags: len(snap.Tags)}
	decision, err := r.prompt(ctx, summary)
	if err != nil {
		return Outcome{Offered: true}, fmt.Errorf("migration prompt: %w", err)
	}
	if decision != Migrate && decision != Skip {
		return Outcome{Offered: true}, fmt.Errorf("%w: migration prompt answered %s", model.ErrValidation, decision)
	}
	out := Outcome{Offered: true, Decision: decision}

	switch decision {
	case Migrate:
		res, err := Transfer(ctx, r.remote, snap)
		if err != nil {
			return out, fmt.Errorf("migrate local data: %w", err)
		}
		out.Imported, out.Skipped = res.Added, res.Skipped

		if err := r.local.Clear(ctx); err != nil {
			return out, fmt.Errorf("clear local data: %w", err)
		}
		if r.loader != nil {
			if err := r.loader.Load(ctx); err != nil {
				return out, fmt.Errorf("reload after migration: %w", err)
			}
		}
		r.log.Info("migrated local data",
			logger.Int("imported", res.Added),
			logger.Int("skipped", res.Skipped))

	case Skip:
		if err := r.local.Clear(ctx); err != nil {
			return out, fmt.Errorf("clear local data: %w", err)
		}
		r.log.Info("discarded local data")
	}
	return out, nil
}
