package server

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/nikbrunner/bmsync/internal/adapter"
	"github.com/nikbrunner/bmsync/internal/logger"
	"github.com/nikbrunner/bmsync/internal/model"
)

type account struct {
	name  string
	store adapter.Adapter
}

type accounts struct {
	mu      sync.RWMutex
	byToken map[string]*account
}

func newAccounts() *accounts {
	return &accounts{byToken: make(map[string]*account)}
}

func (a *accounts) add(token, name string, store adapter.Adapter) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.byToken[token] = &account{name: name, store: store}
}

func (a *accounts) lookup(token string) *account {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.byToken[token]
}

type accountKey struct{}

func accountFrom(ctx context.Context) *account {
	acct, _ := ctx.Value(accountKey{}).(*account)
	return acct
}

// authenticate resolves the bearer token to an account.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		acct := s.accounts.lookup(strings.TrimSpace(token))
		if !ok || acct == nil {
			writeError(w, model.ErrNotAuthenticated)
			return
		}
		ctx := context.WithValue(r.Context(), accountKey{}, acct)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusWriter captures status code and bytes written.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// accessLog logs one line per request.
func accessLog(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w}

			next.ServeHTTP(ww, r)

			log.Info("http_request",
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", ww.status),
				logger.Int("bytes", ww.bytes),
				logger.Duration("duration", time.Since(start)),
				logger.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
