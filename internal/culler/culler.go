// Package culler finds bookmarks whose URL no longer resolves.
package culler

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nikbrunner/bmsync/internal/config"
	"github.com/nikbrunner/bmsync/internal/logger"
	"github.com/nikbrunner/bmsync/internal/model"
)

// Status represents the health status of a URL.
type Status int

const (
	Healthy     Status = iota // 2xx or 3xx response
	Dead                      // 404 or 410 Gone
	Unreachable               // timeout, DNS failure, connection refused, etc.
)

func (s Status) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Dead:
		return "dead"
	default:
		return "unreachable"
	}
}

// Result holds the check result for a single bookmark.
type Result struct {
	Bookmark   model.Bookmark
	Status     Status
	StatusCode int    // HTTP status code (0 if connection failed)
	Error      string // Error message for unreachable URLs
}

// ProgressFunc is called after each URL is checked.
// completed is the number of URLs checked so far, total is the total count.
type ProgressFunc func(completed, total int)

// Checker probes bookmark URLs with a bounded worker pool.
type Checker struct {
	client      *http.Client
	concurrency int
	exclude     map[string]bool
	log         logger.Logger
}

// New creates a Checker from the cull settings.
func New(cfg config.Cull, log logger.Logger) *Checker {
	if log == nil {
		log = logger.Nop()
	}
	exclude := make(map[string]bool, len(cfg.ExcludeDomains))
	for _, domain := range cfg.ExcludeDomains {
		exclude[strings.ToLower(domain)] = true
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Checker{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		concurrency: max(1, cfg.Concurrency),
		exclude:     exclude,
		log:         log,
	}
}

// Check probes every bookmark and returns results in input order.
func (c *Checker) Check(ctx context.Context, bookmarks []model.Bookmark, onProgress ProgressFunc) []Result {
	if len(bookmarks) == 0 {
		return nil
	}

	// Suppress noisy HTTP client logging (protocol errors, unsolicited responses, etc.)
	originalOutput := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(originalOutput)

	results := make([]Result, len(bookmarks))
	jobs := make(chan int, len(bookmarks))
	var wg sync.WaitGroup

	var progressMu sync.Mutex
	completed := 0

	for w := 0; w < c.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = c.checkURL(ctx, bookmarks[idx])

				if onProgress != nil {
					progressMu.Lock()
					completed++
					onProgress(completed, len(bookmarks))
					progressMu.Unlock()
				}
			}
		}()
	}

	for i := range bookmarks {
		jobs <- i
	}
	close(jobs)
	// Cancelled checks end up Unreachable with a "context canceled" error.

	wg.Wait()
	c.log.Debug("cull finished", logger.Int("checked", len(bookmarks)), logger.Int("dead", len(Filter(results, Dead))))
	return results
}

// Filter returns the results with the given status.
func Filter(results []Result, status Status) []Result {
	var out []Result
	for _, r := range results {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

func (c *Checker) checkURL(ctx context.Context, bookmark model.Bookmark) Result {
	result := Result{Bookmark: bookmark}

	// HEAD first; some servers only answer GET.
	resp, err := c.do(ctx, http.MethodHead, bookmark.URL)
	if err == nil && headRejected(resp.StatusCode) {
		resp.Body.Close()
		err = errHeadRejected
	}
	if err != nil {
		resp, err = c.do(ctx, http.MethodGet, bookmark.URL)
		if err != nil {
			result.Status = Unreachable
			result.Error = normalizeError(err.Error())
			return result
		}
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		result.Status = Healthy
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		if c.isExcludedDomain(bookmark.URL) {
			result.Status = Unreachable
			result.Error = "Possibly private (auth required)"
		} else {
			result.Status = Dead
		}
	default:
		// 5xx, 403 and friends may be temporary or need auth.
		result.Status = Unreachable
		result.Error = http.StatusText(resp.StatusCode)
	}
	return result
}

var errHeadRejected = errors.New("HEAD not supported")

func headRejected(code int) bool {
	return code == http.StatusMethodNotAllowed || code == http.StatusNotImplemented
}

func (c *Checker) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return c.client.Do(req)
}

// isExcludedDomain checks the host and its parent domains against the
// exclude list ("api.github.com" matches "github.com").
func (c *Checker) isExcludedDomain(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if c.exclude[host] {
		return true
	}
	for domain := range c.exclude {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// normalizeError simplifies verbose error messages into readable categories.
func normalizeError(errStr string) string {
	lower := strings.ToLower(errStr)

	switch {
	case strings.Contains(lower, "no such host"):
		return "DNS failure"
	case strings.Contains(lower, "context deadline exceeded"),
		strings.Contains(lower, "timeout"):
		return "Timeout"
	case strings.Contains(lower, "connection refused"):
		return "Connection refused"
	case strings.Contains(lower, "certificate"):
		return "TLS/certificate error"
	case strings.Contains(lower, "network is unreachable"):
		return "Network unreachable"
	case strings.Contains(lower, "tls:"):
		return "TLS error"
	default:
		return errStr
	}
}
