package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/bmsync/internal/config"
	"github.com/nikbrunner/bmsync/internal/logger"
	"github.com/nikbrunner/bmsync/internal/model"
	"github.com/nikbrunner/bmsync/internal/picker"
	"github.com/nikbrunner/bmsync/internal/server"
)

// testEnv is a config directory with its own bookmark file and session.
type testEnv struct {
	t       *testing.T
	cfgPath string
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig(dir)
	cfg.QuickAddFolder = ""
	cfg.Log.Level = "error"
	if mutate != nil {
		mutate(&cfg)
	}
	path := filepath.Join(dir, "config.yaml")
	assert.NilError(t, config.Save(path, &cfg))
	return &testEnv{t: t, cfgPath: path}
}

// run executes one CLI invocation and returns what it wrote to stdout.
func (e *testEnv) run(stdin string, args ...string) (string, error) {
	e.t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", e.cfgPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run("", args...)
	assert.NilError(e.t, err, "bm %s", strings.Join(args, " "))
	return out
}

func (e *testEnv) bookmarks() []model.Bookmark {
	e.t.Helper()
	var out []model.Bookmark
	assert.NilError(e.t, json.Unmarshal([]byte(e.mustRun("list", "--json")), &out))
	return out
}

func stubOpen(t *testing.T) *[]string {
	t.Helper()
	var opened []string
	orig := openURL
	openURL = func(url string) error {
		opened = append(opened, url)
		return nil
	}
	t.Cleanup(func() { openURL = orig })
	return &opened
}

func TestAddEditList(t *testing.T) {
	env := newTestEnv(t, nil)

	out := env.mustRun("add", "https://go.dev", "--title", "Go", "--tag", "lang")
	assert.Assert(t, is.Contains(out, `Added`))
	assert.Assert(t, is.Contains(out, `"Go"`))

	_, err := env.run("", "add", "https://go.dev")
	assert.ErrorIs(t, err, model.ErrConflict)

	env.mustRun("edit", "Go", "--tags", "web,lang", "--desc", "home")

	tags := env.mustRun("tag", "list")
	assert.Assert(t, is.Contains(tags, "#lang"))
	assert.Assert(t, is.Contains(tags, "#web"))

	assert.Assert(t, is.Contains(env.mustRun("list", "--tag", "web"), "https://go.dev"))

	got := env.bookmarks()
	assert.Assert(t, is.Len(got, 1))
	assert.Equal(t, got[0].Title, "Go")
	assert.Equal(t, *got[0].Description, "home")
	assert.Assert(t, is.Len(got[0].TagIDs, 2))

	_, err = env.run("", "edit", "Go")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestAddUsesQuickAddFolder(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.QuickAddFolder = "Read Later" })

	env.mustRun("add", "https://example.com/a")
	env.mustRun("add", "https://example.com/b")
	env.mustRun("add", "https://example.com/c", "--folder", "/")

	assert.Assert(t, is.Contains(env.mustRun("folder", "list"), "Read Later (2)"))
	assert.Assert(t, is.Contains(env.mustRun("list", "--folder", "/"), "https://example.com/c"))
}

func TestFavAndRemove(t *testing.T) {
	env := newTestEnv(t, nil)
	env.mustRun("add", "https://example.com", "--title", "Example")

	assert.Assert(t, is.Contains(env.mustRun("fav", "Example"), "now a favorite"))
	assert.Assert(t, is.Contains(env.mustRun("list", "--fav"), "https://example.com"))

	env.mustRun("rm", "https://example.com")
	assert.Assert(t, is.Contains(env.mustRun("list"), "No bookmarks."))
}

func TestOpenTracksClick(t *testing.T) {
	opened := stubOpen(t)
	env := newTestEnv(t, nil)
	env.mustRun("add", "https://go.dev", "--title", "Go")

	env.mustRun("open", "Go")

	assert.DeepEqual(t, *opened, []string{"https://go.dev"})
	assert.Equal(t, env.bookmarks()[0].ClickCount, 1)
}

func TestQuickSearch(t *testing.T) {
	opened := stubOpen(t)
	picked := 0
	origPick := pick
	pick = func(p picker.Picker) (*model.Bookmark, error) {
		picked++
		m, _ := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
		return m.(picker.Picker).SelectedBookmark(), nil
	}
	t.Cleanup(func() { pick = origPick })

	env := newTestEnv(t, nil)
	env.mustRun("add", "https://go.dev/doc", "--title", "Go docs")
	env.mustRun("add", "https://go.dev/blog", "--title", "Go blog")
	env.mustRun("add", "https://news.ycombinator.com", "--title", "Hacker News")

	env.mustRun("hacker")
	assert.DeepEqual(t, *opened, []string{"https://news.ycombinator.com"})
	assert.Equal(t, picked, 0, "a single hit opens without the picker")

	env.mustRun("go", "blog")
	assert.Equal(t, len(*opened), 2)

	env.mustRun("go")
	assert.Equal(t, picked, 1)
	assert.Equal(t, len(*opened), 3)

	out := env.mustRun("zzzz")
	assert.Assert(t, is.Contains(out, "No bookmarks found"))
}

func TestMoveBookmark(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, u := range []string{"https://a.example", "https://b.example", "https://c.example"} {
		env.mustRun("add", u)
	}

	env.mustRun("move", "https://c.example", "0")

	got := env.bookmarks()
	urls := make([]string, len(got))
	for i, b := range got {
		urls[i] = b.URL
	}
	assert.DeepEqual(t, urls, []string{"https://c.example", "https://a.example", "https://b.example"})
}

func TestFolderRemoveMovesBookmarks(t *testing.T) {
	env := newTestEnv(t, nil)
	env.mustRun("folder", "add", "Dev")
	env.mustRun("folder", "add", "Archive")
	env.mustRun("add", "https://go.dev", "--folder", "Dev")

	out := env.mustRun("folder", "rm", "Dev", "--move-to", "Archive")
	assert.Assert(t, is.Contains(out, "1 bookmarks moved"))

	assert.Assert(t, is.Contains(env.mustRun("list", "--folder", "Archive"), "https://go.dev"))
	assert.Assert(t, !strings.Contains(env.mustRun("folder", "list"), "Dev"))
}

func TestFolderEditAndNesting(t *testing.T) {
	env := newTestEnv(t, nil)
	env.mustRun("folder", "add", "Dev")
	env.mustRun("folder", "add", "Go", "--parent", "Dev")

	assert.Assert(t, is.Contains(env.mustRun("folder", "list"), "\n  Go (0)"))

	_, err := env.run("", "folder", "edit", "Dev", "--parent", "Go")
	assert.ErrorIs(t, err, model.ErrValidation)

	env.mustRun("folder", "edit", "Go", "--parent", "/", "--name", "Golang")
	assert.Assert(t, is.Contains(env.mustRun("folder", "list"), "Golang (0)"))
}

func TestTagRemoveWithReplacement(t *testing.T) {
	env := newTestEnv(t, nil)
	env.mustRun("add", "https://go.dev", "--tag", "golang")
	env.mustRun("tag", "add", "go")

	out := env.mustRun("tag", "rm", "golang", "--replace-with", "go")
	assert.Assert(t, is.Contains(out, "1 bookmarks retagged"))

	tags := env.mustRun("tag", "list")
	assert.Assert(t, !strings.Contains(tags, "#golang"))
	assert.Assert(t, is.Contains(tags, "#go "))

	env.mustRun("tag", "rename", "go", "Go")
	_, err := env.run("", "tag", "add", "GO")
	assert.ErrorIs(t, err, model.ErrConflict)
}

const importFixture = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><H3>Dev</H3>
    <DL><p>
        <DT><A HREF="https://go.dev" TAGS="go">Go</A>
    </DL><p>
    <DT><A HREF="https://news.ycombinator.com">Hacker News</A>
</DL><p>
`

func TestImportExport(t *testing.T) {
	env := newTestEnv(t, nil)
	file := filepath.Join(t.TempDir(), "bookmarks.html")
	assert.NilError(t, os.WriteFile(file, []byte(importFixture), 0644))

	out := env.mustRun("import", file)
	assert.Equal(t, out, "Imported 2 bookmarks, 1 folders\n")

	out = env.mustRun("import", file)
	assert.Assert(t, is.Contains(out, "(2 duplicates skipped)"))
	assert.Assert(t, is.Contains(env.mustRun("folder", "list"), "Dev (1)"))

	html := env.mustRun("export", "-")
	assert.Assert(t, is.Contains(html, `HREF="https://go.dev"`))
	assert.Assert(t, is.Contains(html, `TAGS="go"`))
	assert.Assert(t, is.Contains(html, ">Dev</H3>"))
}

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv, err := server.New(config.Server{
		Accounts: []config.Account{{Name: "alice", Token: "secret"}},
	}, logger.Nop())
	assert.NilError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestLoginMigratesLocalData(t *testing.T) {
	ts := newAPIServer(t)
	env := newTestEnv(t, func(c *config.Config) { c.Remote.BaseURL = ts.URL })
	env.mustRun("add", "https://go.dev", "--title", "Go")

	out, err := env.run("secret\ny\n", "login")
	assert.NilError(t, err)
	assert.Assert(t, is.Contains(out, "Moved 1 bookmarks"))

	got := env.bookmarks()
	assert.Assert(t, is.Len(got, 1))
	assert.Equal(t, got[0].URL, "https://go.dev")

	assert.Equal(t, env.mustRun("logout"), "Signed out\n")
	assert.Assert(t, is.Contains(env.mustRun("list"), "No bookmarks."), "migrated data leaves the device")
}

func TestLoginDeclineDiscardsLocalData(t *testing.T) {
	ts := newAPIServer(t)
	env := newTestEnv(t, func(c *config.Config) { c.Remote.BaseURL = ts.URL })
	env.mustRun("add", "https://go.dev")

	out, err := env.run("maybe\nn\n", "login", "secret")
	assert.NilError(t, err)
	assert.Assert(t, is.Contains(out, "Discarded the bookmarks"))
	assert.Assert(t, is.Len(env.bookmarks(), 0), "the account starts empty")

	env.mustRun("logout")
	assert.Assert(t, is.Len(env.bookmarks(), 0), "declining clears the device too")
}

func TestLoginWhileSignedInDoesNotOfferAgain(t *testing.T) {
	ts := newAPIServer(t)
	env := newTestEnv(t, func(c *config.Config) { c.Remote.BaseURL = ts.URL })
	env.mustRun("add", "https://go.dev")

	_, err := env.run("", "login", "secret")
	assert.ErrorIs(t, err, errNoAnswer)

	out, err := env.run("", "login", "secret")
	assert.NilError(t, err, "a second login is not a sign-in, so nothing is asked")
	assert.Equal(t, out, "Signed in to "+ts.URL+"\n")

	env.mustRun("logout")
	assert.Assert(t, is.Len(env.bookmarks(), 1), "unanswered offer leaves local data alone")

	out, err = env.run("y\n", "login", "secret")
	assert.NilError(t, err)
	assert.Assert(t, is.Contains(out, "Moved 1 bookmarks"))
}

func TestLoginWithWrongToken(t *testing.T) {
	ts := newAPIServer(t)
	env := newTestEnv(t, func(c *config.Config) { c.Remote.BaseURL = ts.URL })

	_, err := env.run("", "login", "nope", "--discard")
	assert.NilError(t, err, "nothing to migrate, so no request is made")

	_, err = env.run("", "list")
	assert.ErrorIs(t, err, model.ErrNotAuthenticated)
}

func TestConfigRedactsTokens(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.Server.Accounts = []config.Account{{Name: "alice", Token: "secret"}}
	})

	out := env.mustRun("config")
	assert.Assert(t, !strings.Contains(out, "secret"))
	assert.Assert(t, is.Contains(out, "<redacted>"))
	assert.Equal(t, env.mustRun("config", "--path"), env.cfgPath+"\n")
}
