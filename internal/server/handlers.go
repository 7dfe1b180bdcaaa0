package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nikbrunner/bmsync/internal/logger"
	"github.com/nikbrunner/bmsync/internal/model"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthzResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(s.started).Seconds(),
	})
}

type orderRequest struct {
	Items []model.OrderItem `json:"items"`
}

type importRequest struct {
	Bookmarks []model.BookmarkInput `json:"bookmarks"`
}

type duplicateResponse struct {
	Bookmark *model.Bookmark `json:"bookmark"`
}

// === Bookmarks ===

func (s *Server) listBookmarks(w http.ResponseWriter, r *http.Request) {
	out, err := accountFrom(r.Context()).store.ListBookmarks(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createBookmark(w http.ResponseWriter, r *http.Request) {
	var in model.BookmarkInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	out, err := accountFrom(r.Context()).store.CreateBookmark(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) updateBookmark(w http.ResponseWriter, r *http.Request) {
	var patch model.BookmarkPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, err)
		return
	}
	out, err := accountFrom(r.Context()).store.UpdateBookmark(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteBookmark(w http.ResponseWriter, r *http.Request) {
	if err := accountFrom(r.Context()).store.DeleteBookmark(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reorderBookmarks(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := accountFrom(r.Context()).store.ReorderBookmarks(r.Context(), req.Items); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) trackClick(w http.ResponseWriter, r *http.Request) {
	if err := accountFrom(r.Context()).store.TrackClick(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) findDuplicate(w http.ResponseWriter, r *http.Request) {
	url := strings.TrimSpace(r.URL.Query().Get("url"))
	if url == "" {
		writeError(w, model.ErrValidation)
		return
	}
	b, err := accountFrom(r.Context()).store.FindDuplicate(r.Context(), url)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, duplicateResponse{Bookmark: b})
}

func (s *Server) importBookmarks(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	acct := accountFrom(r.Context())
	res, err := acct.store.ImportBookmarks(r.Context(), req.Bookmarks)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("bulk import",
		logger.String("account", acct.name),
		logger.Int("added", res.Added),
		logger.Int("skipped", res.Skipped))
	writeJSON(w, http.StatusOK, res)
}

// === Folders ===

func (s *Server) listFolders(w http.ResponseWriter, r *http.Request) {
	out, err := accountFrom(r.Context()).store.ListFolders(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createFolder(w http.ResponseWriter, r *http.Request) {
	var in model.FolderInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	out, err := accountFrom(r.Context()).store.CreateFolder(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) updateFolder(w http.ResponseWriter, r *http.Request) {
	var patch model.FolderPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, err)
		return
	}
	out, err := accountFrom(r.Context()).store.UpdateFolder(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteFolder(w http.ResponseWriter, r *http.Request) {
	if err := accountFrom(r.Context()).store.DeleteFolder(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) reorderFolders(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := accountFrom(r.Context()).store.ReorderFolders(r.Context(), req.Items); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// === Tags ===

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	out, err := accountFrom(r.Context()).store.ListTags(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createTag(w http.ResponseWriter, r *http.Request) {
	var in model.TagInput
	if err := decode(r, &in); err != nil {
		writeError(w, err)
		return
	}
	out, err := accountFrom(r.Context()).store.CreateTag(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) updateTag(w http.ResponseWriter, r *http.Request) {
	var patch model.TagPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, err)
		return
	}
	out, err := accountFrom(r.Context()).store.UpdateTag(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteTag(w http.ResponseWriter, r *http.Request) {
	if err := accountFrom(r.Context()).store.DeleteTag(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
