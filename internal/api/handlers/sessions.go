package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/johnhenry/super-dee-duper/internal/index"
)

// SessionsHandler serves scan-session listings, session detail, and the
// session's duplicate groups. Every request re-queries the index: the
// handler keeps no in-memory mirror of group state.
type SessionsHandler struct {
	Store *index.Store
}

type sessionItem struct {
	ID            int64   `json:"id"`
	BaseDirectory string  `json:"base_directory"`
	StartedAt     string  `json:"started_at"`
	FinishedAt    *string `json:"finished_at"`
	Incomplete    bool    `json:"incomplete"`
	FilesScanned  int64   `json:"files_scanned"`
	GroupsFound   int64   `json:"groups_found"`
}

func toSessionItem(si index.ScanInfo) sessionItem {
	item := sessionItem{
		ID:            si.ID,
		BaseDirectory: si.BaseDirectory,
		StartedAt:     si.StartedAt.UTC().Format(time.RFC3339),
		Incomplete:    si.Incomplete(),
		FilesScanned:  si.FilesScanned,
		GroupsFound:   si.GroupsFound,
	}
	if si.FinishedAt != nil {
		s := si.FinishedAt.UTC().Format(time.RFC3339)
		item.FinishedAt = &s
	}
	return item
}

// List handles GET /api/sessions — newest first.
func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.Store.ListScans(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	limit, offset := parsePagination(r)
	total := len(sessions)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	items := []sessionItem{}
	for _, si := range sessions[offset:end] {
		items = append(items, toSessionItem(si))
	}
	writeJSON(w, http.StatusOK, ListResponse[sessionItem]{
		Items: items, Total: total, Limit: limit, Offset: offset,
	})
}

// Get handles GET /api/sessions/:id — detail including the error ledger.
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid session ID")
		return
	}

	si, err := h.Store.GetScanInfo(r.Context(), id)
	if errors.Is(err, index.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Session not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	type errItem struct {
		Path       string `json:"path"`
		Stage      string `json:"stage"`
		Error      string `json:"error"`
		OccurredAt string `json:"occurred_at"`
	}
	errList := []errItem{}
	if scanErrs, err := h.Store.GetScanErrors(r.Context(), id); err == nil {
		for _, e := range scanErrs {
			errList = append(errList, errItem{
				Path:       e.Path,
				Stage:      e.Stage,
				Error:      e.Error,
				OccurredAt: e.OccurredAt.UTC().Format(time.RFC3339),
			})
		}
	}

	type sessionDetail struct {
		sessionItem
		Errors []errItem `json:"errors"`
	}
	writeJSON(w, http.StatusOK, sessionDetail{
		sessionItem: toSessionItem(*si),
		Errors:      errList,
	})
}

// Groups handles GET /api/sessions/:id/groups — the session's duplicate
// groups with two or more surviving members, largest first.
func (h *SessionsHandler) Groups(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid session ID")
		return
	}

	if _, err := h.Store.GetScanInfo(r.Context(), id); err != nil {
		if errors.Is(err, index.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	groups, err := h.Store.GetDuplicateGroups(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	type fileItem struct {
		ID       int64  `json:"id"`
		Path     string `json:"path"`
		Name     string `json:"name"`
		Size     int64  `json:"size"`
		Modified string `json:"modified"`
	}
	type groupItem struct {
		GroupID          string     `json:"group_id"`
		Size             int64      `json:"size"`
		FileCount        int        `json:"file_count"`
		ReclaimableBytes int64      `json:"reclaimable_bytes"`
		Files            []fileItem `json:"files"`
	}

	items := []groupItem{}
	for _, g := range groups {
		gi := groupItem{
			GroupID:          g.GroupID,
			Size:             g.Size,
			FileCount:        len(g.Files),
			ReclaimableBytes: g.ReclaimableBytes(),
		}
		for _, f := range g.Files {
			gi.Files = append(gi.Files, fileItem{
				ID:       f.ID,
				Path:     f.Path,
				Name:     f.Name,
				Size:     f.Size,
				Modified: f.Modified.UTC().Format(time.RFC3339),
			})
		}
		items = append(items, gi)
	}

	writeJSON(w, http.StatusOK, ListResponse[groupItem]{
		Items: items, Total: len(items), Limit: len(items),
	})
}
