package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/johnhenry/super-dee-duper/internal/mutate"
)

// FilesHandler serves file mutations. The filesystem operation runs first
// and the index is updated only after it succeeds; a conflict leaves both
// untouched and comes back as 409.
type FilesHandler struct {
	Mutator *mutate.Manager
}

// Delete handles POST /api/files/delete.
func (h *FilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Path == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "path is required")
		return
	}

	if err := h.Mutator.DeleteFile(r.Context(), body.Path); err != nil {
		var conflict *mutate.ConflictError
		if errors.As(err, &conflict) {
			writeError(w, http.StatusConflict, "MUTATION_CONFLICT", conflict.Error())
			return
		}
		slog.Error("files delete", "path", body.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": body.Path,
	})
}

// Rename handles POST /api/files/rename.
func (h *FilesHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OldPath string `json:"old_path"`
		NewPath string `json:"new_path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.OldPath == "" || body.NewPath == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "old_path and new_path are required")
		return
	}

	if err := h.Mutator.RenameFile(r.Context(), body.OldPath, body.NewPath); err != nil {
		var conflict *mutate.ConflictError
		if errors.As(err, &conflict) {
			writeError(w, http.StatusConflict, "MUTATION_CONFLICT", conflict.Error())
			return
		}
		slog.Error("files rename", "old", body.OldPath, "new", body.NewPath, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"old_path": body.OldPath,
		"new_path": body.NewPath,
	})
}
