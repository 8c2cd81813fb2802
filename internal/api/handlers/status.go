package handlers

import (
	"net/http"
	"time"

	"github.com/johnhenry/super-dee-duper/internal/index"
	"github.com/johnhenry/super-dee-duper/internal/scan"
	"github.com/johnhenry/super-dee-duper/internal/scheduler"
)

// StatusHandler serves GET /api/status.
type StatusHandler struct {
	Store   *index.Store
	Manager *scan.Manager
	Sched   *scheduler.Scheduler
	Version string
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"version":    h.Version,
		"index_path": h.Store.Path(),
	}

	if active := h.Manager.ActiveScan(); active != nil {
		resp["active_scan"] = map[string]interface{}{
			"session_id":    active.SessionID,
			"started_at":    active.StartedAt.UTC().Format(time.RFC3339),
			"triggered_by":  active.TriggeredBy,
			"files_scanned": active.Counters.FilesScanned.Load(),
			"groups_found":  active.Counters.GroupsFound.Load(),
			"full_hashed":   active.Counters.FullHashed.Load(),
			"errors":        active.Counters.Errors.Load(),
		}
	}

	if h.Sched != nil {
		if next := h.Sched.NextRunAt(); next != nil {
			resp["next_scheduled_scan"] = next.UTC().Format(time.RFC3339)
			resp["schedule"] = h.Sched.CronExpr()
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
