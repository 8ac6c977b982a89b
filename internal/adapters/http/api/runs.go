package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/gridlake/pkg/logger"
)

const defaultRunsLimit = 20

// RunsHandler exposes the run ledger.
type RunsHandler struct {
	ledger RunLedger
	logger logger.Logger
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(l RunLedger, lg logger.Logger) *RunsHandler {
	return &RunsHandler{ledger: l, logger: lg}
}

// HandleListRuns handles GET /runs?limit=N requests.
func (h *RunsHandler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_runs"
	ctx := r.Context()
	if r.Method != http.MethodGet {
		fail(ctx, w, h.logger, NewKind(op, ErrMethodNotAllowed))
		return
	}
	limit := defaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			fail(ctx, w, h.logger, NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}
	runs, err := h.ledger.Runs(ctx, limit)
	if err != nil {
		fail(ctx, w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// HandleGetRun handles GET /runs/{id} requests.
func (h *RunsHandler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_run"
	ctx := r.Context()
	if r.Method != http.MethodGet {
		fail(ctx, w, h.logger, NewKind(op, ErrMethodNotAllowed))
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/runs/"), "/")
	if id == "" {
		fail(ctx, w, h.logger, NewKind(op, ErrBadRequest))
		return
	}
	run, err := h.ledger.RunByID(ctx, id)
	if err != nil {
		fail(ctx, w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, run)
}
