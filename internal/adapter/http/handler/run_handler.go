package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/splitledger/splitledger/internal/adapter/http/dto"
	"github.com/splitledger/splitledger/internal/domain"
	"github.com/splitledger/splitledger/internal/usecase"
)

// RunHandler handles reconciliation run requests.
type RunHandler struct {
	reconcileUC *usecase.ReconcileUseCase
	exportUC    *usecase.ExportUseCase
	defaults    domain.RunConfig
}

// NewRunHandler creates a new RunHandler. defaults supplies the run config
// values used when a request leaves a policy knob unset.
func NewRunHandler(reconcileUC *usecase.ReconcileUseCase, exportUC *usecase.ExportUseCase, defaults domain.RunConfig) *RunHandler {
	return &RunHandler{reconcileUC: reconcileUC, exportUC: exportUC, defaults: defaults}
}

// Create executes a reconciliation run over the submitted transactions.
// Previously resolved review decisions are loaded from the review store and
// applied before classification.
func (h *RunHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToRunInput(h.defaults)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run request", err.Error())
		return
	}

	if h.exportUC != nil {
		decisions, err := h.exportUC.LoadDecisions(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "failed to load review decisions", err.Error())
			return
		}
		input.Decisions = decisions
	}

	result, err := h.reconcileUC.Run(r.Context(), input)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to run reconciliation", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.RunFromDomain(result))
}

// Get retrieves an archived run by ID.
func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing run ID", "")
		return
	}

	result, err := h.reconcileUC.GetRun(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get run", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RunFromDomain(result))
}

// List lists archived runs, newest first.
func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	runs, err := h.reconcileUC.ListRuns(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RunSummariesFromDomain(runs))
}

// Export pushes an archived run's review queue to the review store.
func (h *RunHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing run ID", "")
		return
	}

	result, err := h.reconcileUC.GetRun(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get run", err.Error())
		return
	}

	exported, err := h.exportUC.ExportReviewQueue(r.Context(), result)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to export review queue", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ExportResponse{RunID: id, Exported: exported})
}
