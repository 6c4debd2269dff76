/*
handlers.go - HTTP API handlers for the savings ledger

PURPOSE:
  Exposes the ledger engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  State:
    GET    /api/snapshot                 Full ledger state
    GET    /api/overview                 Aggregate totals per owner

  Goals:
    POST   /api/goals                    Create goal
    PATCH  /api/goals/{id}               Edit name/target/color/background
    DELETE /api/goals/{id}               Delete goal, refund balance
    POST   /api/goals/{id}/deposit       Move money card -> goal
    POST   /api/goals/{id}/withdraw      Move money goal -> card
    POST   /api/goals/{id}/withdraw-all  Empty and delete goal
    PUT    /api/goals/{id}/auto-top-up   Enable daily top-up
    DELETE /api/goals/{id}/auto-top-up   Disable daily top-up

  Admin:
    POST   /api/transfer                 Parent card -> child card
    POST   /api/catch-up                 Run auto top-up catch-up now

  Spends:
    GET    /api/spends                   Spending history, newest first

REQUEST FLOW:
  1. Parse HTTP request
  2. Resolve acting role
  3. Run the mutation inside SnapshotStore.Update (one atomic step)
  4. Map the outcome to an HTTP status
  5. Serialize response

OUTCOME MAPPING:
  success               200
  invalid               400
  forbidden             403
  missing               404
  duplicate, empty,
  full, insufficient    409

DURABILITY:
  Money movement and goal deletion save immediately; cosmetic edits go
  through the debounced save path so rapid re-coloring coalesces into
  one write.

SECURITY NOTE:
  Roles are self-declared per request. The deployment target is a
  single trusted family device, not the open internet.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - ledger/engine.go: Operation semantics
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/warp/piggy-engine/ledger"
	"github.com/warp/piggy-engine/spends"
	"github.com/warp/piggy-engine/store"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *store.SnapshotStore
	Engine *ledger.Engine
	Spends *spends.Log
	Log    zerolog.Logger
}

// NewHandler creates a new handler.
func NewHandler(st *store.SnapshotStore, engine *ledger.Engine, spendLog *spends.Log, log zerolog.Logger) *Handler {
	return &Handler{
		Store:  st,
		Engine: engine,
		Spends: spendLog,
		Log:    log,
	}
}

// =============================================================================
// STATE HANDLERS
// =============================================================================

// GetSnapshot returns the full ledger state.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SnapshotResponse{Snapshot: h.Store.Load()})
}

// GetOverview returns aggregate totals per owner.
func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, OverviewResponse{Overview: ledger.BuildOverview(h.Store.Load())})
}

// =============================================================================
// GOAL HANDLERS
// =============================================================================

// CreateGoal creates a new savings goal owned per the acting role.
func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req CreateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	role, ok := parseRole(req.Role)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown role", nil)
		return
	}

	h.mutate(w, func(s ledger.Snapshot) (ledger.Snapshot, ledger.Outcome) {
		return h.Engine.CreateGoal(s, ledger.CreateGoalInput{
			Name:         req.Name,
			TargetAmount: ledger.NewMoney(req.TargetAmount),
			Color:        req.Color,
		}, role)
	})
}

// EditGoal patches a goal. Cosmetic changes are saved on the debounced
// path rather than immediately.
func (h *Handler) EditGoal(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "id")

	var req EditGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	role, ok := parseRole(req.Role)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown role", nil)
		return
	}

	patch := ledger.GoalPatch{
		Name:       req.Name,
		Color:      req.Color,
		Background: req.Background,
	}
	if req.TargetAmount != nil {
		target := ledger.NewMoney(*req.TargetAmount)
		patch.TargetAmount = &target
	}

	next, outcome := h.Engine.EditGoal(h.Store.Load(), goalID, patch, role)
	if outcome.OK() {
		h.Store.SaveDebounced(next)
	}
	writeOutcome(w, outcome, OperationResponse{Outcome: outcome, Snapshot: next})
}

// DeleteGoal removes a goal and refunds its balance to the actor's card.
func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "id")
	role, ok := roleFromBody(w, r)
	if !ok {
		return
	}

	h.mutate(w, func(s ledger.Snapshot) (ledger.Snapshot, ledger.Outcome) {
		return h.Engine.DeleteGoal(s, goalID, role)
	})
}

// Deposit moves money from the actor's card onto a goal.
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "id")

	var req MoveMoneyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	role, ok := parseRole(req.Role)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown role", nil)
		return
	}

	h.mutate(w, func(s ledger.Snapshot) (ledger.Snapshot, ledger.Outcome) {
		return h.Engine.Deposit(s, goalID, ledger.NewMoney(req.Amount), role)
	})
}

// Withdraw moves money from a goal back onto the actor's card.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "id")

	var req MoveMoneyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	role, ok := parseRole(req.Role)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown role", nil)
		return
	}

	h.mutate(w, func(s ledger.Snapshot) (ledger.Snapshot, ledger.Outcome) {
		return h.Engine.Withdraw(s, goalID, ledger.NewMoney(req.Amount), role)
	})
}

// WithdrawAll empties a goal back onto the actor's card and deletes it.
func (h *Handler) WithdrawAll(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "id")
	role, ok := roleFromBody(w, r)
	if !ok {
		return
	}

	h.mutate(w, func(s ledger.Snapshot) (ledger.Snapshot, ledger.Outcome) {
		return h.Engine.WithdrawAll(s, goalID, role)
	})
}

// =============================================================================
// AUTO TOP-UP HANDLERS
// =============================================================================

// SetAutoTopUp enables a daily top-up schedule on a goal.
func (h *Handler) SetAutoTopUp(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "id")

	var req AutoTopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	role, ok := parseRole(req.Role)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown role", nil)
		return
	}

	h.mutate(w, func(s ledger.Snapshot) (ledger.Snapshot, ledger.Outcome) {
		return h.Engine.SetAutoTopUp(s, goalID, ledger.NewMoney(req.AmountPerDay), role)
	})
}

// DisableAutoTopUp turns off a goal's top-up schedule.
func (h *Handler) DisableAutoTopUp(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "id")
	role, ok := roleFromBody(w, r)
	if !ok {
		return
	}

	h.mutate(w, func(s ledger.Snapshot) (ledger.Snapshot, ledger.Outcome) {
		return h.Engine.DisableAutoTopUp(s, goalID, role)
	})
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// Transfer moves money from the parent card to the child card.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.mutate(w, func(s ledger.Snapshot) (ledger.Snapshot, ledger.Outcome) {
		return h.Engine.TransferParentToChild(s, ledger.NewMoney(req.Amount))
	})
}

// RunCatchUp applies any pending auto top-up days immediately.
func (h *Handler) RunCatchUp(w http.ResponseWriter, r *http.Request) {
	var result ledger.CatchUpResult
	snapshot, saved := h.Store.Update(func(s ledger.Snapshot) (ledger.Snapshot, bool) {
		next, res := h.Engine.ProcessAutoTopUpCatchUp(s, h.Engine.Clock())
		result = res
		return next, res.Changed
	})
	if !saved {
		writeError(w, http.StatusInternalServerError, "Failed to persist catch-up", nil)
		return
	}

	writeJSON(w, http.StatusOK, CatchUpResponse{
		Changed:  result.Changed,
		Applied:  result.Applied,
		Snapshot: snapshot,
	})
}

// =============================================================================
// SPEND HANDLERS
// =============================================================================

// ListSpends returns the spending history, optionally filtered by month.
// GET /api/spends?month=2026-09
func (h *Handler) ListSpends(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")

	var records []spends.Record
	if month != "" {
		records = h.Spends.ListMonth(month)
	} else {
		records = h.Spends.List()
	}
	if records == nil {
		records = []spends.Record{}
	}
	writeJSON(w, http.StatusOK, SpendsResponse{Spends: records})
}

// =============================================================================
// HELPERS
// =============================================================================

// mutate runs an engine operation inside one atomic load-apply-save step
// and writes the uniform operation response.
func (h *Handler) mutate(w http.ResponseWriter, op func(ledger.Snapshot) (ledger.Snapshot, ledger.Outcome)) {
	var (
		outcome   ledger.Outcome
		completed []string
	)
	snapshot, saved := h.Store.Update(func(s ledger.Snapshot) (ledger.Snapshot, bool) {
		next, out := op(s)
		outcome = out
		if out.OK() {
			completed = ledger.CompletedTransitions(s, next)
		}
		return next, out.OK()
	})
	if outcome.OK() && !saved {
		h.Log.Error().Str("goal", outcome.GoalID).Msg("mutation applied but save failed")
		writeError(w, http.StatusInternalServerError, "Failed to persist change", nil)
		return
	}

	writeOutcome(w, outcome, OperationResponse{
		Outcome:   outcome,
		Snapshot:  snapshot,
		Completed: completed,
	})
}

// roleFromBody decodes a body that carries only the acting role. Writes
// the error response itself on failure.
func roleFromBody(w http.ResponseWriter, r *http.Request) (ledger.Role, bool) {
	var req RoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return "", false
	}
	role, ok := parseRole(req.Role)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown role", nil)
		return "", false
	}
	return role, true
}

func parseRole(raw string) (ledger.Role, bool) {
	switch ledger.Role(raw) {
	case ledger.RoleChild:
		return ledger.RoleChild, true
	case ledger.RoleParent:
		return ledger.RoleParent, true
	}
	return "", false
}

// statusCode maps an outcome status to an HTTP status.
func statusCode(s ledger.Status) int {
	switch s {
	case ledger.StatusSuccess:
		return http.StatusOK
	case ledger.StatusInvalid:
		return http.StatusBadRequest
	case ledger.StatusForbidden:
		return http.StatusForbidden
	case ledger.StatusMissing:
		return http.StatusNotFound
	case ledger.StatusDuplicate, ledger.StatusEmpty, ledger.StatusFull, ledger.StatusInsufficient:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeOutcome(w http.ResponseWriter, outcome ledger.Outcome, resp OperationResponse) {
	writeJSON(w, statusCode(outcome.Status), resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
