/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *Response: Response wrappers returned to clients

ROLE PARAMETER:
  Mutating requests carry the acting role ("child" or "parent") in the
  body. There is no authentication; the device is trusted and the role
  is a UI-level mode switch, so the server treats it as an input to
  ownership gating rather than an identity claim.

VALIDATION:
  Validation is done in handlers and the ledger engine, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/engine.go: Outcome statuses surfaced in responses
*/
package api

import (
	"github.com/warp/piggy-engine/ledger"
	"github.com/warp/piggy-engine/spends"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateGoalRequest creates a new savings goal.
type CreateGoalRequest struct {
	Role         string `json:"role"`
	Name         string `json:"name"`
	TargetAmount int64  `json:"targetAmount"`
	Color        string `json:"color"`
}

// MoveMoneyRequest deposits into or withdraws from a goal.
type MoveMoneyRequest struct {
	Role     string `json:"role"`
	Amount   int64  `json:"amount"`
	Category string `json:"category,omitempty"`
	Note     string `json:"note,omitempty"`
}

// RoleRequest carries only the acting role (withdraw-all, delete,
// disable auto top-up).
type RoleRequest struct {
	Role string `json:"role"`
}

// EditGoalRequest patches goal cosmetics and target. Nil fields are
// left untouched.
type EditGoalRequest struct {
	Role         string  `json:"role"`
	Name         *string `json:"name,omitempty"`
	TargetAmount *int64  `json:"targetAmount,omitempty"`
	Color        *string `json:"color,omitempty"`
	Background   *string `json:"background,omitempty"`
}

// AutoTopUpRequest enables a daily top-up schedule on a goal.
type AutoTopUpRequest struct {
	Role         string `json:"role"`
	AmountPerDay int64  `json:"amountPerDay"`
}

// TransferRequest moves money from the parent card to the child card.
type TransferRequest struct {
	Amount int64 `json:"amount"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// OperationResponse is the uniform mutation response: what happened,
// plus the resulting state so clients never need a follow-up read.
type OperationResponse struct {
	Outcome   ledger.Outcome  `json:"outcome"`
	Snapshot  ledger.Snapshot `json:"snapshot"`
	Completed []string        `json:"completed,omitempty"`
}

// SnapshotResponse wraps a read of the full ledger state.
type SnapshotResponse struct {
	Snapshot ledger.Snapshot `json:"snapshot"`
}

// OverviewResponse wraps the aggregate projection.
type OverviewResponse struct {
	Overview ledger.Overview `json:"overview"`
}

// SpendsResponse wraps the spending history, newest first.
type SpendsResponse struct {
	Spends []spends.Record `json:"spends"`
}

// CatchUpResponse reports what an auto top-up pass did.
type CatchUpResponse struct {
	Changed  bool                    `json:"changed"`
	Applied  []ledger.CatchUpApplied `json:"applied"`
	Snapshot ledger.Snapshot         `json:"snapshot"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
