package domain

import "time"

// InvitationStatus is the lifecycle state of an invitation code. Pending is
// the only non-terminal state; claimed, expired and revoked are terminal.
type InvitationStatus string

const (
	InvitationPending InvitationStatus = "pending"
	InvitationClaimed InvitationStatus = "claimed"
	InvitationExpired InvitationStatus = "expired"
	InvitationRevoked InvitationStatus = "revoked"
)

// Invitation is a single-use authorization token scoping registration rights
// to one entity. Codes are short-lived and human-legible, so the raw code is
// stored directly rather than fingerprinted like a session token.
type Invitation struct {
	ID            string
	Code          string
	EntityType    EntityType
	EntityID      string
	AssignedEmail string // Optional hint, not enforced at claim time
	Status        InvitationStatus
	ClaimedBy     string // Admin identity id, empty until claimed
	ClaimedAt     *time.Time
	ExpiresAt     time.Time
	CreatedBy     string
	CreatedAt     time.Time
}

// Terminal reports whether the invitation can no longer change state.
func (i Invitation) Terminal() bool {
	return i.Status != InvitationPending
}

// InvitationValidation is the read-only outcome of validating a code.
// EntityName is resolved from the entity record so a prospective admin can
// confirm they are registering for the right organisation.
type InvitationValidation struct {
	Valid      bool
	EntityType EntityType
	EntityID   string
	EntityName string
	Message    string
}
