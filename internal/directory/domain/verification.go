package domain

import "time"

// VerificationRecord is one append-only audit entry: a single field-level
// change (or re-attestation) made by an administrator. Records are never
// mutated or deleted.
type VerificationRecord struct {
	ID            string
	InstitutionID string
	FieldName     string
	OldValue      string
	NewValue      string
	VerifiedBy    string // Admin email
	VerifiedAt    time.Time
	Notes         string
}

// TrackedFields is the allow-list of field names a verification record may
// reference. Writes to any of these trigger a score recomputation.
var TrackedFields = map[string]struct{}{
	"name":                 {},
	"city":                 {},
	"state":                {},
	"website":              {},
	"tuition_in_state":     {},
	"tuition_out_of_state": {},
	"tuition_private":      {},
	"tuition_in_district":  {},
	"room_cost":            {},
	"board_cost":           {},
	"room_and_board":       {},
	"acceptance_rate":      {},
	"sat_reading_25th":     {},
	"sat_reading_75th":     {},
	"sat_math_25th":        {},
	"sat_math_75th":        {},
	"act_composite_25th":   {},
	"act_composite_75th":   {},
	"data_source":          {},
}

// TrackedField reports whether name is on the audit allow-list.
func TrackedField(name string) bool {
	_, ok := TrackedFields[name]
	return ok
}
