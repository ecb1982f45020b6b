package domain

import "time"

// ControlType classifies how an institution is governed; it decides which
// tuition fields the completeness score reads.
type ControlType string

const (
	ControlPublic           ControlType = "public"
	ControlPrivateNonprofit ControlType = "private_nonprofit"
	ControlPrivateForProfit ControlType = "private_forprofit"
)

// Public reports whether the institution is publicly controlled.
func (c ControlType) Public() bool { return c == ControlPublic }

// Private reports whether the institution is one of the private control
// types. An empty or unrecognized control is neither public nor private.
func (c ControlType) Private() bool {
	return c == ControlPrivateNonprofit || c == ControlPrivateForProfit
}

// ValidControlType reports whether s names a known control type.
func ValidControlType(s string) bool {
	return ControlType(s).Public() || ControlType(s).Private()
}

// DataSource records where an institution's profile data came from.
// Admin edits promote it: manual -> admin, ipeds -> mixed.
type DataSource string

const (
	SourceManual DataSource = "manual"
	SourceIPEDS  DataSource = "ipeds"
	SourceAdmin  DataSource = "admin"
	SourceMixed  DataSource = "mixed"
)

// Verified reports whether the source earns the admin-verification bonus.
func (s DataSource) Verified() bool { return s == SourceAdmin || s == SourceMixed }

// Institution holds the profile fields the onboarding and scoring subsystems
// read and write. Money and rate fields are pointers so "not reported" is
// distinguishable from zero.
type Institution struct {
	ID      string
	Name    string
	City    string
	State   string
	Website string
	Control ControlType

	TuitionInState      *float64
	TuitionOutOfState   *float64
	TuitionPrivate      *float64
	TuitionInDistrict   *float64
	RoomCost            *float64
	BoardCost           *float64
	RoomAndBoard        *float64
	ApplicationFeeUgrad *float64
	ApplicationFeeGrad  *float64

	AcceptanceRate *float64
	SATReading25th *int
	SATReading75th *int
	SATMath25th    *int
	SATMath75th    *int
	ACTComposite25 *int
	ACTComposite75 *int

	DataSource            DataSource
	IPEDSYear             string
	DataCompletenessScore int
	DataLastUpdated       time.Time
	CreatedAt             time.Time
}
