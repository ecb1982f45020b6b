package store

import (
	"context"
	"errors"
	"time"

	"github.com/campusreach/directory/internal/directory/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today,
// postgres later) implement this. Sub-repositories keep concerns tidy and
// let services declare exactly what they touch.
type Store interface {
	Invitations() Invitations
	Admins() Admins
	Subscriptions() Subscriptions
	Institutions() Institutions
	Scholarships() Scholarships
	Verifications() Verifications
	Images() Images

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back when fn
	// returns an error and committing otherwise. This is the recommended
	// way to do multi-step atomic work (registration, scored updates).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It exposes the same repos plus
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Invitations interface {
	// CreateInvitation inserts a new pending invitation. Returns
	// ErrAlreadyExists when the generated code collides with the unique
	// index, so the caller can regenerate.
	CreateInvitation(ctx context.Context, inv domain.Invitation) error

	// GetInvitationByCode returns the invitation regardless of status.
	GetInvitationByCode(ctx context.Context, code string) (domain.Invitation, error)

	// GetInvitationByID returns the invitation by its row id.
	GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error)

	// ClaimInvitation performs the atomic conditional update
	// pending -> claimed. Exactly one concurrent caller succeeds; all
	// others get ErrNotFound.
	ClaimInvitation(ctx context.Context, code, claimedBy string, now time.Time) error

	// ExpireInvitation transitions one pending, past-expiry invitation to
	// expired (the lazy-expiry path of validate). ErrNotFound when the
	// row is no longer eligible.
	ExpireInvitation(ctx context.Context, id string, now time.Time) error

	// RevokeInvitation transitions pending -> revoked. ErrNotFound when
	// the invitation is already terminal.
	RevokeInvitation(ctx context.Context, id string) error

	// SweepExpired bulk-expires all pending invitations past their
	// expiry. Naturally idempotent; returns the number of rows updated.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)

	// ListInvitations returns invitations newest first, optionally
	// filtered by status. Zero limit means the default of 100.
	ListInvitations(ctx context.Context, status domain.InvitationStatus, limit int) ([]domain.Invitation, error)
}

type Admins interface {
	// GetAdminByID returns an admin identity by id.
	GetAdminByID(ctx context.Context, id string) (domain.AdminIdentity, error)

	// GetAdminByEmail is used during login and registration conflict
	// checks.
	GetAdminByEmail(ctx context.Context, email string) (domain.AdminIdentity, error)

	// CreateAdmin inserts a new identity (id is provided by the app via
	// ULID). Returns ErrAlreadyExists on an email conflict.
	CreateAdmin(ctx context.Context, a domain.AdminIdentity) error

	// TouchLastLogin stamps a successful authentication.
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

type Subscriptions interface {
	// GetSubscriptionByEntity returns the at-most-one row for an entity.
	GetSubscriptionByEntity(ctx context.Context, entityType domain.EntityType, entityID string) (domain.Subscription, error)

	// GetSubscriptionByExternalID looks up by the provider-assigned
	// subscription id.
	GetSubscriptionByExternalID(ctx context.Context, externalID string) (domain.Subscription, error)

	// CreateSubscription inserts a new row.
	CreateSubscription(ctx context.Context, s domain.Subscription) error

	// UpdateSubscription overwrites all synchronizer-owned fields of the
	// row identified by s.ID. Total overwrites keep webhook redelivery
	// idempotent.
	UpdateSubscription(ctx context.Context, s domain.Subscription) error
}

type Institutions interface {
	// GetInstitutionByID returns the full profile snapshot.
	GetInstitutionByID(ctx context.Context, id string) (domain.Institution, error)

	// CreateInstitution inserts a new institution (seeding and tests).
	CreateInstitution(ctx context.Context, inst domain.Institution) error

	// UpdateInstitution overwrites the profile fields, the recomputed
	// completeness score, data source and data_last_updated.
	UpdateInstitution(ctx context.Context, inst domain.Institution) error
}

type Scholarships interface {
	// GetScholarshipByID resolves a scholarship's display title.
	GetScholarshipByID(ctx context.Context, id string) (domain.Scholarship, error)

	// CreateScholarship inserts a new scholarship (seeding and tests).
	CreateScholarship(ctx context.Context, s domain.Scholarship) error
}

type Verifications interface {
	// AppendVerification inserts one immutable audit record.
	AppendVerification(ctx context.Context, v domain.VerificationRecord) error

	// ListVerifications returns records for an institution newest first.
	// Zero limit means the default of 50.
	ListVerifications(ctx context.Context, institutionID string, limit int) ([]domain.VerificationRecord, error)

	// CountVerifications returns the total number of records for an
	// institution.
	CountVerifications(ctx context.Context, institutionID string) (int, error)

	// VerifiedFieldNames returns the distinct field names that have at
	// least one record.
	VerifiedFieldNames(ctx context.Context, institutionID string) ([]string, error)
}

type Images interface {
	// CountEntityImages returns how many gallery images an entity has.
	// The scoring engine is the only consumer; gallery CRUD lives in the
	// public API.
	CountEntityImages(ctx context.Context, entityType domain.EntityType, entityID string) (int, error)

	// AddEntityImage records one image reference (seeding and tests).
	AddEntityImage(ctx context.Context, entityType domain.EntityType, entityID, url string) error
}
