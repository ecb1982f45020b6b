package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/campusreach/directory/internal/directory/domain"
	"github.com/campusreach/directory/internal/directory/metrics"
	"github.com/campusreach/directory/internal/directory/store"
	"github.com/campusreach/directory/pkg/cryptox"
	"github.com/campusreach/directory/pkg/idx"
	"github.com/campusreach/directory/pkg/slogx"
)

var (
	ErrInvalidInvitation = errors.New("invalid or expired invitation code")
	ErrInvalidEntityType = errors.New("invalid entity type")
	ErrInvalidExpiry     = errors.New("expiry must be in the future")
	ErrUnknownEntity     = errors.New("entity not found")
)

// DefaultInvitationTTL is applied when the caller does not pick an expiry.
const DefaultInvitationTTL = 30 * 24 * time.Hour

// codeMintAttempts bounds retries when a generated code collides with an
// existing one. The code space makes more than one retry vanishingly rare.
const codeMintAttempts = 5

type InvitationService struct {
	Store   store.Store
	Metrics *metrics.Metrics
}

// CreateInvitation mints a pending invitation code bound to an entity.
func (s *InvitationService) CreateInvitation(
	ctx context.Context,
	entityType domain.EntityType,
	entityID string,
	assignedEmail string,
	expiresAt time.Time,
	createdBy string,
) (domain.Invitation, error) {
	log := slogx.FromContext(ctx)

	if !domain.ValidEntityType(string(entityType)) {
		return domain.Invitation{}, ErrInvalidEntityType
	}

	now := time.Now().UTC()
	if expiresAt.IsZero() {
		expiresAt = now.Add(DefaultInvitationTTL)
	}
	if !expiresAt.After(now) {
		log.Warn("attempted to create invitation with past expiry",
			slog.String("entity_id", entityID),
			slog.Time("expires_at", expiresAt),
		)
		return domain.Invitation{}, ErrInvalidExpiry
	}

	// The bound entity must exist so claimed identities always have a
	// real scope.
	if _, err := s.entityName(ctx, entityType, entityID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invitation{}, ErrUnknownEntity
		}
		return domain.Invitation{}, err
	}

	inv := domain.Invitation{
		ID:            idx.New().String(),
		EntityType:    entityType,
		EntityID:      entityID,
		AssignedEmail: assignedEmail,
		Status:        domain.InvitationPending,
		ExpiresAt:     expiresAt.UTC(),
		CreatedBy:     createdBy,
		CreatedAt:     now,
	}

	// Regenerate on the rare code collision.
	var err error
	for attempt := 0; attempt < codeMintAttempts; attempt++ {
		inv.Code, err = cryptox.GenerateInviteCode()
		if err != nil {
			log.Error("failed to generate invitation code", slog.Any("error", err))
			return domain.Invitation{}, err
		}
		err = s.Store.Invitations().CreateInvitation(ctx, inv)
		if !errors.Is(err, store.ErrAlreadyExists) {
			break
		}
	}
	if err != nil {
		log.Error("failed to create invitation",
			slog.String("invitation_id", inv.ID),
			slog.Any("error", err),
		)
		return domain.Invitation{}, err
	}

	if s.Metrics != nil {
		s.Metrics.InvitationsCreated.Inc()
	}
	log.Info("invitation created",
		slog.String("invitation_id", inv.ID),
		slog.String("entity_type", string(inv.EntityType)),
		slog.String("entity_id", inv.EntityID),
		slog.Time("expires_at", inv.ExpiresAt),
	)
	return inv, nil
}

// ValidateInvitation reports whether a code is redeemable without claiming
// it. A pending code found past its expiry is transitioned to expired here
// rather than waiting for the sweep.
func (s *InvitationService) ValidateInvitation(ctx context.Context, code string) (domain.InvitationValidation, error) {
	log := slogx.FromContext(ctx)
	now := time.Now().UTC()

	inv, err := s.Store.Invitations().GetInvitationByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return invalidValidation(), nil
		}
		return domain.InvitationValidation{}, err
	}

	if inv.Status == domain.InvitationPending && inv.ExpiresAt.Before(now) {
		// Lazy expiry. Losing the race to the sweep is fine; either way
		// the code reports invalid.
		if err := s.Store.Invitations().ExpireInvitation(ctx, inv.ID, now); err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Error("failed to expire invitation",
				slog.String("invitation_id", inv.ID),
				slog.Any("error", err),
			)
			return domain.InvitationValidation{}, err
		}
		if s.Metrics != nil {
			s.Metrics.InvitationsExpired.Inc()
		}
		return invalidValidation(), nil
	}

	if inv.Status != domain.InvitationPending {
		return invalidValidation(), nil
	}

	name, err := s.entityName(ctx, inv.EntityType, inv.EntityID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return domain.InvitationValidation{}, err
	}

	return domain.InvitationValidation{
		Valid:      true,
		EntityType: inv.EntityType,
		EntityID:   inv.EntityID,
		EntityName: name,
		Message:    "Invitation code is valid",
	}, nil
}

// RevokeInvitation cancels a pending invitation. Terminal invitations
// cannot be revoked.
func (s *InvitationService) RevokeInvitation(ctx context.Context, id string) error {
	log := slogx.FromContext(ctx)

	err := s.Store.Invitations().RevokeInvitation(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidInvitation
		}
		log.Error("failed to revoke invitation",
			slog.String("invitation_id", id),
			slog.Any("error", err),
		)
		return err
	}

	log.Info("invitation revoked", slog.String("invitation_id", id))
	return nil
}

// ListInvitations returns recent invitations, optionally filtered by status.
func (s *InvitationService) ListInvitations(ctx context.Context, status domain.InvitationStatus, limit int) ([]domain.Invitation, error) {
	return s.Store.Invitations().ListInvitations(ctx, status, limit)
}

// SweepExpiredInvitations bulk-expires overdue pending codes. Safe to run
// on any schedule; replays are no-ops.
func (s *InvitationService) SweepExpiredInvitations(ctx context.Context) (int64, error) {
	log := slogx.FromContext(ctx)

	n, err := s.Store.Invitations().SweepExpired(ctx, time.Now().UTC())
	if err != nil {
		log.Error("invitation sweep failed", slog.Any("error", err))
		return 0, err
	}
	if n > 0 {
		if s.Metrics != nil {
			s.Metrics.InvitationsExpired.Add(float64(n))
		}
		log.Info("expired invitations swept", slog.Int64("count", n))
	}
	return n, nil
}

// entityName resolves the bound entity's display name for validation
// responses.
func (s *InvitationService) entityName(ctx context.Context, entityType domain.EntityType, entityID string) (string, error) {
	switch entityType {
	case domain.EntityInstitution:
		inst, err := s.Store.Institutions().GetInstitutionByID(ctx, entityID)
		if err != nil {
			return "", err
		}
		return inst.Name, nil
	case domain.EntityScholarship:
		sch, err := s.Store.Scholarships().GetScholarshipByID(ctx, entityID)
		if err != nil {
			return "", err
		}
		return sch.Title, nil
	}
	return "", ErrInvalidEntityType
}

// invalidValidation is deliberately uniform across not-found, expired,
// claimed and revoked codes so callers cannot probe code state.
func invalidValidation() domain.InvitationValidation {
	return domain.InvitationValidation{
		Valid:   false,
		Message: "Invalid or expired invitation code",
	}
}
