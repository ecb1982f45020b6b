package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/campusreach/directory/internal/directory/domain"
	"github.com/campusreach/directory/internal/directory/metrics"
	"github.com/campusreach/directory/internal/directory/store"
	"github.com/campusreach/directory/pkg/cryptox"
	"github.com/campusreach/directory/pkg/idx"
	"github.com/campusreach/directory/pkg/jwtx"
	"github.com/campusreach/directory/pkg/slogx"
)

var (
	ErrEmailConflict      = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveAccount    = errors.New("account is inactive")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

type IdentityService struct {
	Store   store.Store
	Signer  *jwtx.Signer
	Issuer  string
	Metrics *metrics.Metrics
}

// Register redeems an invitation code and creates the admin identity bound
// to the invitation's entity. The claim and the identity insert commit
// atomically: a claimed code with no identity, or an identity without a
// claimed code, can never be observed.
func (s *IdentityService) Register(ctx context.Context, email, password, code string) (domain.AdminIdentity, error) {
	log := slogx.FromContext(ctx)
	now := time.Now().UTC()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.AdminIdentity{}, ErrInvalidCredentials
	}
	if len(password) < 8 {
		return domain.AdminIdentity{}, ErrWeakPassword
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.AdminIdentity{}, err
	}

	var admin domain.AdminIdentity
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		inv, err := tx.Invitations().GetInvitationByCode(ctx, code)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidInvitation
			}
			return err
		}

		admin = domain.AdminIdentity{
			ID:           idx.New().String(),
			Email:        email,
			PasswordHash: hash,
			EntityType:   inv.EntityType,
			EntityID:     inv.EntityID,
			Role:         domain.RoleAdmin,
			IsActive:     true,
			CreatedAt:    now,
		}

		if err := tx.Admins().CreateAdmin(ctx, admin); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailConflict
			}
			return err
		}

		// The conditional claim is the authoritative check: a code that
		// is no longer pending or has expired fails here and rolls the
		// identity back with it.
		if err := tx.Invitations().ClaimInvitation(ctx, code, admin.ID, now); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidInvitation
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInvitation) || errors.Is(err, ErrEmailConflict) {
			log.Warn("registration rejected",
				slog.String("email", email),
				slog.Any("reason", err),
			)
		} else {
			log.Error("registration failed", slog.Any("error", err))
		}
		return domain.AdminIdentity{}, err
	}

	if s.Metrics != nil {
		s.Metrics.InvitationsClaimed.Inc()
	}
	log.Info("admin registered",
		slog.String("admin_id", admin.ID),
		slog.String("entity_type", string(admin.EntityType)),
		slog.String("entity_id", admin.EntityID),
	)
	return admin, nil
}

// Authenticate checks credentials and issues a signed access token.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (string, domain.AdminIdentity, error) {
	log := slogx.FromContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	admin, err := s.Store.Admins().GetAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", domain.AdminIdentity{}, ErrInvalidCredentials
		}
		return "", domain.AdminIdentity{}, err
	}

	if err := cryptox.VerifyPassword(password, admin.PasswordHash); err != nil {
		log.Warn("failed login attempt", slog.String("email", email))
		return "", domain.AdminIdentity{}, ErrInvalidCredentials
	}

	if !admin.IsActive {
		log.Warn("login attempt on inactive account", slog.String("admin_id", admin.ID))
		return "", domain.AdminIdentity{}, ErrInactiveAccount
	}

	now := time.Now().UTC()
	claims := jwtx.NewAccessClaims(
		admin.ID,
		admin.Email,
		string(admin.Role),
		string(admin.EntityType),
		admin.EntityID,
		s.Issuer,
		jwtx.DefaultAccessTokenTTL,
		now,
	)
	token, err := s.Signer.Sign(claims)
	if err != nil {
		log.Error("failed to sign access token", slog.Any("error", err))
		return "", domain.AdminIdentity{}, err
	}

	if err := s.Store.Admins().TouchLastLogin(ctx, admin.ID, now); err != nil {
		// A failed stamp should not block the login.
		log.Error("failed to record last login",
			slog.String("admin_id", admin.ID),
			slog.Any("error", err),
		)
	}
	admin.LastLogin = &now

	log.Debug("admin authenticated", slog.String("admin_id", admin.ID))
	return token, admin, nil
}

// GetAdmin returns one identity by id.
func (s *IdentityService) GetAdmin(ctx context.Context, id string) (domain.AdminIdentity, error) {
	return s.Store.Admins().GetAdminByID(ctx, id)
}
