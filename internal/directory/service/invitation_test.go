package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusreach/directory/internal/directory/domain"
	"github.com/campusreach/directory/internal/directory/store"
	"github.com/campusreach/directory/pkg/cryptox"
	"github.com/campusreach/directory/pkg/idx"
)

var codePattern = regexp.MustCompile(`^[A-HJ-NP-Z2-9]{3}-[A-HJ-NP-Z2-9]{3}-[A-HJ-NP-Z2-9]{3}-[A-HJ-NP-Z2-9]{3}$`)

// seedRawInvitation inserts straight through the repo, bypassing service
// validation, so tests can plant already-expired codes.
func seedRawInvitation(t *testing.T, st store.Store, entityID string, expiresAt time.Time) domain.Invitation {
	t.Helper()

	code, err := cryptox.GenerateInviteCode()
	require.NoError(t, err)

	inv := domain.Invitation{
		ID:         idx.New().String(),
		Code:       code,
		EntityType: domain.EntityInstitution,
		EntityID:   entityID,
		Status:     domain.InvitationPending,
		ExpiresAt:  expiresAt,
		CreatedBy:  "admin-test",
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, st.Invitations().CreateInvitation(context.Background(), inv))
	return inv
}

func TestInvitation_CreateAndValidate(t *testing.T) {
	st := newTestStore(t)
	svc := &InvitationService{Store: st}
	inst := seedInstitution(t, st, domain.Institution{Name: "Springfield College"})

	inv := seedInvitation(t, svc, inst.ID)
	assert.Regexp(t, codePattern, inv.Code)
	assert.Equal(t, domain.InvitationPending, inv.Status)

	v, err := svc.ValidateInvitation(context.Background(), inv.Code)
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.Equal(t, domain.EntityInstitution, v.EntityType)
	assert.Equal(t, inst.ID, v.EntityID)
	assert.Equal(t, "Springfield College", v.EntityName)
}

func TestInvitation_CreateRejectsUnknownEntity(t *testing.T) {
	st := newTestStore(t)
	svc := &InvitationService{Store: st}

	_, err := svc.CreateInvitation(
		context.Background(),
		domain.EntityInstitution,
		"missing",
		"",
		time.Now().Add(time.Hour),
		"admin-test",
	)
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func TestInvitation_CreateRejectsPastExpiry(t *testing.T) {
	st := newTestStore(t)
	svc := &InvitationService{Store: st}
	inst := seedInstitution(t, st, domain.Institution{})

	_, err := svc.CreateInvitation(
		context.Background(),
		domain.EntityInstitution,
		inst.ID,
		"",
		time.Now().Add(-time.Hour),
		"admin-test",
	)
	assert.ErrorIs(t, err, ErrInvalidExpiry)
}

func TestInvitation_ValidateUnknownCode(t *testing.T) {
	st := newTestStore(t)
	svc := &InvitationService{Store: st}

	v, err := svc.ValidateInvitation(context.Background(), "AAA-AAA-AAA-AAA")
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.Equal(t, "Invalid or expired invitation code", v.Message)
}

// A pending code past its expiry flips to expired the first time anyone
// validates it, without waiting for the sweep.
func TestInvitation_LazyExpiryOnValidate(t *testing.T) {
	st := newTestStore(t)
	svc := &InvitationService{Store: st}
	inst := seedInstitution(t, st, domain.Institution{})
	ctx := context.Background()

	inv := seedRawInvitation(t, st, inst.ID, time.Now().UTC().Add(-time.Hour))

	v, err := svc.ValidateInvitation(ctx, inv.Code)
	require.NoError(t, err)
	assert.False(t, v.Valid)

	after, err := st.Invitations().GetInvitationByCode(ctx, inv.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationExpired, after.Status)
}

func TestInvitation_Revoke(t *testing.T) {
	st := newTestStore(t)
	svc := &InvitationService{Store: st}
	inst := seedInstitution(t, st, domain.Institution{})
	ctx := context.Background()

	inv := seedInvitation(t, svc, inst.ID)
	require.NoError(t, svc.RevokeInvitation(ctx, inv.ID))

	after, err := st.Invitations().GetInvitationByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationRevoked, after.Status)

	// Terminal states cannot be revoked again.
	assert.ErrorIs(t, svc.RevokeInvitation(ctx, inv.ID), ErrInvalidInvitation)

	v, err := svc.ValidateInvitation(ctx, inv.Code)
	require.NoError(t, err)
	assert.False(t, v.Valid)
}

func TestInvitation_ClaimOnceUnderConcurrency(t *testing.T) {
	st := newTestStore(t)
	svc := &InvitationService{Store: st}
	inst := seedInstitution(t, st, domain.Institution{})
	ctx := context.Background()

	inv := seedInvitation(t, svc, inst.ID)

	const claimers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := st.Invitations().ClaimInvitation(ctx, inv.Code, "claimant", time.Now().UTC())
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			if !errors.Is(err, store.ErrNotFound) {
				t.Errorf("unexpected claim error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)

	after, err := st.Invitations().GetInvitationByCode(ctx, inv.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationClaimed, after.Status)
}

func TestInvitation_SweepIdempotent(t *testing.T) {
	st := newTestStore(t)
	svc := &InvitationService{Store: st}
	inst := seedInstitution(t, st, domain.Institution{})
	ctx := context.Background()

	fresh := seedInvitation(t, svc, inst.ID)
	seedRawInvitation(t, st, inst.ID, time.Now().UTC().Add(-time.Minute))

	n, err := svc.SweepExpiredInvitations(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// A second sweep finds nothing new.
	n, err = svc.SweepExpiredInvitations(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	got, err := st.Invitations().GetInvitationByCode(ctx, fresh.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationPending, got.Status)
}

func TestInvitation_List(t *testing.T) {
	st := newTestStore(t)
	svc := &InvitationService{Store: st}
	inst := seedInstitution(t, st, domain.Institution{})
	ctx := context.Background()

	a := seedInvitation(t, svc, inst.ID)
	b := seedInvitation(t, svc, inst.ID)
	require.NoError(t, svc.RevokeInvitation(ctx, b.ID))

	all, err := svc.ListInvitations(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := svc.ListInvitations(ctx, domain.InvitationPending, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, a.ID, pending[0].ID)
}
