package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusreach/directory/internal/directory/domain"
	"github.com/campusreach/directory/internal/directory/store"
	"github.com/campusreach/directory/pkg/idx"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	st, err := NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func insertInvitation(t *testing.T, st *Store, code string, expiresAt time.Time) domain.Invitation {
	t.Helper()

	inv := domain.Invitation{
		ID:         idx.New().String(),
		Code:       code,
		EntityType: domain.EntityInstitution,
		EntityID:   "inst-1",
		Status:     domain.InvitationPending,
		ExpiresAt:  expiresAt,
		CreatedBy:  "admin-store-test",
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, st.Invitations().CreateInvitation(context.Background(), inv))
	return inv
}

func TestInvitations_ClaimIsSingleUse(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	inv := insertInvitation(t, st, "AAA-AAA-AAA-AA2", now.Add(time.Hour))

	require.NoError(t, st.Invitations().ClaimInvitation(ctx, inv.Code, "admin-1", now))

	got, err := st.Invitations().GetInvitationByCode(ctx, inv.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationClaimed, got.Status)
	assert.Equal(t, "admin-1", got.ClaimedBy)
	require.NotNil(t, got.ClaimedAt)

	// A second claim finds no pending row to update.
	err = st.Invitations().ClaimInvitation(ctx, inv.Code, "admin-2", now)
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err = st.Invitations().GetInvitationByCode(ctx, inv.Code)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", got.ClaimedBy)
}

func TestInvitations_ClaimRefusesExpiredRow(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	inv := insertInvitation(t, st, "BBB-BBB-BBB-BB2", now.Add(-time.Minute))

	err := st.Invitations().ClaimInvitation(ctx, inv.Code, "admin-1", now)
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := st.Invitations().GetInvitationByCode(ctx, inv.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationPending, got.Status)
	assert.Empty(t, got.ClaimedBy)
}

func TestInvitations_ClaimUnknownCode(t *testing.T) {
	st := newTestStore(t)

	err := st.Invitations().ClaimInvitation(context.Background(), "ZZZ-ZZZ-ZZZ-ZZ9", "admin-1", time.Now().UTC())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInvitations_ExpireOnlyPastPending(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	past := insertInvitation(t, st, "CCC-CCC-CCC-CC2", now.Add(-time.Minute))
	future := insertInvitation(t, st, "DDD-DDD-DDD-DD2", now.Add(time.Hour))

	require.NoError(t, st.Invitations().ExpireInvitation(ctx, past.ID, now))
	got, err := st.Invitations().GetInvitationByID(ctx, past.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationExpired, got.Status)

	// Pending but not yet past its deadline, so nothing to expire.
	err = st.Invitations().ExpireInvitation(ctx, future.ID, now)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Already terminal rows are left alone.
	err = st.Invitations().ExpireInvitation(ctx, past.ID, now)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInvitations_RevokeOnlyPending(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	inv := insertInvitation(t, st, "EEE-EEE-EEE-EE2", now.Add(time.Hour))
	require.NoError(t, st.Invitations().RevokeInvitation(ctx, inv.ID))

	got, err := st.Invitations().GetInvitationByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationRevoked, got.Status)

	err = st.Invitations().RevokeInvitation(ctx, inv.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	claimed := insertInvitation(t, st, "FFF-FFF-FFF-FF2", now.Add(time.Hour))
	require.NoError(t, st.Invitations().ClaimInvitation(ctx, claimed.Code, "admin-1", now))
	err = st.Invitations().RevokeInvitation(ctx, claimed.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInvitations_SweepExpired(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	insertInvitation(t, st, "GGG-GGG-GGG-GG2", now.Add(-2*time.Hour))
	insertInvitation(t, st, "HHH-HHH-HHH-HH2", now.Add(-time.Minute))
	fresh := insertInvitation(t, st, "JJJ-JJJ-JJJ-JJ2", now.Add(time.Hour))

	n, err := st.Invitations().SweepExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := st.Invitations().GetInvitationByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationPending, got.Status)

	// A second sweep performs no work.
	n, err = st.Invitations().SweepExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestInvitations_DuplicateCodeRejected(t *testing.T) {
	st := newTestStore(t)
	now := time.Now().UTC()

	first := insertInvitation(t, st, "KKK-KKK-KKK-KK2", now.Add(time.Hour))
	dup := first
	dup.ID = idx.New().String()

	err := st.Invitations().CreateInvitation(context.Background(), dup)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}
