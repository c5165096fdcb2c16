package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deal-parity/internal/domain"
	"deal-parity/internal/storage"
)

func testOverride(dealID, entityID string, newRole domain.Role, createdAt int64) *domain.Override {
	return &domain.Override{
		ID:        uuid.NewString(),
		DealID:    dealID,
		EntityID:  entityID,
		Field:     "role",
		OldRole:   domain.RoleOther,
		NewRole:   newRole,
		WeightBP:  domain.DeriveOverrideWeightBP(domain.RoleOther, newRole),
		Reason:    "test correction",
		CreatedBy: "analyst",
		CreatedAt: createdAt,
	}
}

func TestOverrideStore_InsertAssignsSeq(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOverrideStore(pool)
	ctx := context.Background()
	insertTestDeal(t, pool, "deal-ov")

	o1 := testOverride("deal-ov", "entity-1", domain.RoleSupplier, 1000)
	o2 := testOverride("deal-ov", "entity-1", domain.RolePayroll, 1000)

	require.NoError(t, store.Insert(ctx, o1))
	require.NoError(t, store.Insert(ctx, o2))

	assert.Less(t, o1.Seq, o2.Seq, "seq must be monotonic")
}

func TestOverrideStore_LedgerOrder(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOverrideStore(pool)
	ctx := context.Background()
	insertTestDeal(t, pool, "deal-ov")

	late := testOverride("deal-ov", "entity-1", domain.RoleSupplier, 3000)
	early := testOverride("deal-ov", "entity-2", domain.RolePayroll, 1000)
	require.NoError(t, store.Insert(ctx, late))
	require.NoError(t, store.Insert(ctx, early))

	retrieved, err := store.ListByDeal(ctx, "deal-ov")
	require.NoError(t, err)
	require.Len(t, retrieved, 2)

	assert.Equal(t, early.ID, retrieved[0].ID)
	assert.Equal(t, late.ID, retrieved[1].ID)
	assert.Equal(t, domain.RolePayroll, retrieved[0].NewRole)
}

func TestOverrideStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOverrideStore(pool)
	ctx := context.Background()
	insertTestDeal(t, pool, "deal-ov")

	o := testOverride("deal-ov", "entity-1", domain.RoleSupplier, 1000)
	require.NoError(t, store.Insert(ctx, o))

	err := store.Insert(ctx, o)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestOverrideStore_AppendOnlyEnforcedBySchema(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOverrideStore(pool)
	ctx := context.Background()
	insertTestDeal(t, pool, "deal-ov")

	o := testOverride("deal-ov", "entity-1", domain.RoleSupplier, 1000)
	require.NoError(t, store.Insert(ctx, o))

	// Direct SQL must not be able to rewrite history either.
	_, err := pool.Exec(ctx, `UPDATE overrides SET new_role = 'payroll' WHERE override_id = $1`, o.ID)
	assert.True(t, isImmutableError(err), "expected trigger rejection, got %v", err)

	_, err = pool.Exec(ctx, `DELETE FROM overrides WHERE override_id = $1`, o.ID)
	assert.True(t, isImmutableError(err), "expected trigger rejection, got %v", err)
}

func TestOverrideStore_WeightConstraint(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewOverrideStore(pool)
	ctx := context.Background()
	insertTestDeal(t, pool, "deal-ov")

	bad := testOverride("deal-ov", "entity-1", domain.RoleSupplier, 1000)
	bad.WeightBP = 1234
	err := store.Insert(ctx, bad)
	assert.Error(t, err, "weights outside {0, 5000, 10000} must be rejected")
}
