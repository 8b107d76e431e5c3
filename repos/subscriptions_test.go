package repos

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusboard/focusboard-server/models/userdata"
)

func TestUpsertIsIdempotentPerEndpoint(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubscriptionRepo(db)
	ctx := context.Background()

	err := repo.Upsert(ctx, userdata.PushSubscription{
		StaffId:   10,
		Endpoint:  "https://push.example/one",
		P256dhKey: "key-v1",
		AuthKey:   "auth-v1",
	})
	require.NoError(t, err)

	err = repo.Upsert(ctx, userdata.PushSubscription{
		StaffId:   10,
		Endpoint:  "https://push.example/one",
		P256dhKey: "key-v2",
		AuthKey:   "auth-v2",
	})
	require.NoError(t, err)

	subscriptions, err := repo.ListForStaff(ctx, 10)
	require.NoError(t, err)
	require.Len(t, subscriptions, 1)
	assert.Equal(t, "key-v2", subscriptions[0].P256dhKey)
	assert.Equal(t, "auth-v2", subscriptions[0].AuthKey)
}

func TestStaffMayHoldMultipleSubscriptions(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubscriptionRepo(db)
	ctx := context.Background()

	for _, endpoint := range []string{"https://push.example/laptop", "https://push.example/phone"} {
		err := repo.Upsert(ctx, userdata.PushSubscription{
			StaffId:   10,
			Endpoint:  endpoint,
			P256dhKey: "key",
			AuthKey:   "auth",
		})
		require.NoError(t, err)
	}

	subscriptions, err := repo.ListForStaff(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, subscriptions, 2)
}

func TestRemoveSubscription(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubscriptionRepo(db)
	ctx := context.Background()

	err := repo.Upsert(ctx, userdata.PushSubscription{
		StaffId:   10,
		Endpoint:  "https://push.example/one",
		P256dhKey: "key",
		AuthKey:   "auth",
	})
	require.NoError(t, err)

	removed, err := repo.Remove(ctx, 10, "https://push.example/one")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	removed, err = repo.Remove(ctx, 10, "https://push.example/one")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestListForStaffIds(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubscriptionRepo(db)
	ctx := context.Background()

	for staffId, endpoint := range map[int64]string{
		10: "https://push.example/a",
		11: "https://push.example/b",
		12: "https://push.example/c",
	} {
		err := repo.Upsert(ctx, userdata.PushSubscription{
			StaffId:   staffId,
			Endpoint:  endpoint,
			P256dhKey: "key",
			AuthKey:   "auth",
		})
		require.NoError(t, err)
	}

	subscriptions, err := repo.ListForStaffIds(ctx, []int64{10, 12})
	require.NoError(t, err)
	assert.Len(t, subscriptions, 2)

	none, err := repo.ListForStaffIds(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteByEndpoint(t *testing.T) {
	db := newTestDB(t)
	repo := NewSubscriptionRepo(db)
	ctx := context.Background()

	err := repo.Upsert(ctx, userdata.PushSubscription{
		StaffId:   10,
		Endpoint:  "https://push.example/stale",
		P256dhKey: "key",
		AuthKey:   "auth",
	})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByEndpoint(ctx, "https://push.example/stale"))

	subscriptions, err := repo.ListForStaff(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, subscriptions)
}
