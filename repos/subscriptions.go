package repos

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/focusboard/focusboard-server/models/userdata"
)

type SubscriptionRepo struct {
	db *bun.DB
}

func NewSubscriptionRepo(db *bun.DB) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

// Upsert stores the subscription, replacing the keys and timestamp when the
// (staff, endpoint) pair already exists. Re-subscribing never duplicates.
func (c *SubscriptionRepo) Upsert(ctx context.Context, subscription userdata.PushSubscription) error {
	subscription.UpdatedAt = time.Now().UTC()

	_, err := c.db.NewInsert().Model(&subscription).
		On("CONFLICT (staff_id, endpoint) DO UPDATE").
		Set("p256dh_key = EXCLUDED.p256dh_key").
		Set("auth_key = EXCLUDED.auth_key").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (c *SubscriptionRepo) Remove(ctx context.Context, staffId int64, endpoint string) (int64, error) {
	res, err := c.db.NewDelete().Model((*userdata.PushSubscription)(nil)).
		Where("staff_id = ? AND endpoint = ?", staffId, endpoint).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	affected, _ := res.RowsAffected()
	return affected, nil
}

func (c *SubscriptionRepo) ListForStaff(ctx context.Context, staffId int64) ([]userdata.PushSubscription, error) {
	subscriptions := make([]userdata.PushSubscription, 0)
	err := c.db.NewSelect().Model(&subscriptions).
		Where("staff_id = ?", staffId).
		Scan(ctx)
	return subscriptions, err
}

func (c *SubscriptionRepo) ListForStaffIds(ctx context.Context, staffIds []int64) ([]userdata.PushSubscription, error) {
	subscriptions := make([]userdata.PushSubscription, 0)
	if len(staffIds) == 0 {
		return subscriptions, nil
	}

	err := c.db.NewSelect().Model(&subscriptions).
		Where("staff_id IN (?)", bun.In(staffIds)).
		Scan(ctx)
	return subscriptions, err
}

// DeleteByEndpoint prunes a subscription whose endpoint reported itself gone.
func (c *SubscriptionRepo) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	_, err := c.db.NewDelete().Model((*userdata.PushSubscription)(nil)).
		Where("endpoint = ?", endpoint).
		Exec(ctx)
	return err
}
