package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/focusboard/focusboard-server/models/userdata"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepo struct {
	db *bun.DB
}

func NewNotificationRepo(db *bun.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// AddNotificationTx inserts the notification row and its target rows in one
// transaction. Either every row becomes visible or none does; duplicate
// target ids are ignored rather than failing the whole write.
func (c *NotificationRepo) AddNotificationTx(ctx context.Context, notification userdata.Notification, targetStaffIds []int64) (userdata.Notification, error) {
	err := c.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&notification).Exec(ctx)
		if err != nil {
			return err
		}

		if len(targetStaffIds) == 0 {
			return nil
		}

		targets := make([]userdata.NotificationTarget, 0, len(targetStaffIds))
		for _, staffId := range targetStaffIds {
			targets = append(targets, userdata.NotificationTarget{
				NotificationId: notification.Id,
				StaffId:        staffId,
			})
		}

		_, err = tx.NewInsert().Model(&targets).On("CONFLICT (notification_id, staff_id) DO NOTHING").Exec(ctx)
		return err
	})
	if err != nil {
		return userdata.Notification{}, err
	}

	return c.GetNotification(ctx, notification.Id)
}

func (c *NotificationRepo) GetNotification(ctx context.Context, id int64) (userdata.Notification, error) {
	notification := userdata.Notification{}
	err := c.db.NewSelect().Model(&notification).Relation("Targets").Where("n.id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notification, ErrNotificationNotFound
		}
		return notification, err
	}

	return notification, nil
}

func (c *NotificationRepo) ListByOrg(ctx context.Context, orgId int64) ([]userdata.Notification, error) {
	notifications := make([]userdata.Notification, 0)
	err := c.db.NewSelect().Model(&notifications).Relation("Targets").
		Where("n.org_id = ?", orgId).
		OrderExpr("n.created_at DESC").
		Scan(ctx)
	return notifications, err
}

// ActiveByOrg returns the notifications currently inside their display/remove
// window, newest-scheduled first. With a staff id, untargeted notifications
// and ones targeted at that staff member are returned; without one,
// targeting is ignored.
func (c *NotificationRepo) ActiveByOrg(ctx context.Context, orgId int64, staffId *int64, now time.Time) ([]userdata.Notification, error) {
	notifications := make([]userdata.Notification, 0)

	q := c.db.NewSelect().Model(&notifications).
		Where("n.org_id = ?", orgId).
		Where("(n.display_time IS NULL OR n.display_time <= ?)", now).
		Where("(n.remove_time IS NULL OR n.remove_time > ?)", now)

	if staffId != nil {
		q = q.Where(`(NOT EXISTS (SELECT 1 FROM notification_targets nt WHERE nt.notification_id = n.id)
			OR EXISTS (SELECT 1 FROM notification_targets nt WHERE nt.notification_id = n.id AND nt.staff_id = ?))`, *staffId)
	}

	err := q.OrderExpr("n.display_time DESC NULLS LAST").
		OrderExpr("n.created_at DESC").
		Scan(ctx)
	return notifications, err
}

func (c *NotificationRepo) UnreadCount(ctx context.Context, orgId int64) (int, error) {
	return c.db.NewSelect().Model((*userdata.Notification)(nil)).
		Where("org_id = ? AND is_read = ?", orgId, false).
		Count(ctx)
}

func (c *NotificationRepo) MarkRead(ctx context.Context, id int64) (userdata.Notification, error) {
	res, err := c.db.NewUpdate().Model((*userdata.Notification)(nil)).
		Set("is_read = ?", true).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return userdata.Notification{}, err
	}

	if affected, _ := res.RowsAffected(); affected == 0 {
		return userdata.Notification{}, ErrNotificationNotFound
	}

	return c.GetNotification(ctx, id)
}

func (c *NotificationRepo) MarkAllRead(ctx context.Context, orgId int64) (int64, error) {
	res, err := c.db.NewUpdate().Model((*userdata.Notification)(nil)).
		Set("is_read = ?", true).
		Where("org_id = ? AND is_read = ?", orgId, false).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	affected, _ := res.RowsAffected()
	return affected, nil
}

// DeleteNotificationTx removes the notification and cascades to its target
// rows inside one transaction. The deleted row is returned to the caller.
func (c *NotificationRepo) DeleteNotificationTx(ctx context.Context, id int64) (userdata.Notification, error) {
	notification, err := c.GetNotification(ctx, id)
	if err != nil {
		return notification, err
	}

	err = c.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().Model((*userdata.NotificationTarget)(nil)).
			Where("notification_id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}

		_, err = tx.NewDelete().Model((*userdata.Notification)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		return err
	})
	return notification, err
}
