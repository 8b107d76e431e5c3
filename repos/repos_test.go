package repos

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/focusboard/focusboard-server/models"
	"github.com/focusboard/focusboard-server/models/system"
	"github.com/focusboard/focusboard-server/models/userdata"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	models.InitModelRegistrations(db)

	ctx := context.Background()
	for _, model := range []interface{}{
		(*userdata.Notification)(nil),
		(*userdata.NotificationTarget)(nil),
		(*userdata.PushSubscription)(nil),
		(*system.DeliveryJob)(nil),
	} {
		_, err := db.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}

	_, err = db.NewCreateIndex().Model((*userdata.PushSubscription)(nil)).
		Index("push_subscriptions_staff_endpoint_idx").
		Unique().
		Column("staff_id", "endpoint").
		Exec(ctx)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}
