package controllers

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/rsa"
	"database/sql"
	"encoding/base64"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/focusboard/focusboard-server/config"
	"github.com/focusboard/focusboard-server/dispatch"
	"github.com/focusboard/focusboard-server/models"
	"github.com/focusboard/focusboard-server/models/system"
	"github.com/focusboard/focusboard-server/models/userdata"
	"github.com/focusboard/focusboard-server/providers/webpush"
	"github.com/focusboard/focusboard-server/repos"
	utils "github.com/focusboard/focusboard-server/utils-go"
)

type memoryQueue struct {
	jobs []dispatch.Job
}

func (q *memoryQueue) Enqueue(ctx context.Context, job dispatch.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *memoryQueue) Dequeue(ctx context.Context) (*dispatch.Job, error) {
	if len(q.jobs) == 0 {
		return nil, nil
	}

	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return &job, nil
}

type testEnv struct {
	app   *fiber.App
	db    *bun.DB
	queue *memoryQueue
	token string
}

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

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	jwtKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	utils.InitSharedConstants(jwtKey.PublicKey)

	token, err := utils.CreateJwt(utils.JwtConfig{
		User:       "10",
		ExpireIn:   time.Hour,
		Scope:      "basic",
		Subject:    "access",
		Data:       map[string]string{},
		PrivateKey: jwtKey,
	})
	require.NoError(t, err)

	vapidKey, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)

	cfg := &config.Config{
		AppName: "FocusBoard",
		Vapid: config.VapidConfig{
			PublicKey:  base64.RawURLEncoding.EncodeToString(vapidKey.PublicKey().Bytes()),
			PrivateKey: base64.RawURLEncoding.EncodeToString(vapidKey.Bytes()),
			Subject:    "mailto:admin@focusboard.app",
			Ttl:        43200,
		},
		Dispatch: config.DispatchConfig{SendTimeout: 5},
	}

	client, err := webpush.NewClient(cfg)
	require.NoError(t, err)

	db := newTestDB(t)
	queue := new(memoryQueue)

	app := fiber.New()
	router := utils.GetDefaultRouter(app)

	RegisterNotificationsController(router, cfg, NotificationsController{
		Repo:    repos.NewNotificationRepo(db),
		JobRepo: repos.NewDeliveryJobRepo(db),
		Queue:   queue,
	})
	RegisterSubscriptionsController(router, cfg, SubscriptionsController{
		Repo:   repos.NewSubscriptionRepo(db),
		Client: client,
	})

	return &testEnv{app: app, db: db, queue: queue, token: token}
}
