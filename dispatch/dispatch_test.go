package dispatch

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/focusboard/focusboard-server/config"
	"github.com/focusboard/focusboard-server/models"
	"github.com/focusboard/focusboard-server/models/system"
	"github.com/focusboard/focusboard-server/models/userdata"
	"github.com/focusboard/focusboard-server/providers/webpush"
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

// browserKeys generates a realistic subscription key set: a P-256 keypair
// plus a 16 byte auth secret, all URL-safe base64 as a browser would send.
func browserKeys(t *testing.T) (string, string) {
	t.Helper()

	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)

	authSecret := make([]byte, 16)
	_, err = rand.Read(authSecret)
	require.NoError(t, err)

	return base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		base64.RawURLEncoding.EncodeToString(authSecret)
}

func newTestClient(t *testing.T) *webpush.Client {
	t.Helper()

	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)

	cfg := &config.Config{
		Vapid: config.VapidConfig{
			PublicKey:  base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
			PrivateKey: base64.RawURLEncoding.EncodeToString(key.Bytes()),
			Subject:    "mailto:admin@focusboard.app",
			Ttl:        43200,
		},
		Dispatch: config.DispatchConfig{SendTimeout: 5},
	}

	client, err := webpush.NewClient(cfg)
	require.NoError(t, err)
	return client
}

// memoryQueue stands in for the redis list in worker tests.
type memoryQueue struct {
	jobs chan Job
}

func newMemoryQueue() *memoryQueue {
	return &memoryQueue{jobs: make(chan Job, 16)}
}

func (q *memoryQueue) Enqueue(ctx context.Context, job Job) error {
	q.jobs <- job
	return nil
}

func (q *memoryQueue) Dequeue(ctx context.Context) (*Job, error) {
	select {
	case job := <-q.jobs:
		return &job, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
