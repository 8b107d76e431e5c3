package system

import (
	"time"

	"github.com/uptrace/bun"
)

// DeliveryJob is the durable record of one push dispatch, so an operator can
// inspect what happened to a fan-out after the creating request has returned.
type DeliveryJob struct {
	bun.BaseModel `bun:"delivery_jobs,alias:dj"`

	Id             int64 `bun:",pk,autoincrement"`
	NotificationId int64
	Service        string
	Item           string
	CreatedAt      time.Time `bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt      time.Time `bun:",nullzero,notnull,default:current_timestamp"`
	Status         bool
	Done           int64
	Total          int64
	Details        []map[string]string
}
