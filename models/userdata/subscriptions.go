package userdata

import (
	"time"

	"github.com/uptrace/bun"
)

// PushSubscription is one browser/device push registration for a staff
// member. A staff member may hold any number of them; (staff_id, endpoint)
// is unique.
type PushSubscription struct {
	bun.BaseModel `bun:"push_subscriptions,alias:ps"`

	Id        int64     `bun:",pk,autoincrement" json:"id"`
	StaffId   int64     `json:"staff_id"`
	Endpoint  string    `json:"endpoint"`
	P256dhKey string    `bun:"p256dh_key" json:"p256dh_key"`
	AuthKey   string    `json:"auth_key"`
	UpdatedAt time.Time `bun:",notnull" json:"updated_at"`
}
