package userdata

import (
	"time"

	"github.com/uptrace/bun"
)

// Notification type constants
const (
	NotificationTypeInfo    = "info"
	NotificationTypeSuccess = "success"
	NotificationTypeWarning = "warning"
	NotificationTypeError   = "error"
)

type Notification struct {
	bun.BaseModel `bun:"notifications,alias:n"`

	Id          int64      `bun:",pk,autoincrement" json:"id"`
	OrgId       int64      `bun:"org_id" json:"org_id"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	Type        string     `json:"type"`
	IsRead      bool       `json:"is_read"`
	CreatedBy   *int64     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `bun:",notnull" json:"created_at"`
	DisplayTime *time.Time `json:"display_time,omitempty"`
	RemoveTime  *time.Time `json:"remove_time,omitempty"`

	Targets []NotificationTarget `bun:"rel:has-many,join:id=notification_id" json:"targets,omitempty"`
}

// NotificationTarget narrows a notification's visibility to one staff member.
// A notification with no target rows is visible to every staff member in the
// organization.
type NotificationTarget struct {
	bun.BaseModel `bun:"notification_targets,alias:nt"`

	NotificationId int64 `bun:",pk" json:"notification_id"`
	StaffId        int64 `bun:",pk" json:"staff_id"`
}
