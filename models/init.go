package models

import (
	"github.com/uptrace/bun"

	"github.com/focusboard/focusboard-server/models/userdata"
)

func InitModelRegistrations(db *bun.DB) {
	db.RegisterModel((*userdata.NotificationTarget)(nil))
}
