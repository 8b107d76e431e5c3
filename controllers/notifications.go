package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"github.com/focusboard/focusboard-server/config"
	"github.com/focusboard/focusboard-server/dispatch"
	"github.com/focusboard/focusboard-server/models/system"
	"github.com/focusboard/focusboard-server/models/userdata"
	"github.com/focusboard/focusboard-server/repos"
	utils "github.com/focusboard/focusboard-server/utils-go"
)

var validate = validator.New()

var standardRoute = utils.JwtMiddlewareConfig{
	ReadFrom: "header",
	Subject:  "access",
	Scopes:   []string{"basic"},
}

type NotificationsController struct {
	fx.In

	Repo    *repos.NotificationRepo
	JobRepo *repos.DeliveryJobRepo
	Queue   dispatch.Queue
}

type createNotificationRequest struct {
	OrgId                    int64      `json:"org_id" validate:"required"`
	Title                    string     `json:"title" validate:"required,min=1,max=255"`
	Message                  string     `json:"message" validate:"required,min=1"`
	Type                     string     `json:"type" validate:"omitempty,oneof=info success warning error"`
	CreatedBy                *int64     `json:"created_by"`
	DisplayTime              *time.Time `json:"display_time"`
	RemoveTime               *time.Time `json:"remove_time"`
	TargetStaffIds           []int64    `json:"target_staff_ids"`
	PushNotificationStaffIds []int64    `json:"push_notification_staff_ids"`
}

func RegisterNotificationsController(r *utils.Router, config *config.Config, c NotificationsController) {
	notifications := r.Group("/notifications", utils.Protected(standardRoute))

	notifications.Get("/organization/:orgId", c.listByOrg)
	notifications.Get("/organization/:orgId/active", c.activeByOrg)
	notifications.Get("/organization/:orgId/unread-count", c.unreadCount)
	notifications.Post("/", c.createNotification)
	notifications.Patch("/:id/read", c.markRead)
	notifications.Patch("/organization/:orgId/read-all", c.markAllRead)
	notifications.Delete("/:id", c.deleteNotification)
}

func (r *NotificationsController) listByOrg(c *fiber.Ctx) error {
	orgId, err := strconv.ParseInt(c.Params("orgId"), 10, 64)
	if err != nil {
		return utils.StandardCouldNotParse(c)
	}

	notifications, err := r.Repo.ListByOrg(c.Context(), orgId)
	if err != nil {
		return utils.StandardStorageError(c, err)
	}

	return c.JSON(notifications)
}

func (r *NotificationsController) activeByOrg(c *fiber.Ctx) error {
	orgId, err := strconv.ParseInt(c.Params("orgId"), 10, 64)
	if err != nil {
		return utils.StandardCouldNotParse(c)
	}

	var staffId *int64
	if raw := c.Query("staff_id"); len(raw) > 0 {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return utils.StandardCouldNotParse(c)
		}
		staffId = &id
	}

	notifications, err := r.Repo.ActiveByOrg(c.Context(), orgId, staffId, time.Now().UTC())
	if err != nil {
		return utils.StandardStorageError(c, err)
	}

	return c.JSON(notifications)
}

func (r *NotificationsController) unreadCount(c *fiber.Ctx) error {
	orgId, err := strconv.ParseInt(c.Params("orgId"), 10, 64)
	if err != nil {
		return utils.StandardCouldNotParse(c)
	}

	count, err := r.Repo.UnreadCount(c.Context(), orgId)
	if err != nil {
		return utils.StandardStorageError(c, err)
	}

	return c.JSON(fiber.Map{
		"count": count,
	})
}

func (r *NotificationsController) createNotification(c *fiber.Ctx) error {
	req := new(createNotificationRequest)
	if err := c.BodyParser(req); err != nil {
		return utils.StandardCouldNotParse(c)
	}

	if errs := utils.ValidateStruct(validate.Struct(req)); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(errs)
	}

	// A remove time before the display time would make the notification
	// permanently invisible, so it is rejected up front.
	if req.DisplayTime != nil && req.RemoveTime != nil && req.RemoveTime.Before(*req.DisplayTime) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "remove_time must not precede display_time",
		})
	}

	notification := userdata.Notification{
		OrgId:       req.OrgId,
		Title:       req.Title,
		Message:     req.Message,
		Type:        req.Type,
		CreatedBy:   req.CreatedBy,
		CreatedAt:   time.Now().UTC(),
		DisplayTime: req.DisplayTime,
		RemoveTime:  req.RemoveTime,
	}
	if len(notification.Type) == 0 {
		notification.Type = userdata.NotificationTypeInfo
	}

	created, err := r.Repo.AddNotificationTx(c.Context(), notification, req.TargetStaffIds)
	if err != nil {
		return utils.StandardStorageError(c, err)
	}

	if len(req.PushNotificationStaffIds) > 0 {
		r.enqueueDispatch(c, created, req.PushNotificationStaffIds)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// enqueueDispatch hands push delivery off to the worker. It only runs after
// the notification transaction has committed, and its failures are logged
// without ever failing the creating request.
func (r *NotificationsController) enqueueDispatch(c *fiber.Ctx, notification userdata.Notification, staffIds []int64) {
	jobRowId, err := r.JobRepo.AddJob(c.Context(), system.DeliveryJob{
		NotificationId: notification.Id,
		Service:        "push",
		Item:           "dispatch",
		Total:          int64(len(staffIds)),
		Details:        make([]map[string]string, 0),
	})
	if err != nil {
		log.Error().Err(err).Int64("notification", notification.Id).Msg("Failed to record delivery job")
		return
	}

	err = r.Queue.Enqueue(c.Context(), dispatch.Job{
		Id:             uuid.New(),
		JobRowId:       jobRowId,
		NotificationId: notification.Id,
		StaffIds:       staffIds,
		Payload: dispatch.Payload{
			Title: notification.Title,
			Body:  notification.Message,
			Url:   "/notifications",
		},
	})
	if err != nil {
		log.Error().Err(err).Int64("notification", notification.Id).Msg("Failed to enqueue delivery job")
	}
}

func (r *NotificationsController) markRead(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return utils.StandardCouldNotParse(c)
	}

	notification, err := r.Repo.MarkRead(c.Context(), id)
	if err != nil {
		if errors.Is(err, repos.ErrNotificationNotFound) {
			return utils.StandardNotFound(c, "Notification not found")
		}
		return utils.StandardStorageError(c, err)
	}

	return c.JSON(notification)
}

func (r *NotificationsController) markAllRead(c *fiber.Ctx) error {
	orgId, err := strconv.ParseInt(c.Params("orgId"), 10, 64)
	if err != nil {
		return utils.StandardCouldNotParse(c)
	}

	updated, err := r.Repo.MarkAllRead(c.Context(), orgId)
	if err != nil {
		return utils.StandardStorageError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Marked " + strconv.FormatInt(updated, 10) + " notifications read",
	})
}

func (r *NotificationsController) deleteNotification(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return utils.StandardCouldNotParse(c)
	}

	notification, err := r.Repo.DeleteNotificationTx(c.Context(), id)
	if err != nil {
		if errors.Is(err, repos.ErrNotificationNotFound) {
			return utils.StandardNotFound(c, "Notification not found")
		}
		return utils.StandardStorageError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":      "Notification deleted",
		"notification": notification,
	})
}
