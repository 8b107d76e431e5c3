package controllers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"

	"github.com/focusboard/focusboard-server/config"
	"github.com/focusboard/focusboard-server/models/userdata"
	"github.com/focusboard/focusboard-server/providers/webpush"
	"github.com/focusboard/focusboard-server/repos"
	utils "github.com/focusboard/focusboard-server/utils-go"
)

type SubscriptionsController struct {
	fx.In

	Repo   *repos.SubscriptionRepo
	Client *webpush.Client
}

type subscribeRequest struct {
	StaffId      int64 `json:"staffId" validate:"required"`
	Subscription struct {
		Endpoint string `json:"endpoint" validate:"required,url"`
		Keys     struct {
			P256dh string `json:"p256dh" validate:"required"`
			Auth   string `json:"auth" validate:"required"`
		} `json:"keys"`
	} `json:"subscription"`
}

type unsubscribeRequest struct {
	StaffId  int64  `json:"staffId" validate:"required"`
	Endpoint string `json:"endpoint" validate:"required"`
}

func RegisterSubscriptionsController(r *utils.Router, config *config.Config, c SubscriptionsController) {
	subscriptions := r.Group("/push-subscriptions")

	// The public key has to be retrievable before any session exists, since
	// the browser needs it to register the subscription in the first place.
	subscriptions.Get("/vapid-public-key", c.vapidPublicKey)

	subscriptions.Post("/subscribe", utils.Protected(standardRoute), c.subscribe)
	subscriptions.Post("/unsubscribe", utils.Protected(standardRoute), c.unsubscribe)
}

func (r *SubscriptionsController) vapidPublicKey(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"publicKey": r.Client.PublicKey(),
	})
}

func (r *SubscriptionsController) subscribe(c *fiber.Ctx) error {
	req := new(subscribeRequest)
	if err := c.BodyParser(req); err != nil {
		return utils.StandardCouldNotParse(c)
	}

	if errs := utils.ValidateStruct(validate.Struct(req)); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(errs)
	}

	err := r.Repo.Upsert(c.Context(), userdata.PushSubscription{
		StaffId:   req.StaffId,
		Endpoint:  req.Subscription.Endpoint,
		P256dhKey: req.Subscription.Keys.P256dh,
		AuthKey:   req.Subscription.Keys.Auth,
	})
	if err != nil {
		return utils.StandardStorageError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Subscribed",
	})
}

func (r *SubscriptionsController) unsubscribe(c *fiber.Ctx) error {
	req := new(unsubscribeRequest)
	if err := c.BodyParser(req); err != nil {
		return utils.StandardCouldNotParse(c)
	}

	if errs := utils.ValidateStruct(validate.Struct(req)); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(errs)
	}

	removed, err := r.Repo.Remove(c.Context(), req.StaffId, req.Endpoint)
	if err != nil {
		return utils.StandardStorageError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Unsubscribed",
		"removed": removed,
	})
}
