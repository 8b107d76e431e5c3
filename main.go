package main

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"

	"github.com/focusboard/focusboard-server/config"
	"github.com/focusboard/focusboard-server/controllers"
	"github.com/focusboard/focusboard-server/dispatch"
	"github.com/focusboard/focusboard-server/models"
	"github.com/focusboard/focusboard-server/providers/webpush"
	"github.com/focusboard/focusboard-server/repos"
	server "github.com/focusboard/focusboard-server/server-go"
	utils "github.com/focusboard/focusboard-server/utils-go"
)

func main() {

	opts := []fx.Option{}
	opts = append(opts, provideOptions()...)
	opts = append(opts, fx.Invoke(run))

	app := fx.New(opts...)

	app.Run()
}

func provideOptions() []fx.Option {
	return []fx.Option{
		fx.Invoke(utils.ConfigureLogger),
		fx.Provide(config.Parse),
		fx.Invoke(func(config *config.Config) {
			utils.InitSharedConstants(*config.JwtParsedPublicKey)
		}),
		fx.Provide(config.ProvidePostgres),
		fx.Provide(config.ProvideRedis),
		fx.Provide(func(c *config.Config) (*server.Config, error) {
			return utils.ConvertConfig[config.Config, server.Config](*c)
		}),
		fx.Provide(server.CreateServer),
		fx.Provide(utils.GetDefaultRouter),
		fx.Invoke(models.InitModelRegistrations),
		fx.Provide(repos.NewNotificationRepo),
		fx.Provide(repos.NewSubscriptionRepo),
		fx.Provide(repos.NewDeliveryJobRepo),
		fx.Provide(webpush.NewClient),
		fx.Provide(dispatch.NewRedisQueue),
		fx.Provide(func(q *dispatch.RedisQueue) dispatch.Queue { return q }),
		fx.Provide(dispatch.NewDispatcher),
		fx.Provide(dispatch.NewWorker),
		fx.Invoke(controllers.RegisterNotificationsController),
		fx.Invoke(controllers.RegisterSubscriptionsController),
		fx.Invoke(dispatch.RegisterWorker),
	}
}

func run(app *fiber.App, config *config.Config, lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			errChan := make(chan error)

			go func() {
				errChan <- app.Listen(config.Port)
			}()

			select {
			case err := <-errChan:
				return err
			case <-time.After(100 * time.Millisecond):
				return nil
			}
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}
