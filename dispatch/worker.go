package dispatch

import (
	"context"
	"errors"
	"strconv"

	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"github.com/focusboard/focusboard-server/repos"
)

// Worker drains the delivery queue and runs the dispatcher, recording each
// job's outcome on its delivery_jobs row. Delivery failures stay in here;
// nothing propagates back to any HTTP response.
type Worker struct {
	queue      Queue
	dispatcher *Dispatcher
	jobs       *repos.DeliveryJobRepo
}

func NewWorker(queue Queue, dispatcher *Dispatcher, jobs *repos.DeliveryJobRepo) *Worker {
	return &Worker{queue: queue, dispatcher: dispatcher, jobs: jobs}
}

func (w *Worker) Run(ctx context.Context) {
	log.Info().Msg("Push dispatch worker started")

	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				log.Info().Msg("Push dispatch worker stopped")
				return
			}

			log.Error().Err(err).Msg("Failed to dequeue delivery job")
			continue
		}

		if job == nil {
			if ctx.Err() != nil {
				log.Info().Msg("Push dispatch worker stopped")
				return
			}
			continue
		}

		w.Process(ctx, job)
	}
}

func (w *Worker) Process(ctx context.Context, job *Job) {
	result, err := w.dispatcher.Dispatch(ctx, job.StaffIds, job.Payload)
	if err != nil {
		log.Error().Err(err).Str("job", job.Id.String()).Msg("Push dispatch failed")

		if finishErr := w.jobs.FinishJob(ctx, job.JobRowId, []map[string]string{{"error": err.Error()}}, 0, false); finishErr != nil {
			log.Error().Err(finishErr).Str("job", job.Id.String()).Msg("Failed to record dispatch failure")
		}
		return
	}

	details := make([]map[string]string, 0, len(result.Sends))
	for _, send := range result.Sends {
		detail := map[string]string{
			"staff_id": strconv.FormatInt(send.StaffId, 10),
			"endpoint": send.Endpoint,
			"status":   send.Status,
		}
		if len(send.Error) > 0 {
			detail["error"] = send.Error
		}
		details = append(details, detail)
	}

	if err := w.jobs.FinishJob(ctx, job.JobRowId, details, int64(len(result.Sends)), result.FailureCount == 0); err != nil {
		log.Error().Err(err).Str("job", job.Id.String()).Msg("Failed to record dispatch outcome")
	}
}

func RegisterWorker(lc fx.Lifecycle, w *Worker) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				w.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()

			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
