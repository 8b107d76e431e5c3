package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/focusboard/focusboard-server/models/userdata"
	"github.com/focusboard/focusboard-server/providers/webpush"
	"github.com/focusboard/focusboard-server/repos"
)

// Payload is what a subscribed browser ends up showing.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon,omitempty"`
	Url   string `json:"url,omitempty"`
}

const (
	SendStatusSent    = "sent"
	SendStatusFailed  = "failed"
	SendStatusExpired = "expired"
)

type SendResult struct {
	SubscriptionId int64
	StaffId        int64
	Endpoint       string
	Status         string
	Error          string
}

type Result struct {
	SuccessCount int
	FailureCount int
	Sends        []SendResult
}

type Dispatcher struct {
	subscriptions *repos.SubscriptionRepo
	client        *webpush.Client
}

func NewDispatcher(subscriptions *repos.SubscriptionRepo, client *webpush.Client) *Dispatcher {
	return &Dispatcher{subscriptions: subscriptions, client: client}
}

// Dispatch fans the payload out to every subscription held by the given
// staff members, one send per subscription, all concurrent and independent.
// At most once: failures are recorded, never retried. Endpoints that report
// themselves gone are pruned from the store.
func (d *Dispatcher) Dispatch(ctx context.Context, staffIds []int64, payload Payload) (Result, error) {
	result := Result{Sends: make([]SendResult, 0)}

	if len(staffIds) == 0 {
		log.Info().Msg("Push dispatch invoked with no staff ids, nothing to do")
		return result, nil
	}

	subscriptions, err := d.subscriptions.ListForStaffIds(ctx, staffIds)
	if err != nil {
		return result, err
	}

	if len(subscriptions) == 0 {
		log.Info().Ints64("staff_ids", staffIds).Msg("No push subscriptions for staff, nothing to do")
		return result, nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return result, err
	}

	var (
		wg  sync.WaitGroup
		mtx sync.Mutex
	)

	for _, subscription := range subscriptions {
		wg.Add(1)

		go func(sub userdata.PushSubscription) {
			defer wg.Done()

			send := SendResult{
				SubscriptionId: sub.Id,
				StaffId:        sub.StaffId,
				Endpoint:       sub.Endpoint,
				Status:         SendStatusSent,
			}

			if err := d.client.Send(sub.Endpoint, sub.P256dhKey, sub.AuthKey, body); err != nil {
				send.Error = err.Error()

				if errors.Is(err, webpush.ErrSubscriptionGone) {
					send.Status = SendStatusExpired

					if pruneErr := d.subscriptions.DeleteByEndpoint(ctx, sub.Endpoint); pruneErr != nil {
						log.Error().Err(pruneErr).Str("endpoint", sub.Endpoint).Msg("Failed to prune expired subscription")
					} else {
						log.Info().Str("endpoint", sub.Endpoint).Int64("staff_id", sub.StaffId).Msg("Pruned expired push subscription")
					}
				} else {
					send.Status = SendStatusFailed
					log.Warn().Err(err).Str("endpoint", sub.Endpoint).Int64("staff_id", sub.StaffId).Msg("Push send failed")
				}
			}

			mtx.Lock()
			if send.Status == SendStatusSent {
				result.SuccessCount++
			} else {
				result.FailureCount++
			}
			result.Sends = append(result.Sends, send)
			mtx.Unlock()
		}(subscription)
	}

	wg.Wait()

	log.Info().
		Int("success", result.SuccessCount).
		Int("failure", result.FailureCount).
		Msg("Push dispatch finished: " + strconv.Itoa(len(subscriptions)) + " subscriptions")

	return result, nil
}
