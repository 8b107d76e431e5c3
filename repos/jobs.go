package repos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/uptrace/bun"

	models "github.com/focusboard/focusboard-server/models/system"
)

type DeliveryJobRepo struct {
	db *bun.DB
}

func NewDeliveryJobRepo(db *bun.DB) *DeliveryJobRepo {
	return &DeliveryJobRepo{db: db}
}

func (c *DeliveryJobRepo) AddJob(ctx context.Context, job models.DeliveryJob) (int64, error) {
	_, err := c.db.NewInsert().Model(&job).Exec(ctx)
	if err != nil {
		return 0, err
	}

	return job.Id, nil
}

func (c *DeliveryJobRepo) GetJob(ctx context.Context, id int64) (models.DeliveryJob, error) {
	job := models.DeliveryJob{}
	err := c.db.NewSelect().Model(&job).Where("id = ?", id).Scan(ctx)
	return job, err
}

// FinishJob records the fan-out outcome once the dispatcher is done with it.
func (c *DeliveryJobRepo) FinishJob(ctx context.Context, id int64, details []map[string]string, done int64, status bool) error {
	encoded, err := json.Marshal(details)
	if err != nil {
		return err
	}

	_, err = c.db.NewUpdate().Model((*models.DeliveryJob)(nil)).
		Set("details = ?", string(encoded)).
		Set("done = ?", done).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
