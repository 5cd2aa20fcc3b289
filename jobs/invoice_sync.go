package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/crestlift/salesdash/internal/qbo"
	invsync "github.com/crestlift/salesdash/internal/sync"
)

const dateLayout = "2006-01-02"

// InvoiceSyncJob runs the invoice sync from the background worker.
type InvoiceSyncJob struct {
	service *invsync.Service
	logger  *slog.Logger
}

// NewInvoiceSyncJob constructs the job.
func NewInvoiceSyncJob(service *invsync.Service, logger *slog.Logger) *InvoiceSyncJob {
	return &InvoiceSyncJob{service: service, logger: logger}
}

// Handle processes TaskTypeInvoiceSync tasks. A malformed payload never
// retries; a run already in progress retries on the queue's backoff.
func (j *InvoiceSyncJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload InvoiceSyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		j.logger.Error("invoice sync payload", slog.Any("error", err))
		return asynq.SkipRetry
	}

	q := qbo.Query{Status: qbo.StatusAll}
	if payload.Status != "" {
		q.Status = qbo.PaymentStatus(payload.Status)
	}
	if payload.StartDate != "" {
		t, err := time.Parse(dateLayout, payload.StartDate)
		if err != nil {
			return asynq.SkipRetry
		}
		q.StartDate = &t
	}
	if payload.EndDate != "" {
		t, err := time.Parse(dateLayout, payload.EndDate)
		if err != nil {
			return asynq.SkipRetry
		}
		q.EndDate = &t
	}

	report, err := j.service.Run(ctx, q)
	if err != nil {
		if errors.Is(err, invsync.ErrSyncInProgress) {
			j.logger.Warn("sync already running, will retry")
		}
		return err
	}
	j.logger.Info("background sync complete",
		slog.String("run_id", report.RunID),
		slog.Int("processed", report.InvoicesProcessed),
		slog.Int("skipped", report.InvoicesSkipped))
	return nil
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueInvoiceSync enqueues an invoice sync task. Implements the sync
// handler's Enqueuer contract.
func (c *Client) EnqueueInvoiceSync(ctx context.Context, start, end *time.Time, status qbo.PaymentStatus) error {
	payload := InvoiceSyncPayload{Status: string(status)}
	if start != nil {
		payload.StartDate = start.Format(dateLayout)
	}
	if end != nil {
		payload.EndDate = end.Format(dateLayout)
	}
	task, err := NewInvoiceSyncTask(payload)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(3))
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
