// Package workers contains the queue consumers that run in the worker
// binary, separate from the HTTP server.
package workers

import (
	"context"
	"fmt"

	"github.com/lembrabot/lembrabot/internal/logger"
	"github.com/lembrabot/lembrabot/internal/queue"
	"go.uber.org/zap"
)

// MessageSender delivers reminder text to a chat. Implemented by the
// Telegram client.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Deliverer processes reminder delivery jobs from the queue.
type Deliverer struct {
	sender MessageSender
	logger *zap.Logger
}

// NewDeliverer creates a new delivery worker.
func NewDeliverer(sender MessageSender, log *zap.Logger) *Deliverer {
	return &Deliverer{
		sender: sender,
		logger: log,
	}
}

// ProcessJob handles a single delivery message path: expired jobs are
// dropped, transient failures are requeued until retries run out, and
// exhausted jobs go to the DLQ.
func (d *Deliverer) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	if job.Type != queue.JobTypeDelivery {
		if nackErr := msg.Nack(false); nackErr != nil {
			d.logger.Error("failed_to_nack_unknown_job", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	// Stale notifications are dropped, not delivered late.
	if job.IsExpired() {
		d.logger.Warn("delivery_job_expired",
			zap.String("job_id", job.ID.String()),
			zap.String("reminder_id", job.ReminderID.String()),
			zap.Timep("not_after", job.NotAfter))
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack expired job: %w", ackErr)
		}
		return nil
	}

	text := fmt.Sprintf("⏰ Lembrete: %s", job.Text)
	if err := d.sender.SendMessage(ctx, job.ChatID, text); err != nil {
		return d.handleDeliveryError(msg, job, err)
	}

	d.logger.Info("reminder_delivered",
		zap.String("reminder_id", job.ReminderID.String()),
		zap.Int64("chat_id", job.ChatID),
		zap.String("text", logger.SanitizeMessageText(job.Text)))

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack delivery job: %w", ackErr)
	}
	return nil
}

func (d *Deliverer) handleDeliveryError(msg queue.MessageInterface, job *queue.Job, err error) error {
	if job.CanRetry() {
		job.IncrementRetry()
		d.logger.Warn("delivery_failed_will_retry",
			zap.String("reminder_id", job.ReminderID.String()),
			zap.Int("attempt", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.Error(err))
		if nackErr := msg.Nack(true); nackErr != nil {
			d.logger.Error("failed_to_nack_job", zap.Error(nackErr))
		}
		return fmt.Errorf("delivery failed (will retry): %w", err)
	}

	d.logger.Error("delivery_failed_max_retries",
		zap.String("reminder_id", job.ReminderID.String()),
		zap.Int("max_retries", job.MaxRetries),
		zap.Error(err))
	if nackErr := msg.Nack(false); nackErr != nil {
		d.logger.Error("failed_to_nack_job_to_dlq", zap.Error(nackErr))
	}
	return fmt.Errorf("delivery failed (max retries): %w", err)
}

// Run consumes delivery jobs until ctx is cancelled or the queue
// connection drops.
func (d *Deliverer) Run(ctx context.Context, jobQueue queue.JobQueue, prefetch int) error {
	messages, errs, err := jobQueue.Consume(ctx, prefetch)
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	d.logger.Info("delivery_worker_started", zap.Int("prefetch", prefetch))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case consumeErr, ok := <-errs:
			if !ok {
				return nil
			}
			return fmt.Errorf("consumer error: %w", consumeErr)
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if procErr := d.ProcessJob(ctx, msg); procErr != nil {
				d.logger.Warn("delivery_job_error", zap.Error(procErr))
			}
		}
	}
}
