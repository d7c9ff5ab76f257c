package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lembrabot/lembrabot/internal/database"
	"github.com/lembrabot/lembrabot/internal/models"
	"github.com/lembrabot/lembrabot/internal/queue"
	"go.uber.org/zap"
)

// Dispatcher evaluates due reminders on each tick. Firing a reminder
// enqueues its delivery job and then replaces the row with its next
// occurrence (or just deletes it) in one database transaction, so a
// concurrent tick can never double-fire or lose an occurrence.
type Dispatcher struct {
	reminderRepo database.ReminderRepositoryInterface
	jobQueue     queue.JobQueue
	logger       *zap.Logger

	// mu serializes ticks. Volumes are small (single user or small
	// group), so a single lock around the fire-and-reschedule step is
	// enough.
	mu sync.Mutex
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(reminderRepo database.ReminderRepositoryInterface, jobQueue queue.JobQueue, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		reminderRepo: reminderRepo,
		jobQueue:     jobQueue,
		logger:       logger,
	}
}

// Tick fires every reminder due at now and returns how many were
// processed. A failure on one reminder is logged and skipped; the rest
// of the batch still fires.
func (d *Dispatcher) Tick(ctx context.Context, now time.Time) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	due, err := d.reminderRepo.ListDue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list due reminders: %w", err)
	}

	processed := 0
	for _, reminder := range due {
		if err := d.fire(ctx, reminder, now); err != nil {
			d.logger.Error("reminder_fire_failed",
				zap.String("reminder_id", reminder.ID.String()),
				zap.Int64("chat_id", reminder.ChatID),
				zap.Error(err),
			)
			continue
		}
		processed++
	}

	return processed, nil
}

// fire enqueues the notification and advances or terminates the entry
func (d *Dispatcher) fire(ctx context.Context, reminder *models.Reminder, now time.Time) error {
	job := queue.NewDeliveryJob(reminder, now)
	if err := d.jobQueue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue delivery: %w", err)
	}

	var next *models.Reminder
	if nextAt, ok := Advance(reminder.FireAt, reminder.Recurrence); ok {
		next = &models.Reminder{
			ID:          uuid.New(),
			ChatID:      reminder.ChatID,
			Description: reminder.Description,
			FireAt:      nextAt,
			Recurrence:  reminder.Recurrence,
		}
	}

	if err := d.reminderRepo.Replace(ctx, reminder.ID, next); err != nil {
		return fmt.Errorf("failed to replace fired reminder: %w", err)
	}

	if next != nil {
		d.logger.Info("reminder_rescheduled",
			zap.String("reminder_id", reminder.ID.String()),
			zap.String("next_id", next.ID.String()),
			zap.Time("next_fire_at", next.FireAt),
			zap.String("recurrence", string(next.Recurrence)),
		)
	} else {
		d.logger.Info("reminder_fired",
			zap.String("reminder_id", reminder.ID.String()),
			zap.Int64("chat_id", reminder.ChatID),
		)
	}

	return nil
}

// Run ticks at the given interval until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := d.Tick(ctx, time.Now())
			if err != nil {
				d.logger.Error("tick_failed", zap.Error(err))
				continue
			}
			if n > 0 {
				d.logger.Info("tick_processed", zap.Int("count", n))
			}
		}
	}
}
