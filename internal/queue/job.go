package queue

import (
	"time"

	"github.com/google/uuid"
	"github.com/lembrabot/lembrabot/internal/models"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeDelivery is an outbound notification for a fired reminder
	JobTypeDelivery JobType = "reminder_delivery"
)

// Job is a queued notification delivery. The schedule itself lives in
// the database; a job exists only between a reminder firing and the
// message reaching the Telegram API.
type Job struct {
	ID         uuid.UUID  `json:"id"`
	Type       JobType    `json:"type"`
	ReminderID uuid.UUID  `json:"reminder_id"`
	ChatID     int64      `json:"chat_id"`
	Text       string     `json:"text"`
	FiredAt    time.Time  `json:"fired_at"`
	NotAfter   *time.Time `json:"not_after,omitempty"` // latest useful delivery time
	CreatedAt  time.Time  `json:"created_at"`
	RetryCount int        `json:"retry_count"`
	MaxRetries int        `json:"max_retries"`
}

// DefaultDeliveryTTL bounds how long a notification stays useful. A
// reminder delivered hours late is worse than a dropped one.
const DefaultDeliveryTTL = 1 * time.Hour

// NewDeliveryJob creates a delivery job for a fired reminder
func NewDeliveryJob(reminder *models.Reminder, firedAt time.Time) *Job {
	notAfter := firedAt.Add(DefaultDeliveryTTL)
	return &Job{
		ID:         uuid.New(),
		Type:       JobTypeDelivery,
		ReminderID: reminder.ID,
		ChatID:     reminder.ChatID,
		Text:       reminder.Description,
		FiredAt:    firedAt,
		NotAfter:   &notAfter,
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}
	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
