package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lembrabot/lembrabot/internal/models"
)

// ReminderRepositoryInterface defines the interface for reminder
// repository operations. It enables mock implementations in tests.
type ReminderRepositoryInterface interface {
	Create(ctx context.Context, reminder *models.Reminder) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Reminder, error)
	ListByChat(ctx context.Context, chatID int64) ([]*models.Reminder, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.Reminder, error)
	Update(ctx context.Context, reminder *models.Reminder) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByDescription(ctx context.Context, chatID int64, text string) (int64, error)
	DeleteAllByChat(ctx context.Context, chatID int64) (int64, error)
	Replace(ctx context.Context, firedID uuid.UUID, next *models.Reminder) error
}

// Ensure the concrete type implements the interface
var _ ReminderRepositoryInterface = (*ReminderRepository)(nil)
