package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lembrabot/lembrabot/internal/models"
)

// ReminderRepository handles reminder database operations
type ReminderRepository struct {
	db *DB
}

// NewReminderRepository creates a new reminder repository
func NewReminderRepository(db *DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

const reminderColumns = "id, chat_id, description, fire_at, recurrence, created_at, updated_at"

// Create inserts a new reminder
func (r *ReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	query := `
		INSERT INTO reminders (id, chat_id, description, fire_at, recurrence, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		reminder.ID,
		reminder.ChatID,
		reminder.Description,
		reminder.FireAt,
		reminder.Recurrence,
		now,
		now,
	).Scan(&reminder.CreatedAt, &reminder.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}

	return nil
}

// GetByID retrieves a reminder by ID
func (r *ReminderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE id = $1`

	reminder, err := scanReminder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reminder not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}

	return reminder, nil
}

// ListByChat retrieves all reminders for a chat ordered by fire time
func (r *ReminderRepository) ListByChat(ctx context.Context, chatID int64) ([]*models.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE chat_id = $1 ORDER BY fire_at ASC`

	rows, err := r.db.QueryContext(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	return collectReminders(rows)
}

// ListDue retrieves all reminders whose fire instant is at or before now
func (r *ReminderRepository) ListDue(ctx context.Context, now time.Time) ([]*models.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE fire_at <= $1 ORDER BY fire_at ASC`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due reminders: %w", err)
	}
	defer rows.Close()

	return collectReminders(rows)
}

// Update rewrites a reminder's description, fire instant and recurrence
func (r *ReminderRepository) Update(ctx context.Context, reminder *models.Reminder) error {
	query := `
		UPDATE reminders
		SET description = $2, fire_at = $3, recurrence = $4, updated_at = $5
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		reminder.ID,
		reminder.Description,
		reminder.FireAt,
		reminder.Recurrence,
		time.Now(),
	).Scan(&reminder.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("reminder not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update reminder: %w", err)
	}

	return nil
}

// Delete removes a reminder by ID
func (r *ReminderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reminder: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("reminder not found")
	}

	return nil
}

// DeleteByDescription removes reminders for a chat whose description
// matches text (case-insensitive). Returns the number removed.
func (r *ReminderRepository) DeleteByDescription(ctx context.Context, chatID int64, text string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE chat_id = $1 AND lower(description) = lower($2)`,
		chatID, text,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete reminders by description: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// DeleteAllByChat removes every reminder for a chat. Returns the number
// removed.
func (r *ReminderRepository) DeleteAllByChat(ctx context.Context, chatID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE chat_id = $1`, chatID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete reminders: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// Replace atomically deletes a fired reminder and, when next is not
// nil, inserts its replacement in the same transaction. A concurrent
// tick never observes the fired row gone without the replacement
// present.
func (r *ReminderRepository) Replace(ctx context.Context, firedID uuid.UUID, next *models.Reminder) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			_ = rbErr
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reminders WHERE id = $1`, firedID); err != nil {
		return fmt.Errorf("failed to delete fired reminder: %w", err)
	}

	if next != nil {
		now := time.Now()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reminders (id, chat_id, description, fire_at, recurrence, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, next.ID, next.ChatID, next.Description, next.FireAt, next.Recurrence, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert replacement reminder: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit replace: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner) (*models.Reminder, error) {
	reminder := &models.Reminder{}
	err := row.Scan(
		&reminder.ID,
		&reminder.ChatID,
		&reminder.Description,
		&reminder.FireAt,
		&reminder.Recurrence,
		&reminder.CreatedAt,
		&reminder.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return reminder, nil
}

func collectReminders(rows *sql.Rows) ([]*models.Reminder, error) {
	var reminders []*models.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, reminder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminders: %w", err)
	}

	return reminders, nil
}
