package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lembrabot/lembrabot/internal/models"
	"github.com/lembrabot/lembrabot/internal/queue"
	"go.uber.org/zap"
)

type fakeReminderRepo struct {
	reminders map[uuid.UUID]*models.Reminder
}

func newFakeReminderRepo(reminders ...*models.Reminder) *fakeReminderRepo {
	repo := &fakeReminderRepo{reminders: make(map[uuid.UUID]*models.Reminder)}
	for _, r := range reminders {
		repo.reminders[r.ID] = r
	}
	return repo
}

func (f *fakeReminderRepo) Create(_ context.Context, r *models.Reminder) error {
	f.reminders[r.ID] = r
	return nil
}

func (f *fakeReminderRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Reminder, error) {
	r, ok := f.reminders[id]
	if !ok {
		return nil, errors.New("reminder not found")
	}
	return r, nil
}

func (f *fakeReminderRepo) ListByChat(_ context.Context, chatID int64) ([]*models.Reminder, error) {
	var out []*models.Reminder
	for _, r := range f.reminders {
		if r.ChatID == chatID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReminderRepo) ListDue(_ context.Context, now time.Time) ([]*models.Reminder, error) {
	var due []*models.Reminder
	for _, r := range f.reminders {
		if !r.FireAt.After(now) {
			due = append(due, r)
		}
	}
	return due, nil
}

func (f *fakeReminderRepo) Update(_ context.Context, r *models.Reminder) error {
	f.reminders[r.ID] = r
	return nil
}

func (f *fakeReminderRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.reminders, id)
	return nil
}

func (f *fakeReminderRepo) DeleteByDescription(_ context.Context, chatID int64, text string) (int64, error) {
	var n int64
	for id, r := range f.reminders {
		if r.ChatID == chatID && r.Description == text {
			delete(f.reminders, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeReminderRepo) DeleteAllByChat(_ context.Context, chatID int64) (int64, error) {
	var n int64
	for id, r := range f.reminders {
		if r.ChatID == chatID {
			delete(f.reminders, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeReminderRepo) Replace(_ context.Context, firedID uuid.UUID, next *models.Reminder) error {
	delete(f.reminders, firedID)
	if next != nil {
		f.reminders[next.ID] = next
	}
	return nil
}

type fakeJobQueue struct {
	jobs    []*queue.Job
	failFor map[uuid.UUID]bool // reminder IDs whose enqueue fails
}

func (f *fakeJobQueue) Enqueue(_ context.Context, job *queue.Job) error {
	if f.failFor[job.ReminderID] {
		return errors.New("broker unavailable")
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeJobQueue) Consume(context.Context, int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}

func (f *fakeJobQueue) Close() error                      { return nil }
func (f *fakeJobQueue) HealthCheck(context.Context) error { return nil }

func TestDispatcherTick(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)

	oneShot := &models.Reminder{
		ID:          uuid.New(),
		ChatID:      1,
		Description: "dentista",
		FireAt:      now.Add(-time.Minute),
		Recurrence:  models.RecurrenceNone,
	}
	daily := &models.Reminder{
		ID:          uuid.New(),
		ChatID:      1,
		Description: "tomar remédio",
		FireAt:      now.Add(-2 * time.Minute),
		Recurrence:  models.RecurrenceDaily,
	}
	future := &models.Reminder{
		ID:          uuid.New(),
		ChatID:      1,
		Description: "reunião",
		FireAt:      now.Add(time.Hour),
		Recurrence:  models.RecurrenceNone,
	}

	repo := newFakeReminderRepo(oneShot, daily, future)
	jq := &fakeJobQueue{}
	d := NewDispatcher(repo, jq, zap.NewNop())

	processed, err := d.Tick(context.Background(), now)
	if err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if processed != 2 {
		t.Errorf("got processed=%d, want 2", processed)
	}
	if len(jq.jobs) != 2 {
		t.Fatalf("got %d delivery jobs, want 2", len(jq.jobs))
	}

	// The one-shot entry is removed with no replacement.
	if _, err := repo.GetByID(context.Background(), oneShot.ID); err == nil {
		t.Error("expected one-shot reminder to be deleted")
	}

	// The daily entry is replaced by a new row one day ahead.
	if _, err := repo.GetByID(context.Background(), daily.ID); err == nil {
		t.Error("expected fired daily reminder to be deleted")
	}
	remaining, err := repo.ListByChat(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListByChat() error = %v", err)
	}
	var replacement *models.Reminder
	for _, r := range remaining {
		if r.Description == daily.Description {
			replacement = r
		}
	}
	if replacement == nil {
		t.Fatal("expected a rescheduled daily reminder")
	}
	wantNext := daily.FireAt.AddDate(0, 0, 1)
	if !replacement.FireAt.Equal(wantNext) {
		t.Errorf("got next fire %v, want %v", replacement.FireAt, wantNext)
	}
	if replacement.ID == daily.ID {
		t.Error("replacement must carry a new identifier")
	}

	// The future entry is untouched.
	if _, err := repo.GetByID(context.Background(), future.ID); err != nil {
		t.Error("expected future reminder to remain scheduled")
	}
}

// One reminder failing to fire must not abort the rest of the batch.
func TestDispatcherTickIsolatesFailures(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)

	broken := &models.Reminder{
		ID:          uuid.New(),
		ChatID:      1,
		Description: "vai falhar",
		FireAt:      now.Add(-time.Minute),
		Recurrence:  models.RecurrenceNone,
	}
	healthy := &models.Reminder{
		ID:          uuid.New(),
		ChatID:      1,
		Description: "vai funcionar",
		FireAt:      now.Add(-time.Minute),
		Recurrence:  models.RecurrenceNone,
	}

	repo := newFakeReminderRepo(broken, healthy)
	jq := &fakeJobQueue{failFor: map[uuid.UUID]bool{broken.ID: true}}
	d := NewDispatcher(repo, jq, zap.NewNop())

	processed, err := d.Tick(context.Background(), now)
	if err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if processed != 1 {
		t.Errorf("got processed=%d, want 1", processed)
	}

	// The failed reminder stays in the registry for the next tick.
	if _, err := repo.GetByID(context.Background(), broken.ID); err != nil {
		t.Error("expected failed reminder to remain for retry")
	}
	if _, err := repo.GetByID(context.Background(), healthy.ID); err == nil {
		t.Error("expected healthy reminder to have fired and been removed")
	}
}
