package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lembrabot/lembrabot/internal/models"
	"go.uber.org/zap"
)

type fakeRepo struct {
	reminders map[uuid.UUID]*models.Reminder
	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{reminders: make(map[uuid.UUID]*models.Reminder)}
}

func (f *fakeRepo) Create(_ context.Context, r *models.Reminder) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.reminders[r.ID] = r
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Reminder, error) {
	r, ok := f.reminders[id]
	if !ok {
		return nil, errors.New("reminder not found")
	}
	return r, nil
}

func (f *fakeRepo) ListByChat(_ context.Context, chatID int64) ([]*models.Reminder, error) {
	var out []*models.Reminder
	for _, r := range f.reminders {
		if r.ChatID == chatID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListDue(_ context.Context, now time.Time) ([]*models.Reminder, error) {
	return nil, nil
}

func (f *fakeRepo) Update(_ context.Context, r *models.Reminder) error {
	f.reminders[r.ID] = r
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.reminders, id)
	return nil
}

func (f *fakeRepo) DeleteByDescription(_ context.Context, chatID int64, text string) (int64, error) {
	var n int64
	for id, r := range f.reminders {
		if r.ChatID == chatID && strings.EqualFold(r.Description, text) {
			delete(f.reminders, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) DeleteAllByChat(_ context.Context, chatID int64) (int64, error) {
	var n int64
	for id, r := range f.reminders {
		if r.ChatID == chatID {
			delete(f.reminders, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) Replace(_ context.Context, firedID uuid.UUID, next *models.Reminder) error {
	delete(f.reminders, firedID)
	if next != nil {
		f.reminders[next.ID] = next
	}
	return nil
}

type fakeRewriter struct {
	result string
	err    error
	called bool
}

func (f *fakeRewriter) Rewrite(_ context.Context, phrase string, _ time.Time) (string, error) {
	f.called = true
	return f.result, f.err
}

func testRouter(t *testing.T, repo *fakeRepo) *Router {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("failed to load timezone: %v", err)
	}
	r := NewRouter(repo, nil, loc, zap.NewNop())
	// Monday, June 10th 2024, 10:00 local time.
	r.now = func() time.Time {
		return time.Date(2024, 6, 10, 10, 0, 0, 0, loc)
	}
	return r
}

func TestHandleMessageHelp(t *testing.T) {
	t.Parallel()

	r := testRouter(t, newFakeRepo())
	for _, cmd := range []string{"/start", "/ajuda", "ajuda"} {
		reply, err := r.HandleMessage(context.Background(), 1, cmd)
		if err != nil {
			t.Fatalf("HandleMessage(%q) error = %v", cmd, err)
		}
		if !strings.Contains(reply, "agendar") {
			t.Errorf("help reply should describe the agendar command, got %q", reply)
		}
	}
}

func TestHandleMessageIgnoresChatter(t *testing.T) {
	t.Parallel()

	r := testRouter(t, newFakeRepo())
	reply, err := r.HandleMessage(context.Background(), 1, "bom dia pessoal")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if reply != "" {
		t.Errorf("non-command should produce no reply, got %q", reply)
	}
}

func TestSchedule(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	r := testRouter(t, repo)

	reply, err := r.HandleMessage(context.Background(), 7, "agendar dentista amanhã 15h")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if !strings.Contains(reply, "Lembrete salvo") {
		t.Errorf("got reply %q", reply)
	}
	if !strings.Contains(reply, "11/06/2024 15:00") {
		t.Errorf("reply should show the resolved date, got %q", reply)
	}

	if len(repo.reminders) != 1 {
		t.Fatalf("got %d reminders, want 1", len(repo.reminders))
	}
	for _, rem := range repo.reminders {
		if rem.Description != "dentista" {
			t.Errorf("got description %q, want dentista", rem.Description)
		}
		if rem.ChatID != 7 {
			t.Errorf("got chat id %d, want 7", rem.ChatID)
		}
		if rem.Recurrence != models.RecurrenceNone {
			t.Errorf("got recurrence %q, want none", rem.Recurrence)
		}
	}
}

func TestScheduleRecurring(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	r := testRouter(t, repo)

	reply, err := r.HandleMessage(context.Background(), 7, "agendar tomar remédio todo dia 8h")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if !strings.Contains(reply, "🔁 todo dia") {
		t.Errorf("recurring reply should show the recurrence, got %q", reply)
	}
	for _, rem := range repo.reminders {
		if rem.Recurrence != models.RecurrenceDaily {
			t.Errorf("got recurrence %q, want daily", rem.Recurrence)
		}
		// 8h has already passed at the 10:00 reference, so the first
		// occurrence rolls to the next day.
		if rem.FireAt.Day() != 11 || rem.FireAt.Hour() != 8 {
			t.Errorf("got fire at %v, want Jun 11 08:00", rem.FireAt)
		}
	}
}

func TestScheduleParseFailure(t *testing.T) {
	t.Parallel()

	r := testRouter(t, newFakeRepo())
	reply, err := r.HandleMessage(context.Background(), 7, "agendar alguma coisa qualquer hora dessas")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if reply != parseFailReply {
		t.Errorf("got reply %q, want parse failure message", reply)
	}
}

func TestScheduleInvalidDate(t *testing.T) {
	t.Parallel()

	r := testRouter(t, newFakeRepo())
	reply, err := r.HandleMessage(context.Background(), 7, "agendar festa 31/02 20h")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if !strings.Contains(reply, "não existe no calendário") {
		t.Errorf("got reply %q, want invalid date message", reply)
	}
}

func TestScheduleRewriterFallback(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	r := testRouter(t, repo)
	rw := &fakeRewriter{result: "24/06/2024 14:00"}
	r.rewriter = rw

	reply, err := r.HandleMessage(context.Background(), 7, "agendar pagar boleto daqui a duas semanas às 14")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if !rw.called {
		t.Fatal("expected rewriter to be consulted")
	}
	if !strings.Contains(reply, "24/06/2024 14:00") {
		t.Errorf("got reply %q, want rewritten date", reply)
	}
	if len(repo.reminders) != 1 {
		t.Fatalf("got %d reminders, want 1", len(repo.reminders))
	}
}

func TestScheduleRewriterFailureFallsThrough(t *testing.T) {
	t.Parallel()

	r := testRouter(t, newFakeRepo())
	r.rewriter = &fakeRewriter{err: errors.New("model found no date in phrase")}

	reply, err := r.HandleMessage(context.Background(), 7, "agendar nada com data nenhuma")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if reply != parseFailReply {
		t.Errorf("got reply %q, want parse failure message", reply)
	}
}

func TestList(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	r := testRouter(t, repo)

	reply, err := r.HandleMessage(context.Background(), 7, "listar")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if reply != "Nenhum lembrete agendado." {
		t.Errorf("got reply %q", reply)
	}

	if _, err := r.HandleMessage(context.Background(), 7, "agendar dentista amanhã 15h"); err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	reply, err = r.HandleMessage(context.Background(), 7, "listar")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if !strings.Contains(reply, "dentista") || !strings.Contains(reply, "11/06/2024 15:00") {
		t.Errorf("got reply %q", reply)
	}
}

func TestListIsPerChat(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	r := testRouter(t, repo)

	if _, err := r.HandleMessage(context.Background(), 1, "agendar dentista amanhã 15h"); err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	reply, err := r.HandleMessage(context.Background(), 2, "listar")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if reply != "Nenhum lembrete agendado." {
		t.Errorf("chat 2 should not see chat 1 reminders, got %q", reply)
	}
}

func TestCancelByShortID(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	r := testRouter(t, repo)

	if _, err := r.HandleMessage(context.Background(), 7, "agendar dentista amanhã 15h"); err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	var id uuid.UUID
	for _, rem := range repo.reminders {
		id = rem.ID
	}

	reply, err := r.HandleMessage(context.Background(), 7, "cancelar "+shortID(id))
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if !strings.Contains(reply, "cancelado") {
		t.Errorf("got reply %q", reply)
	}
	if len(repo.reminders) != 0 {
		t.Error("reminder should have been removed")
	}
}

func TestCancelByDescription(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	r := testRouter(t, repo)

	if _, err := r.HandleMessage(context.Background(), 7, "agendar dentista amanhã 15h"); err != nil {
		t.Fatalf("schedule failed: %v", err)
	}

	reply, err := r.HandleMessage(context.Background(), 7, "cancelar dentista")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if !strings.Contains(reply, "1 lembrete(s) cancelado(s)") {
		t.Errorf("got reply %q", reply)
	}
	if len(repo.reminders) != 0 {
		t.Error("reminder should have been removed")
	}
}

func TestCancelNotFound(t *testing.T) {
	t.Parallel()

	r := testRouter(t, newFakeRepo())
	reply, err := r.HandleMessage(context.Background(), 7, "cancelar inexistente")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if !strings.Contains(reply, "Nenhum lembrete encontrado") {
		t.Errorf("got reply %q", reply)
	}
}

func TestCancelAll(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	r := testRouter(t, repo)

	for _, msg := range []string{"agendar dentista amanhã 15h", "agendar mercado hoje 18h"} {
		if _, err := r.HandleMessage(context.Background(), 7, msg); err != nil {
			t.Fatalf("schedule failed: %v", err)
		}
	}

	reply, err := r.HandleMessage(context.Background(), 7, "cancelar tudo")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if !strings.Contains(reply, "2 lembrete(s) cancelado(s)") {
		t.Errorf("got reply %q", reply)
	}
	if len(repo.reminders) != 0 {
		t.Error("all reminders should have been removed")
	}
}

func TestReschedule(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	r := testRouter(t, repo)

	if _, err := r.HandleMessage(context.Background(), 7, "agendar dentista amanhã 15h"); err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	var id uuid.UUID
	for _, rem := range repo.reminders {
		id = rem.ID
	}

	reply, err := r.HandleMessage(context.Background(), 7, "reagendar "+shortID(id)+" 20/06 9h")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if !strings.Contains(reply, "reagendado") || !strings.Contains(reply, "20/06/2024 09:00") {
		t.Errorf("got reply %q", reply)
	}

	rem := repo.reminders[id]
	if rem == nil {
		t.Fatal("reminder vanished after reschedule")
	}
	if rem.FireAt.Day() != 20 || rem.FireAt.Hour() != 9 {
		t.Errorf("got fire at %v, want Jun 20 09:00", rem.FireAt)
	}
}

func TestRescheduleUnknownID(t *testing.T) {
	t.Parallel()

	r := testRouter(t, newFakeRepo())
	reply, err := r.HandleMessage(context.Background(), 7, "reagendar deadbeef amanhã 10h")
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if !strings.Contains(reply, "Nenhum lembrete encontrado") {
		t.Errorf("got reply %q", reply)
	}
}
