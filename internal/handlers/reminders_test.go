package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
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
	r.CreatedAt = time.Now()
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

func (f *fakeRepo) ListDue(_ context.Context, _ time.Time) ([]*models.Reminder, error) {
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

func (f *fakeRepo) DeleteByDescription(_ context.Context, _ int64, _ string) (int64, error) {
	return 0, nil
}

func (f *fakeRepo) DeleteAllByChat(_ context.Context, _ int64) (int64, error) {
	return 0, nil
}

func (f *fakeRepo) Replace(_ context.Context, firedID uuid.UUID, next *models.Reminder) error {
	delete(f.reminders, firedID)
	if next != nil {
		f.reminders[next.ID] = next
	}
	return nil
}

func testHandler(t *testing.T, repo *fakeRepo) *ReminderHandler {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("failed to load timezone: %v", err)
	}
	h := NewReminderHandler(repo, loc, zap.NewNop())
	h.now = func() time.Time {
		return time.Date(2024, 6, 10, 10, 0, 0, 0, loc)
	}
	return h
}

func testRouter(h *ReminderHandler) *mux.Router {
	r := mux.NewRouter()
	h.RegisterRoutes(r.PathPrefix("/api/v1").Subrouter())
	return r
}

func decodeData(t *testing.T, body *bytes.Buffer) map[string]any {
	t.Helper()
	var envelope struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return envelope.Data
}

func TestCreateReminderFromText(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	r := testRouter(testHandler(t, repo))

	body := `{"chat_id": 9, "text": "dentista amanhã 15h"}`
	req := httptest.NewRequest("POST", "/api/v1/reminders", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("got status %d, want 201: %s", rr.Code, rr.Body.String())
	}

	data := decodeData(t, rr.Body)
	if data["description"] != "dentista" {
		t.Errorf("got description %v, want dentista", data["description"])
	}
	if data["fire_at_local"] != "11/06/2024 15:00" {
		t.Errorf("got fire_at_local %v", data["fire_at_local"])
	}
	if len(repo.reminders) != 1 {
		t.Errorf("got %d reminders stored, want 1", len(repo.reminders))
	}
}

func TestCreateReminderStructured(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	r := testRouter(testHandler(t, repo))

	body := `{"chat_id": 9, "description": "pagar aluguel", "fire_at": "2024-10-05T09:00:00-03:00", "recurrence": "weekly"}`
	req := httptest.NewRequest("POST", "/api/v1/reminders", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("got status %d, want 201: %s", rr.Code, rr.Body.String())
	}
	for _, rem := range repo.reminders {
		if rem.Recurrence != models.RecurrenceWeekly {
			t.Errorf("got recurrence %q, want weekly", rem.Recurrence)
		}
	}
}

func TestCreateReminderValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "missing chat_id", body: `{"text": "dentista amanhã 15h"}`, want: http.StatusBadRequest},
		{name: "bad recurrence", body: `{"chat_id": 1, "description": "x", "fire_at": "2024-10-05T09:00:00Z", "recurrence": "hourly"}`, want: http.StatusBadRequest},
		{name: "no date in text", body: `{"chat_id": 1, "text": "sem data nenhuma"}`, want: http.StatusBadRequest},
		{name: "invalid calendar date", body: `{"chat_id": 1, "text": "festa 31/02 20h"}`, want: http.StatusBadRequest},
		{name: "neither text nor structure", body: `{"chat_id": 1}`, want: http.StatusBadRequest},
		{name: "broken json", body: `{`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := testRouter(testHandler(t, newFakeRepo()))
			req := httptest.NewRequest("POST", "/api/v1/reminders", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("got status %d, want %d: %s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestListReminders(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	h := testHandler(t, repo)
	r := testRouter(h)

	req := httptest.NewRequest("GET", "/api/v1/reminders?chat_id=9", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rr.Code)
	}

	rem := &models.Reminder{
		ID:          uuid.New(),
		ChatID:      9,
		Description: "dentista",
		FireAt:      time.Date(2024, 6, 11, 18, 0, 0, 0, time.UTC),
		Recurrence:  models.RecurrenceNone,
	}
	if err := repo.Create(context.Background(), rem); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var envelope struct {
		Data []reminderResponse `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(envelope.Data) != 1 {
		t.Fatalf("got %d reminders, want 1", len(envelope.Data))
	}
	if envelope.Data[0].Description != "dentista" {
		t.Errorf("got description %q", envelope.Data[0].Description)
	}
}

func TestListRemindersRequiresChatID(t *testing.T) {
	t.Parallel()

	r := testRouter(testHandler(t, newFakeRepo()))
	req := httptest.NewRequest("GET", "/api/v1/reminders", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", rr.Code)
	}
}

func TestGetAndDeleteReminder(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	r := testRouter(testHandler(t, repo))

	rem := &models.Reminder{
		ID:          uuid.New(),
		ChatID:      9,
		Description: "dentista",
		FireAt:      time.Now().Add(time.Hour),
		Recurrence:  models.RecurrenceNone,
	}
	if err := repo.Create(context.Background(), rem); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	req := httptest.NewRequest("GET", fmt.Sprintf("/api/v1/reminders/%s", rem.ID), nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("GET got status %d, want 200", rr.Code)
	}

	req = httptest.NewRequest("DELETE", fmt.Sprintf("/api/v1/reminders/%s", rem.ID), nil)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("DELETE got status %d, want 200", rr.Code)
	}
	if len(repo.reminders) != 0 {
		t.Error("reminder should have been deleted")
	}

	// Deleting again is a 404.
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("DELETE", fmt.Sprintf("/api/v1/reminders/%s", rem.ID), nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("second DELETE got status %d, want 404", rr.Code)
	}
}

func TestGetReminderBadID(t *testing.T) {
	t.Parallel()

	r := testRouter(testHandler(t, newFakeRepo()))
	req := httptest.NewRequest("GET", "/api/v1/reminders/not-a-uuid", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", rr.Code)
	}
}
