package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/lembrabot/lembrabot/internal/database"
	"github.com/lembrabot/lembrabot/internal/models"
	"github.com/lembrabot/lembrabot/internal/nldate"
	"github.com/lembrabot/lembrabot/internal/validation"
	"go.uber.org/zap"
)

// ReminderHandler exposes reminders over REST, next to the chat
// interface. Both surfaces hit the same repository.
type ReminderHandler struct {
	repo   database.ReminderRepositoryInterface
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewReminderHandler creates a reminder REST handler.
func NewReminderHandler(repo database.ReminderRepositoryInterface, loc *time.Location, log *zap.Logger) *ReminderHandler {
	return &ReminderHandler{
		repo:   repo,
		loc:    loc,
		logger: log,
		now:    time.Now,
	}
}

// RegisterRoutes registers reminder routes on an /api/v1 subrouter.
func (h *ReminderHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/reminders", h.List).Methods("GET")
	r.HandleFunc("/reminders", h.Create).Methods("POST")
	r.HandleFunc("/reminders/{id}", h.Get).Methods("GET")
	r.HandleFunc("/reminders/{id}", h.Delete).Methods("DELETE")
}

type createReminderRequest struct {
	ChatID int64 `json:"chat_id" validate:"required"`

	// Text is a free-form scheduling phrase ("dentista amanhã 15h").
	// When set, description, fire_at and recurrence are derived from it.
	Text string `json:"text"`

	// Structured alternative to Text.
	Description string     `json:"description"`
	FireAt      *time.Time `json:"fire_at"`
	Recurrence  string     `json:"recurrence" validate:"omitempty,recurrence"`
}

type reminderResponse struct {
	ID          uuid.UUID `json:"id"`
	ChatID      int64     `json:"chat_id"`
	Description string    `json:"description"`
	FireAt      time.Time `json:"fire_at"`
	FireAtLocal string    `json:"fire_at_local"`
	Recurrence  string    `json:"recurrence"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *ReminderHandler) toResponse(r *models.Reminder) reminderResponse {
	return reminderResponse{
		ID:          r.ID,
		ChatID:      r.ChatID,
		Description: r.Description,
		FireAt:      r.FireAt,
		FireAtLocal: r.FireAtDisplay(h.loc),
		Recurrence:  string(r.Recurrence),
		CreatedAt:   r.CreatedAt,
	}
}

// Create handles POST /api/v1/reminders
func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	reminder := &models.Reminder{
		ID:         uuid.New(),
		ChatID:     req.ChatID,
		Recurrence: models.RecurrenceNone,
	}

	switch {
	case req.Text != "":
		now := h.now().In(h.loc)
		phrase, recurrence := nldate.ExtractRecurrence(validation.SanitizeText(req.Text))
		result, err := nldate.Parse(phrase, now, h.loc)
		if err != nil {
			if errors.Is(err, nldate.ErrInvalidDate) {
				respondJSONError(w, http.StatusBadRequest, "invalid_date", "The date does not exist on the calendar")
				return
			}
			respondJSONError(w, http.StatusBadRequest, "no_date_found", "No date expression recognized in text")
			return
		}
		reminder.Description = result.Residual
		reminder.FireAt = result.At
		reminder.Recurrence = recurrence

	case req.Description != "" && req.FireAt != nil:
		reminder.Description = validation.SanitizeText(req.Description)
		reminder.FireAt = req.FireAt.In(h.loc)
		if req.Recurrence != "" {
			reminder.Recurrence = models.Recurrence(req.Recurrence)
		}

	default:
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "Provide either text or description plus fire_at")
		return
	}

	if reminder.Description == "" {
		reminder.Description = "Lembrete"
	}

	if err := h.repo.Create(r.Context(), reminder); err != nil {
		h.logger.Error("failed_to_create_reminder", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to create reminder")
		return
	}

	h.logger.Info("reminder_created",
		zap.String("reminder_id", reminder.ID.String()),
		zap.Int64("chat_id", reminder.ChatID),
		zap.Time("fire_at", reminder.FireAt))

	respondJSON(w, http.StatusCreated, h.toResponse(reminder))
}

// List handles GET /api/v1/reminders?chat_id=N
func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	chatIDStr := r.URL.Query().Get("chat_id")
	if chatIDStr == "" {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "chat_id query parameter is required")
		return
	}
	chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "chat_id must be an integer")
		return
	}

	reminders, err := h.repo.ListByChat(r.Context(), chatID)
	if err != nil {
		h.logger.Error("failed_to_list_reminders", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to list reminders")
		return
	}

	out := make([]reminderResponse, 0, len(reminders))
	for _, rem := range reminders {
		out = append(out, h.toResponse(rem))
	}
	respondJSON(w, http.StatusOK, out)
}

// Get handles GET /api/v1/reminders/{id}
func (h *ReminderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid reminder id")
		return
	}

	reminder, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "not_found", "Reminder not found")
		return
	}
	respondJSON(w, http.StatusOK, h.toResponse(reminder))
}

// Delete handles DELETE /api/v1/reminders/{id}
func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid reminder id")
		return
	}

	if _, err := h.repo.GetByID(r.Context(), id); err != nil {
		respondJSONError(w, http.StatusNotFound, "not_found", "Reminder not found")
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed_to_delete_reminder", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to delete reminder")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"deleted": id})
}
