// Package bot interprets chat messages as reminder commands and builds
// the replies. It holds no transport code: the webhook handler feeds
// messages in and sends the returned reply back to the chat.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lembrabot/lembrabot/internal/database"
	"github.com/lembrabot/lembrabot/internal/logger"
	"github.com/lembrabot/lembrabot/internal/models"
	"github.com/lembrabot/lembrabot/internal/nldate"
	"github.com/lembrabot/lembrabot/internal/services/ai"
	"github.com/lembrabot/lembrabot/internal/validation"
	"go.uber.org/zap"
)

const helpReply = `Oi! Eu sou o bot de lembretes. Comandos:
• agendar <descrição> <quando> — cria um lembrete
• listar — mostra os lembretes agendados
• cancelar <id ou descrição> — remove um lembrete
• cancelar tudo — remove todos os lembretes
• reagendar <id> <quando> — muda o horário de um lembrete

Exemplos:
agendar dentista amanhã 15h
agendar tomar remédio todo dia 8h
agendar pagar aluguel 05/10 9h`

const parseFailReply = `Não entendi a data. Tente algo como "agendar dentista amanhã 15h" ou "agendar reunião 25/12 14:30".`

// Router maps incoming chat text to reminder operations.
type Router struct {
	reminders database.ReminderRepositoryInterface
	rewriter  ai.DateRewriter // optional LLM fallback, may be nil
	loc       *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewRouter creates a command router. rewriter may be nil to disable
// the LLM fallback.
func NewRouter(reminders database.ReminderRepositoryInterface, rewriter ai.DateRewriter, loc *time.Location, log *zap.Logger) *Router {
	return &Router{
		reminders: reminders,
		rewriter:  rewriter,
		loc:       loc,
		logger:    log,
		now:       time.Now,
	}
}

// HandleMessage processes one chat message and returns the reply text.
// Messages that are not commands produce an empty reply; the bot stays
// silent in normal conversation.
func (r *Router) HandleMessage(ctx context.Context, chatID int64, text string) (string, error) {
	text = validation.SanitizeText(text)
	if text == "" {
		return "", nil
	}

	lower := strings.ToLower(text)
	switch {
	case lower == "/start" || lower == "/ajuda" || lower == "ajuda":
		return helpReply, nil

	case strings.HasPrefix(lower, "agendar"):
		return r.handleSchedule(ctx, chatID, strings.TrimSpace(text[len("agendar"):]))

	case lower == "listar" || lower == "/listar":
		return r.handleList(ctx, chatID)

	case lower == "cancelar tudo":
		return r.handleCancelAll(ctx, chatID)

	case strings.HasPrefix(lower, "cancelar"):
		return r.handleCancel(ctx, chatID, strings.TrimSpace(text[len("cancelar"):]))

	case strings.HasPrefix(lower, "reagendar"):
		return r.handleReschedule(ctx, chatID, strings.TrimSpace(text[len("reagendar"):]))
	}

	return "", nil
}

func (r *Router) handleSchedule(ctx context.Context, chatID int64, phrase string) (string, error) {
	if phrase == "" {
		return `O que devo lembrar? Tente "agendar <descrição> <quando>".`, nil
	}

	now := r.now().In(r.loc)

	residual, recurrence := nldate.ExtractRecurrence(phrase)
	result, err := nldate.Parse(residual, now, r.loc)
	if err != nil {
		if errors.Is(err, nldate.ErrInvalidDate) {
			return "Essa data não existe no calendário. Confira o dia e o mês.", nil
		}
		result, recurrence, err = r.rewriteFallback(ctx, phrase, now, recurrence)
		if err != nil {
			r.logger.Info("date_parse_failed",
				zap.Int64("chat_id", chatID),
				zap.String("text", logger.SanitizeMessageText(phrase)))
			return parseFailReply, nil
		}
	}

	description := result.Residual
	if description == "" {
		description = "Lembrete"
	}

	reminder := &models.Reminder{
		ID:          uuid.New(),
		ChatID:      chatID,
		Description: description,
		FireAt:      result.At,
		Recurrence:  recurrence,
	}
	if err := r.reminders.Create(ctx, reminder); err != nil {
		return "", fmt.Errorf("failed to create reminder: %w", err)
	}

	r.logger.Info("reminder_scheduled",
		zap.String("reminder_id", reminder.ID.String()),
		zap.Int64("chat_id", chatID),
		zap.Time("fire_at", reminder.FireAt),
		zap.String("recurrence", string(reminder.Recurrence)))

	reply := fmt.Sprintf("✅ Lembrete salvo!\n📝 %s\n📅 %s", description, reminder.FireAtDisplay(r.loc))
	switch recurrence {
	case models.RecurrenceDaily:
		reply += "\n🔁 todo dia"
	case models.RecurrenceWeekly:
		reply += "\n🔁 toda semana"
	}
	return reply, nil
}

// rewriteFallback asks the LLM to normalize a phrase the deterministic
// rules rejected, then runs the result through the same rules. The
// model output is never trusted directly as a schedule.
func (r *Router) rewriteFallback(ctx context.Context, phrase string, now time.Time, recurrence models.Recurrence) (nldate.Result, models.Recurrence, error) {
	if r.rewriter == nil {
		return nldate.Result{}, recurrence, nldate.ErrNoDateFound
	}

	rewritten, err := r.rewriter.Rewrite(ctx, phrase, now)
	if err != nil {
		r.logger.Warn("date_rewrite_failed", zap.Error(err))
		return nldate.Result{}, recurrence, nldate.ErrNoDateFound
	}

	datePhrase, rewrittenRec := nldate.ExtractRecurrence(rewritten)
	if recurrence == models.RecurrenceNone {
		recurrence = rewrittenRec
	}

	result, err := nldate.Parse(datePhrase, now, r.loc)
	if err != nil {
		return nldate.Result{}, recurrence, err
	}

	// The model only returned the normalized date, so the description
	// falls back to the user's original wording.
	result.Residual = phrase
	r.logger.Info("date_rewrite_used",
		zap.String("rewritten", logger.SanitizeMessageText(rewritten)))
	return result, recurrence, nil
}

func (r *Router) handleList(ctx context.Context, chatID int64) (string, error) {
	reminders, err := r.reminders.ListByChat(ctx, chatID)
	if err != nil {
		return "", fmt.Errorf("failed to list reminders: %w", err)
	}
	if len(reminders) == 0 {
		return "Nenhum lembrete agendado.", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 %d lembrete(s):\n", len(reminders)))
	for _, rem := range reminders {
		sb.WriteString(fmt.Sprintf("\n• [%s] %s — 📅 %s", shortID(rem.ID), rem.Description, rem.FireAtDisplay(r.loc)))
		switch rem.Recurrence {
		case models.RecurrenceDaily:
			sb.WriteString(" 🔁 todo dia")
		case models.RecurrenceWeekly:
			sb.WriteString(" 🔁 toda semana")
		}
	}
	return sb.String(), nil
}

func (r *Router) handleCancelAll(ctx context.Context, chatID int64) (string, error) {
	n, err := r.reminders.DeleteAllByChat(ctx, chatID)
	if err != nil {
		return "", fmt.Errorf("failed to cancel reminders: %w", err)
	}
	if n == 0 {
		return "Nenhum lembrete agendado.", nil
	}
	return fmt.Sprintf("🗑 %d lembrete(s) cancelado(s).", n), nil
}

func (r *Router) handleCancel(ctx context.Context, chatID int64, target string) (string, error) {
	if target == "" {
		return `Cancelar o quê? Tente "cancelar <id>" ou "cancelar <descrição>".`, nil
	}

	// A target that parses as a UUID (or its 8-char prefix as shown by
	// listar) selects by id, anything else matches the description.
	if rem := r.findByID(ctx, chatID, target); rem != nil {
		if err := r.reminders.Delete(ctx, rem.ID); err != nil {
			return "", fmt.Errorf("failed to cancel reminder: %w", err)
		}
		return fmt.Sprintf("🗑 Lembrete cancelado: %s", rem.Description), nil
	}

	n, err := r.reminders.DeleteByDescription(ctx, chatID, target)
	if err != nil {
		return "", fmt.Errorf("failed to cancel reminder: %w", err)
	}
	if n == 0 {
		return "Nenhum lembrete encontrado com esse id ou descrição.", nil
	}
	return fmt.Sprintf("🗑 %d lembrete(s) cancelado(s).", n), nil
}

func (r *Router) handleReschedule(ctx context.Context, chatID int64, args string) (string, error) {
	parts := strings.SplitN(args, " ", 2)
	if len(parts) < 2 {
		return `Use "reagendar <id> <quando>", por exemplo "reagendar a1b2c3d4 amanhã 10h".`, nil
	}

	rem := r.findByID(ctx, chatID, parts[0])
	if rem == nil {
		return "Nenhum lembrete encontrado com esse id.", nil
	}

	now := r.now().In(r.loc)
	phrase, recurrence := nldate.ExtractRecurrence(parts[1])
	result, err := nldate.Parse(phrase, now, r.loc)
	if err != nil {
		return parseFailReply, nil
	}

	rem.FireAt = result.At
	if recurrence != models.RecurrenceNone {
		rem.Recurrence = recurrence
	}
	if err := r.reminders.Update(ctx, rem); err != nil {
		return "", fmt.Errorf("failed to reschedule reminder: %w", err)
	}

	r.logger.Info("reminder_rescheduled",
		zap.String("reminder_id", rem.ID.String()),
		zap.Time("fire_at", rem.FireAt))

	return fmt.Sprintf("🔄 Lembrete reagendado!\n📝 %s\n📅 %s", rem.Description, rem.FireAtDisplay(r.loc)), nil
}

// findByID resolves a full UUID or the 8-char prefix printed by listar.
// Returns nil when nothing in the chat matches.
func (r *Router) findByID(ctx context.Context, chatID int64, target string) *models.Reminder {
	target = strings.ToLower(target)

	if id, err := uuid.Parse(target); err == nil {
		rem, err := r.reminders.GetByID(ctx, id)
		if err != nil || rem.ChatID != chatID {
			return nil
		}
		return rem
	}

	if len(target) != 8 {
		return nil
	}
	reminders, err := r.reminders.ListByChat(ctx, chatID)
	if err != nil {
		return nil
	}
	for _, rem := range reminders {
		if shortID(rem.ID) == target {
			return rem
		}
	}
	return nil
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
