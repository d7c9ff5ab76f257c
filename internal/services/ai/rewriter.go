// Package ai provides an optional LLM fallback for date phrases the
// deterministic parser cannot resolve. The model never schedules
// anything itself: it only rewrites free-form Portuguese into a
// canonical phrase that is fed back through the regular parser.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultModel is the default model to use
	DefaultModel = "gpt-4o-mini"
	// DefaultBaseURL is the default OpenAI API base URL
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second
)

// ErrNoChoices is returned when the API response carries no choices.
var ErrNoChoices = errors.New("no choices in response")

// DateRewriter normalizes a date phrase the deterministic parser
// rejected. The returned string must itself be parseable, e.g.
// "15/03/2026 14:00" or "amanhã 9h".
type DateRewriter interface {
	Rewrite(ctx context.Context, phrase string, now time.Time) (string, error)
}

// OpenAIRewriter implements DateRewriter using OpenAI's chat API.
type OpenAIRewriter struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIRewriter creates a rewriter. model and baseURL may be empty
// to use the defaults.
func NewOpenAIRewriter(apiKey, baseURL, model string, logger *zap.Logger, debugMode bool) *OpenAIRewriter {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(&http.Client{Timeout: DefaultTimeout}),
	)

	return &OpenAIRewriter{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

const rewriteSystemPrompt = `Você converte frases em português sobre datas e horários em um formato fixo.
Responda SOMENTE com a data no formato DD/MM/AAAA HH:MM, sem nenhum outro texto.
Se a frase indicar repetição diária, acrescente " todo dia" ao final.
Se indicar repetição semanal, acrescente " toda semana" ao final.
Se não houver data ou horário reconhecível, responda exatamente: SEM_DATA`

// Rewrite asks the model to normalize phrase relative to now. It
// returns ErrNoChoices when the API answers without content and a
// plain error when the model reports the phrase has no date.
func (r *OpenAIRewriter) Rewrite(ctx context.Context, phrase string, now time.Time) (string, error) {
	userPrompt := fmt.Sprintf("Agora são %s (%s). Frase: %q",
		now.Format("02/01/2006 15:04"), now.Weekday(), phrase)

	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(r.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(rewriteSystemPrompt),
			openai.UserMessage(userPrompt),
		},
	}

	if r.logger != nil && r.debugMode {
		r.logger.Debug("llm_api_request",
			zap.String("operation", "rewrite_date"),
			zap.String("model", r.model),
			zap.Int("phrase_length", len(phrase)))
	}

	start := time.Now()
	resp, err := r.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)

	if err != nil {
		if r.logger != nil && r.debugMode {
			r.logger.Debug("llm_api_error",
				zap.String("operation", "rewrite_date"),
				zap.String("model", r.model),
				zap.Error(err),
				zap.Int64("latency_ms", latency.Milliseconds()))
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", fmt.Errorf("failed to rewrite date phrase: %w", apiErr)
		}
		return "", fmt.Errorf("failed to rewrite date phrase: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)

	if r.logger != nil && r.debugMode {
		r.logger.Debug("llm_api_response",
			zap.String("operation", "rewrite_date"),
			zap.String("model", r.model),
			zap.Int("response_length", len(content)),
			zap.Int64("latency_ms", latency.Milliseconds()))
	}

	if content == "" || strings.EqualFold(content, "SEM_DATA") {
		return "", fmt.Errorf("model found no date in phrase")
	}

	return content, nil
}
