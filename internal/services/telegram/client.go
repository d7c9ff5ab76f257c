// Package telegram is a minimal client for the Telegram Bot API,
// covering only the methods the reminder service needs.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lembrabot/lembrabot/internal/logger"
	"go.uber.org/zap"
)

const defaultAPIBaseURL = "https://api.telegram.org"

// Client talks to the Telegram Bot API over HTTPS.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Telegram client. baseURL may be empty, in which
// case the public Bot API endpoint is used.
func NewClient(baseURL, token string, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log,
	}
}

// SendMessage delivers text to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	err := c.call(ctx, "sendMessage", sendMessageRequest{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}

	c.logger.Debug("telegram_message_sent",
		zap.Int64("chat_id", chatID),
		zap.Int("text_length", len(text)))
	return nil
}

// SetWebhook registers the HTTPS endpoint Telegram should push updates
// to. The secret token, when set, is echoed back by Telegram in the
// X-Telegram-Bot-Api-Secret-Token header of every webhook request.
func (c *Client) SetWebhook(ctx context.Context, url, secretToken string) error {
	err := c.call(ctx, "setWebhook", setWebhookRequest{
		URL:         url,
		SecretToken: secretToken,
	})
	if err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	c.logger.Info("telegram_webhook_registered",
		zap.String("url", logger.SanitizeBotURL(url)))
	return nil
}

// GetMe verifies the bot token by asking the API who we are.
func (c *Client) GetMe(ctx context.Context) error {
	if err := c.call(ctx, "getMe", nil); err != nil {
		return fmt.Errorf("failed to verify bot token: %w", err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, method string, payload any) error {
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return fmt.Errorf("invalid API response (status %d): %w", resp.StatusCode, err)
	}
	if !apiResp.OK {
		return fmt.Errorf("API error %d: %s", apiResp.ErrorCode, apiResp.Description)
	}

	return nil
}
