package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/lembrabot/lembrabot/internal/config"
	"github.com/lembrabot/lembrabot/internal/services/telegram"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewWebhookCmd creates the webhook command
func NewWebhookCmd() *cobra.Command {
	var urlFlag string

	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Register the Telegram webhook",
		Long:  "Register the bot's webhook URL with Telegram, using WEBHOOK_SECRET as the secret token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			webhookURL := urlFlag
			if webhookURL == "" {
				if cfg.BaseURL == "" {
					return fmt.Errorf("no webhook URL: pass --url or set BASE_URL")
				}
				webhookURL = cfg.BaseURL + "/webhook/telegram"
			}

			client := telegram.NewClient(cfg.TelegramAPIURL, cfg.TelegramBotToken, zap.NewNop())

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := client.SetWebhook(ctx, webhookURL, cfg.WebhookSecret); err != nil {
				return fmt.Errorf("failed to register webhook: %w", err)
			}

			fmt.Printf("Webhook registered: %s\n", webhookURL)
			if cfg.WebhookSecret == "" {
				fmt.Println("Warning: WEBHOOK_SECRET is empty, updates will not be authenticated")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&urlFlag, "url", "", "Full webhook URL (default: BASE_URL + /webhook/telegram)")

	return cmd
}
