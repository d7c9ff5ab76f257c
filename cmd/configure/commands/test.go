package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lembrabot/lembrabot/internal/config"
	"github.com/lembrabot/lembrabot/internal/services/telegram"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewTestCmd creates the test command
func NewTestCmd() *cobra.Command {
	var chatID int64

	cmd := &cobra.Command{
		Use:   "test [message]",
		Short: "Send a test message through the bot",
		Long:  "Verify the bot token and chat id by sending a message via the Telegram API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if chatID == 0 {
				chatID = cfg.DefaultChatID
			}
			if chatID == 0 {
				return fmt.Errorf("no chat id: pass --chat-id or set TELEGRAM_CHAT_ID")
			}

			text := "🤖 Teste do lembrabot"
			if len(args) > 0 {
				text = strings.Join(args, " ")
			}

			client := telegram.NewClient(cfg.TelegramAPIURL, cfg.TelegramBotToken, zap.NewNop())

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := client.GetMe(ctx); err != nil {
				return fmt.Errorf("bot token check failed: %w", err)
			}
			if err := client.SendMessage(ctx, chatID, text); err != nil {
				return fmt.Errorf("failed to send message: %w", err)
			}

			fmt.Printf("Message sent to chat %d\n", chatID)
			return nil
		},
	}

	cmd.Flags().Int64Var(&chatID, "chat-id", 0, "Telegram chat id (default: TELEGRAM_CHAT_ID)")

	return cmd
}
