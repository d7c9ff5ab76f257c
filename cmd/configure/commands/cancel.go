package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/lembrabot/lembrabot/internal/config"
	"github.com/lembrabot/lembrabot/internal/database"
	"github.com/spf13/cobra"
)

// NewCancelCmd creates the cancel command
func NewCancelCmd() *cobra.Command {
	var chatID int64
	var all bool

	cmd := &cobra.Command{
		Use:   "cancel [id|description]",
		Short: "Cancel reminders by id, description, or all for a chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("pass a reminder id or description, or --all")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if chatID == 0 {
				chatID = cfg.DefaultChatID
			}

			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
				}
			}()

			repo := database.NewReminderRepository(db)
			ctx := context.Background()

			if all {
				if chatID == 0 {
					return fmt.Errorf("--all requires --chat-id or TELEGRAM_CHAT_ID")
				}
				count, err := repo.DeleteAllByChat(ctx, chatID)
				if err != nil {
					return fmt.Errorf("failed to cancel reminders: %w", err)
				}
				fmt.Printf("Cancelled %d reminder(s) for chat %d\n", count, chatID)
				return nil
			}

			target := args[0]
			if id, parseErr := uuid.Parse(target); parseErr == nil {
				if err := repo.Delete(ctx, id); err != nil {
					return fmt.Errorf("failed to cancel reminder %s: %w", id, err)
				}
				fmt.Printf("Cancelled reminder %s\n", id)
				return nil
			}

			if chatID == 0 {
				return fmt.Errorf("cancelling by description requires --chat-id or TELEGRAM_CHAT_ID")
			}
			count, err := repo.DeleteByDescription(ctx, chatID, target)
			if err != nil {
				return fmt.Errorf("failed to cancel reminders: %w", err)
			}
			if count == 0 {
				fmt.Printf("No reminder matching %q for chat %d\n", target, chatID)
				return nil
			}
			fmt.Printf("Cancelled %d reminder(s) matching %q\n", count, target)
			return nil
		},
	}

	cmd.Flags().Int64Var(&chatID, "chat-id", 0, "Telegram chat id (default: TELEGRAM_CHAT_ID)")
	cmd.Flags().BoolVar(&all, "all", false, "Cancel every reminder for the chat")

	return cmd
}
