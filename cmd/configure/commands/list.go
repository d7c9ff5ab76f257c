package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/lembrabot/lembrabot/internal/config"
	"github.com/lembrabot/lembrabot/internal/database"
	"github.com/lembrabot/lembrabot/internal/models"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	var chatID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending reminders for a chat",
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
			reminders, err := repo.ListByChat(context.Background(), chatID)
			if err != nil {
				return fmt.Errorf("failed to list reminders: %w", err)
			}

			if len(reminders) == 0 {
				fmt.Printf("No pending reminders for chat %d\n", chatID)
				return nil
			}

			loc := cfg.Location()
			fmt.Printf("Pending reminders for chat %d:\n", chatID)
			for _, rem := range reminders {
				line := fmt.Sprintf("  %s  %s  %s",
					rem.ID, rem.FireAt.In(loc).Format("02/01/2006 15:04"), rem.Description)
				if rem.Recurrence != models.RecurrenceNone {
					line += fmt.Sprintf("  (%s)", rem.Recurrence)
				}
				fmt.Println(line)
			}

			return nil
		},
	}

	cmd.Flags().Int64Var(&chatID, "chat-id", 0, "Telegram chat id (default: TELEGRAM_CHAT_ID)")

	return cmd
}
