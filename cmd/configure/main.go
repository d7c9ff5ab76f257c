package main

import (
	"fmt"
	"os"

	"github.com/lembrabot/lembrabot/cmd/configure/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "lembrabot-configure",
		Short: "Operations tool for the reminder bot",
		Long:  "CLI tool for inspecting reminders, testing the phrase parser, and managing the Telegram webhook",
	}

	rootCmd.AddCommand(commands.NewParseCmd())
	rootCmd.AddCommand(commands.NewListCmd())
	rootCmd.AddCommand(commands.NewCancelCmd())
	rootCmd.AddCommand(commands.NewWebhookCmd())
	rootCmd.AddCommand(commands.NewTestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
