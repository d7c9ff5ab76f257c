package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/lembrabot/lembrabot/internal/nldate"
	"github.com/spf13/cobra"
)

// NewParseCmd creates the parse command
func NewParseCmd() *cobra.Command {
	var nowFlag string
	var tzFlag string

	cmd := &cobra.Command{
		Use:   "parse [phrase]",
		Short: "Parse a scheduling phrase",
		Long:  "Run a Portuguese scheduling phrase through the date parser and print the result, without touching the database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := time.LoadLocation(tzFlag)
			if err != nil {
				return fmt.Errorf("invalid timezone %q: %w", tzFlag, err)
			}

			now := time.Now().In(loc)
			if nowFlag != "" {
				now, err = time.ParseInLocation("2006-01-02 15:04", nowFlag, loc)
				if err != nil {
					return fmt.Errorf("invalid --now value %q (want \"2006-01-02 15:04\"): %w", nowFlag, err)
				}
			}

			phrase := strings.Join(args, " ")
			stripped, recurrence := nldate.ExtractRecurrence(phrase)

			result, err := nldate.Parse(stripped, now, loc)
			if err != nil {
				return fmt.Errorf("parse failed: %w", err)
			}

			fmt.Printf("Phrase:      %s\n", phrase)
			fmt.Printf("Now:         %s\n", now.Format("Mon 02/01/2006 15:04"))
			fmt.Printf("Fires at:    %s\n", result.At.Format("Mon 02/01/2006 15:04 MST"))
			fmt.Printf("Description: %s\n", result.Residual)
			fmt.Printf("Recurrence:  %s\n", recurrence)
			fmt.Printf("Explicit:    %v\n", result.ExplicitTime)

			return nil
		},
	}

	cmd.Flags().StringVar(&nowFlag, "now", "", "Reference instant as \"2006-01-02 15:04\" (default: current time)")
	cmd.Flags().StringVar(&tzFlag, "tz", "America/Sao_Paulo", "IANA timezone for resolution")

	return cmd
}
