package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vk8459698/mem0-ai/internal/logging"
	"github.com/vk8459698/mem0-ai/internal/store"
)

// NewHistoryCmd constructs the `mem0 history` command, which prints the
// answers audit trail for a session: each question asked, whether the
// answer was grounded or the fallback, and the sources it cited.
func NewHistoryCmd() *cobra.Command {
	var session string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the recorded answers for a session",
		Long: `Print the audit trail of answers for a conversation session, newest
first. Each entry shows the question, whether the answer was grounded in
retrieved sources or was the fallback refusal, and the cited sources.

This reads the same history database 'mem0 ask' writes to
(~/.mem0/history.db, or MEM0_HISTORY_DB).

Examples:
  mem0 history
  mem0 history --session research --limit 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			hs, closeHistory := buildHistory(log)
			defer closeHistory()
			if hs == nil {
				return fmt.Errorf("history: persistence is disabled, nothing to show")
			}

			sqlStore, ok := hs.(*store.SQLiteStore)
			if !ok {
				return fmt.Errorf("history: store does not keep an audit trail")
			}

			records, err := sqlStore.RecentAnswers(ctx, session, limit)
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			if len(records) == 0 {
				fmt.Println("No recorded answers for this session.")
				return nil
			}

			for _, r := range records {
				verdict := "grounded"
				if !r.Grounded {
					verdict = "fallback"
				}
				fmt.Printf("%s  [%s]\n", r.CreatedAt.Format("2006-01-02 15:04"), verdict)
				fmt.Printf("  Q: %s\n", r.Question)
				fmt.Printf("  A: %s\n", r.Answer)
				if r.Grounded && r.Sources != "[]" {
					fmt.Printf("  sources: %s\n", r.Sources)
				}
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&session, "session", "s", "", "Conversation session to show (default: the stateless session)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of answers to show")

	return cmd
}
