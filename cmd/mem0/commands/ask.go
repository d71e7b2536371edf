package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vk8459698/mem0-ai/internal/budget"
	"github.com/vk8459698/mem0-ai/internal/generator"
	"github.com/vk8459698/mem0-ai/internal/logging"
	"github.com/vk8459698/mem0-ai/internal/provider"
)

// NewAskCmd constructs the `mem0 ask` command, which answers a single
// question from the document memory and streams the answer to stdout.
func NewAskCmd() *cobra.Command {
	var session string
	var degraded bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question answered from the document memory",
		Long: `Ask a natural language question. The answer is grounded in documents
previously ingested with 'mem0 ingest': relevant excerpts are retrieved,
cited in the answer as [n] markers, and listed after the answer text.

If nothing relevant is found in memory, mem0 declines to answer rather
than fabricate. Pass --degraded to answer from the model alone when
retrieval infrastructure is down.

Examples:
  mem0 ask "when was the RAG paper published?"
  mem0 ask --session research "and who were the authors?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			providerCfg := provider.ConfigFromEnv()
			chatModel, err := provider.New(ctx, providerCfg)
			if err != nil {
				return fmt.Errorf("ask: failed to initialise model provider: %w", err)
			}

			vs, closeStore, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer closeStore()

			retriever, _, err := buildRetriever(vs)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			history, closeHistory := buildHistory(log)
			defer closeHistory()

			gen, err := generator.New(&generator.Config{
				ChatModel:     chatModel,
				Retriever:     retriever,
				History:       history,
				Estimator:     budget.For(string(providerCfg.Backend)),
				AllowDegraded: degraded,
			})
			if err != nil {
				return fmt.Errorf("ask: failed to initialise generator: %w", err)
			}

			ans, err := gen.Answer(ctx, args[0], session, os.Stdout)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			fmt.Println()

			if len(ans.Sources) > 0 {
				fmt.Println("\nSources:")
				for _, c := range ans.Sources {
					fmt.Printf("  [%d] %s (score %.2f)\n", c.Index, c.Source, c.Score)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&session, "session", "s", "", "Conversation session for multi-turn history")
	cmd.Flags().BoolVar(&degraded, "degraded", false, "Answer without grounding when retrieval fails")

	return cmd
}
