package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vk8459698/mem0-ai/internal/logging"
)

// NewForgetCmd constructs the `mem0 forget` command, which removes document
// chunks from the vector memory by ID.
func NewForgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forget [chunk-id...]",
		Short: "Remove document chunks from the vector memory",
		Long: `Delete document chunks from the vector memory by their IDs.

Chunk IDs are deterministic UUIDs derived from the source location and
chunk index, so re-ingesting a source after forgetting it restores the
same IDs. The IDs appear in ingestion logs and in the citations returned
by 'mem0 ask'.

Forgotten chunks are gone from retrieval immediately: questions they
supported will get the fallback answer until new sources are ingested.

Examples:
  mem0 forget 6ba7b810-9dad-11d1-80b4-00c04fd430c8
  mem0 forget 6ba7b810-9dad-11d1-80b4-00c04fd430c8 6ba7b811-9dad-11d1-80b4-00c04fd430c8`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			vs, closeStore, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("forget: %w", err)
			}
			defer closeStore()

			if err := vs.Delete(ctx, args); err != nil {
				return fmt.Errorf("forget: deleting chunks: %w", err)
			}

			log.Info("chunks removed", slog.Int("count", len(args)))

			remaining, err := vs.Count(ctx)
			if err != nil {
				// Deletion already succeeded; the count is informational.
				log.Warn("could not read remaining document count", slog.Any("error", err))
				return nil
			}
			fmt.Printf("Removed %d chunk(s), %d remaining in memory.\n", len(args), remaining)
			return nil
		},
	}

	return cmd
}
