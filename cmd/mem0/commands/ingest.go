package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vk8459698/mem0-ai/internal/embedder"
	"github.com/vk8459698/mem0-ai/internal/ingestion"
	"github.com/vk8459698/mem0-ai/internal/logging"
)

// NewIngestCmd constructs the `mem0 ingest` command, which runs the
// knowledge ingestion pipeline to populate the vector memory.
func NewIngestCmd() *cobra.Command {
	var topic string
	var docType string
	var sources []string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest documents into the vector memory",
		Long: `Fetch, chunk, embed, and index documents into the vector memory.

Ingested documents become the ground truth mem0 answers from: excerpts are
retrieved per question and cited, and questions the memory cannot support
get the fallback answer instead of a guess.

Sources can be HTTP(S) URLs or local file paths. Re-ingesting a source
overwrites its previous chunks (chunk IDs are derived from the location).

Required environment variables:
  QDRANT_HOST          Qdrant server hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  QDRANT_COLLECTION    Collection name (default: mem0-knowledge)
  QDRANT_API_KEY       Optional API key for authenticated clusters
  MODEL_PROVIDER       Embedding backend: ollama, openai, azure (default: ollama)
  EMBEDDING_*          Provider-specific overrides (see README)

Metadata flags (--topic, --doc-type) are optional. When omitted, metadata
is inferred from the source location (e.g. arxiv.org URLs become "paper").
Explicit flags override inference.

Examples:
  mem0 ingest --source https://en.wikipedia.org/wiki/Retrieval-augmented_generation
  mem0 ingest --source ./notes/rag-basics.md --topic rag
  mem0 ingest --topic onboarding --doc-type note --source ./handbook.md --source ./faq.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if len(sources) == 0 {
				return fmt.Errorf("ingest: at least one --source is required")
			}

			if err := embedder.ValidateForGrounding(log); err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			emb, err := embedder.NewFromEnv()
			if err != nil {
				return fmt.Errorf("ingest: failed to initialise embedder: %w", err)
			}
			log.Info("embedder initialised",
				slog.String("provider", getEnvOrDefault("EMBEDDING_PROVIDER", getEnvOrDefault("MODEL_PROVIDER", "ollama"))))

			vs, closeStore, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer closeStore()

			pipeline, err := ingestion.NewPipeline(emb, vs, nil)
			if err != nil {
				return fmt.Errorf("ingest: failed to create pipeline: %w", err)
			}

			topicSet := cmd.Flags().Changed("topic")
			docTypeSet := cmd.Flags().Changed("doc-type")

			specs := make([]ingestion.Source, 0, len(sources))
			for _, loc := range sources {
				src := ingestion.Source{Location: loc}
				if topicSet {
					src.Topic = topic
				}
				if docTypeSet {
					src.DocType = docType
				}

				inferred := ingestion.InferMetadata(loc)
				log.Info("source metadata",
					slog.String("location", loc),
					slog.String("topic", orInferred(src.Topic, inferred.Topic)),
					slog.String("doc_type", orInferred(src.DocType, inferred.DocType)),
				)
				specs = append(specs, src)
			}

			log.Info("starting ingestion", slog.Int("sources", len(specs)))

			if err := pipeline.Ingest(ctx, specs, func(msg string) {
				log.Info(msg)
			}); err != nil {
				return fmt.Errorf("ingest: pipeline failed: %w", err)
			}

			log.Info("ingestion complete", slog.Int("sources", len(specs)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Subject label for the ingested documents")
	cmd.Flags().StringVarP(&docType, "doc-type", "d", "", "Document kind (paper, article, reference, note)")
	cmd.Flags().StringArrayVarP(&sources, "source", "s", nil, "URL or file path to ingest (repeatable)")

	return cmd
}

// orInferred returns the explicit value when set, the inferred one otherwise.
func orInferred(explicit, inferred string) string {
	if explicit != "" {
		return explicit
	}
	return inferred
}
