package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/spf13/cobra"

	"github.com/vk8459698/mem0-ai/internal/budget"
	"github.com/vk8459698/mem0-ai/internal/generator"
	"github.com/vk8459698/mem0-ai/internal/ingestion"
	"github.com/vk8459698/mem0-ai/internal/logging"
	"github.com/vk8459698/mem0-ai/internal/memory"
	"github.com/vk8459698/mem0-ai/internal/provider"
	"github.com/vk8459698/mem0-ai/internal/server"
	"github.com/vk8459698/mem0-ai/internal/tracing"
)

// NewServeCmd constructs the `mem0 serve` command, which starts the HTTP
// server exposing grounded question answering and document management.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the mem0 HTTP server",
		Long: `Start the mem0 HTTP server on localhost.

The server exposes POST /api/ask (SSE-streamed grounded answers with a
trailing sources event), document management under /api/documents, and
the usual health, readiness, and Prometheus metrics endpoints.

Examples:
  mem0 serve
  mem0 serve --port 9090
  MODEL_PROVIDER=azure mem0 serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			// Resolved here because the config file is loaded after flag
			// defaults are registered.
			host, port = resolveListenAddr(host, cmd.Flags().Changed("host"), port, cmd.Flags().Changed("port"))

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Langfuse tracing is opt-in, a no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			providerCfg := provider.ConfigFromEnv()
			chatModel, err := provider.New(ctx, providerCfg)
			if err != nil {
				return fmt.Errorf("serve: failed to initialise model provider: %w", err)
			}
			log.Info("provider initialised", slog.String("provider", string(providerCfg.Backend)))

			vs, closeStore, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer closeStore()

			retriever, emb, err := buildRetriever(vs)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			history, closeHistory := buildHistory(log)
			defer closeHistory()

			gen, err := generator.New(&generator.Config{
				ChatModel: chatModel,
				Retriever: retriever,
				History:   history,
				Estimator: budget.For(string(providerCfg.Backend)),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to initialise generator: %w", err)
			}

			pipeline, err := ingestion.NewPipeline(emb, vs, nil)
			if err != nil {
				return fmt.Errorf("serve: failed to create ingestion pipeline: %w", err)
			}

			pingers := buildPingers(chatModel, string(providerCfg.Backend), vs, emb)

			srv, err := server.New(gen, vs, pipeline, &server.Config{
				Host:    host,
				Port:    port,
				Logger:  log,
				Pingers: pingers,
				APIKey:  os.Getenv("MEM0_API_KEY"),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}

// resolveListenAddr applies the listen-address precedence: an explicit
// flag wins, then SERVER_HOST/SERVER_PORT (which the config loader
// populates from the `server:` section of the YAML file), then the
// flag defaults.
func resolveListenAddr(host string, hostSet bool, port int, portSet bool) (string, int) {
	if !hostSet {
		host = getEnvOrDefault("SERVER_HOST", host)
	}
	if !portSet {
		port = getEnvInt("SERVER_PORT", port)
	}
	return host, port
}

// buildPingers assembles the dependency probes for GET /api/ready: the
// Qdrant store (when in use), the embedder (when it self-reports), and
// the chat model backend.
func buildPingers(chatModel model.ToolCallingChatModel, backend string, vs memory.VectorStore, emb memory.Embedder) []server.Pinger {
	var pingers []server.Pinger

	if qs, ok := vs.(*memory.QdrantStore); ok {
		pingers = append(pingers, server.NewQdrantPinger(qs.Client()))
	}
	if p, ok := emb.(server.Pinger); ok {
		pingers = append(pingers, p)
	}
	pingers = append(pingers, server.NewLLMPinger(chatModel, backend))

	return pingers
}
