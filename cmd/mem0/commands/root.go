// Package commands defines all Cobra CLI commands for the mem0 binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/vk8459698/mem0-ai/internal/audit"
	"github.com/vk8459698/mem0-ai/internal/config"
	"github.com/vk8459698/mem0-ai/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mem0",
		Short: "mem0 — grounded question answering backed by a document memory",
		Long: `mem0 answers questions using only what it has been taught.

Every answer is grounded in documents previously ingested into the vector
memory: the relevant excerpts are retrieved, injected into the prompt, and
cited in the answer. When the memory holds nothing relevant, mem0 says so
instead of guessing.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.mem0/config.yaml).
See 'mem0 --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.mem0/config.yaml)")

	root.AddCommand(
		NewAskCmd(),
		NewServeCmd(),
		NewIngestCmd(),
		NewEvaluateCmd(),
		NewForgetCmd(),
		NewHistoryCmd(),
		NewVersionCmd(),
	)

	return root
}
