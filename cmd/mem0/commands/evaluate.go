package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vk8459698/mem0-ai/internal/budget"
	"github.com/vk8459698/mem0-ai/internal/eval"
	"github.com/vk8459698/mem0-ai/internal/generator"
	"github.com/vk8459698/mem0-ai/internal/logging"
	"github.com/vk8459698/mem0-ai/internal/memory"
	"github.com/vk8459698/mem0-ai/internal/provider"
)

// noRetrieval is the retriever for the ungrounded baseline pass: it
// always fails, which in degraded mode makes the generator answer from
// the model alone.
type noRetrieval struct{}

func (noRetrieval) Retrieve(context.Context, string, int) ([]memory.Document, error) {
	return nil, errors.New("retrieval bypassed for ungrounded baseline")
}

// NewEvaluateCmd constructs the `mem0 evaluate` command, which measures the
// hallucination rate of the grounded answering pipeline against a benchmark
// dataset of questions with known supporting facts.
func NewEvaluateCmd() *cobra.Command {
	var datasetPath string
	var asJSON bool
	var compare bool

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Measure the hallucination rate against a benchmark dataset",
		Long: `Run every question in a benchmark dataset through the grounded answering
pipeline and check each answer's claims against the dataset's known facts.

A question the system declines to answer counts as an abstention, not a
hallucination. The reported rate is hallucinated answers over answered
questions, so a system that abstains when unsure scores well.

The dataset is a YAML file:

  cases:
    - question: "When was the RAG paper published?"
      facts:
        - "The RAG paper was published in 2020 by Lewis et al."

With --compare, every question is answered twice: once through the
grounded pipeline and once from the model alone, with both hallucination
rates reported side by side.

Examples:
  mem0 evaluate --dataset ./bench/rag-qa.yaml
  mem0 evaluate --dataset ./bench/rag-qa.yaml --compare
  mem0 evaluate --dataset ./bench/rag-qa.yaml --json > report.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			ds, err := eval.LoadDataset(datasetPath)
			if err != nil {
				return fmt.Errorf("evaluate: %w", err)
			}

			providerCfg := provider.ConfigFromEnv()
			chatModel, err := provider.New(ctx, providerCfg)
			if err != nil {
				return fmt.Errorf("evaluate: failed to initialise model provider: %w", err)
			}

			vs, closeStore, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("evaluate: %w", err)
			}
			defer closeStore()

			retriever, _, err := buildRetriever(vs)
			if err != nil {
				return fmt.Errorf("evaluate: %w", err)
			}

			gen, err := generator.New(&generator.Config{
				ChatModel: chatModel,
				Retriever: retriever,
				Estimator: budget.For(string(providerCfg.Backend)),
			})
			if err != nil {
				return fmt.Errorf("evaluate: failed to initialise generator: %w", err)
			}

			// Each case is answered in isolation: no session, streamed
			// output discarded. Only the final text is judged.
			answerer := answererFor(gen)

			if compare {
				baselineGen, err := generator.New(&generator.Config{
					ChatModel:     chatModel,
					Retriever:     noRetrieval{},
					Estimator:     budget.For(string(providerCfg.Backend)),
					AllowDegraded: true,
				})
				if err != nil {
					return fmt.Errorf("evaluate: failed to initialise baseline generator: %w", err)
				}

				cmp, err := eval.Compare(ctx, answerer, answererFor(baselineGen), ds)
				if err != nil {
					return fmt.Errorf("evaluate: %w", err)
				}

				if asJSON {
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(cmp)
				}

				fmt.Println("=== Grounded ===")
				printReport(cmp.Grounded)
				fmt.Println("\n=== Ungrounded baseline ===")
				printReport(cmp.Ungrounded)
				fmt.Printf("\nRate reduction: %.1f%% -> %.1f%%\n",
					cmp.Ungrounded.Rate*100, cmp.Grounded.Rate*100)
				return nil
			}

			report, err := eval.Run(ctx, answerer, ds)
			if err != nil {
				return fmt.Errorf("evaluate: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			printReport(report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&datasetPath, "dataset", "f", "", "Path to the benchmark dataset YAML file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the full report as JSON")
	cmd.Flags().BoolVar(&compare, "compare", false, "Also run an ungrounded baseline and report both rates")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

// answererFor adapts a generator to the eval.Answerer interface.
func answererFor(gen *generator.Generator) eval.Answerer {
	return eval.AnswerFunc(func(ctx context.Context, question string) (string, error) {
		ans, err := gen.Answer(ctx, question, "", io.Discard)
		if err != nil {
			return "", err
		}
		return ans.Text, nil
	})
}

func printReport(r *eval.Report) {
	fmt.Printf("Cases:        %d\n", r.Total)
	fmt.Printf("Answered:     %d\n", r.Answered)
	fmt.Printf("Abstained:    %d\n", r.Abstained)
	fmt.Printf("Hallucinated: %d\n", r.Hallucinated)
	fmt.Printf("Rate:         %.1f%%\n", r.Rate*100)

	for _, c := range r.Cases {
		if !c.Hallucinated {
			continue
		}
		fmt.Printf("\nHALLUCINATED: %s\n", c.Question)
		for _, claim := range c.Unsupported {
			fmt.Printf("  unsupported: %s\n", claim)
		}
	}
}
