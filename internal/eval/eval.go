package eval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vk8459698/mem0-ai/internal/generator"
	"github.com/vk8459698/mem0-ai/internal/logging"
)

const (
	// supportThreshold is the minimum share of a claim's content words
	// that must appear in a single fact for the claim to count as
	// supported. 0.5 tolerates paraphrase while still catching
	// fabricated specifics.
	supportThreshold = 0.5

	// minContentWords guards against trivially short claims that would
	// match almost anything.
	minContentWords = 2
)

// Answerer produces an answer for a benchmark question. The generator
// satisfies this through a small adapter in the CLI.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// AnswerFunc adapts a plain function to the Answerer interface.
type AnswerFunc func(ctx context.Context, question string) (string, error)

// Answer calls f.
func (f AnswerFunc) Answer(ctx context.Context, question string) (string, error) {
	return f(ctx, question)
}

// CaseResult is the outcome of evaluating one benchmark case.
type CaseResult struct {
	Question     string   `json:"question"`
	Answer       string   `json:"answer"`
	Abstained    bool     `json:"abstained"`
	Claims       int      `json:"claims"`
	Unsupported  []string `json:"unsupported,omitempty"`
	Hallucinated bool     `json:"hallucinated"`
}

// Report aggregates the evaluation over a full dataset.
type Report struct {
	Total        int          `json:"total"`
	Answered     int          `json:"answered"`
	Abstained    int          `json:"abstained"`
	Hallucinated int          `json:"hallucinated"`
	// Rate is hallucinated answers over answered questions. Abstentions
	// do not count against the system.
	Rate  float64      `json:"rate"`
	Cases []CaseResult `json:"cases"`
}

// Comparison pairs the reports of a grounded and an ungrounded pass over
// the same dataset, so the rate reduction from grounding is measurable
// directly.
type Comparison struct {
	Grounded   *Report `json:"grounded"`
	Ungrounded *Report `json:"ungrounded"`
}

// Compare evaluates both answerers against the same dataset and returns
// the grounded and ungrounded reports side by side.
func Compare(ctx context.Context, grounded, ungrounded Answerer, ds *Dataset) (*Comparison, error) {
	g, err := Run(ctx, grounded, ds)
	if err != nil {
		return nil, fmt.Errorf("eval: grounded pass: %w", err)
	}
	u, err := Run(ctx, ungrounded, ds)
	if err != nil {
		return nil, fmt.Errorf("eval: ungrounded pass: %w", err)
	}
	return &Comparison{Grounded: g, Ungrounded: u}, nil
}

// Run evaluates the answerer against every case in the dataset and
// returns the hallucination report. A case counts as hallucinated when
// any extracted claim lacks support in the case's facts.
func Run(ctx context.Context, answerer Answerer, ds *Dataset) (*Report, error) {
	log := logging.FromContext(ctx)

	report := &Report{Total: len(ds.Cases)}
	for _, c := range ds.Cases {
		answer, err := answerer.Answer(ctx, c.Question)
		if err != nil {
			return nil, fmt.Errorf("eval: answering %q: %w", c.Question, err)
		}

		result := evaluateCase(c, answer)
		report.Cases = append(report.Cases, result)

		if result.Abstained {
			report.Abstained++
			continue
		}
		report.Answered++
		if result.Hallucinated {
			report.Hallucinated++
			log.Debug("hallucinated answer",
				slog.String("question", c.Question),
				slog.Int("unsupported_claims", len(result.Unsupported)))
		}
	}

	if report.Answered > 0 {
		report.Rate = float64(report.Hallucinated) / float64(report.Answered)
	}
	return report, nil
}

func evaluateCase(c Case, answer string) CaseResult {
	result := CaseResult{Question: c.Question, Answer: answer}

	trimmed := strings.TrimSpace(answer)
	if trimmed == "" || trimmed == generator.FallbackAnswer {
		result.Abstained = true
		return result
	}

	claims := ExtractClaims(answer)
	result.Claims = len(claims)
	for _, claim := range claims {
		if !Supported(claim.Text, c.Facts) {
			result.Unsupported = append(result.Unsupported, claim.Text)
		}
	}
	result.Hallucinated = len(result.Unsupported) > 0
	return result
}

// Supported reports whether a single fact covers enough of the claim's
// content words.
func Supported(claim string, facts []string) bool {
	words := contentWords(claim)
	if len(words) < minContentWords {
		// Too short to judge; give the benefit of the doubt.
		return true
	}

	for _, fact := range facts {
		factWords := make(map[string]bool)
		for _, w := range contentWords(fact) {
			factWords[w] = true
		}

		matched := 0
		for _, w := range words {
			if factWords[w] {
				matched++
			}
		}
		if float64(matched)/float64(len(words)) >= supportThreshold {
			return true
		}
	}
	return false
}

// stopwords are excluded from overlap scoring. Small closed-class words
// inflate overlap without carrying factual content.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"of": true, "in": true, "on": true, "to": true, "for": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"it": true, "its": true, "this": true, "that": true, "with": true,
	"as": true, "at": true, "by": true, "from": true, "not": true,
	"has": true, "have": true, "had": true, "can": true, "will": true,
	"which": true, "also": true, "their": true, "there": true,
}

func contentWords(text string) []string {
	var words []string
	for _, w := range tokenize(strings.ToLower(text)) {
		if !stopwords[w] {
			words = append(words, w)
		}
	}
	return words
}
