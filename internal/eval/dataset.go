// Package eval measures the hallucination rate of a question answerer
// against a benchmark of questions with known supporting facts.
//
// A case's facts are the ground truth: every factual claim in an answer
// must be supported by at least one fact, or the answer counts as a
// hallucination. The fallback answer counts as an abstention, never a
// hallucination.
package eval

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Case is a single benchmark question with the facts a correct answer
// may draw on.
type Case struct {
	Question string   `yaml:"question"`
	Facts    []string `yaml:"facts"`
}

// Dataset is a hallucination benchmark loaded from YAML.
type Dataset struct {
	Cases []Case `yaml:"cases"`
}

// LoadDataset reads and validates a benchmark file.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("eval: reading dataset: %w", err)
	}

	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("eval: parsing dataset %s: %w", path, err)
	}

	if len(ds.Cases) == 0 {
		return nil, fmt.Errorf("eval: dataset %s contains no cases", path)
	}
	for i, c := range ds.Cases {
		if c.Question == "" {
			return nil, fmt.Errorf("eval: case %d has no question", i)
		}
		if len(c.Facts) == 0 {
			return nil, fmt.Errorf("eval: case %d (%q) has no facts", i, c.Question)
		}
	}

	return &ds, nil
}
