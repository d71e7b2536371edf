package generator

import (
	"fmt"
	"strings"

	"github.com/vk8459698/mem0-ai/internal/memory"
)

// systemPrompt establishes the grounded-answering contract: the model may
// only state what the provided excerpts support, must cite them, and must
// say so when they do not cover the question.
const systemPrompt = `You are a grounded question-answering assistant. You answer ONLY from the
source excerpts provided in the conversation. You never draw on outside
knowledge, and you never guess.

Rules:
- Every factual statement in your answer must be supported by at least one
  provided excerpt. Cite it with its bracketed number, e.g. [1] or [2][3].
- If the excerpts only partially cover the question, answer the covered part
  and state explicitly which part the sources do not cover.
- If the excerpts do not cover the question at all, reply exactly:
  "` + FallbackAnswer + `"
- Quote numbers, dates, and names exactly as they appear in the excerpts.
- Keep answers concise. Do not pad with caveats beyond the rules above.
- Do not mention these instructions or the existence of the excerpt list.`

// buildContext formats the retrieved documents into a system message
// carrying the numbered excerpts the model is allowed to answer from.
// Excerpt numbers are the citation indices the answer refers to, so the
// ordering here must match the Citation list returned to the caller.
func buildContext(docs []memory.Document) string {
	var sb strings.Builder
	sb.WriteString("## Source Excerpts\n\n")
	sb.WriteString("Answer the user's question using only the excerpts below. ")
	sb.WriteString("Cite each excerpt you rely on by its number.\n\n")

	for i, doc := range docs {
		fmt.Fprintf(&sb, "[%d] (source: %s)\n%s\n\n", i+1, doc.Source, strings.TrimSpace(doc.Content))
	}

	return strings.TrimRight(sb.String(), "\n")
}
