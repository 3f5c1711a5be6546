package prompt

import (
	"strings"
)

// persona and rules the generation model is instructed with on every turn.
const header = `You are a helpful customer support assistant.
Answer the user's question using only the information in the context below.
If the context does not contain the answer, say that you don't know instead of guessing.
If the user is simply greeting you or making small talk, respond politely and briefly.`

// Build assembles the single-turn prompt sent to the generation service:
// persona and rules, retrieved context, the running conversation summary,
// then the question and an answer cue. It is pure: same inputs, same
// prompt, no I/O.
func Build(question string, context []string, summary string) string {
	var b strings.Builder

	b.WriteString(header)
	b.WriteString("\n\nContext:\n")
	if len(context) == 0 {
		b.WriteString("(no relevant context found)\n")
	} else {
		for _, chunk := range context {
			chunk = strings.TrimSpace(chunk)
			if chunk == "" {
				continue
			}
			b.WriteString("- ")
			b.WriteString(chunk)
			b.WriteString("\n")
		}
	}

	if summary = strings.TrimSpace(summary); summary != "" {
		b.WriteString("\nConversation so far:\n")
		b.WriteString(summary)
		b.WriteString("\n")
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n\nAnswer:")

	return b.String()
}
