package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/theakash04/termify/internal/generation"
)

// Summarizer maintains the bounded running summary that stands in for the
// full conversation transcript. After every turn the prior summary plus
// the new exchange is condensed into a fresh summary that replaces the
// prior one, so per-session memory stays constant no matter how long the
// conversation runs.
type Summarizer struct {
	svc      generation.Service
	maxWords int
}

func NewSummarizer(svc generation.Service, maxWords int) *Summarizer {
	return &Summarizer{svc: svc, maxWords: maxWords}
}

// Summarize folds the latest question/answer exchange into the prior
// summary. The result replaces the prior summary entirely.
func (s *Summarizer) Summarize(ctx context.Context, prior, question, answer string) (string, error) {
	var b strings.Builder
	if prior = strings.TrimSpace(prior); prior != "" {
		b.WriteString("Previous conversation summary:\n")
		b.WriteString(prior)
		b.WriteString("\n\n")
	}
	b.WriteString("Latest exchange:\n")
	b.WriteString("User: ")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\nAssistant: ")
	b.WriteString(strings.TrimSpace(answer))

	out, err := s.svc.Summarize(ctx, b.String(), s.maxWords)
	if err != nil {
		return "", fmt.Errorf("summarize conversation: %w", err)
	}
	return out, nil
}
