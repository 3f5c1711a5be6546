package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// MockService is a canned generation backend for local development and
// tests. It echoes enough of its input to make behavior assertable.
type MockService struct {
	mu sync.Mutex

	// FailComplete / FailSummarize force the corresponding call to error.
	FailComplete  bool
	FailSummarize bool

	// CompleteFn, when set, overrides the canned completion.
	CompleteFn func(prompt string) string

	// Prompts and Summarized record the inputs received, in order.
	Prompts    []string
	Summarized []string
}

var _ Service = (*MockService)(nil)

func NewMockService() *MockService {
	return &MockService{}
}

func (m *MockService) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailComplete {
		return "", errors.New("generation service unavailable")
	}

	m.Prompts = append(m.Prompts, prompt)
	if m.CompleteFn != nil {
		return m.CompleteFn(prompt), nil
	}
	return "mock answer", nil
}

func (m *MockService) Summarize(ctx context.Context, text string, maxWords int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailSummarize {
		return "", errors.New("generation service unavailable")
	}

	m.Summarized = append(m.Summarized, text)

	words := strings.Fields(text)
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	return fmt.Sprintf("summary(%s)", strings.Join(words, " ")), nil
}
