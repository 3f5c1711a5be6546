package summary

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theakash04/termify/internal/generation"
)

func TestSummarize_IncludesPriorAndExchange(t *testing.T) {
	svc := generation.NewMockService()
	s := NewSummarizer(svc, 200)

	out, err := s.Summarize(context.Background(), "user cares about refunds", "what about shipping?", "two weeks")
	require.NoError(t, err)
	assert.NotEmpty(t, out)

	require.Len(t, svc.Summarized, 1)
	sent := svc.Summarized[0]
	assert.Contains(t, sent, "user cares about refunds")
	assert.Contains(t, sent, "User: what about shipping?")
	assert.Contains(t, sent, "Assistant: two weeks")
}

func TestSummarize_NoPriorOmitsPriorSection(t *testing.T) {
	svc := generation.NewMockService()
	s := NewSummarizer(svc, 200)

	_, err := s.Summarize(context.Background(), "  ", "hello", "hi there")
	require.NoError(t, err)

	require.Len(t, svc.Summarized, 1)
	assert.NotContains(t, svc.Summarized[0], "Previous conversation summary")
}

func TestSummarize_PropagatesServiceError(t *testing.T) {
	svc := generation.NewMockService()
	svc.FailSummarize = true
	s := NewSummarizer(svc, 200)

	_, err := s.Summarize(context.Background(), "", "q", "a")
	assert.Error(t, err)
}
