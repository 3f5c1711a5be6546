package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuild_ContainsAllSectionsInOrder(t *testing.T) {
	p := Build("how do refunds work?", []string{"refunds take 30 days"}, "user asked about shipping earlier")

	ctxPos := strings.Index(p, "refunds take 30 days")
	sumPos := strings.Index(p, "user asked about shipping earlier")
	qPos := strings.Index(p, "Question: how do refunds work?")
	aPos := strings.Index(p, "Answer:")

	assert.True(t, strings.HasPrefix(p, header))
	assert.Greater(t, ctxPos, 0)
	assert.Greater(t, sumPos, ctxPos)
	assert.Greater(t, qPos, sumPos)
	assert.Greater(t, aPos, qPos)
	assert.True(t, strings.HasSuffix(p, "Answer:"))
}

func TestBuild_EmptyContextStillWellFormed(t *testing.T) {
	p := Build("what is the warranty?", nil, "")

	assert.Contains(t, p, "(no relevant context found)")
	assert.Contains(t, p, "Question: what is the warranty?")
	assert.True(t, strings.HasSuffix(p, "Answer:"))
	assert.NotContains(t, p, "Conversation so far:")
}

func TestBuild_InstructsContextOnlyAndAdmitAbsence(t *testing.T) {
	p := Build("q", nil, "")

	assert.Contains(t, p, "using only the information in the context")
	assert.Contains(t, p, "don't know")
	assert.Contains(t, p, "greeting")
}

func TestBuild_Pure(t *testing.T) {
	ctx := []string{"a", "b"}
	first := Build("q", ctx, "s")
	second := Build("q", ctx, "s")

	assert.Equal(t, first, second)
}

func TestBuild_SkipsBlankContextChunks(t *testing.T) {
	p := Build("q", []string{"  ", "useful fact", ""}, "")

	assert.Equal(t, 1, strings.Count(p, "\n- "))
	assert.Contains(t, p, "- useful fact")
}
