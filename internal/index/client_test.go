package index

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchQuery_StripsQuerySyntax(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"how do refunds work?", "how do refunds work"},
		{`"quoted" @field:{tag}`, "quoted field tag"},
		{"already clean", "already clean"},
		{"***", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, searchQuery(tt.in), tt.in)
	}
}

func TestIndexErrorClassification(t *testing.T) {
	assert.True(t, isIndexExists(errors.New("Index already exists")))
	assert.False(t, isIndexExists(errors.New("connection refused")))
	assert.False(t, isIndexExists(nil))

	assert.True(t, isUnknownIndex(errors.New("Unknown Index name")))
	assert.True(t, isUnknownIndex(errors.New("no such index")))
	assert.False(t, isUnknownIndex(errors.New("timeout")))
	assert.False(t, isUnknownIndex(nil))
}

func TestKeyScheme(t *testing.T) {
	assert.Equal(t, "ns:user_ab", namespaceKey("user_ab"))
	assert.Equal(t, "ns:user_ab:coll:chunks", collectionKey("user_ab", "chunks"))
	assert.Equal(t, "ns:user_ab:chunk:", chunkPrefix("user_ab"))
	assert.Equal(t, "ns:user_ab:chunk:chunks:b1:0", chunkKey("user_ab", "chunks", "b1", 0))
}
