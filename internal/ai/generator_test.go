package ai

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewGeneratorRequiresAPIKey(t *testing.T) {
	_, err := NewGenerator("", "gpt-4o-mini", nil)
	assert.Error(t, err)
}

func TestNewGeneratorAcceptsBoundedClient(t *testing.T) {
	g, err := NewGenerator("sk-test", "", &http.Client{Timeout: 30 * time.Second})
	assert.NoError(t, err)
	assert.NotNil(t, g)
}

func TestExtractSuggestionsBareArray(t *testing.T) {
	got := extractSuggestions(`["one", "two", "three", "four"]`)
	assert.Equal(t, []string{"one", "two", "three"}, got)
}

func TestExtractSuggestionsKeyedObject(t *testing.T) {
	got := extractSuggestions(`{"suggestions": ["a", "b"]}`)
	assert.Equal(t, []string{"a", "b"}, got)

	got = extractSuggestions(`{"alternatives": ["x"]}`)
	assert.Equal(t, []string{"x"}, got)
}

func TestExtractSuggestionsAnyListValue(t *testing.T) {
	got := extractSuggestions(`{"options": ["p", "q"]}`)
	assert.Equal(t, []string{"p", "q"}, got)
}

func TestExtractSuggestionsGarbage(t *testing.T) {
	assert.Nil(t, extractSuggestions(`not json at all`))
	assert.Nil(t, extractSuggestions(`{"count": 3}`))
}
