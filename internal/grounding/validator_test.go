package grounding

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type doc struct {
	fields []string
}

func (d doc) TextFields() []string { return d.fields }

func TestValidateTrailingSlashEquivalent(t *testing.T) {
	context := []Source{doc{fields: []string{"See https://roadmap.sh/frontend"}}}
	out := Validate("Try https://roadmap.sh/frontend/ now", context)
	assert.Equal(t, "Try https://roadmap.sh/frontend/ now", out)
}

func TestValidateTrailingPunctuation(t *testing.T) {
	context := []Source{doc{fields: []string{"https://roadmap.sh/backend"}}}
	out := Validate("Check https://roadmap.sh/backend. It covers everything.", context)
	assert.Contains(t, out, "https://roadmap.sh/backend.")
	assert.NotContains(t, out, UnavailablePlaceholder)
}

func TestValidateCaseInsensitive(t *testing.T) {
	context := []Source{doc{fields: []string{"https://Roadmap.sh/DevOps"}}}
	out := Validate("Start at https://roadmap.sh/devops today", context)
	assert.NotContains(t, out, UnavailablePlaceholder)
}

func TestValidateHallucinatedURLReplaced(t *testing.T) {
	context := []Source{doc{fields: []string{"https://roadmap.sh/frontend"}}}
	out := Validate("See https://fake.example.com/guide for more", context)
	assert.NotContains(t, out, "https://fake.example.com/guide")
	assert.Contains(t, out, UnavailablePlaceholder)
}

func TestValidateEmptyContextRemovesAllURLs(t *testing.T) {
	text := "Visit https://a.example.com and http://b.example.com/x for info"
	out := Validate(text, nil)
	assert.NotContains(t, out, "https://a.example.com")
	assert.NotContains(t, out, "http://b.example.com/x")
	assert.Equal(t, 2, strings.Count(out, RemovedPlaceholder))
}

func TestValidateNoURLsPassesThrough(t *testing.T) {
	context := []Source{doc{fields: []string{"plain answer text"}}}
	text := "A response with no links at all."
	assert.Equal(t, text, Validate(text, context))
}

func TestValidateMixedURLs(t *testing.T) {
	context := []Source{
		doc{fields: []string{"الاجابة هنا https://roadmap.sh/ai", "other text"}},
	}
	out := Validate("Good: https://roadmap.sh/ai and bad: https://evil.test/x", context)
	assert.Contains(t, out, "https://roadmap.sh/ai")
	assert.NotContains(t, out, "https://evil.test/x")
}

func TestExtractURLs(t *testing.T) {
	context := []Source{
		doc{fields: []string{"see https://roadmap.sh/frontend now"}},
		doc{fields: []string{"https://roadmap.sh/backend", "https://roadmap.sh/frontend"}},
	}
	urls := ExtractURLs(context)
	assert.Equal(t, []string{"https://roadmap.sh/backend", "https://roadmap.sh/frontend"}, urls)
}

func TestExtractURLsEmpty(t *testing.T) {
	assert.Empty(t, ExtractURLs(nil))
	assert.Empty(t, ExtractURLs([]Source{doc{fields: []string{"no links"}}}))
}
