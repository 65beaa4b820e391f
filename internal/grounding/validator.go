package grounding

import (
	"regexp"
	"sort"
	"strings"
)

// Placeholders substituted for URLs that cannot be verified against the
// retrieved context.
const (
	RemovedPlaceholder     = "[Link removed - not in database]"
	UnavailablePlaceholder = "[Link not available in database]"
)

var (
	urlPattern          = regexp.MustCompile(`https?://[^\s<>"]+`)
	trailingPunctuation = regexp.MustCompile(`[.,;:!)]+$`)
)

// Source is any retrieved document whose text fields may carry URLs the
// generated answer is allowed to reference.
type Source interface {
	TextFields() []string
}

// Validate strips hallucinated references from generated text. With no
// context at all, every URL is removed outright; otherwise each URL in
// the text must normalize to a URL found somewhere in the context's
// text fields, or it gets replaced with a placeholder.
func Validate(text string, context []Source) string {
	if len(context) == 0 {
		return urlPattern.ReplaceAllString(text, RemovedPlaceholder)
	}

	allowed := map[string]struct{}{}
	for _, doc := range context {
		for _, field := range doc.TextFields() {
			for _, u := range urlPattern.FindAllString(field, -1) {
				allowed[normalizeURL(u)] = struct{}{}
			}
		}
	}

	found := urlPattern.FindAllString(text, -1)
	if len(found) == 0 {
		return text
	}

	validated := text
	for _, u := range found {
		if _, ok := allowed[normalizeURL(u)]; !ok {
			validated = strings.ReplaceAll(validated, u, UnavailablePlaceholder)
		}
	}
	return validated
}

// ExtractURLs collects every URL appearing in the context, sorted, so
// the generation prompt can enumerate the references the model may use.
func ExtractURLs(context []Source) []string {
	seen := map[string]struct{}{}
	for _, doc := range context {
		for _, field := range doc.TextFields() {
			for _, u := range urlPattern.FindAllString(field, -1) {
				seen[u] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for u := range seen {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// normalizeURL strips the punctuation generative text tends to append
// (periods, commas, closing parens) plus any trailing slash, then
// lowercases. Both the allow-list and candidates go through this so
// comparison stays symmetric.
func normalizeURL(u string) string {
	u = trailingPunctuation.ReplaceAllString(u, "")
	u = strings.TrimRight(u, "/")
	return strings.ToLower(u)
}
