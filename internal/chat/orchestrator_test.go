package chat

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carrivo/assistant/config"
	"github.com/carrivo/assistant/internal/lang"
	"github.com/carrivo/assistant/internal/search"
	"github.com/carrivo/assistant/provider"
)

type fakeSearcher struct {
	docs    []search.ScoredDocument
	tier    search.Tier
	queries []string
	corpora []search.Corpus
}

func (f *fakeSearcher) Search(ctx context.Context, query string, corpus search.Corpus, language lang.Language, limit int, useSemantic bool) ([]search.ScoredDocument, search.Tier) {
	f.queries = append(f.queries, query)
	f.corpora = append(f.corpora, corpus)
	return f.docs, f.tier
}

type fakeHistory struct {
	turns    []Turn
	readErr  error
	writeErr error
	appended []Turn
}

func (f *fakeHistory) RecentTurns(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	return f.turns, f.readErr
}

func (f *fakeHistory) AppendTurn(ctx context.Context, turn Turn) error {
	f.appended = append(f.appended, turn)
	return f.writeErr
}

type fakeProvider struct {
	responses []string
	errs      []error
	calls     int
	prompts   [][]provider.Message
}

func (f *fakeProvider) Complete(ctx context.Context, messages []provider.Message) (string, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, messages)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var text string
	if i < len(f.responses) {
		text = f.responses[i]
	}
	return text, err
}

func testLLMConfig() config.LLMConfig {
	return config.LLMConfig{
		Model:      "test-model",
		MaxRetries: 3,
		RetryBase:  time.Millisecond,
		RetryCap:   5 * time.Millisecond,
	}
}

func newTestOrchestrator(s *fakeSearcher, h *fakeHistory, p *fakeProvider) *Orchestrator {
	return NewOrchestrator(s, h, p,
		config.SearchConfig{MatchCount: 5, HistoryWindow: 8, FuzzyMinRelevance: 0.15, MatchThreshold: 0.5, HighConfidence: 0.6},
		testLLMConfig(),
		log.New(io.Discard, "", 0),
	)
}

func roadmapDoc(title, url string) search.ScoredDocument {
	return search.ScoredDocument{
		Document: search.RoadmapGuide{
			ID:          uuid.New(),
			Title:       title,
			Description: "A guide",
			Category:    "Web",
			URL:         url,
			Published:   true,
		},
		Similarity: 0.9,
	}
}

func TestProcessGeneratesSessionID(t *testing.T) {
	s := &fakeSearcher{tier: search.TierNone}
	h := &fakeHistory{}
	p := &fakeProvider{responses: []string{"hello"}}
	o := newTestOrchestrator(s, h, p)

	resp := o.Process(context.Background(), Request{Message: "hello"})
	require.NotEmpty(t, resp.SessionID)
	_, err := uuid.Parse(resp.SessionID)
	assert.NoError(t, err)
}

func TestProcessRoadmapZeroResultsShortCircuits(t *testing.T) {
	s := &fakeSearcher{tier: search.TierNone}
	h := &fakeHistory{}
	p := &fakeProvider{}
	o := newTestOrchestrator(s, h, p)

	resp := o.Process(context.Background(), Request{Message: "i want a roadmap for underwater basket weaving", SessionID: "s1"})

	assert.Equal(t, 0.8, resp.Confidence)
	assert.Equal(t, "Sorry, no roadmap available for this field right now.", resp.Response)
	assert.Zero(t, p.calls, "completion must not be invoked on the no-roadmap path")
	assert.Empty(t, h.appended, "short-circuit path must not persist")
	require.Len(t, s.corpora, 1)
	assert.Equal(t, search.CorpusRoadmap, s.corpora[0])
}

func TestProcessRoadmapFallbackTextPerLanguage(t *testing.T) {
	s := &fakeSearcher{tier: search.TierNone}
	o := newTestOrchestrator(s, &fakeHistory{}, &fakeProvider{})

	resp := o.Process(context.Background(), Request{Message: "عايز اتعلم حاجة غريبة جدا", SessionID: "s1", Language: "ar_EG"})
	assert.Equal(t, "معلش يا باشا، مفيش رود ماب متاح للمجال ده دلوقتي.", resp.Response)
	assert.True(t, resp.IsEgyptian)
}

func TestProcessFAQPath(t *testing.T) {
	s := &fakeSearcher{tier: search.TierFuzzy}
	h := &fakeHistory{}
	p := &fakeProvider{responses: []string{"an answer"}}
	o := newTestOrchestrator(s, h, p)

	resp := o.Process(context.Background(), Request{Message: "what are the admission requirements", SessionID: "s1"})

	assert.Equal(t, "an answer", resp.Response)
	assert.Equal(t, 0.9, resp.Confidence)
	require.Len(t, s.corpora, 1)
	assert.Equal(t, search.CorpusFAQ, s.corpora[0])
}

func TestProcessRetriesTransientThenSucceeds(t *testing.T) {
	transient := &provider.TransientError{Err: errors.New("rate limited")}
	s := &fakeSearcher{tier: search.TierFuzzy}
	h := &fakeHistory{}
	p := &fakeProvider{
		errs:      []error{transient, transient, nil},
		responses: []string{"", "", "recovered"},
	}
	o := newTestOrchestrator(s, h, p)

	resp := o.Process(context.Background(), Request{Message: "hello there friend", SessionID: "s1"})
	assert.Equal(t, "recovered", resp.Response)
	assert.Equal(t, 3, p.calls)
	assert.Equal(t, 0.9, resp.Confidence)
}

func TestProcessExhaustedRetries(t *testing.T) {
	transient := &provider.TransientError{Err: errors.New("rate limited")}
	s := &fakeSearcher{tier: search.TierFuzzy}
	h := &fakeHistory{}
	p := &fakeProvider{errs: []error{transient, transient, transient}}
	o := newTestOrchestrator(s, h, p)

	resp := o.Process(context.Background(), Request{Message: "hello there friend", SessionID: "s1", Language: "en"})
	assert.Equal(t, 3, p.calls)
	assert.Equal(t, 0.0, resp.Confidence)
	assert.Equal(t, "An error occurred. Try again.", resp.Response)
	assert.Empty(t, h.appended, "failed generation must not persist")
}

func TestProcessTerminalErrorNoRetry(t *testing.T) {
	s := &fakeSearcher{tier: search.TierFuzzy}
	h := &fakeHistory{}
	p := &fakeProvider{errs: []error{errors.New("invalid api key")}}
	o := newTestOrchestrator(s, h, p)

	resp := o.Process(context.Background(), Request{Message: "hello there friend", SessionID: "s1", Language: "en"})
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, 0.0, resp.Confidence)
}

func TestProcessPersistsUserBeforeAssistant(t *testing.T) {
	s := &fakeSearcher{tier: search.TierFuzzy}
	h := &fakeHistory{}
	p := &fakeProvider{responses: []string{"the answer"}}
	o := newTestOrchestrator(s, h, p)

	o.Process(context.Background(), Request{Message: "a question", SessionID: "s1"})
	require.Len(t, h.appended, 2)
	assert.Equal(t, "user", h.appended[0].Role)
	assert.Equal(t, "a question", h.appended[0].Content)
	assert.Equal(t, "assistant", h.appended[1].Role)
	assert.Equal(t, "the answer", h.appended[1].Content)
}

func TestProcessPersistFailureSwallowed(t *testing.T) {
	s := &fakeSearcher{tier: search.TierFuzzy}
	h := &fakeHistory{writeErr: errors.New("db down")}
	p := &fakeProvider{responses: []string{"the answer"}}
	o := newTestOrchestrator(s, h, p)

	resp := o.Process(context.Background(), Request{Message: "a question", SessionID: "s1"})
	assert.Equal(t, "the answer", resp.Response)
	assert.Equal(t, 0.9, resp.Confidence)
}

func TestProcessHistoryReadFailureSwallowed(t *testing.T) {
	s := &fakeSearcher{tier: search.TierFuzzy}
	h := &fakeHistory{readErr: errors.New("db down")}
	p := &fakeProvider{responses: []string{"fine"}}
	o := newTestOrchestrator(s, h, p)

	resp := o.Process(context.Background(), Request{Message: "a question", SessionID: "s1"})
	assert.Equal(t, "fine", resp.Response)
	// No history means no contextualization call either, so the single
	// provider call is the generation itself.
	assert.Equal(t, 1, p.calls)
}

func TestProcessContextualizesWithHistory(t *testing.T) {
	s := &fakeSearcher{docs: []search.ScoredDocument{roadmapDoc("Frontend", "https://roadmap.sh/frontend")}, tier: search.TierServerVector}
	h := &fakeHistory{turns: []Turn{
		{Role: "user", Content: "tell me about frontend"},
		{Role: "assistant", Content: "Frontend is about user interfaces."},
	}}
	p := &fakeProvider{
		responses: []string{"roadmap for frontend", "Here: https://roadmap.sh/frontend"},
	}
	o := newTestOrchestrator(s, h, p)

	resp := o.Process(context.Background(), Request{Message: "give me a roadmap for it", SessionID: "s1"})
	assert.Equal(t, 2, p.calls, "one contextualization call plus one generation call")
	require.Len(t, s.queries, 1)
	assert.Equal(t, "roadmap for frontend", s.queries[0])
	assert.Equal(t, "Here: https://roadmap.sh/frontend", resp.Response)
}

func TestProcessValidatesGeneratedURLs(t *testing.T) {
	s := &fakeSearcher{docs: []search.ScoredDocument{roadmapDoc("Frontend", "https://roadmap.sh/frontend")}, tier: search.TierServerVector}
	h := &fakeHistory{}
	p := &fakeProvider{responses: []string{"Use https://roadmap.sh/frontend and https://made-up.example.com/path"}}
	o := newTestOrchestrator(s, h, p)

	resp := o.Process(context.Background(), Request{Message: "roadmap for frontend please", SessionID: "s1"})
	assert.Contains(t, resp.Response, "https://roadmap.sh/frontend")
	assert.NotContains(t, resp.Response, "made-up.example.com")
}

func TestProcessEmptyFAQContextStripsAllURLs(t *testing.T) {
	s := &fakeSearcher{tier: search.TierNone}
	h := &fakeHistory{}
	p := &fakeProvider{responses: []string{"Try https://somewhere.example.com today"}}
	o := newTestOrchestrator(s, h, p)

	resp := o.Process(context.Background(), Request{Message: "hello old friend", SessionID: "s1"})
	assert.NotContains(t, resp.Response, "somewhere.example.com")
}

func TestResolveLanguage(t *testing.T) {
	cases := []struct {
		detected   lang.Language
		preference string
		want       lang.Language
	}{
		{lang.English, "ar_EG", lang.ArabicEgyptian},
		{lang.ArabicEgyptian, "en", lang.English},
		{lang.English, "auto", lang.English},
		{lang.ArabicFusha, "auto", lang.ArabicFusha},
		{lang.Mixed, "auto", lang.ArabicEgyptian},
		{lang.Unknown, "auto", lang.ArabicEgyptian},
		// Unsupported preference tags fall back to detection.
		{lang.English, "fr", lang.English},
		{lang.Unknown, "fr", lang.ArabicEgyptian},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, resolveLanguage(c.detected, c.preference), "detected=%s preference=%s", c.detected, c.preference)
	}
}

func TestCleanForeignScript(t *testing.T) {
	out := cleanForeignScript("جواب 然而 نظيف или done")
	assert.NotContains(t, out, "然而")
	assert.NotContains(t, out, "или")
	assert.Contains(t, out, "نظيف")
}
