package chat

import (
	"context"
	"log"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/carrivo/assistant/config"
	"github.com/carrivo/assistant/internal/grounding"
	"github.com/carrivo/assistant/internal/lang"
	"github.com/carrivo/assistant/internal/search"
	"github.com/carrivo/assistant/provider"
)

const roadmapResultLimit = 3

// Searcher is the retrieval collaborator, satisfied by
// search.Retriever.
type Searcher interface {
	Search(ctx context.Context, query string, corpus search.Corpus, language lang.Language, limit int, useSemantic bool) ([]search.ScoredDocument, search.Tier)
}

// HistoryStore persists and reads conversation turns.
type HistoryStore interface {
	// RecentTurns returns up to limit turns in chronological order.
	RecentTurns(ctx context.Context, sessionID string, limit int) ([]Turn, error)
	AppendTurn(ctx context.Context, turn Turn) error
}

// Request is one incoming user message.
type Request struct {
	Message   string
	SessionID string
	// Language is an explicit preference tag or "auto".
	Language string
}

// Response is the caller-facing result. It is always well formed; the
// only signal of a degraded path is a lowered Confidence.
type Response struct {
	Response           string
	SessionID          string
	UserLanguage       string
	DetectedLanguage   string
	LanguageConfidence float64
	ResponseLanguage   string
	IsEgyptian         bool
	Confidence         float64
	Timestamp          time.Time
}

// Orchestrator sequences the per-request pipeline: detect language,
// resolve the response language, contextualize against history,
// classify intent, retrieve grounding documents, generate, validate
// references, persist. Each request runs independently; the only
// shared mutable state lives behind the collaborators.
type Orchestrator struct {
	detector       *lang.Detector
	contextualizer *Contextualizer
	retriever      Searcher
	history        HistoryStore
	provider       provider.Provider
	searchCfg      config.SearchConfig
	llmCfg         config.LLMConfig
	logger         *log.Logger
}

func NewOrchestrator(
	retriever Searcher,
	history HistoryStore,
	p provider.Provider,
	searchCfg config.SearchConfig,
	llmCfg config.LLMConfig,
	logger *log.Logger,
) *Orchestrator {
	return &Orchestrator{
		detector:       lang.NewDetector(),
		contextualizer: NewContextualizer(p, logger),
		retriever:      retriever,
		history:        history,
		provider:       p,
		searchCfg:      searchCfg,
		llmCfg:         llmCfg,
		logger:         logger,
	}
}

// Process answers one user message. It never returns an error: every
// failure path degrades to a fixed language-appropriate text with a
// reduced confidence.
func (o *Orchestrator) Process(ctx context.Context, req Request) (resp Response) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	preference := req.Language
	if preference == "" {
		preference = "auto"
	}

	defer func() {
		if r := recover(); r != nil {
			o.logger.Printf("panic in chat pipeline: %v", r)
			resp = o.errorResponse(preference, sessionID)
		}
	}()

	detected, confidence := o.detector.Detect(req.Message)
	userLanguage := resolveLanguage(detected, preference)
	requestsTotal.WithLabelValues(string(userLanguage)).Inc()

	history, err := o.history.RecentTurns(ctx, sessionID, o.searchCfg.HistoryWindow)
	if err != nil {
		o.logger.Printf("fetching history failed for session %s: %v", sessionID, err)
		history = nil
	}

	refined := req.Message
	if len(history) > 0 {
		refined = o.contextualizer.Contextualize(ctx, req.Message, history)
	}

	var docs []search.ScoredDocument
	if IsRoadmapRequest(refined) {
		var tier search.Tier
		docs, tier = o.retriever.Search(ctx, refined, search.CorpusRoadmap, userLanguage, roadmapResultLimit, true)
		searchTierTotal.WithLabelValues(string(search.CorpusRoadmap), string(tier)).Inc()
		if len(docs) == 0 {
			// No guide exists for this field. A generated answer here
			// could only hallucinate, so answer with the fixed text.
			return Response{
				Response:           noRoadmapText(userLanguage),
				SessionID:          sessionID,
				UserLanguage:       string(userLanguage),
				DetectedLanguage:   string(detected),
				LanguageConfidence: confidence,
				ResponseLanguage:   string(userLanguage),
				IsEgyptian:         userLanguage == lang.ArabicEgyptian,
				Confidence:         0.8,
				Timestamp:          time.Now(),
			}
		}
	} else {
		var tier search.Tier
		docs, tier = o.retriever.Search(ctx, refined, search.CorpusFAQ, userLanguage, o.searchCfg.MatchCount, true)
		searchTierTotal.WithLabelValues(string(search.CorpusFAQ), string(tier)).Inc()
	}

	if max := o.searchCfg.MaxContextDocs; max > 0 && len(docs) > max {
		docs = docs[:max]
	}

	generated, err := o.generate(ctx, req.Message, docs, history, userLanguage)
	if err != nil {
		generationFailuresTotal.Inc()
		o.logger.Printf("generation failed for session %s: %v", sessionID, err)
		return o.errorResponse(string(userLanguage), sessionID)
	}

	sources := make([]grounding.Source, len(docs))
	for i, d := range docs {
		sources[i] = d.Document
	}
	validated := grounding.Validate(generated, sources)

	o.persist(ctx, sessionID, req.Message, validated, userLanguage)

	return Response{
		Response:           validated,
		SessionID:          sessionID,
		UserLanguage:       string(userLanguage),
		DetectedLanguage:   string(detected),
		LanguageConfidence: confidence,
		ResponseLanguage:   string(userLanguage),
		IsEgyptian:         userLanguage == lang.ArabicEgyptian,
		Confidence:         0.9,
		Timestamp:          time.Now(),
	}
}

// generate calls the completion collaborator with the persona prompt,
// the last two turns and the grounding context. Transient failures are
// retried with exponential backoff; terminal failures abort
// immediately.
func (o *Orchestrator) generate(ctx context.Context, message string, docs []search.ScoredDocument, history []Turn, language lang.Language) (string, error) {
	messages := []provider.Message{{Role: "system", Content: systemPrompt(language)}}

	start := len(history) - 2
	if start < 0 {
		start = 0
	}
	for _, turn := range history[start:] {
		role := turn.Role
		if role == "" {
			role = "user"
		}
		messages = append(messages, provider.Message{Role: role, Content: turn.Content})
	}

	messages = append(messages, provider.Message{Role: "user", Content: userPrompt(message, docs, language)})

	attempts := o.llmCfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := o.llmCfg.RetryBase * time.Duration(1<<(attempt-1))
			if o.llmCfg.RetryCap > 0 && delay > o.llmCfg.RetryCap {
				delay = o.llmCfg.RetryCap
			}
			generationRetriesTotal.Inc()
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		text, err := o.provider.Complete(ctx, messages)
		if err == nil {
			return cleanForeignScript(text), nil
		}
		lastErr = err
		if !provider.IsTransient(err) {
			return "", err
		}
		o.logger.Printf("transient completion failure (attempt %d/%d): %v", attempt+1, attempts, err)
	}
	return "", lastErr
}

// persist appends the user turn before the assistant turn so history
// reads back in conversation order. Failures are logged and swallowed.
func (o *Orchestrator) persist(ctx context.Context, sessionID, userMessage, assistantMessage string, language lang.Language) {
	now := time.Now()
	userTurn := Turn{
		SessionID: sessionID,
		Role:      "user",
		Content:   userMessage,
		Language:  string(language),
		CreatedAt: now,
	}
	if err := o.history.AppendTurn(ctx, userTurn); err != nil {
		o.logger.Printf("persisting user turn failed for session %s: %v", sessionID, err)
	}
	assistantTurn := Turn{
		SessionID: sessionID,
		Role:      "assistant",
		Content:   assistantMessage,
		Language:  string(language),
		CreatedAt: now,
	}
	if err := o.history.AppendTurn(ctx, assistantTurn); err != nil {
		o.logger.Printf("persisting assistant turn failed for session %s: %v", sessionID, err)
	}
}

func (o *Orchestrator) errorResponse(preference, sessionID string) Response {
	target := lang.Language(preference)
	if preference == "auto" || preference == "" {
		target = lang.ArabicEgyptian
	}
	return Response{
		Response:         errorText(target),
		SessionID:        sessionID,
		UserLanguage:     preference,
		ResponseLanguage: preference,
		IsEgyptian:       preference == string(lang.ArabicEgyptian),
		Confidence:       0.0,
		Timestamp:        time.Now(),
	}
}

// resolveLanguage picks the response language. An explicit supported
// preference wins outright; otherwise the detected tag is used when it
// is one of the three primary tags, defaulting to Egyptian Arabic.
func resolveLanguage(detected lang.Language, preference string) lang.Language {
	if preference != "auto" {
		switch p := lang.Language(preference); p {
		case lang.ArabicEgyptian, lang.ArabicFusha, lang.English, lang.Mixed, lang.Unknown:
			return p
		}
	}
	switch detected {
	case lang.ArabicEgyptian, lang.ArabicFusha, lang.English:
		return detected
	}
	return lang.ArabicEgyptian
}

// Scripts the model occasionally leaks into Arabic answers and that no
// supported response language uses.
var foreignScript = regexp.MustCompile(`[\x{4e00}-\x{9fff}\x{3040}-\x{309f}\x{30a0}-\x{30ff}\x{ac00}-\x{d7af}\x{0400}-\x{04ff}]+`)

var excessBlankLines = regexp.MustCompile(`\n\s*\n\s*\n+`)

func cleanForeignScript(text string) string {
	text = foreignScript.ReplaceAllString(text, "")
	return excessBlankLines.ReplaceAllString(text, "\n\n")
}
