package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/carrivo/assistant/provider"
)

// Turn is one persisted conversation message.
type Turn struct {
	SessionID string
	Role      string
	Content   string
	Language  string
	CreatedAt time.Time
}

// Contextualizer rewrites follow-up utterances into standalone search
// queries so "give me the link for it" retrieves against the actual
// topic instead of the pronoun.
type Contextualizer struct {
	provider provider.Provider
	logger   *log.Logger
}

func NewContextualizer(p provider.Provider, logger *log.Logger) *Contextualizer {
	return &Contextualizer{provider: p, logger: logger}
}

// Contextualize returns a self-contained query. With no history the
// utterance passes through untouched, and any collaborator failure
// falls back to the original utterance rather than blocking the
// pipeline.
func (c *Contextualizer) Contextualize(ctx context.Context, message string, history []Turn) string {
	if len(history) == 0 {
		return message
	}

	var transcript strings.Builder
	start := len(history) - 2
	if start < 0 {
		start = 0
	}
	for _, turn := range history[start:] {
		role := "Assistant"
		if turn.Role == "user" {
			role = "User"
		}
		transcript.WriteString(role)
		transcript.WriteString(": ")
		transcript.WriteString(turn.Content)
		transcript.WriteString("\n")
	}

	prompt := fmt.Sprintf(`Conversation History:
%s
User's Follow-up Input: "%s"

Task: Rewrite the User's Input to be a full, standalone semantic search query that includes the specific topic from the history.
If the input is already clear, return it as is.
If the input refers to "it" or "this", replace it with the actual subject (e.g., "roadmap for Frontend Game Dev").
Do NOT add extra words like "I want" or "Please". Just the core topic/query.

Standalone Query:`, transcript.String(), message)

	refined, err := c.provider.Complete(ctx, []provider.Message{{Role: "user", Content: prompt}})
	if err != nil {
		c.logger.Printf("contextualization failed, using original query: %v", err)
		return message
	}

	refined = strings.TrimSpace(refined)
	refined = strings.ReplaceAll(refined, `"`, "")
	refined = strings.ReplaceAll(refined, "'", "")
	if refined == "" {
		return message
	}
	return refined
}
