package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/carrivo/assistant/internal/chat"
	"github.com/carrivo/assistant/internal/lang"
)

const maxMessageLength = 4000

type ChatHandler struct {
	Orch *chat.Orchestrator
	// DefaultLanguage is applied when the request omits a preference,
	// normally "auto".
	DefaultLanguage string
}

func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("/chat", h.chat)
	g.GET("/chat/languages", h.languages)
}

type LanguageInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (h *ChatHandler) languages(c echo.Context) error {
	supported := []lang.Language{lang.ArabicEgyptian, lang.ArabicFusha, lang.English}
	out := make([]LanguageInfo, 0, len(supported))
	for _, l := range supported {
		out = append(out, LanguageInfo{Code: string(l), Name: l.DisplayName()})
	}
	def := h.DefaultLanguage
	if def == "" {
		def = "auto"
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"supported_languages": out,
		"default":             def,
	})
}

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Language  string `json:"language"`
}

type ChatResponse struct {
	Response           string    `json:"response"`
	SessionID          string    `json:"session_id"`
	UserLanguage       string    `json:"user_language"`
	DetectedLanguage   string    `json:"detected_language"`
	LanguageConfidence float64   `json:"language_confidence"`
	ResponseLanguage   string    `json:"response_language"`
	IsEgyptian         bool      `json:"is_egyptian"`
	Confidence         float64   `json:"confidence"`
	Timestamp          time.Time `json:"timestamp"`
}

func (h *ChatHandler) chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message required")
	}
	if len(req.Message) > maxMessageLength {
		return echo.NewHTTPError(http.StatusBadRequest, "message too long")
	}
	if req.Language == "" {
		req.Language = h.DefaultLanguage
		if req.Language == "" {
			req.Language = "auto"
		}
	}

	resp := h.Orch.Process(c.Request().Context(), chat.Request{
		Message:   req.Message,
		SessionID: req.SessionID,
		Language:  req.Language,
	})
	return c.JSON(http.StatusOK, ChatResponse{
		Response:           resp.Response,
		SessionID:          resp.SessionID,
		UserLanguage:       resp.UserLanguage,
		DetectedLanguage:   resp.DetectedLanguage,
		LanguageConfidence: resp.LanguageConfidence,
		ResponseLanguage:   resp.ResponseLanguage,
		IsEgyptian:         resp.IsEgyptian,
		Confidence:         resp.Confidence,
		Timestamp:          resp.Timestamp,
	})
}
