package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/carrivo/assistant/config"
)

// Service talks to an OpenAI-compatible embeddings endpoint hosting a
// multilingual sentence-transformer. The inference backend is a single
// shared instance whose invocation is not guaranteed reentrant, so all
// calls are serialized through a mutex.
//
// Unavailability is a state, not an error: callers check Available()
// and branch to non-semantic search instead of failing.
type Service struct {
	baseURL    string
	model      string
	dimensions int
	httpClient *http.Client
	logger     *log.Logger

	mu        sync.Mutex
	available bool
	lastProbe time.Time
}

// reprobeInterval bounds how often a down backend is probed again.
const reprobeInterval = 30 * time.Second

func New(cfg config.EmbeddingConfig, logger *log.Logger) *Service {
	s := &Service{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
	s.available = s.probe()
	s.lastProbe = time.Now()
	if !s.available {
		logger.Printf("embedding backend not reachable, semantic search disabled")
	}
	return s
}

// probe checks the backend's health endpoint. No endpoint configured
// means the deployment runs without semantic search on purpose.
func (s *Service) probe() bool {
	if s.baseURL == "" {
		return false
	}
	resp, err := s.httpClient.Get(s.baseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Available reports whether the inference backend can serve requests.
// A down backend is probed again at most once per reprobeInterval, so
// one that comes up after startup re-enables semantic search without a
// process restart.
func (s *Service) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.available || s.baseURL == "" {
		return s.available
	}
	if time.Since(s.lastProbe) < reprobeInterval {
		return false
	}
	s.lastProbe = time.Now()
	if s.probe() {
		s.available = true
		s.logger.Printf("embedding backend reachable, semantic search enabled")
	}
	return s.available
}

// Embed returns the vector for a single text.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return vecs[0], nil
}

// EmbedBatch embeds several texts in one call. Empty and
// whitespace-only entries are dropped before the request.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	valid := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			valid = append(valid, strings.TrimSpace(t))
		}
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("no non-empty texts to embed")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.available {
		return nil, fmt.Errorf("embedding backend unavailable")
	}

	requestBody := map[string]interface{}{
		"model": s.model,
		"input": valid,
	}
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		// Transport failure means the backend is gone; flip to
		// unavailable so callers degrade until a probe succeeds.
		s.available = false
		s.lastProbe = time.Now()
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding API returned status: %d", resp.StatusCode)
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	vecs := make([][]float32, len(apiResp.Data))
	for i, d := range apiResp.Data {
		if len(d.Embedding) != s.dimensions {
			return nil, fmt.Errorf("dimension mismatch: expected %d, got %d", s.dimensions, len(d.Embedding))
		}
		vecs[i] = d.Embedding
	}
	return vecs, nil
}

// Dimensions returns the configured vector length.
func (s *Service) Dimensions() int { return s.dimensions }
