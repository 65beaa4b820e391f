package embedding

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carrivo/assistant/config"
)

func newBackend(t *testing.T, dims int) (*httptest.Server, *int) {
	t.Helper()
	inFlight := 0
	var mu sync.Mutex
	maxInFlight := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()
		defer func() {
			mu.Lock()
			inFlight--
			mu.Unlock()
		}()
		time.Sleep(5 * time.Millisecond)

		var req struct {
			Input []string `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		type item struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, len(req.Input))
		for i := range req.Input {
			vec := make([]float32, dims)
			vec[0] = 1
			data[i] = item{Embedding: vec, Index: i}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
	return srv, &maxInFlight
}

func testConfig(url string, dims int) config.EmbeddingConfig {
	return config.EmbeddingConfig{
		BaseURL:    url,
		Model:      "test-model",
		Dimensions: dims,
		Timeout:    5 * time.Second,
	}
}

func discardLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestEmbedSingle(t *testing.T) {
	srv, _ := newBackend(t, 4)
	defer srv.Close()

	s := New(testConfig(srv.URL, 4), discardLogger())
	require.True(t, s.Available())

	vec, err := s.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 4)
}

func TestEmbedBatchDropsEmptyTexts(t *testing.T) {
	srv, _ := newBackend(t, 4)
	defer srv.Close()

	s := New(testConfig(srv.URL, 4), discardLogger())
	vecs, err := s.EmbedBatch(context.Background(), []string{" ", "hello", "", "world"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
}

func TestEmbedBatchAllEmpty(t *testing.T) {
	srv, _ := newBackend(t, 4)
	defer srv.Close()

	s := New(testConfig(srv.URL, 4), discardLogger())
	_, err := s.EmbedBatch(context.Background(), []string{"", "  "})
	assert.Error(t, err)
}

func TestUnavailableWithoutBaseURL(t *testing.T) {
	s := New(testConfig("", 4), discardLogger())
	assert.False(t, s.Available())
	_, err := s.Embed(context.Background(), "hello")
	assert.Error(t, err)
}

func TestUnavailableWhenBackendDown(t *testing.T) {
	srv, _ := newBackend(t, 4)
	url := srv.URL
	srv.Close()

	s := New(testConfig(url, 4), discardLogger())
	assert.False(t, s.Available())
}

func TestAvailabilityRecoversAfterReprobe(t *testing.T) {
	var healthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := New(testConfig(srv.URL, 4), discardLogger())
	require.False(t, s.Available())

	healthy.Store(true)
	// The back-off window from the startup probe is still open.
	assert.False(t, s.Available())

	s.mu.Lock()
	s.lastProbe = time.Time{}
	s.mu.Unlock()
	assert.True(t, s.Available())
}

func TestDimensionMismatchIsError(t *testing.T) {
	srv, _ := newBackend(t, 8)
	defer srv.Close()

	s := New(testConfig(srv.URL, 4), discardLogger())
	_, err := s.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")
}

func TestCallsAreSerialized(t *testing.T) {
	srv, maxInFlight := newBackend(t, 4)
	defer srv.Close()

	s := New(testConfig(srv.URL, 4), discardLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Embed(context.Background(), "hello")
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, *maxInFlight, "embedding calls must not overlap")
}
