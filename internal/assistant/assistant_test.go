package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teacheasy/teacheasy/internal/config"
)

func TestBuildPromptWithResume(t *testing.T) {
	p := BuildPrompt("How do I start?", "Taught chemistry for 10 years.")
	assert.Contains(t, p, "Here is the user's resume/background information:\nTaught chemistry for 10 years.")
	assert.True(t, strings.HasSuffix(p, "User Question: How do I start?"))
}

func TestBuildPromptWithoutResume(t *testing.T) {
	p := BuildPrompt("How do I start?", "  ")
	assert.NotContains(t, p, "resume/background")
	assert.Contains(t, p, "expert grant application assistant")
}

func TestDescribe(t *testing.T) {
	assert.Contains(t, Describe(ErrUnavailable), "not running")
	assert.Contains(t, Describe(ErrTimeout), "timed out")
	assert.Contains(t, Describe(errors.New("boom")), "AI service unavailable: boom")
}

func newOllamaServer(t *testing.T, generate http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[{"name":"mistral:7b"},{"name":"llama3:8b"}]}`))
	})
	if generate != nil {
		mux.HandleFunc("/api/generate", generate)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestOllamaGenerate(t *testing.T) {
	var got generateRequest
	srv := newOllamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"model":"mistral:7b","response":"Lead with outcomes.","done":true}`))
	})

	o := NewOllama(srv.URL, "", time.Second)
	out, err := o.Generate(context.Background(), "prompt text")
	require.NoError(t, err)
	assert.Equal(t, "Lead with outcomes.", out)
	assert.Equal(t, "mistral:7b", got.Model)
	assert.Equal(t, "prompt text", got.Prompt)
	assert.False(t, got.Stream)
}

func TestOllamaGenerateServerError(t *testing.T) {
	srv := newOllamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	})

	_, err := NewOllama(srv.URL, "missing", time.Second).Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestOllamaGenerateTimeout(t *testing.T) {
	srv := newOllamaServer(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"response":"late"}`))
	})

	_, err := NewOllama(srv.URL, "", 50*time.Millisecond).Generate(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestOllamaStatus(t *testing.T) {
	srv := newOllamaServer(t, nil)

	st := NewOllama(srv.URL, "", time.Second).Status(context.Background())
	assert.True(t, st.Available)
	assert.Equal(t, ProviderOllama, st.Provider)
	assert.Equal(t, []string{"mistral:7b", "llama3:8b"}, st.Models)
	assert.Empty(t, st.Error)
}

func TestOllamaUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	o := NewOllama(url, "", time.Second)
	st := o.Status(context.Background())
	assert.False(t, st.Available)
	assert.NotEmpty(t, st.Error)

	_, err := o.Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNewProvider(t *testing.T) {
	a, err := New(context.Background(), config.AssistantConfig{Provider: "ollama", OllamaModel: "phi3"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ollama:phi3", a.Name())

	_, err = New(context.Background(), config.AssistantConfig{Provider: "gemini"}, time.Second)
	assert.Error(t, err)

	_, err = New(context.Background(), config.AssistantConfig{Provider: "openai"}, time.Second)
	assert.Error(t, err)
}
