package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teacheasy/teacheasy/internal/config"
)

// Status reports whether the configured language model backend is reachable.
type Status struct {
	Available bool     `json:"available"`
	Provider  string   `json:"provider"`
	Models    []string `json:"models"`
	Error     string   `json:"error,omitempty"`
}

// Assistant generates grant-writing advice from a prompt.
type Assistant interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Status(ctx context.Context) Status
	Name() string
}

var (
	ErrUnavailable = errors.New("assistant not running")
	ErrTimeout     = errors.New("assistant timed out")
)

const systemPrompt = `You are an expert grant application assistant. You help educators write compelling grant applications by analyzing their background and providing personalized advice.

%sPlease provide helpful, specific, and actionable advice for grant applications. Focus on:
1. Highlighting relevant experience and qualifications
2. Suggesting specific examples and achievements to mention
3. Providing tips for writing compelling narratives
4. Addressing common grant application requirements

Keep responses concise but comprehensive, and always relate advice back to the user's specific background when possible.`

// BuildPrompt assembles the full prompt sent to the model. The resume block is
// omitted when resume is empty.
func BuildPrompt(question, resume string) string {
	background := ""
	if strings.TrimSpace(resume) != "" {
		background = "Here is the user's resume/background information:\n" + resume + "\n\n"
	}
	return fmt.Sprintf(systemPrompt, background) + "\n\nUser Question: " + question
}

// Describe turns a provider error into a message fit for the end user.
func Describe(err error) string {
	switch {
	case errors.Is(err, ErrUnavailable):
		return "AI assistant server is not running. Please start Ollama with: ollama serve"
	case errors.Is(err, ErrTimeout):
		return "AI assistant request timed out. The model might be loading or busy."
	default:
		return fmt.Sprintf("AI service unavailable: %v", err)
	}
}

// New builds the assistant named by cfg.Provider.
func New(ctx context.Context, cfg config.AssistantConfig, timeout time.Duration) (Assistant, error) {
	switch cfg.Provider {
	case "", ProviderOllama:
		return NewOllama(cfg.OllamaURL, cfg.OllamaModel, timeout), nil
	case ProviderGemini:
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, timeout)
	default:
		return nil, fmt.Errorf("unknown assistant provider %q", cfg.Provider)
	}
}
