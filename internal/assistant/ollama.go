package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/tidwall/gjson"
)

const ProviderOllama = "ollama"

type Ollama struct {
	baseURL      string
	model        string
	httpClient   *http.Client
	// status checks use a short client so the UI check never hangs
	statusClient *http.Client
}

func NewOllama(baseURL, model string, timeout time.Duration) *Ollama {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "mistral:7b"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Ollama{
		baseURL:      baseURL,
		model:        model,
		httpClient:   &http.Client{Timeout: timeout},
		statusClient: &http.Client{Timeout: 2 * time.Second},
	}
}

func (o *Ollama) Name() string {
	return ProviderOllama + ":" + o.model
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	if st := o.Status(ctx); !st.Available {
		return "", fmt.Errorf("%w: %s", ErrUnavailable, st.Error)
	}

	body, err := json.Marshal(generateRequest{Model: o.model, Prompt: prompt})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", classify(err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classify(err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("ollama: %d %s", resp.StatusCode, string(raw))
	}
	return gjson.GetBytes(raw, "response").String(), nil
}

func (o *Ollama) Status(ctx context.Context) Status {
	st := Status{Provider: ProviderOllama, Models: []string{}}

	req, err := http.NewRequestWithContext(ctx, "GET", o.baseURL+"/api/tags", nil)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	resp, err := o.statusClient.Do(req)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	if resp.StatusCode >= 400 {
		st.Error = fmt.Sprintf("ollama: %d", resp.StatusCode)
		return st
	}

	st.Available = true
	for _, name := range gjson.GetBytes(raw, "models.#.name").Array() {
		st.Models = append(st.Models, name.String())
	}
	return st
}

func classify(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
