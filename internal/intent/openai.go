package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/semquery/semquery/internal/semantic"
)

type OpenAIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// OpenAIResolver resolves questions through an OpenAI-compatible
// chat-completions endpoint. The system prompt is built once from the
// immutable repository.
type OpenAIResolver struct {
	baseURL      string
	apiKey       string
	model        string
	temperature  float64
	systemPrompt string
	client       *http.Client
}

func NewOpenAIResolver(cfg OpenAIConfig, repo *semantic.Repository) (*OpenAIResolver, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("semantic repository is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-5"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &OpenAIResolver{
		baseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:       strings.TrimSpace(cfg.APIKey),
		model:        model,
		temperature:  cfg.Temperature,
		systemPrompt: BuildSystemPrompt(repo),
		client:       &http.Client{Timeout: timeout},
	}, nil
}

func (r *OpenAIResolver) Resolve(ctx context.Context, question string) (Intent, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Intent{}, fmt.Errorf("question is required")
	}

	payload := map[string]any{
		"model": r.model,
		"messages": []map[string]string{
			{"role": "system", "content": r.systemPrompt},
			{"role": "user", "content": "User question: " + question + "\n\nResponse (JSON only):"},
		},
		"temperature": r.temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Intent{}, fmt.Errorf("marshal chat payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Intent{}, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return Intent{}, fmt.Errorf("request chat completion: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	rawRespBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Intent{}, fmt.Errorf("read chat response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return Intent{}, fmt.Errorf("chat completion failed status=%d body=%s", resp.StatusCode, string(rawRespBody))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(rawRespBody, &parsed); err != nil {
		return Intent{}, fmt.Errorf("decode chat completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return Intent{}, fmt.Errorf("empty chat completion choices")
	}

	content := stripMarkdownFence(parsed.Choices[0].Message.Content)
	if content == "" {
		return Intent{}, fmt.Errorf("model returned empty intent")
	}
	return Parse([]byte(content))
}

func stripMarkdownFence(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return trimmed
}
