package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nutriscan/config"
)

var (
	ErrNoAPIKey        = errors.New("LLM API key not configured")
	ErrEmptyCompletion = errors.New("empty completion")
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}

// ChatCompleter returns the text of a single chat completion.
type ChatCompleter interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// LLMService talks to an OpenAI compatible chat completions endpoint.
type LLMService struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
}

func NewLLMService(cfg config.LLMConfig) *LLMService {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	return &LLMService{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(orDefault(cfg.BaseURL, "https://api.openai.com/v1"), "/"),
		model:      model,
	}
}

func (s *LLMService) Complete(ctx context.Context, req ChatRequest) (string, error) {
	if s.apiKey == "" {
		return "", ErrNoAPIKey
	}
	if req.Model == "" {
		req.Model = s.model
	}
	b, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("llm http %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decode llm response: %w", err)
	}
	if len(cr.Choices) == 0 || strings.TrimSpace(cr.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return cr.Choices[0].Message.Content, nil
}
