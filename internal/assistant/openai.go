package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var ErrDisabled = errors.New("assistant disabled")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer é o contrato mínimo de um modelo de chat
type Completer interface {
	Complete(ctx context.Context, msgs []Message, maxTokens int) (string, error)
}

// OpenAI chama /chat/completions direto, sem SDK
type OpenAI struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	HTTP        *http.Client
}

func NewOpenAI(baseURL, apiKey, model string) *OpenAI {
	return &OpenAI{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		APIKey:      apiKey,
		Model:       model,
		Temperature: 0.7,
		HTTP:        &http.Client{Timeout: 30 * time.Second},
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (o *OpenAI) Complete(ctx context.Context, msgs []Message, maxTokens int) (string, error) {
	if o.APIKey == "" {
		return "", ErrDisabled
	}
	body, err := json.Marshal(chatRequest{
		Model:       o.Model,
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: o.Temperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.APIKey)

	res, err := o.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	defer res.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("openai: decode (http %d): %w", res.StatusCode, err)
	}
	if res.StatusCode >= 300 {
		if out.Error != nil {
			return "", fmt.Errorf("openai: http %d: %s", res.StatusCode, out.Error.Message)
		}
		return "", fmt.Errorf("openai: http %d", res.StatusCode)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
