package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pulsefit/pulsefit-backend/internal/config"
)

// ErrNoProviderConfigured means neither generation provider has an API key.
var ErrNoProviderConfigured = errors.New("no AI provider configured, set OPENAI_API_KEY or ANTHROPIC_API_KEY")

const systemPrompt = "You are a world-class performance coach. Always respond with STRICT JSON that matches the requested schema. Never add commentary."

var genHTTPClient = &http.Client{Timeout: 60 * time.Second}

const (
	defaultOpenAIBaseURL    = "https://api.openai.com/v1"
	defaultAnthropicBaseURL = "https://api.anthropic.com/v1"
)

var (
	openAIBaseURL    = defaultOpenAIBaseURL
	anthropicBaseURL = defaultAnthropicBaseURL
)

var (
	openAIKey      string
	openAIModel    string
	anthropicKey   string
	anthropicModel string
)

// InitGenerator wires provider keys, model names and base URLs from
// configuration. Empty base URLs fall back to the public endpoints.
func InitGenerator(cfg *config.Config) {
	openAIKey = cfg.OpenAIAPIKey
	openAIModel = cfg.OpenAIModel
	anthropicKey = cfg.AnthropicKey
	anthropicModel = cfg.AnthropicModel

	openAIBaseURL = defaultOpenAIBaseURL
	if cfg.OpenAIBaseURL != "" {
		openAIBaseURL = strings.TrimRight(cfg.OpenAIBaseURL, "/")
	}
	anthropicBaseURL = defaultAnthropicBaseURL
	if cfg.AnthropicBaseURL != "" {
		anthropicBaseURL = strings.TrimRight(cfg.AnthropicBaseURL, "/")
	}
}

// GeneratePlanText runs the prompt against the configured text-generation
// provider and returns the raw response text. OpenAI is the primary
// provider, Anthropic the fallback when only its key is set. The call is
// deliberately single-attempt: retrying would risk duplicate billable
// provider calls, so a transient failure surfaces to the caller.
func GeneratePlanText(ctx context.Context, prompt string) (string, error) {
	if openAIKey != "" {
		return generateWithOpenAI(ctx, prompt)
	}
	if anthropicKey != "" {
		return generateWithAnthropic(ctx, prompt)
	}
	return "", ErrNoProviderConfigured
}

type openAIChatRequest struct {
	Model          string              `json:"model"`
	Temperature    float64             `json:"temperature"`
	ResponseFormat map[string]string   `json:"response_format"`
	Messages       []map[string]string `json:"messages"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func generateWithOpenAI(ctx context.Context, prompt string) (string, error) {
	body := openAIChatRequest{
		Model:          openAIModel,
		Temperature:    0.35,
		ResponseFormat: map[string]string{"type": "json_object"},
		Messages: []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": prompt},
		},
	}

	var parsed openAIChatResponse
	err := postJSON(ctx, openAIBaseURL+"/chat/completions", map[string]string{
		"Authorization": "Bearer " + openAIKey,
	}, &body, &parsed)
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openai: %s", parsed.Error.Message)
	}

	if len(parsed.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("openai returned an empty response")
	}
	return text, nil
}

type anthropicMessageRequest struct {
	Model       string              `json:"model"`
	MaxTokens   int                 `json:"max_tokens"`
	Temperature float64             `json:"temperature"`
	System      string              `json:"system"`
	Messages    []map[string]string `json:"messages"`
}

type anthropicMessageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func generateWithAnthropic(ctx context.Context, prompt string) (string, error) {
	body := anthropicMessageRequest{
		Model:       anthropicModel,
		MaxTokens:   1600,
		Temperature: 0.35,
		System:      systemPrompt,
		Messages: []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	var parsed anthropicMessageResponse
	err := postJSON(ctx, anthropicBaseURL+"/messages", map[string]string{
		"x-api-key":         anthropicKey,
		"anthropic-version": "2023-06-01",
	}, &body, &parsed)
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("anthropic: %s", parsed.Error.Message)
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("anthropic returned an empty response")
	}
	return text, nil
}

func postJSON(ctx context.Context, url string, headers map[string]string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := genHTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		var msg struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&msg)
		return fmt.Errorf("http %d: %s", res.StatusCode, msg.Error.Message)
	}

	return json.NewDecoder(res.Body).Decode(out)
}
