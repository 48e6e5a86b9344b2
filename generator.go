package chatsheet

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

	"github.com/nao1215/chatsheet/domain/model"
	"golang.org/x/time/rate"
)

// Defaults of the generation service
const (
	DefaultEndpoint    = "https://api.openai.com/v1/chat/completions"
	DefaultModel       = "gpt-3.5-turbo"
	DefaultTemperature = 0.3
)

// Generator turns a prompt into raw model output.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// OpenAIClient calls an OpenAI compatible chat completions endpoint.
// Requests are never retried.
type OpenAIClient struct {
	apiKey      string
	endpoint    string
	model       string
	temperature float64
	httpClient  *http.Client
	timeout     time.Duration
	limiter     *rate.Limiter
}

// ClientOption configures an OpenAIClient.
type ClientOption func(*OpenAIClient)

// WithEndpoint sets the chat completions URL.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *OpenAIClient) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithModel sets the model name.
func WithModel(name string) ClientOption {
	return func(c *OpenAIClient) {
		if name != "" {
			c.model = name
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ClientOption {
	return func(c *OpenAIClient) {
		c.temperature = t
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *OpenAIClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRequestTimeout bounds each request. Zero means no timeout.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *OpenAIClient) {
		c.timeout = d
	}
}

// WithRateLimit allows at most perMinute requests per minute. Zero or less
// disables the limit.
func WithRateLimit(perMinute int) ClientOption {
	return func(c *OpenAIClient) {
		if perMinute <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
}

// NewOpenAIClient creates a client authenticating with apiKey.
func NewOpenAIClient(apiKey string, opts ...ClientOption) *OpenAIClient {
	c := &OpenAIClient{
		apiKey:      apiKey,
		endpoint:    DefaultEndpoint,
		model:       DefaultModel,
		temperature: DefaultTemperature,
		httpClient:  &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate sends the prompt with the fixed system message and returns the
// trimmed content of the first choice.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: model.SystemMessage},
			{Role: "user", Content: prompt},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("empty response from API")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
