// Package langchain adapts langchaingo's OpenAI LLM to analysis.ChatCompleter.
package langchain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/bryanwahyu/policylens/internal/domain/analysis"
)

// Client builds the langchaingo LLM per call so that a missing key fails the
// request instead of process start.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Complete(ctx context.Context, in analysis.ChatRequest) (string, error) {
	opts := []openai.Option{
		openai.WithToken(c.apiKey),
		openai.WithModel(in.Model),
		openai.WithHTTPClient(c.http),
	}
	if c.baseURL != "" {
		opts = append(opts, openai.WithBaseURL(c.baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to init langchain openai: %w", err)
	}

	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, in.System),
		llms.TextParts(llms.ChatMessageTypeHuman, in.User),
	}
	resp, err := llm.GenerateContent(ctx, msgs,
		llms.WithTemperature(widen(in.Temperature)),
		llms.WithMaxTokens(in.MaxTokens),
		// langchaingo sends max_completion_tokens unless told otherwise
		openai.WithLegacyMaxTokensField(),
	)
	if err != nil {
		if errors.Is(err, openai.ErrEmptyResponse) {
			return "", analysis.ErrEmptyCompletion
		}
		if strings.Contains(err.Error(), "status code: 429") {
			return "", fmt.Errorf("%w: %v", analysis.ErrQuotaExceeded, err)
		}
		return "", fmt.Errorf("langchain generate content: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", analysis.ErrEmptyCompletion
	}
	return resp.Choices[0].Content, nil
}

// widen converts through the shortest decimal form so 0.7 goes out as 0.7,
// not 0.699999988079071.
func widen(f float32) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(float64(f), 'f', -1, 32), 64)
	if err != nil {
		return float64(f)
	}
	return v
}
