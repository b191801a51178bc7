package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/policylens/internal/domain/analysis"
)

func chatResponse(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-3.5-turbo",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	}
}

func testRequest(model string) analysis.ChatRequest {
	return analysis.ChatRequest{
		Model:       model,
		System:      "system instruction",
		User:        "document body",
		Temperature: 0.7,
		MaxTokens:   1500,
	}
}

func TestClient_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-3.5-turbo", body["model"])
		assert.InDelta(t, 0.7, body["temperature"], 0.001)
		assert.Equal(t, float64(1500), body["max_tokens"])

		msgs := body["messages"].([]any)
		require.Len(t, msgs, 2)
		assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
		assert.Equal(t, "system instruction", msgs[0].(map[string]any)["content"])
		assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
		assert.Equal(t, "document body", msgs[1].(map[string]any)["content"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse("summary\n\n- a"))
	}))
	defer server.Close()

	c := NewClient("test-key", server.URL, 0)
	out, err := c.Complete(context.Background(), testRequest("gpt-3.5-turbo"))
	require.NoError(t, err)
	assert.Equal(t, "summary\n\n- a", out)
}

func TestClient_Complete_ReasoningModelUsesMaxCompletionTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(1500), body["max_completion_tokens"])
		assert.NotContains(t, body, "max_tokens")
		assert.NotContains(t, body, "temperature")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse("ok"))
	}))
	defer server.Close()

	c := NewClient("test-key", server.URL, 0)
	_, err := c.Complete(context.Background(), testRequest("o3-mini"))
	require.NoError(t, err)
}

func TestClient_Complete_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse(""))
	}))
	defer server.Close()

	c := NewClient("test-key", server.URL, 0)
	_, err := c.Complete(context.Background(), testRequest("gpt-3.5-turbo"))
	assert.ErrorIs(t, err, analysis.ErrEmptyCompletion)
}

func TestClient_Complete_APIErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer server.Close()

	c := NewClient("", server.URL, 0)
	_, err := c.Complete(context.Background(), testRequest("gpt-3.5-turbo"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key provided")
	assert.Contains(t, err.Error(), "401")
	assert.False(t, errors.Is(err, analysis.ErrQuotaExceeded))
}

func TestClient_Complete_QuotaExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"You exceeded your current quota","type":"insufficient_quota"}}`))
	}))
	defer server.Close()

	c := NewClient("test-key", server.URL, 0)
	_, err := c.Complete(context.Background(), testRequest("gpt-3.5-turbo"))
	assert.ErrorIs(t, err, analysis.ErrQuotaExceeded)
	assert.Contains(t, err.Error(), "exceeded your current quota")
}

func TestIsReasoningModel(t *testing.T) {
	assert.True(t, isReasoningModel("o1-preview"))
	assert.True(t, isReasoningModel("gpt-5-mini"))
	assert.False(t, isReasoningModel("gpt-3.5-turbo"))
	assert.False(t, isReasoningModel("gpt-4o"))
}
