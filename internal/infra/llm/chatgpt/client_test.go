package chatgpt

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewClient("  ", "", 0)
	require.Error(t, err)
}

func TestCreateChatCompletion(t *testing.T) {
	t.Parallel()

	var got ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"SUMMARY: ok"},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":4,"total_tokens":14}}`))
	}))
	defer srv.Close()

	client, err := NewClient("sk-test", srv.URL+"/", time.Second)
	require.NoError(t, err)

	resp, err := client.CreateChatCompletion(context.Background(), ChatCompletionRequest{
		Model:       "gpt-4o-mini",
		Messages:    []Message{{Role: "user", Content: "hi"}},
		Temperature: 0.3,
		MaxTokens:   600,
	})
	require.NoError(t, err)
	require.Equal(t, "SUMMARY: ok", resp.Content())
	require.Equal(t, 14, resp.Usage.TotalTokens)
	require.Equal(t, 600, got.MaxTokens)
	require.Equal(t, "gpt-4o-mini", got.Model)
}

func TestCreateChatCompletionErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"quota"}`))
	}))
	defer srv.Close()

	client, err := NewClient("sk-test", srv.URL, time.Second)
	require.NoError(t, err)

	_, err = client.CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"})
	require.ErrorContains(t, err, "status=429")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.Temporary())
}

func TestCreateChatCompletionErrorEnvelope(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"max_tokens is too large"}}`))
	}))
	defer srv.Close()

	client, err := NewClient("sk-test", srv.URL, time.Second)
	require.NoError(t, err)

	_, err = client.CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, "invalid_request_error", apiErr.Type)
	require.Equal(t, "max_tokens is too large", apiErr.Message)
	require.False(t, apiErr.Temporary())
}

func TestStreamErrorFrame(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"par\"}}]}\n\n")
		_, _ = io.WriteString(w, "data: {\"choices\":[],\"error\":{\"type\":\"server_error\",\"message\":\"overloaded\"}}\n\n")
	}))
	defer srv.Close()

	client, err := NewClient("sk-test", srv.URL, time.Second)
	require.NoError(t, err)

	stream, err := client.CreateChatCompletionStream(context.Background(), ChatCompletionRequest{Model: "m"})
	require.NoError(t, err)

	chunk, err := stream.Recv()
	require.NoError(t, err)
	require.Equal(t, "par", chunk.Choices[0].Delta.Content)

	_, err = stream.Recv()
	require.ErrorContains(t, err, "overloaded")
}

func TestCreateChatCompletionStream(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		_, _ = io.WriteString(w, ": keep-alive\n\n")
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"},\"finish_reason\":\"stop\"}]}\n\n")
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	client, err := NewClient("sk-test", srv.URL, time.Second)
	require.NoError(t, err)

	stream, err := client.CreateChatCompletionStream(context.Background(), ChatCompletionRequest{Model: "m"})
	require.NoError(t, err)
	defer stream.Close()

	var text string
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		text += chunk.Choices[0].Delta.Content
	}
	require.Equal(t, "Hello", text)
}
