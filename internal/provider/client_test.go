package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nimser/chatstream/internal/domain"
)

func TestClientCreateChatCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt","choices":[{"index":0,"message":{"role":"assistant","content":"hi"},"finish_reason":"stop"}],"usage":{"prompt_tokens":1,"completion_tokens":2,"total_tokens":3}}`)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", time.Second)
	resp, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model:    "gpt",
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion failed: %v", err)
	}
	if resp.Model != "gpt" || len(resp.Choices) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestClientCreateChatCompletionStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"gpt\",\"choices\":[{\"index\":0,\"delta\":{\"role\":\"assistant\",\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"gpt\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"lo\"},\"finish_reason\":\"stop\"}],\"usage\":{\"prompt_tokens\":1,\"completion_tokens\":2,\"total_tokens\":3}}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", time.Second)
	var content strings.Builder
	usage, err := client.CreateChatCompletionStream(context.Background(), &ChatCompletionRequest{
		Model:    "gpt",
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
	}, func(chunk *StreamChunk) error {
		for _, c := range chunk.Choices {
			if c.Delta != nil {
				content.WriteString(c.Delta.Content)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("CreateChatCompletionStream failed: %v", err)
	}
	if content.String() != "Hello" {
		t.Fatalf("expected Hello, got %q", content.String())
	}
	if usage == nil || usage.TotalTokens != 3 {
		t.Fatalf("unexpected usage: %+v", usage)
	}
}

func TestClientStreamCallbackError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"id\":\"c1\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"hi\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", time.Second)
	wantErr := errors.New("stop")
	_, err := client.CreateChatCompletionStream(context.Background(), &ChatCompletionRequest{
		Model:    "gpt",
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
	}, func(chunk *StreamChunk) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected callback error, got %v", err)
	}
}

func TestClientRetriesRateLimit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"error":{"message":"slow down","type":"rate_limit_error"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt","choices":[{"index":0,"message":{"role":"assistant","content":"hi"},"finish_reason":"stop"}]}`)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", 5*time.Second)
	resp, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model:    "gpt",
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion failed: %v", err)
	}
	if len(resp.Choices) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("expected 2 calls, got %d", n)
	}
}

func TestClientRetriesTransportError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("server does not support hijacking")
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Fatalf("hijack failed: %v", err)
			}
			conn.Close()
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt","choices":[{"index":0,"message":{"role":"assistant","content":"hi"},"finish_reason":"stop"}]}`)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", 5*time.Second)
	resp, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model:    "gpt",
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion failed: %v", err)
	}
	if len(resp.Choices) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("expected 2 calls, got %d", n)
	}
}

func TestClientRetryExhausted(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"slow down","type":"rate_limit_error"}}`)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", 10*time.Second)
	_, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model:    "gpt",
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}

	var provErr *domain.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if provErr.Kind != domain.ProviderErrRetryExhausted {
		t.Fatalf("expected retry_exhausted, got %s", provErr.Kind)
	}
	if n := atomic.LoadInt32(&calls); n != maxAttempts {
		t.Fatalf("expected %d calls, got %d", maxAttempts, n)
	}
}

func TestClientInvalidRequestNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad schema","type":"invalid_request_error"}}`)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", time.Second)
	_, err := client.CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model:    "gpt",
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
	})

	var provErr *domain.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if provErr.Kind != domain.ProviderErrInvalidRequest {
		t.Fatalf("expected invalid_request, got %s", provErr.Kind)
	}
	if provErr.Message != "bad schema" {
		t.Fatalf("unexpected message: %q", provErr.Message)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected 1 call, got %d", n)
	}
}

func TestClientListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"object":"list","data":[{"id":"gpt","object":"model","created":1,"owned_by":"test"}]}`)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "", time.Second)
	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if len(models) != 1 || models[0].ID != "gpt" {
		t.Fatalf("unexpected models: %+v", models)
	}
}

func TestMockClientStream(t *testing.T) {
	client := NewMockClient()

	var content strings.Builder
	usage, err := client.CreateChatCompletionStream(context.Background(), &ChatCompletionRequest{
		Model:    "mock",
		Messages: []ChatMessage{{Role: "user", Content: "ping"}},
	}, func(chunk *StreamChunk) error {
		for _, c := range chunk.Choices {
			if c.Delta != nil {
				content.WriteString(c.Delta.Content)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	if !strings.Contains(content.String(), "ping") {
		t.Fatalf("expected echo of input, got %q", content.String())
	}
	if usage == nil || usage.TotalTokens == 0 {
		t.Fatalf("expected usage, got %+v", usage)
	}
}
