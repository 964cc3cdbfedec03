// Package provider abstracts model invocation behind a capability interface:
// send a role-tagged message history plus configuration, get an incremental
// output stream back. The HTTP client targets any OpenAI-compatible endpoint.
package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nimser/chatstream/internal/domain"
)

// StreamCallback is called for each chunk in a streaming response.
type StreamCallback func(chunk *StreamChunk) error

// Client defines the model invocation capability. Implementations translate
// to a concrete provider; they persist nothing and never swallow provider
// failures.
type Client interface {
	// CreateChatCompletion sends a chat completion request (non-streaming).
	CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)

	// CreateChatCompletionStream sends a streaming chat completion request.
	// The callback is called for each chunk, in arrival order.
	CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest, callback StreamCallback) (*Usage, error)

	// ListModels retrieves the list of available models.
	ListModels(ctx context.Context) ([]Model, error)
}

// maxAttempts bounds retries on rate-limit and transient upstream failures.
const maxAttempts = 3

// HTTPClient talks to an OpenAI-compatible chat completion endpoint.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the given base URL.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// do sends the request body to path, retrying rate-limited and 5xx responses
// a bounded number of times. The caller owns the returned body.
func (c *HTTPClient) do(ctx context.Context, path string, body []byte) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		c.setHeaders(httpReq)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			// Connection resets and timeouts are as transient as a 5xx.
			lastErr = &domain.ProviderError{Kind: domain.ProviderErrUpstream, Message: err.Error()}
			continue
		}

		if resp.StatusCode == http.StatusOK {
			return resp, nil
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		provErr := classifyAPIError(resp.StatusCode, respBody)
		if !retryable(resp.StatusCode) {
			return nil, provErr
		}
		lastErr = provErr
	}

	return nil, &domain.ProviderError{
		Kind:    domain.ProviderErrRetryExhausted,
		Message: fmt.Sprintf("giving up after %d attempts: %v", maxAttempts, lastErr),
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func classifyAPIError(status int, body []byte) *domain.ProviderError {
	kind := domain.ProviderErrUpstream
	switch {
	case status == http.StatusTooManyRequests:
		kind = domain.ProviderErrRateLimited
	case status >= 400 && status < 500:
		kind = domain.ProviderErrInvalidRequest
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil {
		return &domain.ProviderError{Kind: kind, Message: errResp.Error.Message, StatusCode: status}
	}
	return &domain.ProviderError{Kind: kind, Message: string(body), StatusCode: status}
}

// CreateChatCompletion sends a chat completion request (non-streaming).
func (c *HTTPClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	req.Stream = false

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.do(ctx, "/v1/chat/completions", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ProviderError{Kind: domain.ProviderErrUpstream, Message: err.Error()}
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &domain.ProviderError{Kind: domain.ProviderErrUpstream, Message: fmt.Sprintf("failed to unmarshal response: %v", err)}
	}
	return &result, nil
}

// CreateChatCompletionStream sends a streaming chat completion request and
// parses the SSE response, calling back for each chunk.
func (c *HTTPClient) CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest, callback StreamCallback) (*Usage, error) {
	req.Stream = true
	if req.StreamOptions == nil {
		req.StreamOptions = &StreamOptions{IncludeUsage: true}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.do(ctx, "/v1/chat/completions", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	var usage *Usage

	for {
		select {
		case <-ctx.Done():
			return usage, ctx.Err()
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return usage, &domain.ProviderError{Kind: domain.ProviderErrUpstream, Message: fmt.Sprintf("failed to read stream: %v", err)}
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var chunk StreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Skip malformed keep-alive noise rather than killing the stream.
			continue
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
		if err := callback(&chunk); err != nil {
			return usage, err
		}
	}

	return usage, nil
}

// ListModels retrieves the list of available models.
func (c *HTTPClient) ListModels(ctx context.Context) ([]Model, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &domain.ProviderError{Kind: domain.ProviderErrUpstream, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ProviderError{Kind: domain.ProviderErrUpstream, Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyAPIError(resp.StatusCode, respBody)
	}

	var result ModelsResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &domain.ProviderError{Kind: domain.ProviderErrUpstream, Message: fmt.Sprintf("failed to unmarshal response: %v", err)}
	}
	return result.Data, nil
}
