package claude

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff/v4"

	"github.com/tildaslashalef/codeforge/internal/config"
	"github.com/tildaslashalef/codeforge/internal/loggy"
)

// Client is an Anthropic Claude API client
type Client struct {
	apiKey           string
	baseURL          string
	defaultModel     string
	httpClient       *http.Client
	maxRetries       int
	defaultMaxTokens int
	apiVersion       string
	topP             *float64
	topK             *int
	temperature      *float64
}

// NewClient creates a new Claude client from config
func NewClient(cfg config.ClaudeConfig) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")

	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = "2023-06-01"
	}

	defaultModel := cfg.Model
	if defaultModel == "" {
		defaultModel = "claude-3-5-sonnet-20241022"
	}

	defaultMaxTokens := cfg.MaxTokens
	if defaultMaxTokens <= 0 {
		defaultMaxTokens = 4096
	}

	var tempPtr, topPPtr *float64
	var topKPtr *int
	if cfg.Temperature > 0 {
		tempPtr = &cfg.Temperature
	}
	if cfg.TopP > 0 {
		topPPtr = &cfg.TopP
	}
	if cfg.TopK > 0 {
		topKPtr = &cfg.TopK
	}

	return &Client{
		apiKey:           cfg.APIKey,
		baseURL:          baseURL,
		defaultModel:     defaultModel,
		httpClient:       &http.Client{Timeout: cfg.Timeout},
		maxRetries:       cfg.MaxRetries,
		defaultMaxTokens: defaultMaxTokens,
		apiVersion:       apiVersion,
		topP:             topPPtr,
		topK:             topKPtr,
		temperature:      tempPtr,
	}
}

// GenerateChat sends a non-streaming chat completion request
func (c *Client) GenerateChat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	c.applyDefaults(&req)
	req.Stream = false

	var resp ChatResponse
	if err := c.makeRequest(ctx, http.MethodPost, "/v1/messages", req, &resp); err != nil {
		return nil, fmt.Errorf("generating chat completion: %w", err)
	}

	return &resp, nil
}

// GenerateChatStream sends a streaming chat completion request. The
// stream is retried with exponential backoff on transport errors.
func (c *Client) GenerateChatStream(ctx context.Context, req ChatRequest) (<-chan ChatResponse, error) {
	responses := make(chan ChatResponse)

	c.applyDefaults(&req)
	req.Stream = true

	streamCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(responses)
		defer cancel()

		operation := func() error {
			return c.handleStreamingRequest(streamCtx, req, responses)
		}

		err := backoff.Retry(operation, backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)), streamCtx))
		if err != nil {
			select {
			case responses <- ChatResponse{ErrorMsg: err.Error()}:
			case <-streamCtx.Done():
			}
		}
	}()

	return responses, nil
}

func (c *Client) applyDefaults(req *ChatRequest) {
	if req.Model == "" {
		req.Model = c.defaultModel
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = c.defaultMaxTokens
	}
	if req.Temperature == nil && c.temperature != nil {
		req.Temperature = c.temperature
	}
	if req.TopP == nil && c.topP != nil {
		req.TopP = c.topP
	}
	if req.TopK == nil && c.topK != nil {
		req.TopK = c.topK
	}
}

// handleStreamingRequest processes the SSE stream from Claude and sends
// responses to the channel
func (c *Client) handleStreamingRequest(ctx context.Context, req ChatRequest, responseChan chan<- ChatResponse) error {
	jsonBody, err := json.Marshal(req)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("marshaling request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading error response body: %w", err)
		}
		return c.handleErrorResponse(resp, respBody)
	}

	scanner := bufio.NewScanner(resp.Body)
	var model string

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimPrefix(scanner.Text(), "data: ")
		if len(line) == 0 || !strings.HasPrefix(line, "{") {
			continue
		}

		var streamResp MessageStreamResponse
		if err := json.Unmarshal([]byte(line), &streamResp); err != nil {
			loggy.Error("decoding streaming response", "error", err, "line", line)
			continue
		}

		if model == "" && streamResp.Message.Model != "" {
			model = streamResp.Message.Model
		}

		switch streamResp.Type {
		case "content_block_start", "content_block_delta":
			responseChan <- ChatResponse{
				Model:   model,
				Message: Message{Role: "assistant", Content: streamResp.Delta.Text},
				Done:    false,
			}
		case "message_delta":
			if streamResp.Delta.StopReason != "" {
				responseChan <- ChatResponse{
					Model:   model,
					Message: Message{Role: "assistant", Content: ""},
					Done:    true,
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}

	return nil
}

// makeRequest calls the API with exponential backoff retries
func (c *Client) makeRequest(ctx context.Context, method, path string, body interface{}, response interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}

	url := fmt.Sprintf("%s%s", c.baseURL, path)

	loggy.Debug("Sending Claude request",
		"method", method,
		"url", url,
		"body_length", len(bodyBytes))

	var lastErr error
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(bodyBytes))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("sending request: %w", err)
			return lastErr
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			lastErr = fmt.Errorf("reading response body: %w", err)
			return lastErr
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = c.handleErrorResponse(resp, respBody)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				// Client errors other than rate limits will not succeed on
				// retry
				return backoff.Permanent(lastErr)
			}
			return lastErr
		}

		if err := json.Unmarshal(respBody, response); err != nil {
			lastErr = fmt.Errorf("decoding response: %w", err)
			return backoff.Permanent(lastErr)
		}

		return nil
	}

	err = backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)), ctx))
	if err != nil {
		if lastErr != nil {
			return lastErr
		}
		return err
	}

	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", c.apiVersion)
}

// handleErrorResponse parses an error body into a structured error
func (c *Client) handleErrorResponse(resp *http.Response, body []byte) error {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.ErrorDetails.Message == "" {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}
	return &apiErr
}
