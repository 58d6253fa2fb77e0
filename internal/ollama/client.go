package ollama

import (
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

// Client is the Ollama API client
type Client struct {
	config     config.OllamaConfig
	httpClient *http.Client
}

// NewClient creates a new Ollama client with the provided configuration
func NewClient(cfg config.OllamaConfig) *Client {
	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.MaxIdleConns,
			MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
			IdleConnTimeout:     cfg.IdleConnTimeout,
		},
	}

	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// ListModels lists all available models from Ollama
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	var resp ListModelsResponse
	if err := c.makeRequest(ctx, http.MethodGet, "/api/tags", nil, &resp); err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	return resp.Models, nil
}

// GetVersion returns the Ollama server version
func (c *Client) GetVersion(ctx context.Context) (string, error) {
	var resp VersionResponse
	if err := c.makeRequest(ctx, http.MethodGet, "/api/version", nil, &resp); err != nil {
		return "", fmt.Errorf("getting version: %w", err)
	}
	return resp.Version, nil
}

// GenerateChat sends a non-streaming chat completion request
func (c *Client) GenerateChat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.Model == "" {
		req.Model = c.config.Model
	}
	req.Stream = false

	var resp ChatResponse
	if err := c.makeRequest(ctx, http.MethodPost, "/api/chat", req, &resp); err != nil {
		return nil, fmt.Errorf("generating chat completion: %w", err)
	}

	if resp.Error != "" {
		return &resp, fmt.Errorf("model error: %s", resp.Error)
	}

	return &resp, nil
}

// GenerateChatStream sends a streaming chat completion request. The
// returned channel is closed when the stream ends or the context is
// cancelled.
func (c *Client) GenerateChatStream(ctx context.Context, req ChatRequest) (<-chan ChatResponse, error) {
	if req.Model == "" {
		req.Model = c.config.Model
	}
	req.Stream = true

	responseChan := make(chan ChatResponse)

	url := fmt.Sprintf("%s/api/chat", c.config.Endpoint)
	body, err := json.Marshal(req)
	if err != nil {
		close(responseChan)
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		close(responseChan)
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	go func() {
		defer close(responseChan)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			responseChan <- ChatResponse{Error: fmt.Sprintf("HTTP request failed: %v", err)}
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			bodyBytes, _ := io.ReadAll(resp.Body)
			responseChan <- ChatResponse{Error: fmt.Sprintf("unexpected status code: %d, body: %s", resp.StatusCode, string(bodyBytes))}
			return
		}

		decoder := json.NewDecoder(resp.Body)
		for {
			var chatResp ChatResponse
			if err := decoder.Decode(&chatResp); err != nil {
				if err == io.EOF {
					break
				}
				select {
				case <-ctx.Done():
					return
				default:
					responseChan <- ChatResponse{Error: fmt.Sprintf("decoding response: %v", err)}
				}
				break
			}

			select {
			case <-ctx.Done():
				return
			case responseChan <- chatResp:
				if chatResp.Done {
					return
				}
			}
		}
	}()

	return responseChan, nil
}

// GenerateEmbedding generates embeddings for text(s). The configured
// embedding model is always used, not the chat model.
func (c *Client) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*EmbeddingResponse, error) {
	req.Model = c.config.EmbeddingModel

	var resp EmbeddingResponse
	if err := c.makeRequest(ctx, http.MethodPost, "/api/embed", req, &resp); err != nil {
		return nil, fmt.Errorf("generating embedding: %w", err)
	}

	if resp.Error != "" {
		return &resp, fmt.Errorf("model error: %s", resp.Error)
	}

	return &resp, nil
}

// BatchEmbeddings generates embeddings for multiple texts. Ollama has no
// native batch endpoint, so requests run sequentially.
func (c *Client) BatchEmbeddings(ctx context.Context, reqs []EmbeddingRequest) ([]*EmbeddingResponse, error) {
	responses := make([]*EmbeddingResponse, len(reqs))

	for i, req := range reqs {
		resp, err := c.GenerateEmbedding(ctx, req)
		if err != nil {
			return responses, fmt.Errorf("batch embedding %d: %w", i, err)
		}
		responses[i] = resp
	}

	return responses, nil
}

// makeRequest calls the Ollama API and decodes the response. Transport
// errors and 5xx responses are retried with exponential backoff up to
// the configured MaxRetries; 4xx responses fail immediately.
func (c *Client) makeRequest(ctx context.Context, method, path string, reqBody interface{}, respBody interface{}) error {
	url := fmt.Sprintf("%s%s", c.config.Endpoint, path)

	var bodyBytes []byte
	if reqBody != nil {
		var err error
		bodyBytes, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}

		loggy.Debug("Sending Ollama request",
			"method", method,
			"url", url,
			"body_length", len(bodyBytes))
	}

	operation := func() error {
		return c.doOnce(ctx, method, url, bodyBytes, respBody)
	}

	return backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.config.MaxRetries)), ctx))
}

func (c *Client) doOnce(ctx context.Context, method, url string, bodyBytes []byte, respBody interface{}) error {
	var bodyReader io.Reader
	if bodyBytes != nil {
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}

	if bodyBytes != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(respBytes))
		if resp.StatusCode >= 500 {
			return statusErr
		}
		return backoff.Permanent(statusErr)
	}

	if len(respBytes) == 0 {
		return backoff.Permanent(fmt.Errorf("empty response body"))
	}

	if err := json.Unmarshal(respBytes, respBody); err != nil {
		// Some models wrap their JSON answer in prose; try to salvage the
		// object before giving up
		if extracted, extractErr := extractJSON(string(respBytes)); extractErr == nil {
			if unmarshalErr := json.Unmarshal([]byte(extracted), respBody); unmarshalErr == nil {
				return nil
			}
		}
		return backoff.Permanent(fmt.Errorf("unmarshaling response body: %w", err))
	}

	return nil
}

// extractJSON pulls the first balanced JSON object out of a string that
// may contain surrounding text
func extractJSON(input string) (string, error) {
	start := strings.Index(input, "{")
	if start == -1 {
		return "", fmt.Errorf("no JSON object found")
	}

	braceCount := 1
	for i := start + 1; i < len(input); i++ {
		switch input[i] {
		case '{':
			braceCount++
		case '}':
			braceCount--
			if braceCount == 0 {
				return input[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("incomplete JSON object")
}
