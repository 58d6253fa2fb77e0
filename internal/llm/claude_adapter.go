package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/tildaslashalef/codeforge/internal/claude"
	"github.com/tildaslashalef/codeforge/internal/config"
	"github.com/tildaslashalef/codeforge/internal/ollama"
)

// claudeClientAdapter adapts the Claude client to the LLM Client
// interface. Claude has no embeddings endpoint, so embedding calls are
// delegated to Ollama when it is configured.
type claudeClientAdapter struct {
	client        *claude.Client
	ollama        *ollama.Client
	config        *config.Config
	limiter       *rate.Limiter
	ollamaLimiter *rate.Limiter
}

func newClaudeClientAdapter(client *claude.Client, ollamaClient *ollama.Client, cfg *config.Config, limiter, ollamaLimiter *rate.Limiter) *claudeClientAdapter {
	return &claudeClientAdapter{
		client:        client,
		ollama:        ollamaClient,
		config:        cfg,
		limiter:       limiter,
		ollamaLimiter: ollamaLimiter,
	}
}

// GenerateChat implements the Client interface for Claude
func (a *claudeClientAdapter) GenerateChat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	resp, err := a.client.GenerateChat(ctx, a.toClaudeRequest(req))
	if err != nil {
		return nil, fmt.Errorf("claude chat generation failed: %w", err)
	}

	return &ChatResponse{
		Content:   resp.Text(),
		Model:     resp.Model,
		Completed: resp.StopReason != "",
		Error:     resp.ErrorMsg,
	}, nil
}

// GenerateChatStream implements the Client interface for Claude
func (a *claudeClientAdapter) GenerateChatStream(ctx context.Context, req ChatRequest) (<-chan ChatResponse, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	claudeRespChan, err := a.client.GenerateChatStream(ctx, a.toClaudeRequest(req))
	if err != nil {
		return nil, fmt.Errorf("claude stream generation failed: %w", err)
	}

	responseChan := make(chan ChatResponse)
	go func() {
		defer close(responseChan)
		for claudeResp := range claudeRespChan {
			responseChan <- ChatResponse{
				Content:   claudeResp.Message.Content,
				Model:     claudeResp.Model,
				Completed: claudeResp.Done,
				Error:     claudeResp.ErrorMsg,
			}
		}
	}()

	return responseChan, nil
}

// GenerateEmbedding implements the Client interface for Claude by
// delegating to Ollama
func (a *claudeClientAdapter) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) ([]float32, error) {
	if a.ollama == nil {
		return nil, fmt.Errorf("embedding generation not supported: Claude has no embeddings API and no Ollama fallback is configured")
	}

	if err := a.ollamaLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	resp, err := a.ollama.GenerateEmbedding(ctx, ollama.EmbeddingRequest{
		Model: a.config.Ollama.EmbeddingModel,
		Input: req.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embedding fallback failed: %w", err)
	}

	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return resp.Embeddings[0], nil
}

// BatchEmbeddings implements the Client interface for Claude by
// delegating to Ollama
func (a *claudeClientAdapter) BatchEmbeddings(ctx context.Context, reqs []EmbeddingRequest) ([][]float32, error) {
	if a.ollama == nil {
		return nil, fmt.Errorf("batch embeddings not supported: Claude has no embeddings API and no Ollama fallback is configured")
	}

	if err := a.ollamaLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	ollamaReqs := make([]ollama.EmbeddingRequest, len(reqs))
	for i, req := range reqs {
		ollamaReqs[i] = ollama.EmbeddingRequest{
			Model: a.config.Ollama.EmbeddingModel,
			Input: req.Text,
		}
	}

	resps, err := a.ollama.BatchEmbeddings(ctx, ollamaReqs)
	if err != nil {
		return nil, fmt.Errorf("ollama batch embedding fallback failed: %w", err)
	}

	embeddings := make([][]float32, len(resps))
	for i, resp := range resps {
		if resp != nil && len(resp.Embeddings) > 0 {
			embeddings[i] = resp.Embeddings[0]
		} else {
			embeddings[i] = []float32{}
		}
	}

	return embeddings, nil
}

func (a *claudeClientAdapter) toClaudeRequest(req ChatRequest) claude.ChatRequest {
	claudeReq := claude.ChatRequest{
		Model:     req.Model,
		System:    req.System,
		MaxTokens: req.MaxTokens,
		Messages:  convertMessagesToClaude(req.Messages),
	}

	if req.Temperature > 0 {
		temp := req.Temperature
		claudeReq.Temperature = &temp
	}

	if stop, ok := req.Options["stop"].([]string); ok {
		claudeReq.StopSequences = stop
	}

	return claudeReq
}

func convertMessagesToClaude(messages []Message) []claude.Message {
	claudeMessages := make([]claude.Message, 0, len(messages))
	for _, msg := range messages {
		// Claude takes the system prompt as a top-level field, not a
		// message
		if msg.Role == "system" {
			continue
		}
		claudeMessages = append(claudeMessages, claude.Message{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return claudeMessages
}
