package llm

import (
	"context"
	"strings"

	"github.com/yanqian/doc-summarizer/internal/domain/docchat"
	"github.com/yanqian/doc-summarizer/internal/infra/llm/chatgpt"
	"github.com/yanqian/doc-summarizer/pkg/metrics"
)

// ChatAnswerer adapts a Completer to the document chat domain.
type ChatAnswerer struct {
	client Completer
	model  string
}

// NewChatAnswerer constructs the adapter.
func NewChatAnswerer(client Completer, model string) *ChatAnswerer {
	return &ChatAnswerer{client: client, model: model}
}

// Chat sends a chat completion request.
func (a *ChatAnswerer) Chat(ctx context.Context, req docchat.LLMRequest) (docchat.LLMReply, error) {
	out := chatgpt.ChatCompletionRequest{
		Model:       a.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages:    make([]chatgpt.Message, 0, len(req.Messages)),
	}
	for _, msg := range req.Messages {
		out.Messages = append(out.Messages, chatgpt.Message{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	resp, err := a.client.CreateChatCompletion(ctx, out)
	if err != nil {
		return docchat.LLMReply{}, err
	}
	return docchat.LLMReply{
		Content: strings.TrimSpace(resp.Content()),
		Usage: metrics.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

var _ docchat.LLM = (*ChatAnswerer)(nil)
