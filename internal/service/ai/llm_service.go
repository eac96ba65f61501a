package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/riseai/rise-chat/internal/config"
	"github.com/riseai/rise-chat/internal/model/chat"
)

const historyLimit = 10

// Service answers through a chat model, falling back to the simulator when the model
// fails or returns nothing.
type Service struct {
	chatModel model.ChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
	fallback  *Simulator
}

// NewService creates a model-backed responder from the AI configuration.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel)
}

// NewServiceWithModel wires an existing chat model into the prompt chain.
func NewServiceWithModel(ctx context.Context, chatModel model.ChatModel) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		chain:     runnable,
		fallback:  NewSimulator(),
	}, nil
}

func (s *Service) Simulated() bool {
	return false
}

// Respond runs the chain for req.
func (s *Service) Respond(ctx context.Context, req Request) (string, error) {
	input := map[string]any{
		"system":  BuildSystemPrompt(req.User),
		"history": buildHistoryMessages(req.History),
		"query":   req.Message,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		log.Printf("[ai] model call failed for user=%s, using simulated reply: %v", req.User.Username, err)
		return s.fallback.Respond(ctx, req)
	}

	content := strings.TrimSpace(response.Content)
	if content == "" {
		log.Printf("[ai] empty model reply for user=%s, using simulated reply", req.User.Username)
		return s.fallback.Respond(ctx, req)
	}

	log.Printf("[ai] generated response for user=%s, length=%d", req.User.Username, len(content))
	return content, nil
}

// buildHistoryMessages converts newest-first exchanges into chronological model turns.
func buildHistoryMessages(exchanges []chat.Exchange) []*schema.Message {
	if len(exchanges) == 0 {
		return nil
	}

	n := min(len(exchanges), historyLimit)
	history := make([]*schema.Message, 0, n*2)
	for i := n - 1; i >= 0; i-- {
		history = append(history,
			schema.UserMessage(exchanges[i].UserText),
			schema.AssistantMessage(exchanges[i].AssistantText, nil),
		)
	}
	return history
}
