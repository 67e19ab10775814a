package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/yanqian/fortune-master/internal/infra/llm/chatgpt"
)

// FallbackReply is returned whenever the master cannot be reached.
const FallbackReply = "the stars are in disarray, the master cannot respond right now"

const defaultPersona = "You are a fortune master versed in the I Ching, BaZi, astrology and counselling. Your tone is refined, wise and calm. Through conversation you help people find inner peace and a direction for the future."

type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

// TokenCounter measures history size for the optional budget.
type TokenCounter interface {
	Count(text string) int
}

// Responder answers free-form questions. It never returns an error; every
// failure becomes FallbackReply.
type Responder struct {
	cfg     Config
	client  ChatClient
	counter TokenCounter
	logger  *slog.Logger
}

func NewResponder(cfg Config, client ChatClient, counter TokenCounter, logger *slog.Logger) *Responder {
	if strings.TrimSpace(cfg.Persona) == "" {
		cfg.Persona = defaultPersona
	}
	return &Responder{
		cfg:     cfg,
		client:  client,
		counter: counter,
		logger:  logger.With("component", "chat.responder"),
	}
}

// Reply sends message after the prior transcript and returns the master's text.
// An empty string means the model answered with no content.
func (r *Responder) Reply(ctx context.Context, message string, prior Transcript) string {
	history := r.trim(prior)
	messages := make([]chatgpt.Message, 0, len(history)+2)
	messages = append(messages, chatgpt.Message{Role: "system", Content: r.cfg.Persona})
	for _, entry := range history {
		messages = append(messages, chatgpt.Message{Role: string(ParseRole(string(entry.Role))), Content: entry.Text})
	}
	messages = append(messages, chatgpt.Message{Role: string(RoleUser), Content: message})

	completion, err := r.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model:       r.cfg.Model,
		Messages:    messages,
		Temperature: r.cfg.Temperature,
	})
	if err != nil {
		var apiErr *chatgpt.APIError
		if errors.As(err, &apiErr) {
			r.logger.WarnContext(ctx, "chat upstream rejected request", "status", apiErr.Status, "message", apiErr.Message)
		} else {
			r.logger.WarnContext(ctx, "chat request failed", "error", err)
		}
		return FallbackReply
	}
	content, ok := completion.FirstContent()
	if !ok {
		r.logger.WarnContext(ctx, "chat completion returned no choices")
		return FallbackReply
	}
	return content
}

// trim drops the oldest entries until the history fits the token budget.
func (r *Responder) trim(prior Transcript) Transcript {
	if r.cfg.MaxHistoryTokens <= 0 || r.counter == nil {
		return prior
	}
	total := 0
	start := len(prior)
	for i := len(prior) - 1; i >= 0; i-- {
		total += r.counter.Count(prior[i].Text)
		if total > r.cfg.MaxHistoryTokens {
			break
		}
		start = i
	}
	if start > 0 {
		r.logger.Debug("chat history trimmed", "dropped", start, "kept", len(prior)-start)
	}
	return prior[start:]
}
