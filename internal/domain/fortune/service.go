package fortune

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yanqian/fortune-master/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/fortune-master/pkg/errors"
)

// UnreachableMessage is the single user facing message for every failed reading.
const UnreachableMessage = "the master is temporarily unreachable, try again later"

// Service produces readings from the remote model.
type Service interface {
	RequestFortune(ctx context.Context, req Request) (ReadingResult, error)
}

type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

// TokenCounter estimates prompt sizes for logging.
type TokenCounter interface {
	Count(text string) int
}

type service struct {
	cfg     Config
	builder PromptBuilder
	client  ChatClient
	counter TokenCounter
	logger  *slog.Logger
}

// NewService wires up the fortune domain.
func NewService(cfg Config, client ChatClient, counter TokenCounter, logger *slog.Logger) Service {
	return &service{
		cfg:     cfg,
		builder: PromptBuilder{Persona: cfg.Persona},
		client:  client,
		counter: counter,
		logger:  logger.With("component", "fortune.service"),
	}
}

// RequestFortune issues exactly one completion call. Every failure past input
// checking is reported as an llm_error carrying UnreachableMessage.
func (s *service) RequestFortune(ctx context.Context, req Request) (ReadingResult, error) {
	if !req.Mode.Valid() {
		return ReadingResult{}, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("unknown fortune mode %q", req.Mode), nil)
	}

	prompt := s.builder.Build(req.Profile, req.Mode, req.Question)
	if s.counter != nil && s.logger.Enabled(ctx, slog.LevelDebug) {
		s.logger.DebugContext(ctx, "fortune prompt built", "mode", req.Mode, "prompt_tokens", s.counter.Count(prompt.System)+s.counter.Count(prompt.User))
	}

	completion, err := s.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []chatgpt.Message{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		Temperature:    s.cfg.Temperature,
		MaxTokens:      s.cfg.MaxTokens,
		ResponseFormat: chatgpt.JSONObject,
	})
	if err != nil {
		return ReadingResult{}, s.unreachable(ctx, req.Mode, err)
	}
	if !completion.Usage.IsZero() {
		s.logger.Info("fortune completion usage", "mode", req.Mode, "prompt_tokens", completion.Usage.PromptTokens, "completion_tokens", completion.Usage.CompletionTokens)
	}

	content, ok := completion.FirstContent()
	if !ok {
		return ReadingResult{}, s.unreachable(ctx, req.Mode, errors.New("completion returned no choices"))
	}

	result, err := ParseReading(content)
	if err != nil {
		s.logger.Debug("fortune response rejected", "content", content)
		return ReadingResult{}, s.unreachable(ctx, req.Mode, err)
	}
	for i, aspect := range result.Aspects {
		if aspect.Score < 0 || aspect.Score > 100 {
			s.logger.Warn("fortune aspect score out of range", "mode", req.Mode, "index", i, "score", aspect.Score)
		}
	}
	return result, nil
}

func (s *service) unreachable(ctx context.Context, mode Mode, cause error) error {
	var apiErr *chatgpt.APIError
	if errors.As(cause, &apiErr) {
		s.logger.WarnContext(ctx, "fortune upstream rejected request", "mode", mode, "status", apiErr.Status, "message", apiErr.Message)
	} else {
		s.logger.WarnContext(ctx, "fortune request failed", "mode", mode, "error", cause)
	}
	return apperrors.Wrap(apperrors.CodeLLM, UnreachableMessage, cause)
}

var (
	readingKeys = []string{"title", "summary", "aspects", "advice", "luckyElements"}
	aspectKeys  = []string{"label", "content", "score", "icon"}
	luckyKeys   = []string{"color", "number", "direction"}
)

// ParseReading strips any code fences around content and decodes it as a
// ReadingResult. Every field of the shape must be present; unknown keys are
// ignored and scores are kept as sent.
func ParseReading(content string) (ReadingResult, error) {
	payload := stripCodeFence(content)
	if payload == "" {
		return ReadingResult{}, errors.New("empty reading payload")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return ReadingResult{}, fmt.Errorf("decode reading: %w", err)
	}
	if err := requireKeys("reading", fields, readingKeys); err != nil {
		return ReadingResult{}, err
	}
	var aspects []map[string]json.RawMessage
	if err := json.Unmarshal(fields["aspects"], &aspects); err != nil {
		return ReadingResult{}, fmt.Errorf("decode aspects: %w", err)
	}
	for i, aspect := range aspects {
		if err := requireKeys(fmt.Sprintf("aspects[%d]", i), aspect, aspectKeys); err != nil {
			return ReadingResult{}, err
		}
	}
	var lucky map[string]json.RawMessage
	if err := json.Unmarshal(fields["luckyElements"], &lucky); err != nil {
		return ReadingResult{}, fmt.Errorf("decode luckyElements: %w", err)
	}
	if err := requireKeys("luckyElements", lucky, luckyKeys); err != nil {
		return ReadingResult{}, err
	}

	var result ReadingResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return ReadingResult{}, fmt.Errorf("decode reading: %w", err)
	}
	if strings.TrimSpace(result.Title) == "" {
		return ReadingResult{}, errors.New("reading title missing")
	}
	return result, nil
}

func requireKeys(scope string, fields map[string]json.RawMessage, keys []string) error {
	if fields == nil {
		return fmt.Errorf("%s missing", scope)
	}
	for _, key := range keys {
		if _, ok := fields[key]; !ok {
			return fmt.Errorf("%s missing key %q", scope, key)
		}
	}
	return nil
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimPrefix(s, "JSON")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
