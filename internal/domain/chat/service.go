package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	apperrors "github.com/yanqian/fortune-master/pkg/errors"
	"github.com/yanqian/fortune-master/pkg/util"
)

// EmptyReplyPlaceholder stands in for a reply with no text.
const EmptyReplyPlaceholder = "heaven's secrets cannot be revealed"

const defaultGreeting = "Greetings. I am the resident master of the Star Pavilion; if something troubles you, speak freely."

// Store persists chat sessions by id.
type Store interface {
	Get(ctx context.Context, id string) (Session, bool, error)
	Put(ctx context.Context, id string, session Session) error
}

// Replier produces the master's answer.
type Replier interface {
	Reply(ctx context.Context, message string, prior Transcript) string
}

// Service owns chat transcripts.
type Service interface {
	Open(ctx context.Context) (Session, error)
	Send(ctx context.Context, id, message string) (Session, Entry, error)
	Transcript(ctx context.Context, id string) (Session, error)
}

type service struct {
	greeting string
	replier  Replier
	store    Store
	logger   *slog.Logger

	mu sync.Mutex
}

func NewService(cfg Config, replier Replier, store Store, logger *slog.Logger) Service {
	greeting := strings.TrimSpace(cfg.Greeting)
	if greeting == "" {
		greeting = defaultGreeting
	}
	return &service{
		greeting: greeting,
		replier:  replier,
		store:    store,
		logger:   logger.With("component", "chat.service"),
	}
}

func (s *service) Open(ctx context.Context) (Session, error) {
	now := util.NowUTC()
	session := Session{
		ID:         util.NewID(),
		Transcript: Transcript{{Role: RoleAssistant, Text: s.greeting}},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Put(ctx, session.ID, session); err != nil {
		return Session{}, err
	}
	s.logger.Info("chat session opened", "session_id", session.ID)
	return session, nil
}

// Send appends the user's message, asks the master, and appends the answer.
// The store lock is not held during the remote call, so overlapping sends
// append their answers in the order they resolve.
func (s *service) Send(ctx context.Context, id, message string) (Session, Entry, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Session{}, Entry{}, apperrors.Wrap(apperrors.CodeInvalidInput, "message is required", nil)
	}

	s.mu.Lock()
	session, err := s.load(ctx, id)
	if err != nil {
		s.mu.Unlock()
		return Session{}, Entry{}, err
	}
	prior := append(Transcript(nil), session.Transcript...)
	session.Transcript = append(session.Transcript, Entry{Role: RoleUser, Text: message})
	session.UpdatedAt = util.NowUTC()
	err = s.store.Put(ctx, id, session)
	s.mu.Unlock()
	if err != nil {
		return Session{}, Entry{}, err
	}

	// the answer must land even if the caller went away
	ctx = context.WithoutCancel(ctx)
	text := s.replier.Reply(ctx, message, prior)
	if strings.TrimSpace(text) == "" {
		text = EmptyReplyPlaceholder
	}
	reply := Entry{Role: RoleAssistant, Text: text}

	s.mu.Lock()
	defer s.mu.Unlock()
	session, err = s.load(ctx, id)
	if err != nil {
		return Session{}, Entry{}, err
	}
	session.Transcript = append(session.Transcript, reply)
	session.UpdatedAt = util.NowUTC()
	if err := s.store.Put(ctx, id, session); err != nil {
		return Session{}, Entry{}, err
	}
	return session, reply, nil
}

func (s *service) Transcript(ctx context.Context, id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, id)
}

func (s *service) load(ctx context.Context, id string) (Session, error) {
	session, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, apperrors.Wrap(apperrors.CodeNotFound, "chat session not found", nil)
	}
	return session, nil
}
