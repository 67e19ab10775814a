package session

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/yanqian/fortune-master/internal/domain/fortune"
	apperrors "github.com/yanqian/fortune-master/pkg/errors"
	"github.com/yanqian/fortune-master/pkg/util"
)

// Store persists session states by id.
type Store interface {
	Get(ctx context.Context, id string) (State, bool, error)
	Put(ctx context.Context, id string, state State) error
}

// Service drives the reading screen through Reduce.
type Service interface {
	Create(ctx context.Context, mode fortune.Mode) (State, error)
	Get(ctx context.Context, id string) (State, error)
	SwitchMode(ctx context.Context, id string, mode fortune.Mode) (State, error)
	Reset(ctx context.Context, id string) (State, error)
	Submit(ctx context.Context, id string, profile fortune.UserProfile, question string) (State, error)
}

// lockStripes bounds the lock table; ids sharing a stripe serialize.
const lockStripes = 256

type service struct {
	fortunes fortune.Service
	store    Store
	logger   *slog.Logger

	locks [lockStripes]sync.Mutex
}

func NewService(fortunes fortune.Service, store Store, logger *slog.Logger) Service {
	return &service{
		fortunes: fortunes,
		store:    store,
		logger:   logger.With("component", "session.service"),
	}
}

func (s *service) Create(ctx context.Context, mode fortune.Mode) (State, error) {
	if mode == "" {
		mode = fortune.ModeBazi
	}
	if !mode.Valid() {
		return State{}, apperrors.Wrap(apperrors.CodeInvalidInput, "unknown fortune mode", nil)
	}
	state := NewState(util.NewID(), mode)
	state.UpdatedAt = util.NowUTC()
	if err := s.store.Put(ctx, state.ID, state); err != nil {
		return State{}, err
	}
	s.logger.Info("session created", "session_id", state.ID, "mode", mode)
	return state, nil
}

func (s *service) Get(ctx context.Context, id string) (State, error) {
	unlock := s.lock(id)
	defer unlock()
	return s.load(ctx, id)
}

func (s *service) SwitchMode(ctx context.Context, id string, mode fortune.Mode) (State, error) {
	if !mode.Valid() {
		return State{}, apperrors.Wrap(apperrors.CodeInvalidInput, "unknown fortune mode", nil)
	}
	return s.apply(ctx, id, ModeSwitched{Mode: mode})
}

func (s *service) Reset(ctx context.Context, id string) (State, error) {
	return s.apply(ctx, id, ResetRequested{})
}

// Submit validates the profile, runs one reading and folds the outcome into
// the session. The session lock is released while the reading is in flight.
// A failed reading is reported through State.Error, not the returned error.
func (s *service) Submit(ctx context.Context, id string, profile fortune.UserProfile, question string) (State, error) {
	profile, err := fortune.ValidateProfile(profile)
	if err != nil {
		return State{}, err
	}

	var ticket Ticket
	started, err := s.update(ctx, id, func(state State) (State, error) {
		ticket = Ticket{Generation: state.Generation, Mode: state.Mode}
		return Reduce(state, SubmitStarted{Ticket: ticket})
	})
	if err != nil {
		return State{}, err
	}
	s.logger.Info("reading started", "session_id", id, "mode", ticket.Mode, "generation", ticket.Generation)

	var outcome Event
	result, err := s.fortunes.RequestFortune(ctx, fortune.Request{Profile: profile, Mode: ticket.Mode, Question: question})
	if err != nil {
		outcome = SubmitFailed{Ticket: ticket, Message: apperrors.Message(err)}
	} else {
		outcome = SubmitSucceeded{Ticket: ticket, Result: result}
	}

	// the outcome must land even if the caller went away
	final, err := s.apply(context.WithoutCancel(ctx), id, outcome)
	if err != nil {
		s.logger.Error("reading outcome lost", "session_id", id, "error", err)
		return started, err
	}
	if final.Generation != ticket.Generation {
		s.logger.Info("stale reading discarded", "session_id", id, "ticket_mode", ticket.Mode, "mode", final.Mode)
	}
	return final, nil
}

func (s *service) apply(ctx context.Context, id string, ev Event) (State, error) {
	return s.update(ctx, id, func(state State) (State, error) {
		return Reduce(state, ev)
	})
}

func (s *service) update(ctx context.Context, id string, fn func(State) (State, error)) (State, error) {
	unlock := s.lock(id)
	defer unlock()

	state, err := s.load(ctx, id)
	if err != nil {
		return State{}, err
	}
	next, err := fn(state)
	if err != nil {
		return state, err
	}
	next.UpdatedAt = util.NowUTC()
	if err := s.store.Put(ctx, id, next); err != nil {
		return State{}, err
	}
	return next, nil
}

func (s *service) load(ctx context.Context, id string) (State, error) {
	state, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return State{}, err
	}
	if !ok {
		return State{}, apperrors.Wrap(apperrors.CodeNotFound, "session not found", nil)
	}
	return state, nil
}

func (s *service) lock(id string) func() {
	mu := &s.locks[stripe(id)]
	mu.Lock()
	return mu.Unlock
}

func stripe(id string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return h.Sum32() % lockStripes
}
