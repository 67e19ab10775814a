package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/fortune-master/internal/domain/fortune"
	apperrors "github.com/yanqian/fortune-master/pkg/errors"
)

type memoryStore struct {
	mu     sync.Mutex
	states map[string]State
}

func newMemoryStore() *memoryStore {
	return &memoryStore{states: make(map[string]State)}
}

func (m *memoryStore) Get(_ context.Context, id string) (State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[id]
	return s, ok, nil
}

func (m *memoryStore) Put(_ context.Context, id string, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[id] = s
	return nil
}

type stubFortunes struct {
	calls    int
	lastReq  fortune.Request
	result   fortune.ReadingResult
	err      error
	inFlight func()
}

func (s *stubFortunes) RequestFortune(_ context.Context, req fortune.Request) (fortune.ReadingResult, error) {
	s.calls++
	s.lastReq = req
	if s.inFlight != nil {
		s.inFlight()
	}
	return s.result, s.err
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validProfile() fortune.UserProfile {
	return fortune.UserProfile{Name: "Chen", BirthDate: "1988-08-08", Gender: fortune.GenderMale}
}

func TestCreateDefaultsToBazi(t *testing.T) {
	svc := NewService(&stubFortunes{}, newMemoryStore(), newTestLogger())

	state, err := svc.Create(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, fortune.ModeBazi, state.Mode)
	require.NotEmpty(t, state.ID)

	_, err = svc.Create(context.Background(), "tarot")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestSubmitStoresResult(t *testing.T) {
	fortunes := &stubFortunes{result: fortune.ReadingResult{Title: "Golden year"}}
	svc := NewService(fortunes, newMemoryStore(), newTestLogger())
	ctx := context.Background()

	state, err := svc.Create(ctx, fortune.ModeIChing)
	require.NoError(t, err)

	state, err = svc.Submit(ctx, state.ID, validProfile(), "Should I move?")
	require.NoError(t, err)
	require.False(t, state.Loading)
	require.Equal(t, "Golden year", state.Result.Title)
	require.Equal(t, fortune.ModeIChing, fortunes.lastReq.Mode)
	require.Equal(t, "Should I move?", fortunes.lastReq.Question)

	got, err := svc.Get(ctx, state.ID)
	require.NoError(t, err)
	require.Equal(t, state, got)
}

func TestSubmitInvalidProfileMakesNoCall(t *testing.T) {
	fortunes := &stubFortunes{}
	svc := NewService(fortunes, newMemoryStore(), newTestLogger())
	ctx := context.Background()
	state, err := svc.Create(ctx, fortune.ModeBazi)
	require.NoError(t, err)

	for _, profile := range []fortune.UserProfile{
		{BirthDate: "1988-08-08"},
		{Name: "Chen"},
		{Name: "  ", BirthDate: "1988-08-08"},
	} {
		_, err = svc.Submit(ctx, state.ID, profile, "")
		require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	}
	require.Zero(t, fortunes.calls)

	after, err := svc.Get(ctx, state.ID)
	require.NoError(t, err)
	require.Equal(t, state, after)
}

func TestSubmitFailureSurfacesMessage(t *testing.T) {
	fortunes := &stubFortunes{err: apperrors.Wrap(apperrors.CodeLLM, fortune.UnreachableMessage, io.ErrUnexpectedEOF)}
	svc := NewService(fortunes, newMemoryStore(), newTestLogger())
	ctx := context.Background()
	state, err := svc.Create(ctx, fortune.ModeDaily)
	require.NoError(t, err)

	state, err = svc.Submit(ctx, state.ID, validProfile(), "")
	require.NoError(t, err)
	require.False(t, state.Loading)
	require.Nil(t, state.Result)
	require.Equal(t, fortune.UnreachableMessage, state.Error)
}

func TestSubmitDiscardsResponseAfterModeSwitch(t *testing.T) {
	ctx := context.Background()
	fortunes := &stubFortunes{result: fortune.ReadingResult{Title: "BaZi reading"}}
	svc := NewService(fortunes, newMemoryStore(), newTestLogger())
	state, err := svc.Create(ctx, fortune.ModeBazi)
	require.NoError(t, err)

	fortunes.inFlight = func() {
		switched, err := svc.SwitchMode(ctx, state.ID, fortune.ModeRomance)
		require.NoError(t, err)
		require.True(t, switched.Loading)

		_, err = svc.Submit(ctx, state.ID, validProfile(), "")
		require.ErrorIs(t, err, ErrBusy)
	}

	final, err := svc.Submit(ctx, state.ID, validProfile(), "")
	require.NoError(t, err)
	require.Equal(t, fortune.ModeRomance, final.Mode)
	require.Nil(t, final.Result)
	require.False(t, final.Loading)
	require.Equal(t, 1, fortunes.calls)
}

func TestSwitchModeAndReset(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&stubFortunes{result: fortune.ReadingResult{Title: "T"}}, newMemoryStore(), newTestLogger())
	state, err := svc.Create(ctx, fortune.ModeBazi)
	require.NoError(t, err)

	state, err = svc.Submit(ctx, state.ID, validProfile(), "")
	require.NoError(t, err)
	require.NotNil(t, state.Result)

	state, err = svc.Reset(ctx, state.ID)
	require.NoError(t, err)
	require.Nil(t, state.Result)

	_, err = svc.SwitchMode(ctx, state.ID, "tarot")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = svc.SwitchMode(ctx, "missing", fortune.ModeDaily)
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	_, err = svc.Reset(ctx, "missing")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestSubmitUnknownSession(t *testing.T) {
	fortunes := &stubFortunes{}
	svc := NewService(fortunes, newMemoryStore(), newTestLogger())

	_, err := svc.Submit(context.Background(), "missing", validProfile(), "")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	require.Zero(t, fortunes.calls)
}

func TestLockTableStaysBounded(t *testing.T) {
	svc := NewService(&stubFortunes{}, newMemoryStore(), newTestLogger()).(*service)
	ctx := context.Background()

	used := make(map[uint32]struct{})
	for i := 0; i < 10000; i++ {
		id := fmt.Sprintf("unknown-%d", i)
		_, err := svc.Get(ctx, id)
		require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
		used[stripe(id)] = struct{}{}
	}
	require.LessOrEqual(t, len(used), lockStripes)
	require.Len(t, svc.locks[:], lockStripes)
	require.Equal(t, stripe("session-a"), stripe("session-a"))
}
