package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/fortune-master/pkg/errors"
)

type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: make(map[string]Session)}
}

func (m *memoryStore) Get(_ context.Context, id string) (Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok, nil
}

func (m *memoryStore) Put(_ context.Context, id string, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = s
	return nil
}

type recordingReplier struct {
	reply  string
	calls  int
	prior  Transcript
	onCall func()
}

func (r *recordingReplier) Reply(_ context.Context, _ string, prior Transcript) string {
	r.calls++
	r.prior = prior
	if r.onCall != nil {
		r.onCall()
	}
	return r.reply
}

func TestOpenSeedsGreeting(t *testing.T) {
	svc := NewService(Config{}, &recordingReplier{}, newMemoryStore(), newTestLogger())

	session, err := svc.Open(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, session.ID)
	require.Equal(t, Transcript{{Role: RoleAssistant, Text: defaultGreeting}}, session.Transcript)

	custom := NewService(Config{Greeting: "Welcome, seeker."}, &recordingReplier{}, newMemoryStore(), newTestLogger())
	session, err = custom.Open(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Welcome, seeker.", session.Transcript[0].Text)
}

func TestSendAppendsUserThenReply(t *testing.T) {
	replier := &recordingReplier{reply: "Patience brings fortune."}
	svc := NewService(Config{}, replier, newMemoryStore(), newTestLogger())
	ctx := context.Background()

	session, err := svc.Open(ctx)
	require.NoError(t, err)

	updated, reply, err := svc.Send(ctx, session.ID, "  Will I find love?  ")
	require.NoError(t, err)
	require.Equal(t, Entry{Role: RoleAssistant, Text: "Patience brings fortune."}, reply)
	require.Len(t, updated.Transcript, 3)
	require.Equal(t, Entry{Role: RoleUser, Text: "Will I find love?"}, updated.Transcript[1])
	require.Equal(t, reply, updated.Transcript[2])

	// the replier sees the transcript before the new user entry
	require.Equal(t, Transcript{{Role: RoleAssistant, Text: defaultGreeting}}, replier.prior)

	stored, err := svc.Transcript(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, updated.Transcript, stored.Transcript)
}

func TestSendUsesPlaceholderForEmptyReply(t *testing.T) {
	svc := NewService(Config{}, &recordingReplier{reply: "  "}, newMemoryStore(), newTestLogger())
	ctx := context.Background()
	session, err := svc.Open(ctx)
	require.NoError(t, err)

	_, reply, err := svc.Send(ctx, session.ID, "hello")
	require.NoError(t, err)
	require.Equal(t, EmptyReplyPlaceholder, reply.Text)
}

func TestSendRejectsBadInput(t *testing.T) {
	replier := &recordingReplier{reply: "x"}
	svc := NewService(Config{}, replier, newMemoryStore(), newTestLogger())
	ctx := context.Background()
	session, err := svc.Open(ctx)
	require.NoError(t, err)

	_, _, err = svc.Send(ctx, session.ID, "   ")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, _, err = svc.Send(ctx, "missing", "hello")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	_, err = svc.Transcript(ctx, "missing")
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	require.Zero(t, replier.calls)
}

func TestSendOverlappingRepliesAppendInResolutionOrder(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()
	inner := NewService(Config{}, &recordingReplier{reply: "second answer"}, store, newTestLogger())

	var sessionID string
	outerReplier := &recordingReplier{reply: "first answer"}
	outerReplier.onCall = func() {
		_, _, err := inner.Send(ctx, sessionID, "second question")
		require.NoError(t, err)
	}
	outer := NewService(Config{}, outerReplier, store, newTestLogger())

	session, err := outer.Open(ctx)
	require.NoError(t, err)
	sessionID = session.ID

	final, _, err := outer.Send(ctx, sessionID, "first question")
	require.NoError(t, err)

	texts := make([]string, 0, len(final.Transcript))
	for _, e := range final.Transcript {
		texts = append(texts, e.Text)
	}
	require.Equal(t, []string{defaultGreeting, "first question", "second question", "second answer", "first answer"}, texts)
}

// upstreamReplier answers like the responder: a cancelled context yields the fallback.
type upstreamReplier struct {
	delay time.Duration
}

func (u upstreamReplier) Reply(ctx context.Context, _ string, _ Transcript) string {
	select {
	case <-ctx.Done():
		return FallbackReply
	case <-time.After(u.delay):
		return "The river returns to the sea."
	}
}

func TestSendKeepsAnswerWhenCallerCancels(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(Config{}, upstreamReplier{delay: 200 * time.Millisecond}, store, newTestLogger())
	session, err := svc.Open(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, reply, err := svc.Send(ctx, session.ID, "Will my journey end well?")
	require.NoError(t, err)
	require.Equal(t, "The river returns to the sea.", reply.Text)

	stored, err := svc.Transcript(context.Background(), session.ID)
	require.NoError(t, err)
	last := stored.Transcript[len(stored.Transcript)-1]
	require.Equal(t, Entry{Role: RoleAssistant, Text: "The river returns to the sea."}, last)
	for _, entry := range stored.Transcript {
		require.NotEqual(t, FallbackReply, entry.Text)
	}
}
