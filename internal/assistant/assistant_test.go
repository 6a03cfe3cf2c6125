package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"clubdash/internal/chat"
)

type fakeModel struct {
	mu    sync.Mutex
	calls [][]*genai.Content
	err   error
	block bool
}

func (m *fakeModel) Generate(ctx context.Context, history []*genai.Content) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, history)
	n := len(m.calls)
	m.mu.Unlock()
	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if m.err != nil {
		return "", m.err
	}
	return fmt.Sprintf("reply %d", n), nil
}

func TestChat_Canned(t *testing.T) {
	a := New(nil)
	assert.False(t, a.Remote())

	got, err := a.Chat(context.Background(), "help", "s1")
	require.NoError(t, err)
	assert.Equal(t, chat.CannedReply("help"), got)

	_, err = a.Chat(context.Background(), "   ", "s1")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestChat_KeepsHistoryPerSession(t *testing.T) {
	m := &fakeModel{}
	a := New(m)
	ctx := context.Background()

	r1, err := a.Chat(ctx, "hello", "s1")
	require.NoError(t, err)
	assert.Equal(t, "reply 1", r1)

	_, err = a.Chat(ctx, "what about budgets?", "s1")
	require.NoError(t, err)
	_, err = a.Chat(ctx, "hi", "s2")
	require.NoError(t, err)

	// seed pair + first exchange + new turn
	require.Len(t, m.calls[1], 5)
	assert.Equal(t, "what about budgets?", m.calls[1][4].Parts[0].Text)
	assert.Equal(t, genai.RoleModel, m.calls[1][3].Role)
	// a new session starts from the seed only
	assert.Len(t, m.calls[2], 3)
	assert.Equal(t, 2, a.Sessions())
}

func TestChat_FailureLeavesHistory(t *testing.T) {
	m := &fakeModel{err: errors.New("quota exceeded")}
	a := New(m)
	ctx := context.Background()

	_, err := a.Chat(ctx, "hello", "s1")
	require.Error(t, err)

	m.err = nil
	_, err = a.Chat(ctx, "hello again", "s1")
	require.NoError(t, err)
	assert.Len(t, m.calls[1], 3)
}

func TestChat_Timeout(t *testing.T) {
	a := New(&fakeModel{block: true})
	a.timeout = 10 * time.Millisecond

	_, err := a.Chat(context.Background(), "hello", "s1")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestHistoryIsBounded(t *testing.T) {
	a := New(&fakeModel{})
	for i := 0; i < maxTurns; i++ {
		_, err := a.Chat(context.Background(), fmt.Sprintf("q%d", i), "s1")
		require.NoError(t, err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	h := a.sessions["s1"].history
	assert.LessOrEqual(t, len(h), maxTurns)
	assert.Equal(t, chat.Greeting, h[1].Parts[0].Text)
	assert.Equal(t, genai.RoleUser, h[2].Role)
}

func TestSessionsEvictLeastRecentlyUsed(t *testing.T) {
	a := New(&fakeModel{})
	a.maxSessions = 2
	ctx := context.Background()

	_, _ = a.Chat(ctx, "a", "first")
	time.Sleep(time.Millisecond)
	_, _ = a.Chat(ctx, "b", "second")
	time.Sleep(time.Millisecond)
	_, _ = a.Chat(ctx, "c", "third")

	assert.Equal(t, 2, a.Sessions())
	a.mu.Lock()
	_, ok := a.sessions["first"]
	a.mu.Unlock()
	assert.False(t, ok)
}
