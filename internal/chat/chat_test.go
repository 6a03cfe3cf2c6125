package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubdash/internal/ledger/mocks"
)

func TestCannedReply(t *testing.T) {
	tests := []struct {
		in       string
		contains string
	}{
		{"help", "I can help you with"},
		{" ? ", "I can help you with"},
		{"Any PROJECTS going?", "Active Projects"},
		{"next event", "Upcoming Events"},
		{"how many members", "45 active members"},
		{"resources please", "Club GitHub"},
		{"hello there", "How can I help you today?"},
		{"budget", `You said: "budget"`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Contains(t, CannedReply(tt.in), tt.contains)
		})
	}
}

func TestSessionRemote(t *testing.T) {
	ctrl := gomock.NewController(t)
	l := mocks.NewMockLedger(ctrl)
	s := NewSession(l, "sess-1", nil)
	defer s.Close()

	l.EXPECT().Chat(gomock.Any(), "how much for food?", "sess-1").Return("You spent $120.50 on food.", nil)

	msg, err := s.Send(context.Background(), "how much for food?")
	require.NoError(t, err)
	assert.Equal(t, RoleBot, msg.Role)
	assert.Equal(t, "You spent $120.50 on food.", msg.Text)

	h := s.History()
	require.Len(t, h, 3)
	assert.Equal(t, Greeting, h[0].Text)
	assert.Equal(t, RoleUser, h[1].Role)
}

func TestSessionRemoteError(t *testing.T) {
	ctrl := gomock.NewController(t)
	l := mocks.NewMockLedger(ctrl)
	s := NewSession(l, "", nil)
	defer s.Close()
	assert.NotEmpty(t, s.ID())

	l.EXPECT().Chat(gomock.Any(), "hi", s.ID()).Return("", errors.New("API Error: 500"))
	_, err := s.Send(context.Background(), "hi")
	assert.EqualError(t, err, "API Error: 500")
}

func TestSessionRejectsEmpty(t *testing.T) {
	s := NewSession(nil, "x", nil)
	defer s.Close()
	_, err := s.Send(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Len(t, s.History(), 1)
}

func TestSessionCanned(t *testing.T) {
	s := NewSession(nil, "local", nil)
	s.delay = time.Millisecond
	defer s.Close()

	msg, err := s.Send(context.Background(), "help")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(msg.Text, "I can help you with"))
	assert.Equal(t, 0, s.deferred.Pending())
}

func TestSessionCloseCancelsPendingReply(t *testing.T) {
	s := NewSession(nil, "local", nil)
	s.delay = time.Hour

	errc := make(chan error, 1)
	go func() {
		_, err := s.Send(context.Background(), "events")
		errc <- err
	}()

	require.Eventually(t, func() bool { return s.deferred.Pending() == 1 }, time.Second, time.Millisecond)
	s.Close()
	assert.ErrorIs(t, <-errc, ErrClosed)
	assert.Equal(t, 0, s.deferred.Pending())

	_, err := s.Send(context.Background(), "events")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSessionContextCancel(t *testing.T) {
	s := NewSession(nil, "local", nil)
	s.delay = time.Hour
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err := s.Send(ctx, "events")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, s.deferred.Pending())
}

func TestDeferred(t *testing.T) {
	d := NewDeferred()
	var ran atomic.Int32

	h := d.Schedule(time.Millisecond, func() { ran.Add(1) })
	<-h.Fired()
	assert.Equal(t, int32(1), ran.Load())
	assert.False(t, h.Cancel())

	h = d.Schedule(time.Hour, func() { ran.Add(1) })
	assert.True(t, h.Cancel())
	assert.False(t, h.Cancel())

	d.Schedule(time.Hour, func() { ran.Add(1) })
	d.Close()
	assert.Equal(t, 0, d.Pending())

	h = d.Schedule(time.Millisecond, func() { ran.Add(1) })
	assert.False(t, h.Cancel())
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), ran.Load())
}

func TestSessionsRegistry(t *testing.T) {
	m := NewSessions(nil, nil)
	a := m.Get("a")
	assert.Same(t, a, m.Get("a"))
	fresh := m.Get("")
	assert.NotEqual(t, "a", fresh.ID())
	assert.Same(t, fresh, m.Get(fresh.ID()))
	assert.Equal(t, 2, m.Len())
	m.Close()
	assert.Equal(t, 0, m.Len())
}

func TestSessionsLimit(t *testing.T) {
	m := NewSessionsWithLimit(nil, nil, 3)
	first := m.Get("first")

	for i := 0; i < 100; i++ {
		m.Get(fmt.Sprintf("client-%d", i))
	}

	assert.Equal(t, 3, m.Len())
	_, ok := m.Lookup("first")
	assert.False(t, ok)
	_, err := first.Send(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrClosed, "evicted sessions are closed")

	_, ok = m.Lookup("client-99")
	assert.True(t, ok)
	_, ok = m.Lookup("never-seen")
	assert.False(t, ok)
	assert.Equal(t, 3, m.Len(), "Lookup never creates")
}
