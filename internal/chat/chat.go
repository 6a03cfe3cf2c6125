// Package chat is the dashboard's conversational boundary. A Session either
// forwards messages to the ledger's /chat endpoint or, when no remote
// assistant is configured, answers locally with canned replies delivered
// through a Deferred task.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"clubdash/internal/cache"
	applog "clubdash/internal/log"
)

// ReplyDelay is how long a canned reply waits before it is delivered.
const ReplyDelay = 300 * time.Millisecond

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrClosed       = errors.New("chat session closed")
)

// Chatter is the remote side of a conversation. ledger.Ledger satisfies it.
type Chatter interface {
	Chat(ctx context.Context, message, sessionID string) (string, error)
}

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

type Message struct {
	Role Role      `json:"type"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

type Session struct {
	id       string
	remote   Chatter
	deferred *Deferred
	delay    time.Duration
	logger   *applog.Logger

	mu      sync.Mutex
	history []Message
	done    chan struct{}
	closed  bool
}

// NewSession starts a conversation. A nil remote selects canned replies;
// an empty id gets a fresh UUID.
func NewSession(remote Chatter, id string, logger *applog.Logger) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	if logger == nil {
		logger = applog.Default(applog.ComponentChat)
	}
	return &Session{
		id:       id,
		remote:   remote,
		deferred: NewDeferred(),
		delay:    ReplyDelay,
		logger:   logger.WithComponent(applog.ComponentChat).With(applog.FieldSessionID, id),
		history:  []Message{{Role: RoleBot, Text: Greeting, At: time.Now()}},
		done:     make(chan struct{}),
	}
}

func (s *Session) ID() string { return s.id }

// Send records the user message and returns the assistant's reply.
func (s *Session) Send(ctx context.Context, text string) (Message, error) {
	if strings.TrimSpace(text) == "" {
		return Message{}, ErrEmptyMessage
	}
	if err := s.append(Message{Role: RoleUser, Text: text, At: time.Now()}); err != nil {
		return Message{}, err
	}

	var (
		reply string
		err   error
	)
	if s.remote != nil {
		reply, err = s.remote.Chat(ctx, text, s.id)
	} else {
		reply, err = s.canned(ctx, text)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Chat reply failed", applog.FieldError, err)
		return Message{}, err
	}

	msg := Message{Role: RoleBot, Text: reply, At: time.Now()}
	if err := s.append(msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

func (s *Session) canned(ctx context.Context, text string) (string, error) {
	ch := make(chan string, 1)
	h := s.deferred.Schedule(s.delay, func() { ch <- CannedReply(text) })
	select {
	case reply := <-ch:
		return reply, nil
	case <-ctx.Done():
		h.Cancel()
		return "", ctx.Err()
	case <-s.done:
		return "", ErrClosed
	}
}

// History returns a copy of the conversation so far.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.history...)
}

// Close cancels any pending canned reply.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.deferred.Close()
	close(s.done)
}

func (s *Session) append(m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.history = append(s.history, m)
	return nil
}

// Session registry bounds. Idle sessions expire and the least recently
// used one is closed once the registry is full.
const (
	DefaultMaxSessions = 1000
	SessionIdleTTL     = time.Hour
)

// Sessions keeps one Session per session id.
type Sessions struct {
	remote Chatter
	logger *applog.Logger
	live   *cache.LRUCache[*Session]
}

func NewSessions(remote Chatter, logger *applog.Logger) *Sessions {
	return NewSessionsWithLimit(remote, logger, DefaultMaxSessions)
}

// NewSessionsWithLimit is NewSessions with an explicit registry size.
func NewSessionsWithLimit(remote Chatter, logger *applog.Logger, limit int) *Sessions {
	return &Sessions{
		remote: remote,
		logger: logger,
		live: cache.NewLRUCache[*Session](limit, SessionIdleTTL,
			cache.WithSlidingTTL[*Session](),
			cache.WithEvict(func(_ string, s *Session) { s.Close() })),
	}
}

// Get returns the session for id, creating it when unknown or empty.
func (m *Sessions) Get(id string) *Session {
	if id == "" {
		s := NewSession(m.remote, "", m.logger)
		m.live.Set(s.ID(), s)
		return s
	}
	s, _ := m.live.GetOrAdd(id, func() *Session { return NewSession(m.remote, id, m.logger) })
	return s
}

// Lookup returns an existing session without creating one.
func (m *Sessions) Lookup(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	return m.live.Get(id)
}

func (m *Sessions) Len() int { return m.live.Size() }

// CleanExpired closes sessions idle for longer than SessionIdleTTL.
func (m *Sessions) CleanExpired() int { return m.live.CleanExpired() }

// Close ends every session.
func (m *Sessions) Close() { m.live.Clear() }
