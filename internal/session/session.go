// Package session keeps per-conversation history and drives the
// one-line-at-a-time chat loop.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/garyellow/ders-bilgi-bot/internal/assistant"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one history entry.
type Message struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	Time time.Time `json:"time"`
}

// Answerer answers one question.
type Answerer interface {
	Answer(ctx context.Context, question string) assistant.Reply
}

// Session is one conversation. History is append-only and each exchange
// (question plus answer) is appended under one lock, so a session processes
// one query at a time.
type Session struct {
	id        string
	answerer  Answerer
	createdAt time.Time

	mu      sync.Mutex
	history []Message
}

func newSession(id string, answerer Answerer) *Session {
	return &Session{
		id:        id,
		answerer:  answerer,
		createdAt: time.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns when the session was opened.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Ask answers question and appends the exchange to the history.
func (s *Session) Ask(ctx context.Context, question string) assistant.Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	asked := time.Now()
	reply := s.answerer.Answer(ctx, question)

	s.history = append(s.history,
		Message{Role: RoleUser, Text: question, Time: asked},
		Message{Role: RoleAssistant, Text: reply.Text, Time: time.Now()},
	)
	return reply
}

// History returns a copy of all messages in order.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// Len returns the number of messages.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}
