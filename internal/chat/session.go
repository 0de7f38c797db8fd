package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Reasons Submit declines to do anything.
var (
	ErrEmptyPrompt      = errors.New("prompt is empty")
	ErrBusy             = errors.New("a chat request is already in flight")
	ErrNotAuthenticated = errors.New("access token is required")
)

// Role identifies who authored a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry.
type Message struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	IsError   bool       `json:"isError,omitempty"`
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
}

// State is the session's request state.
type State int

const (
	StateIdle State = iota
	StateSending
)

func (s State) String() string {
	if s == StateSending {
		return "sending"
	}
	return "idle"
}

// Credentials are sent with every prompt.
type Credentials struct {
	MCPServerURL string
	AccessToken  string
	OrgID        string
}

// Session owns a transcript and allows one outstanding request at a time.
type Session struct {
	id     string
	sender Sender
	logger *slog.Logger

	mu         sync.Mutex
	creds      Credentials
	state      State
	transcript []Message
	lastErr    string
}

// NewSession creates an idle session with an empty transcript.
func NewSession(sender Sender, creds Credentials, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	id := uuid.NewString()
	return &Session{
		id:     id,
		sender: sender,
		creds:  creds,
		logger: logger.With("session", id),
	}
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// SetCredentials replaces the credentials used by later submissions.
func (s *Session) SetCredentials(c Credentials) {
	s.mu.Lock()
	s.creds = c
	s.mu.Unlock()
}

// Ready reports whether an access token is set.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.TrimSpace(s.creds.AccessToken) != ""
}

// State returns the current request state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Sending reports whether a request is outstanding.
func (s *Session) Sending() bool { return s.State() == StateSending }

// LastError returns the message of the most recent failed request, or ""
// if the latest request succeeded.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Transcript returns a copy of the messages so far.
func (s *Session) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Submit sends prompt and appends both sides of the exchange. It returns
// ErrEmptyPrompt, ErrBusy or ErrNotAuthenticated without touching the
// transcript. When the request fails the error entry is appended and the
// error is returned alongside it.
func (s *Session) Submit(ctx context.Context, prompt string) (Message, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Message{}, ErrEmptyPrompt
	}

	s.mu.Lock()
	if s.state == StateSending {
		s.mu.Unlock()
		return Message{}, ErrBusy
	}
	token := strings.TrimSpace(s.creds.AccessToken)
	if token == "" {
		s.mu.Unlock()
		return Message{}, ErrNotAuthenticated
	}
	req := Request{
		Prompt:       prompt,
		MCPServerURL: s.creds.MCPServerURL,
		AccessToken:  token,
		OrgID:        strings.TrimSpace(s.creds.OrgID),
	}
	s.state = StateSending
	s.lastErr = ""
	s.transcript = append(s.transcript, Message{Role: RoleUser, Content: prompt})
	s.mu.Unlock()

	s.logger.Debug("chat request started", "mcp_url", req.MCPServerURL, "org_id", req.OrgID)
	resp, err := s.sender.Send(ctx, req)

	var reply Message
	if err != nil {
		reply = Message{Role: RoleAssistant, Content: "Error: " + err.Error(), IsError: true}
		s.logger.Warn("chat request failed", "error", err)
	} else {
		reply = Message{Role: RoleAssistant, Content: resp.Reply, ToolCalls: resp.ToolCalls}
		s.logger.Debug("chat request finished", "tool_calls", len(resp.ToolCalls))
	}

	s.mu.Lock()
	s.transcript = append(s.transcript, reply)
	if err != nil {
		s.lastErr = err.Error()
	}
	s.state = StateIdle
	s.mu.Unlock()

	return reply, err
}
