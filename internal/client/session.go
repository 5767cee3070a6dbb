package client

import (
	"context"
	"errors"
	"sync"

	"mockery-backend/internal/models"
	"mockery-backend/internal/prompt"
)

// State of a session.
type State int

const (
	StateIdle State = iota
	StateAwaitingResponse
)

func (s State) String() string {
	if s == StateAwaitingResponse {
		return "awaiting-response"
	}
	return "idle"
}

var (
	// ErrBusy is returned when a request is started while another one is
	// still awaiting its response.
	ErrBusy   = errors.New("a request is already in flight")
	ErrNoPage = errors.New("no page selected")
)

// Session holds the selected page, the conversation and the last known
// version. It is shared by the request loop and the poller.
type Session struct {
	mu      sync.Mutex
	state   State
	page    string
	version string
	history []models.ChatMessage
}

func NewSession(page string) *Session {
	return &Session{page: page}
}

// Begin moves idle to awaiting-response.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return ErrBusy
	}
	s.state = StateAwaitingResponse
	return nil
}

// Finish returns to idle after a terminal event or a transport failure.
func (s *Session) Finish() {
	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Page() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// SelectPage switches pages and forgets the conversation.
func (s *Session) SelectPage(page string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = page
	s.version = ""
	s.history = nil
}

func (s *Session) Version() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *Session) SetVersion(v string) {
	s.mu.Lock()
	s.version = v
	s.mu.Unlock()
}

// History returns a copy of the turns that would be sent with the next
// request.
func (s *Session) History() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.history
	if len(h) > prompt.HistoryLimit {
		h = h[len(h)-prompt.HistoryLimit:]
	}
	return append([]models.ChatMessage(nil), h...)
}

func (s *Session) record(role, content string) {
	s.mu.Lock()
	s.history = append(s.history, models.ChatMessage{Role: role, Content: content})
	s.mu.Unlock()
}

// Send runs one streamed edit for the selected page. The session stays in
// awaiting-response until the stream ends, so a concurrent Poller skips
// its ticks.
func (s *Session) Send(ctx context.Context, c *Client, message string, onEvent func(models.StreamEvent)) (models.StreamEvent, error) {
	page := s.Page()
	if page == "" {
		return models.StreamEvent{}, ErrNoPage
	}
	if err := s.Begin(); err != nil {
		return models.StreamEvent{}, err
	}
	defer s.Finish()

	req := models.EditRequest{Page: page, Message: message, History: s.History()}
	s.record(models.RoleUser, message)

	var reply string
	final, err := c.Edit(ctx, req, func(ev models.StreamEvent) {
		switch ev.Type {
		case models.EventPatches:
			s.SetVersion(ev.Version)
			reply = ev.Summary
		case models.EventFull:
			s.SetVersion(ev.Version)
			reply = "Strona została zaktualizowana!"
		}
		if onEvent != nil {
			onEvent(ev)
		}
	})
	if err != nil {
		return final, err
	}
	if final.Type == models.EventError {
		return final, errors.New(final.Error)
	}
	if reply != "" {
		s.record(models.RoleAssistant, reply)
	}
	return final, nil
}
