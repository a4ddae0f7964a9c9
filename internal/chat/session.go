// Package chat runs the customer support conversation: registration, streamed
// AI replies and the hand-off to a human operator.
package chat

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spherical-ai/spherical/libs/showroom/internal/crm"
	"github.com/spherical-ai/spherical/libs/showroom/internal/domain"
	"github.com/spherical-ai/spherical/libs/showroom/internal/observability"
)

// State is the position of a session in its lifecycle.
type State string

const (
	StateClosed             State = "closed"
	StateUnregistered       State = "unregistered"
	StateIdle               State = "idle"
	StateAwaitingAIResponse State = "awaiting_ai_response"
	StateOperatorRequested  State = "operator_requested"
)

// Role is the author of a transcript message.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleOperator Role = "operator"
	RoleAI       Role = "ai"
)

// Message is one transcript entry.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	// Streaming marks the placeholder that accumulates an AI reply.
	Streaming bool `json:"streaming,omitempty"`
}

// Customer is the registration form.
type Customer = crm.Customer

// Backend is the remote customer-chat API.
type Backend interface {
	CreateSession(ctx context.Context, customer crm.Customer) (string, error)
	SaveMessage(ctx context.Context, sessionID, message string, kind crm.MessageType) error
	StreamAIResponse(ctx context.Context, sessionID, message string, onChunk func(string)) error
	RequestOperator(ctx context.Context, sessionID string) error
}

// Errors returned by session operations.
var (
	ErrBusy              = domain.StateError("a reply is already in progress", nil)
	ErrOperatorRequested = domain.StateError("an operator has been requested", nil)
	ErrNotRegistered     = domain.StateError("session is not registered", nil)
	ErrNotOpen           = domain.StateError("chat is not open", nil)
	ErrSessionReset      = domain.StateError("session was closed while the request was in flight", nil)
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const sentinelPrefix = "streaming-"

// Texts are the canned messages a session appends.
type Texts struct {
	Welcome  string
	Farewell string
	AIError  string
}

// DefaultTexts returns the Italian canned messages.
func DefaultTexts() Texts {
	return Texts{
		Welcome:  "Ciao! Sono l'assistente virtuale. Come posso aiutarti oggi?",
		Farewell: "Grazie! Un operatore ti contatterà al più presto. Questa chat verrà chiusa a breve.",
		AIError:  "Mi dispiace, si è verificato un errore. Riprova tra qualche istante.",
	}
}

// Config configures a session.
type Config struct {
	OperatorCloseDelay time.Duration
	Texts              Texts
	Clock              Clock
	NewID              func() string
}

func (c Config) withDefaults() Config {
	if c.OperatorCloseDelay <= 0 {
		c.OperatorCloseDelay = 3 * time.Second
	}
	def := DefaultTexts()
	if c.Texts.Welcome == "" {
		c.Texts.Welcome = def.Welcome
	}
	if c.Texts.Farewell == "" {
		c.Texts.Farewell = def.Farewell
	}
	if c.Texts.AIError == "" {
		c.Texts.AIError = def.AIError
	}
	if c.Clock == nil {
		c.Clock = SystemClock()
	}
	if c.NewID == nil {
		c.NewID = func() string { return uuid.NewString() }
	}
	return c
}

// View is an immutable snapshot of a session.
type View struct {
	State                State     `json:"state"`
	SessionID            string    `json:"sessionId,omitempty"`
	Customer             *Customer `json:"customer,omitempty"`
	Messages             []Message `json:"messages"`
	HasRequestedOperator bool      `json:"hasRequestedOperator"`
	Loading              bool      `json:"loading"`
	InputEnabled         bool      `json:"inputEnabled"`
}

// Session is one customer conversation. It is safe for concurrent use; at
// most one AI reply is in flight at a time.
type Session struct {
	backend Backend
	cfg     Config
	logger  *observability.Logger

	mu                   sync.Mutex
	state                State
	generation           uint64 // bumped on every reset
	sessionID            string
	customer             Customer
	messages             []Message
	hasRequestedOperator bool
	loading              bool
	requestingOperator   bool
	activeRequest        string // correlation id of the in-flight AI reply
	closeTimer           Timer

	subs    map[int]chan View
	nextSub int
}

// NewSession creates a closed session.
func NewSession(backend Backend, cfg Config, logger *observability.Logger) *Session {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Session{
		backend:  backend,
		cfg:      cfg.withDefaults(),
		logger:   logger.WithComponent("chat"),
		state:    StateClosed,
		messages: []Message{},
		subs:     map[int]chan View{},
	}
}

// Open shows the widget. A closed session becomes unregistered; otherwise
// nothing changes.
func (s *Session) Open() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		s.state = StateUnregistered
		s.publishLocked()
	}
	return s.viewLocked()
}

// ValidateCustomer checks that every field is present and the email looks
// like one.
func ValidateCustomer(c Customer) (Customer, error) {
	c = Customer{
		FirstName: strings.TrimSpace(c.FirstName),
		LastName:  strings.TrimSpace(c.LastName),
		Email:     strings.TrimSpace(c.Email),
		Phone:     strings.TrimSpace(c.Phone),
	}
	if c.FirstName == "" || c.LastName == "" || c.Email == "" || c.Phone == "" {
		return c, domain.ValidationError("first name, last name, email and phone are required", nil)
	}
	if !emailPattern.MatchString(c.Email) {
		return c, domain.ValidationError("email address is not valid", nil)
	}
	return c, nil
}

// Register validates the customer and opens a remote session. On any failure
// the session is left unregistered.
func (s *Session) Register(ctx context.Context, customer Customer) error {
	customer, err := ValidateCustomer(customer)
	if err != nil {
		return err
	}

	s.mu.Lock()
	switch {
	case s.state == StateClosed:
		s.mu.Unlock()
		return ErrNotOpen
	case s.state != StateUnregistered:
		s.mu.Unlock()
		return domain.StateError("session is already registered", nil)
	case s.loading:
		s.mu.Unlock()
		return ErrBusy
	}
	s.loading = true
	gen := s.generation
	s.publishLocked()
	s.mu.Unlock()

	sessionID, err := s.backend.CreateSession(ctx, customer)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		return ErrSessionReset
	}
	s.loading = false
	if err != nil {
		s.logger.WithContext(ctx).Warn().Err(err).Msg("Chat registration failed")
		s.publishLocked()
		return err
	}

	s.sessionID = sessionID
	s.customer = customer
	s.state = StateIdle
	s.appendLocked(RoleAI, s.cfg.Texts.Welcome)
	s.logger.WithContext(ctx).Info().Str("session_id", sessionID).Msg("Chat session registered")
	s.publishLocked()
	return nil
}

// Exchange is one customer message awaiting its AI reply.
type Exchange struct {
	s          *Session
	generation uint64
	requestID  string
	sessionID  string
	text       string
}

// RequestID is the correlation id of the reply.
func (e *Exchange) RequestID() string { return e.requestID }

// Submit appends the customer message and marks the session as awaiting a
// reply. The reply is produced by Complete.
func (s *Session) Submit(text string) (*Exchange, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ValidationError("message is empty", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.state == StateClosed:
		return nil, ErrNotOpen
	case s.sessionID == "":
		return nil, ErrNotRegistered
	case s.hasRequestedOperator:
		return nil, ErrOperatorRequested
	case s.loading:
		return nil, ErrBusy
	}

	s.appendLocked(RoleCustomer, text)
	s.loading = true
	s.state = StateAwaitingAIResponse
	s.activeRequest = s.cfg.NewID()
	s.publishLocked()

	return &Exchange{
		s:          s,
		generation: s.generation,
		requestID:  s.activeRequest,
		sessionID:  s.sessionID,
		text:       text,
	}, nil
}

// Complete persists the customer message and streams the AI reply into the
// transcript. Persistence failures are only logged; a stream failure appends
// one error message. Nothing is applied once the session was reset, the
// operator was requested, or another request became active.
func (e *Exchange) Complete(ctx context.Context) {
	s := e.s
	log := s.logger.WithContext(ctx)

	if err := s.backend.SaveMessage(ctx, e.sessionID, e.text, crm.MessageTypeCustomer); err != nil {
		log.Warn().Err(err).Str("session_id", e.sessionID).Msg("Failed to persist customer message")
	}

	if !s.isCurrent(e) {
		s.finish(e, nil)
		return
	}

	err := s.backend.StreamAIResponse(ctx, e.sessionID, e.text, func(chunk string) {
		s.appendChunk(e, chunk)
	})
	if err != nil {
		log.Warn().Err(err).Str("session_id", e.sessionID).Str("request_id", e.requestID).Msg("AI response failed")
	}
	s.finish(e, err)
}

// SendMessage submits text and waits for the AI reply.
func (s *Session) SendMessage(ctx context.Context, text string) error {
	ex, err := s.Submit(text)
	if err != nil {
		return err
	}
	ex.Complete(ctx)
	return nil
}

func (s *Session) isCurrent(e *Exchange) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked(e)
}

func (s *Session) currentLocked(e *Exchange) bool {
	return s.generation == e.generation && s.activeRequest == e.requestID && !s.hasRequestedOperator
}

func (s *Session) appendChunk(e *Exchange, chunk string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.currentLocked(e) {
		return
	}

	id := sentinelPrefix + e.requestID
	if i := s.indexLocked(id); i >= 0 {
		s.messages[i].Content += chunk
	} else {
		s.messages = append(s.messages, Message{
			ID:        id,
			Role:      RoleAI,
			Content:   chunk,
			CreatedAt: s.cfg.Clock.Now(),
			Streaming: true,
		})
	}
	s.publishLocked()
}

// finish commits the reply of e: the placeholder is replaced by a final
// message with a fresh id, or by one error message when err is set.
func (s *Session) finish(e *Exchange, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != e.generation || s.activeRequest != e.requestID {
		return
	}

	content := ""
	if i := s.indexLocked(sentinelPrefix + e.requestID); i >= 0 {
		content = s.messages[i].Content
		s.messages = append(s.messages[:i:i], s.messages[i+1:]...)
	}

	if !s.hasRequestedOperator {
		switch {
		case err != nil:
			s.appendLocked(RoleAI, s.cfg.Texts.AIError)
		case content != "":
			s.appendLocked(RoleAI, content)
		}
		s.state = StateIdle
	}

	s.loading = false
	s.activeRequest = ""
	s.publishLocked()
}

// RequestOperator hands the conversation to a human. It succeeds at most once
// per session; later calls are no-ops. On success a farewell is appended,
// input is disabled and the session closes itself after the configured delay.
func (s *Session) RequestOperator(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.state == StateClosed:
		s.mu.Unlock()
		return ErrNotOpen
	case s.sessionID == "":
		s.mu.Unlock()
		return ErrNotRegistered
	case s.hasRequestedOperator || s.requestingOperator:
		s.mu.Unlock()
		return nil
	}
	s.requestingOperator = true
	gen := s.generation
	sessionID := s.sessionID
	s.mu.Unlock()

	err := s.backend.RequestOperator(ctx, sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		return ErrSessionReset
	}
	s.requestingOperator = false
	if err != nil {
		s.logger.WithContext(ctx).Warn().Err(err).Str("session_id", sessionID).Msg("Operator request failed")
		return err
	}

	s.hasRequestedOperator = true
	s.state = StateOperatorRequested
	if s.activeRequest != "" {
		if i := s.indexLocked(sentinelPrefix + s.activeRequest); i >= 0 {
			s.messages = append(s.messages[:i:i], s.messages[i+1:]...)
		}
		s.activeRequest = ""
	}
	s.loading = false
	s.appendLocked(RoleAI, s.cfg.Texts.Farewell)

	s.closeTimer = s.cfg.Clock.AfterFunc(s.cfg.OperatorCloseDelay, func() {
		s.closeGeneration(gen)
	})
	s.logger.WithContext(ctx).Info().Str("session_id", sessionID).Msg("Operator requested")
	s.publishLocked()
	return nil
}

func (s *Session) closeGeneration(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return
	}
	s.resetLocked()
}

// Close resets the session completely. Replies still in flight are ignored
// when they arrive.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Session) resetLocked() {
	if s.closeTimer != nil {
		s.closeTimer.Stop()
		s.closeTimer = nil
	}
	s.generation++
	s.state = StateClosed
	s.sessionID = ""
	s.customer = Customer{}
	s.messages = []Message{}
	s.hasRequestedOperator = false
	s.loading = false
	s.requestingOperator = false
	s.activeRequest = ""
	s.publishLocked()
}

// Snapshot returns the current view.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Busy reports whether a registration or reply is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading || s.requestingOperator
}

// Watched reports whether any subscriber is attached.
func (s *Session) Watched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs) > 0
}

// Subscribe streams a view after every change. Only the latest view is kept
// for a slow reader. cancel must be called to release the subscription.
func (s *Session) Subscribe() (<-chan View, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan View, 1)
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.viewLocked()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Session) publishLocked() {
	if len(s.subs) == 0 {
		return
	}
	v := s.viewLocked()
	for _, ch := range s.subs {
		select {
		case ch <- v:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
}

func (s *Session) appendLocked(role Role, content string) {
	s.messages = append(s.messages, Message{
		ID:        s.cfg.NewID(),
		Role:      role,
		Content:   content,
		CreatedAt: s.cfg.Clock.Now(),
	})
}

func (s *Session) indexLocked(id string) int {
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) viewLocked() View {
	msgs := make([]Message, len(s.messages))
	copy(msgs, s.messages)

	v := View{
		State:                s.state,
		SessionID:            s.sessionID,
		Messages:             msgs,
		HasRequestedOperator: s.hasRequestedOperator,
		Loading:              s.loading,
		InputEnabled:         s.sessionID != "" && !s.hasRequestedOperator && !s.loading,
	}
	if s.sessionID != "" {
		c := s.customer
		v.Customer = &c
	}
	return v
}
