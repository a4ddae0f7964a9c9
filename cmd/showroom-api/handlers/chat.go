package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spherical-ai/spherical/libs/showroom/cmd/showroom-api/middleware"
	"github.com/spherical-ai/spherical/libs/showroom/internal/chat"
	"github.com/spherical-ai/spherical/libs/showroom/internal/observability"
)

const sseHeartbeat = 15 * time.Second

// ChatHandler proxies the customer chat widget to per-visitor sessions.
type ChatHandler struct {
	logger  *observability.Logger
	manager *chat.Manager
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(logger *observability.Logger, manager *chat.Manager) *ChatHandler {
	return &ChatHandler{
		logger:  logger.WithComponent("chat_handler"),
		manager: manager,
	}
}

// RegisterRequestDTO is the registration form.
type RegisterRequestDTO struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// MessageRequestDTO is one customer message.
type MessageRequestDTO struct {
	Message string `json:"message"`
}

func (h *ChatHandler) session(r *http.Request) *chat.Session {
	return h.manager.Session(middleware.VisitorFromContext(r.Context()))
}

// Get handles GET /chat.
func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session(r).Snapshot())
}

// Open handles POST /chat/open.
func (h *ChatHandler) Open(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session(r).Open())
}

// Register handles POST /chat/register.
func (h *ChatHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, h.logger, "invalid request body", err)
		return
	}

	s := h.session(r)
	err := s.Register(r.Context(), chat.Customer{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		writeDomainError(w, r, h.logger, "chat registration failed", err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// SendMessage handles POST /chat/messages. The reply streams in the
// background and is observed through /chat/events; with ?wait=true the
// response is written once the reply is complete.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, h.logger, "invalid request body", err)
		return
	}

	visitorID := middleware.VisitorFromContext(r.Context())
	ex, err := h.manager.Submit(visitorID, req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrRateLimited) {
			writeError(w, http.StatusTooManyRequests, "too many messages", "")
			return
		}
		writeDomainError(w, r, h.logger, "message rejected", err)
		return
	}

	s := h.manager.Session(visitorID)
	if r.URL.Query().Get("wait") == "true" {
		ex.Complete(r.Context())
		writeJSON(w, http.StatusOK, s.Snapshot())
		return
	}

	go ex.Complete(context.WithoutCancel(r.Context()))
	writeJSON(w, http.StatusAccepted, s.Snapshot())
}

// RequestOperator handles POST /chat/operator.
func (h *ChatHandler) RequestOperator(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	if err := s.RequestOperator(r.Context()); err != nil {
		writeDomainError(w, r, h.logger, "operator request failed", err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// Close handles POST /chat/close.
func (h *ChatHandler) Close(w http.ResponseWriter, r *http.Request) {
	s := h.session(r)
	s.Close()
	writeJSON(w, http.StatusOK, s.Snapshot())
}

// Events handles GET /chat/events: a server-sent event per session change.
func (h *ChatHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported", "")
		return
	}

	updates, cancel := h.session(r).Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case view, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(view)
			if err != nil {
				h.logger.WithContext(r.Context()).Error().Err(err).Msg("Failed to encode chat event")
				return
			}
			fmt.Fprintf(w, "event: session\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
