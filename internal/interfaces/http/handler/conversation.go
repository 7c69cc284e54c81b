package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	messagingapp "github.com/rentnest/backend/internal/application/messaging"
	"github.com/rentnest/backend/internal/domain/identity"
	"github.com/rentnest/backend/internal/domain/messaging"
	"github.com/rentnest/backend/internal/domain/shared"
	"github.com/rentnest/backend/internal/infrastructure/logger"
	"github.com/rentnest/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// streamWriteTimeout bounds each SSE write. The stream outlives the server
// WriteTimeout, so the deadline is moved forward before every event.
const streamWriteTimeout = 10 * time.Second

// MessagingService is the chat API used by ConversationHandler
type MessagingService interface {
	Start(ctx context.Context, actor identity.Actor, input messagingapp.StartInput) (*messagingapp.ConversationResult, bool, error)
	List(ctx context.Context, actor identity.Actor) ([]messagingapp.ConversationResult, error)
	Messages(ctx context.Context, actor identity.Actor, conversationID uuid.UUID, page, pageSize int) (*shared.Paginated[messagingapp.MessageResult], error)
	Send(ctx context.Context, actor identity.Actor, conversationID uuid.UUID, body string) (*messagingapp.MessageResult, error)
	MarkRead(ctx context.Context, actor identity.Actor, conversationID uuid.UUID) (int64, error)
	Subscribe(ctx context.Context, userID uuid.UUID) (<-chan messaging.Notification, func(), error)
}

// StartConversationRequest opens a conversation
type StartConversationRequest struct {
	RecipientID uuid.UUID  `json:"recipient_id" binding:"required" swaggertype:"string" format:"uuid"`
	PropertyID  *uuid.UUID `json:"property_id" swaggertype:"string" format:"uuid"`
	Message     string     `json:"message" binding:"max=5000"`
}

// SendMessageRequest is one chat message
type SendMessageRequest struct {
	Body string `json:"body" binding:"required,max=5000" example:"Is the flat still available?"`
}

// SSEMessage is one server-sent event
type SSEMessage struct {
	Event string
	Data  string
	ID    string
}

// ConversationHandler handles messaging HTTP requests and the message stream
type ConversationHandler struct {
	BaseHandler
	messagingService MessagingService
	logger           *zap.Logger
	heartbeat        time.Duration
	maxStreams       int64
	streams          atomic.Int64
}

// ConversationHandlerOption is a functional option for configuring the handler
type ConversationHandlerOption func(*ConversationHandler)

// WithStreamLogger sets the logger for stream lifecycle events
func WithStreamLogger(log *zap.Logger) ConversationHandlerOption {
	return func(h *ConversationHandler) {
		h.logger = log
	}
}

// WithStreamHeartbeat sets the heartbeat interval
func WithStreamHeartbeat(interval time.Duration) ConversationHandlerOption {
	return func(h *ConversationHandler) {
		if interval > 0 {
			h.heartbeat = interval
		}
	}
}

// WithMaxStreams caps concurrent streams on this instance; 0 means unlimited
func WithMaxStreams(n int) ConversationHandlerOption {
	return func(h *ConversationHandler) {
		h.maxStreams = int64(n)
	}
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(messagingService MessagingService, opts ...ConversationHandlerOption) *ConversationHandler {
	h := &ConversationHandler{
		messagingService: messagingService,
		logger:           zap.NewNop(),
		heartbeat:        30 * time.Second,
		maxStreams:       10000,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start godoc
// @Summary      Start conversation
// @Description  Returns the existing conversation (200) or creates one (201). An optional first message is sent either way.
// @Tags         conversations
// @Accept       json
// @Produce      json
// @Param        request body StartConversationRequest true "Recipient and optional listing"
// @Success      200 {object} dto.Response{data=messagingapp.ConversationResult}
// @Success      201 {object} dto.Response{data=messagingapp.ConversationResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /conversations [post]
func (h *ConversationHandler) Start(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req StartConversationRequest
	if !h.bind(c, &req) {
		return
	}

	conv, created, err := h.messagingService.Start(c.Request.Context(), actor, messagingapp.StartInput{
		RecipientID: req.RecipientID,
		PropertyID:  req.PropertyID,
		Message:     req.Message,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if created {
		h.Created(c, conv)
		return
	}
	h.Success(c, conv)
}

// List godoc
// @Summary      List conversations
// @Description  The caller's conversations, most recent first, with unread counts
// @Tags         conversations
// @Produce      json
// @Success      200 {object} dto.Response{data=[]messagingapp.ConversationResult}
// @Security     BearerAuth
// @Router       /conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	conversations, err := h.messagingService.List(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if conversations == nil {
		conversations = []messagingapp.ConversationResult{}
	}

	h.Success(c, conversations)
}

// Messages godoc
// @Summary      List messages
// @Description  Messages of a conversation, oldest first
// @Tags         conversations
// @Produce      json
// @Param        id path string true "Conversation ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]messagingapp.MessageResult,meta=dto.Meta}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /conversations/{id}/messages [get]
func (h *ConversationHandler) Messages(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	page, pageSize := pageQuery(c)

	result, err := h.messagingService.Messages(c.Request.Context(), actor, id, page, pageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	Paginated(&h.BaseHandler, c, result)
}

// Send godoc
// @Summary      Send message
// @Tags         conversations
// @Accept       json
// @Produce      json
// @Param        id path string true "Conversation ID" format(uuid)
// @Param        request body SendMessageRequest true "Message"
// @Success      201 {object} dto.Response{data=messagingapp.MessageResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /conversations/{id}/messages [post]
func (h *ConversationHandler) Send(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req SendMessageRequest
	if !h.bind(c, &req) {
		return
	}

	msg, err := h.messagingService.Send(c.Request.Context(), actor, id, req.Body)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, msg)
}

// CountData reports how many messages a call touched
type CountData struct {
	Count int64 `json:"count"`
}

// MarkRead godoc
// @Summary      Mark conversation read
// @Description  Marks every message from the other participant as read
// @Tags         conversations
// @Produce      json
// @Param        id path string true "Conversation ID" format(uuid)
// @Success      200 {object} dto.Response{data=CountData}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /conversations/{id}/read [put]
func (h *ConversationHandler) MarkRead(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	count, err := h.messagingService.MarkRead(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, CountData{Count: count})
}

// Stream godoc
//
//	@Summary		Stream new messages via SSE
//	@Description	Server-Sent Events with a "message" event per incoming message and a periodic "heartbeat".
//	@Description	EventSource clients may pass the token as the access_token query parameter.
//	@Tags			conversations
//	@Produce		text/event-stream
//	@Param			access_token	query		string	false	"Access token for clients that cannot set headers"
//	@Success		200				{string}	string	"SSE stream"
//	@Failure		401				{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		503				{object}	dto.Response{error=dto.ErrorInfo}
//	@Security		BearerAuth
//	@Router			/messages/stream [get]
func (h *ConversationHandler) Stream(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	if n := h.streams.Add(1); h.maxStreams > 0 && n > h.maxStreams {
		h.streams.Add(-1)
		h.Fail(c, dto.ErrCodeServiceUnavailable, "Maximum number of message streams reached")
		return
	}
	defer h.streams.Add(-1)

	ctx := c.Request.Context()
	notifications, unsubscribe, err := h.messagingService.Subscribe(ctx, actor.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer unsubscribe()

	log := logger.FromContextOr(ctx, h.logger)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	c.Status(http.StatusOK)

	streamID := uuid.New().String()
	log.Info("Message stream opened", zap.String("stream_id", streamID))
	defer log.Info("Message stream closed", zap.String("stream_id", streamID))

	rc := http.NewResponseController(c.Writer)
	emit := func(msg SSEMessage) {
		if err := rc.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
			log.Debug("Failed to extend stream write deadline", zap.Error(err))
		}
		h.sendEvent(c.Writer, msg)
		c.Writer.Flush()
	}

	emit(SSEMessage{
		Event: "connected",
		Data:  fmt.Sprintf(`{"stream_id":"%s","timestamp":%d}`, streamID, time.Now().Unix()),
	})

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			emit(SSEMessage{
				Event: "heartbeat",
				Data:  fmt.Sprintf(`{"timestamp":%d}`, time.Now().Unix()),
			})
		case n, ok := <-notifications:
			if !ok {
				return
			}
			data, err := json.Marshal(n)
			if err != nil {
				log.Error("Failed to marshal message event", zap.Error(err))
				continue
			}
			emit(SSEMessage{
				Event: "message",
				Data:  string(data),
				ID:    n.MessageID.String(),
			})
		}
	}
}

// ActiveStreams returns the number of open message streams on this instance
func (h *ConversationHandler) ActiveStreams() int64 {
	return h.streams.Load()
}

// sendEvent writes an SSE event to the response writer
func (h *ConversationHandler) sendEvent(w io.Writer, msg SSEMessage) {
	if msg.Event != "" {
		fmt.Fprintf(w, "event: %s\n", msg.Event)
	}
	if msg.ID != "" {
		fmt.Fprintf(w, "id: %s\n", msg.ID)
	}
	fmt.Fprintf(w, "data: %s\n\n", msg.Data)
}
