package message

import (
	"IMProject/logger"
	midsec "IMProject/middleware/security"
	"IMProject/module/message/model"
	"IMProject/tools/errs"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Store is the durable message log (mongo in production).
type Store interface {
	Append(ctx context.Context, m *model.Message) error
	History(ctx context.Context, a, b string) ([]model.Message, error)
}

// Deliverer is the live fan-out side (the chat router).
type Deliverer interface {
	Deliver(m *model.Message) error
}

// Publisher mirrors persisted messages to downstream consumers.
type Publisher interface {
	PublishMessage(m *model.Message)
}

type Handler struct {
	store  Store
	media  Uploader
	router Deliverer
	events Publisher
}

func NewHandler(store Store, media Uploader, router Deliverer, events Publisher) *Handler {
	return &Handler{store: store, media: media, router: router, events: events}
}

type sendRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// Send persists a message to :id and fans it out to the live connections of
// both parties. The response carries the saved message; clients dedupe the
// racing push by message id. Push failures never fail the request: the
// message is durable, real-time is best effort.
func (h *Handler) Send(c *gin.Context) {
	receiverID := c.Param("id")
	senderID := midsec.CallerID(c)

	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	if req.Text == "" && req.Image == "" {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("message text or image required"))
		return
	}

	imageURL := ""
	if req.Image != "" {
		url, err := h.media.Upload(c.Request.Context(), req.Image)
		if err != nil {
			c.JSON(http.StatusInternalServerError, errs.ErrInternal.WithDetail("image upload failed"))
			return
		}
		imageURL = url
	}

	m := &model.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       req.Text,
		Image:      imageURL,
	}
	if err := h.store.Append(c.Request.Context(), m); err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternal.WithDetail(err.Error()))
		return
	}

	if err := h.router.Deliver(m); err != nil {
		logger.Errorf("[message] deliver id=%s: %v", m.ID, err)
	}
	if h.events != nil {
		h.events.PublishMessage(m)
	}

	c.JSON(http.StatusCreated, m)
}

// History returns the ordered conversation between the caller and :id.
func (h *Handler) History(c *gin.Context) {
	msgs, err := h.store.History(c.Request.Context(), midsec.CallerID(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternal.WithDetail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, msgs)
}
