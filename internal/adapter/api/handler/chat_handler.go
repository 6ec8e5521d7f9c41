package handler

import (
	"github.com/labstack/echo/v4"

	"veridax/internal/usecase"
	"veridax/pkg/errors"
	"veridax/pkg/logger"
	"veridax/pkg/response"
)

type ChatHandler struct {
	chatUseCase       *usecase.ChatUseCase
	attachmentUseCase *usecase.AttachmentUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase, attachmentUseCase *usecase.AttachmentUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase:       chatUseCase,
		attachmentUseCase: attachmentUseCase,
	}
}

type createConversationRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
}

type sendMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// ListConversations returns the authenticated user's conversations, most
// recently active first.
func (h *ChatHandler) ListConversations(c echo.Context) error {
	userID := c.Get("uid").(string)

	conversations, err := h.chatUseCase.ListConversations(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversations)
}

// CreateConversation returns the existing conversation with the recipient
// or creates an empty one.
func (h *ChatHandler) CreateConversation(c echo.Context) error {
	var req createConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	conversation, err := h.chatUseCase.GetOrCreateConversation(c.Request().Context(), userID, req.RecipientID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversation)
}

// ListMessages returns the full message log in append order.
func (h *ChatHandler) ListMessages(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)

	messages, err := h.chatUseCase.ListMessages(c.Request().Context(), userID, conversationID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

// SendMessage appends a text message to a conversation.
func (h *ChatHandler) SendMessage(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), userID, conversationID, req.Content)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// SendAttachment ingests a multipart upload through the attachment pipeline
// and appends the resulting attachment message. Membership is verified
// before the blob is stored, and a failed append removes the stored object,
// so a rejected request leaves no partial state.
func (h *ChatHandler) SendAttachment(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)

	if err := h.chatUseCase.AuthorizeParticipant(c.Request().Context(), userID, conversationID); err != nil {
		return response.Error(c, err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("Missing or invalid file", err))
	}

	logger.Debug("Attachment upload: %s, size %d, type %s", file.Filename, file.Size, file.Header.Get("Content-Type"))

	src, err := file.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Unable to read file", err))
	}
	defer src.Close()

	ingested, err := h.attachmentUseCase.Ingest(c.Request().Context(), usecase.IngestInput{
		Content:  src,
		Size:     file.Size,
		MimeType: file.Header.Get("Content-Type"),
		Filename: file.Filename,
	})
	if err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.SendAttachment(c.Request().Context(), userID, conversationID, usecase.AttachmentInput{
		Filename:  file.Filename,
		URL:       ingested.PublicURL,
		MediaType: ingested.MediaType,
	})
	if err != nil {
		h.attachmentUseCase.Discard(c.Request().Context(), ingested.StoredFilename)
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// SharedMedia returns the conversation's image and video attachments.
func (h *ChatHandler) SharedMedia(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)

	items, err := h.chatUseCase.SharedMedia(c.Request().Context(), userID, conversationID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, items)
}

// SharedFiles returns the conversation's non-media attachments.
func (h *ChatHandler) SharedFiles(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)

	items, err := h.chatUseCase.SharedFiles(c.Request().Context(), userID, conversationID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, items)
}

// SharedLinks returns the text messages containing hyperlinks.
func (h *ChatHandler) SharedLinks(c echo.Context) error {
	conversationID := c.Param("id")
	userID := c.Get("uid").(string)

	items, err := h.chatUseCase.SharedLinks(c.Request().Context(), userID, conversationID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, items)
}
