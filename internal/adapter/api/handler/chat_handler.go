package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"togetherly/internal/usecase"
	"togetherly/pkg/response"
	"togetherly/pkg/utils"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type startThreadRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type sendMessageRequest struct {
	Text      string `json:"text" validate:"max=4000"`
	MediaURL  string `json:"media_url,omitempty" validate:"omitempty,url"`
	MediaType string `json:"media_type,omitempty" validate:"omitempty,oneof=image video"`
}

type reactionRequest struct {
	Emoji string `json:"emoji" validate:"max=32"`
}

// StartThread returns the caller's thread with the user owning the given
// email, creating it on first contact.
func (h *ChatHandler) StartThread(c echo.Context) error {
	var req startThreadRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	thread, created, err := h.chatUseCase.StartOrGetThread(c.Request().Context(), currentUserID(c), req.Email)
	if err != nil {
		return response.Error(c, err)
	}

	if created {
		return response.Created(c, thread)
	}
	return response.Success(c, thread)
}

func (h *ChatHandler) ListThreads(c echo.Context) error {
	params := utils.GetPaginationParams(c, 20)

	threads, total, err := h.chatUseCase.ListThreads(c.Request().Context(), currentUserID(c), params.Limit, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, threads, total, params.Limit, params.Offset)
}

func (h *ChatHandler) GetThread(c echo.Context) error {
	thread, err := h.chatUseCase.GetThread(c.Request().Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, thread)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), currentUserID(c), c.Param("id"), usecase.SendMessageInput{
		Text:      req.Text,
		MediaURL:  req.MediaURL,
		MediaType: req.MediaType,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

func (h *ChatHandler) ListMessages(c echo.Context) error {
	params := utils.GetPaginationParams(c, 50)

	messages, total, err := h.chatUseCase.ListMessages(c.Request().Context(), currentUserID(c), c.Param("id"), params.Limit, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessPaginated(c, messages, total, params.Limit, params.Offset)
}

// ListRoomMessages lists messages that passed moderation for the thread.
func (h *ChatHandler) ListRoomMessages(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	messages, err := h.chatUseCase.ListRoomMessages(c.Request().Context(), currentUserID(c), c.Param("id"), limit)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

func (h *ChatHandler) MarkThreadRead(c echo.Context) error {
	threadID := c.Param("id")
	if err := h.chatUseCase.MarkThreadRead(c.Request().Context(), currentUserID(c), threadID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"thread_id": threadID,
		"status":    "read",
	})
}

func (h *ChatHandler) ReactToMessage(c echo.Context) error {
	var req reactionRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	messageID := c.Param("messageId")
	err := h.chatUseCase.ReactToMessage(c.Request().Context(), currentUserID(c), c.Param("id"), messageID, req.Emoji)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"message_id": messageID,
		"emoji":      req.Emoji,
	})
}
