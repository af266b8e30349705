package handler

import (
	"github.com/labstack/echo/v4"

	"togetherly/internal/usecase"
	"togetherly/pkg/errors"
	"togetherly/pkg/logger"
	"togetherly/pkg/response"
	"togetherly/pkg/utils"
)

type MediaHandler struct {
	mediaUseCase *usecase.MediaUseCase
}

func NewMediaHandler(mediaUseCase *usecase.MediaUseCase) *MediaHandler {
	return &MediaHandler{
		mediaUseCase: mediaUseCase,
	}
}

type deleteMediaRequest struct {
	MediaURL string `json:"media_url" validate:"required,url"`
}

func (h *MediaHandler) Upload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, errors.BadRequest("Missing or invalid file", err))
	}

	contentType := file.Header.Get("Content-Type")
	logger.Debug("Received media: %s, size: %d bytes, type: %s", file.Filename, file.Size, contentType)

	src, err := file.Open()
	if err != nil {
		return response.Error(c, errors.BadRequest("Failed to read file", err))
	}
	defer src.Close()

	upload, err := h.mediaUseCase.Upload(c.Request().Context(), currentUserID(c), src, contentType, file.Size)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, upload)
}

func (h *MediaHandler) Delete(c echo.Context) error {
	var req deleteMediaRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.mediaUseCase.Delete(c.Request().Context(), currentUserID(c), req.MediaURL); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "deleted"})
}

func (h *MediaHandler) List(c echo.Context) error {
	params := utils.GetPaginationParams(c, 20)

	files, err := h.mediaUseCase.ListMine(c.Request().Context(), currentUserID(c), params.Limit, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, files)
}
