package usecase

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"togetherly/internal/domain/entity"
	"togetherly/internal/domain/repository"
	"togetherly/internal/domain/service"
	"togetherly/internal/infrastructure/ratelimit"
	"togetherly/pkg/errors"
	"togetherly/pkg/logger"
)

const MaxMediaSize = 25 << 20

type MediaUseCase struct {
	fileService service.FileUploadService
	mediaRepo   repository.MediaRepository
	rateLimiter *ratelimit.RateLimiter
}

func NewMediaUseCase(fileService service.FileUploadService, mediaRepo repository.MediaRepository, rateLimiter *ratelimit.RateLimiter) *MediaUseCase {
	return &MediaUseCase{
		fileService: fileService,
		mediaRepo:   mediaRepo,
		rateLimiter: rateLimiter,
	}
}

type MediaUpload struct {
	MediaURL  string `json:"media_url"`
	MediaType string `json:"media_type"`
}

// MediaTypeFor maps a MIME type to the chat media type, or "" when the
// content is neither image nor video.
func MediaTypeFor(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return entity.MediaTypeImage
	case strings.HasPrefix(contentType, "video/"):
		return entity.MediaTypeVideo
	}
	return ""
}

// Upload stores chat media under the caller's folder and returns the values
// SendMessage expects.
func (uc *MediaUseCase) Upload(ctx context.Context, userID string, file io.Reader, contentType string, size int64) (*MediaUpload, error) {
	if userID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}
	if uc.fileService == nil {
		return nil, errors.Unavailable("Media uploads are not configured", nil)
	}

	mediaType := MediaTypeFor(contentType)
	if mediaType == "" {
		return nil, errors.BadRequest("Only image and video uploads are supported", nil)
	}
	if size <= 0 || size > MaxMediaSize {
		return nil, errors.BadRequest("File must be between 1 byte and 25MB", nil)
	}

	if allowed, _ := uc.rateLimiter.Allow(userID, ratelimit.ActionUpload); !allowed {
		return nil, errors.TooManyRequests("Too many uploads, please wait")
	}

	url, err := uc.fileService.UploadFile(ctx, file, contentType, "chat-media/"+userID, true)
	if err != nil {
		logger.Error("Media upload failed for user %s: %v", userID, err)
		return nil, errors.Internal("Failed to upload media", err)
	}

	record := &entity.MediaFile{
		ID:          uuid.New().String(),
		URL:         url,
		UploadedBy:  userID,
		MediaType:   mediaType,
		ContentType: contentType,
		Size:        size,
		CreatedAt:   time.Now(),
	}
	if err := uc.mediaRepo.Create(ctx, record); err != nil {
		// Delete falls back to the folder check for unrecorded uploads.
		logger.Warn("Failed to record media %s for user %s: %v", url, userID, err)
	}

	return &MediaUpload{MediaURL: url, MediaType: mediaType}, nil
}

// ListMine returns the caller's uploads, newest first.
func (uc *MediaUseCase) ListMine(ctx context.Context, userID string, limit, offset int) ([]*entity.MediaFile, error) {
	if userID == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}
	return uc.mediaRepo.ListByUploader(ctx, userID, limit, offset)
}

// Delete removes media the caller uploaded. Ownership comes from the upload
// record; without one, URLs outside the caller's folder are refused.
func (uc *MediaUseCase) Delete(ctx context.Context, userID, mediaURL string) error {
	if userID == "" {
		return errors.Unauthorized("Authentication required", nil)
	}
	if uc.fileService == nil {
		return errors.Unavailable("Media uploads are not configured", nil)
	}

	record, err := uc.mediaRepo.GetByURL(ctx, mediaURL)
	switch {
	case err == nil:
		if record.UploadedBy != userID {
			return errors.Forbidden("You can only delete your own media", nil)
		}
	case errors.Is(err, "NOT_FOUND"):
		if !strings.Contains(mediaURL, "/public/chat-media/"+userID+"/") {
			return errors.Forbidden("You can only delete your own media", nil)
		}
	default:
		return err
	}

	if err := uc.fileService.DeleteFile(ctx, mediaURL); err != nil {
		return errors.BadRequest("Failed to delete media", err)
	}

	if record != nil {
		if err := uc.mediaRepo.Delete(ctx, record.ID); err != nil {
			logger.Warn("Failed to remove media record %s: %v", record.ID, err)
		}
	}
	return nil
}
