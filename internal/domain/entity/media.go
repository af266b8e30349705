package entity

import (
	"time"
)

// MediaFile records one chat upload so it can be traced back to its owner.
type MediaFile struct {
	ID          string    `json:"id" firestore:"id"`
	URL         string    `json:"url" firestore:"url"`
	UploadedBy  string    `json:"uploaded_by" firestore:"uploadedBy"`
	MediaType   string    `json:"media_type" firestore:"mediaType"`
	ContentType string    `json:"content_type" firestore:"contentType"`
	Size        int64     `json:"size" firestore:"size"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
}
