package dto

import "time"

// AttachmentDownload carries a time-limited signed download token.
type AttachmentDownload struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
