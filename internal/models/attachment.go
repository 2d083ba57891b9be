package models

import "time"

// Attachment is a file owned by exactly one request. Deletion of an
// attachment is independent of the request status; deleting the request
// cascades to its attachments.
type Attachment struct {
	ID               string    `db:"id" json:"id"`
	RequestID        string    `db:"request_id" json:"request_id"`
	Filename         string    `db:"filename" json:"-"`
	OriginalFilename string    `db:"original_filename" json:"original_filename"`
	FileSize         int64     `db:"file_size" json:"file_size"`
	UploadedByID     string    `db:"uploaded_by_id" json:"uploaded_by_id"`
	UploadDate       time.Time `db:"upload_date" json:"upload_date"`
}
