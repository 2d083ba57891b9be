package models

import "time"

// StatusChange is one immutable entry of a request's status ledger.
// OldStatus is nil only on the entry written at request creation. For any
// two consecutive entries of the same request ordered by time, the earlier
// NewStatus equals the later OldStatus.
type StatusChange struct {
	ID          string    `db:"id" json:"id"`
	RequestID   string    `db:"request_id" json:"request_id"`
	OldStatus   *string   `db:"old_status" json:"old_status,omitempty"`
	NewStatus   string    `db:"new_status" json:"new_status"`
	ChangedByID string    `db:"changed_by_id" json:"changed_by_id"`
	Comments    *string   `db:"comments" json:"comments,omitempty"`
	ChangeDate  time.Time `db:"change_date" json:"change_date"`
}
