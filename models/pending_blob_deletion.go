package models

import "time"

// PendingBlobDeletion records a stored blob whose delete failed and must be retried.
// Each key has at most one row.
type PendingBlobDeletion struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"size:512;not null;uniqueIndex" json:"key"`
	Reason    string    `gorm:"size:255" json:"reason"`
	Attempts  int       `gorm:"not null;default:0" json:"attempts"`
	LastError string    `gorm:"type:text" json:"last_error"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}
