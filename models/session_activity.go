package models

import "time"

// SessionActivity tracks the last request seen for a session id. Dashboard visitor counts read from here.
type SessionActivity struct {
	ID                  string     `gorm:"primaryKey;size:64" json:"id"`
	UserID              *uint      `gorm:"index" json:"user_id"`
	IPAddress           string     `gorm:"size:45" json:"ip_address"`
	UserAgent           string     `gorm:"type:text" json:"user_agent"`
	LastActivity        int64      `gorm:"index;not null" json:"last_activity"`
	LocationLatitude    *float64   `json:"location_latitude"`
	LocationLongitude   *float64   `json:"location_longitude"`
	LocationLastUpdated *time.Time `json:"location_last_updated"`
}
