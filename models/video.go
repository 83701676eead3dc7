package models

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gorm.io/gorm"
)

// PublicStoragePrefix is the URL prefix stored blobs are served under.
const PublicStoragePrefix = "/storage/"

// Video is an uploaded clip with an optional thumbnail.
type Video struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	Title              string    `gorm:"size:255;not null" json:"title"`
	Description        *string   `gorm:"type:text" json:"description"`
	URL                string    `gorm:"size:1024;not null" json:"url"`
	Thumbnail          *string   `gorm:"size:1024" json:"thumbnail"`
	CreatedAt          time.Time `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	FormattedCreatedAt string    `gorm:"-" json:"formatted_created_at"`
}

// NormalizeStoragePath turns a raw storage path into its public form. It is idempotent.
func NormalizeStoragePath(p string) string {
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "/") {
		return p
	}
	return PublicStoragePrefix + p
}

func normalizeOptional(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	n := NormalizeStoragePath(*p)
	return &n
}

// BeforeSave stores paths in public form so reads never need to guess.
func (v *Video) BeforeSave(tx *gorm.DB) error {
	v.URL = NormalizeStoragePath(v.URL)
	v.Thumbnail = normalizeOptional(v.Thumbnail)
	return nil
}

// AfterFind normalizes rows written before paths were stored in public form.
func (v *Video) AfterFind(tx *gorm.DB) error {
	v.URL = NormalizeStoragePath(v.URL)
	v.Thumbnail = normalizeOptional(v.Thumbnail)
	v.FormattedCreatedAt = HumanizeSince(v.CreatedAt, time.Now())
	return nil
}

// AfterSave keeps the relative timestamp populated on freshly written rows.
func (v *Video) AfterSave(tx *gorm.DB) error {
	v.FormattedCreatedAt = HumanizeSince(v.CreatedAt, time.Now())
	return nil
}

// HumanizeSince renders t relative to now, e.g. "3 hours ago". The zero time renders empty.
func HumanizeSince(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
