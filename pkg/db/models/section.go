package models

import (
	"time"

	"github.com/google/uuid"
)

// Section is a CMS content block keyed by slug.
type Section struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Slug      string    `gorm:"column:slug;not null;uniqueIndex"`
	Title     string    `gorm:"column:title"`
	Content   string    `gorm:"column:content"`
	ContentEn string    `gorm:"column:content_en"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
