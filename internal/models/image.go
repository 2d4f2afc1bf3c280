package models

import (
	"time"

	"github.com/google/uuid"
)

// Image is a processed photo owned by at most one Person.
// Data is set when pixels live in the database, StorageKey when they live in a blob store.
type Image struct {
	ID         uuid.UUID `json:"id" db:"id" gorm:"type:varchar(36);primaryKey"`
	MimeType   string    `json:"mime_type" db:"mime_type" gorm:"type:varchar(100);not null"`
	Width      int       `json:"width" db:"width"`
	Height     int       `json:"height" db:"height"`
	Size       int64     `json:"size" db:"size"`
	Data       []byte    `json:"-" db:"data"`
	StorageKey string    `json:"-" db:"storage_key" gorm:"type:varchar(300)"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

func (Image) TableName() string {
	return "images"
}

// External reports whether the pixels are held outside the database.
func (i *Image) External() bool {
	return i.StorageKey != ""
}
