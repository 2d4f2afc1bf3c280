package models

import (
	"time"

	"github.com/google/uuid"
)

// Person is a directory entry. Name is searchable but not unique.
type Person struct {
	ID         uuid.UUID  `json:"id" db:"id" gorm:"type:varchar(36);primaryKey"`
	Name       string     `json:"name" db:"name" gorm:"type:varchar(300);not null;index"`
	Branch     string     `json:"branch" db:"branch" gorm:"type:varchar(200);not null"`
	Floor      string     `json:"floor" db:"floor" gorm:"type:varchar(50);not null"`
	Directions string     `json:"directions" db:"directions" gorm:"type:text;not null"`
	ImageID    *uuid.UUID `json:"image_id,omitempty" db:"image_id" gorm:"type:varchar(36);uniqueIndex"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

func (Person) TableName() string {
	return "teachers"
}

// PersonFields is the mutable part of a Person. Nil fields are left unchanged on update.
type PersonFields struct {
	Name       *string
	Branch     *string
	Floor      *string
	Directions *string
}

// Apply copies the non-nil fields onto p.
func (f PersonFields) Apply(p *Person) {
	if f.Name != nil {
		p.Name = *f.Name
	}
	if f.Branch != nil {
		p.Branch = *f.Branch
	}
	if f.Floor != nil {
		p.Floor = *f.Floor
	}
	if f.Directions != nil {
		p.Directions = *f.Directions
	}
}

func (f PersonFields) Empty() bool {
	return f.Name == nil && f.Branch == nil && f.Floor == nil && f.Directions == nil
}
