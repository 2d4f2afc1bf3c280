package models

import "time"

type Credential struct {
	Username     string    `json:"username" db:"username" gorm:"type:varchar(150);primaryKey"`
	PasswordHash string    `json:"-" db:"password_hash" gorm:"type:varchar(100);not null"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func (Credential) TableName() string {
	return "credentials"
}
