package models

import (
	"time"

	"github.com/google/uuid"
)

type DirectoryAction string

const (
	ActionCreated DirectoryAction = "created"
	ActionUpdated DirectoryAction = "updated"
	ActionDeleted DirectoryAction = "deleted"
)

// DirectoryEvent is the audit record emitted for every directory write.
type DirectoryEvent struct {
	ID        uuid.UUID       `json:"id"`
	Action    DirectoryAction `json:"action"`
	PersonID  uuid.UUID       `json:"person_id"`
	Name      string          `json:"name"`
	Actor     string          `json:"actor,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
