package dto

import "github.com/google/uuid"

// DirectoryEvent is a WebSocket message announcing a directory change.
type DirectoryEvent struct {
	ID        uuid.UUID `json:"id"`
	Action    string    `json:"action"` // created, updated, deleted
	PersonID  uuid.UUID `json:"personId"`
	Name      string    `json:"name"`
	Actor     string    `json:"actor,omitempty"`
	Timestamp string    `json:"timestamp"`
}
