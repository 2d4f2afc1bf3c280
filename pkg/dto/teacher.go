package dto

import "github.com/google/uuid"

// NameEntry is one row of GET /api/people.
type NameEntry struct {
	Name string `json:"name"`
}

type NamesResponse struct {
	Teachers []NameEntry `json:"teachers"`
}

// Teacher is a directory entry as returned by search, detail and create.
type Teacher struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Branch     string    `json:"branch"`
	Floor      string    `json:"floor"`
	Directions string    `json:"directions"`
	// ImageURL is absolute; empty when the entry has no photo.
	ImageURL string `json:"imageUrl"`
}

type SearchResponse struct {
	Teachers []Teacher `json:"teachers"`
}

type CreateTeacherResponse struct {
	Message string  `json:"message"`
	Teacher Teacher `json:"teacher"`
}

// UpdateTeacherRequest is a partial update; omitted fields keep their value.
// Multipart requests use the same field names plus an optional "image" file.
type UpdateTeacherRequest struct {
	Name       *string `json:"name,omitempty" form:"name"`
	Branch     *string `json:"branch,omitempty" form:"branch"`
	Floor      *string `json:"floor,omitempty" form:"floor"`
	Directions *string `json:"directions,omitempty" form:"directions"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
