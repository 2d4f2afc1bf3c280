package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Shreyas165/Find-My-Teacher/internal/apperr"
	"github.com/Shreyas165/Find-My-Teacher/internal/models"
	"github.com/Shreyas165/Find-My-Teacher/pkg/dto"
)

// respondError writes {"error": msg}. Internal failures are logged and replaced by fallback.
func respondError(c *gin.Context, err error, fallback string) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error(fallback, "error", err, "method", c.Request.Method, "path", c.Request.URL.Path)
	}
	c.JSON(status, dto.ErrorResponse{Error: apperr.PublicMessage(err, fallback)})
}

// bodyError maps request body read failures, such as an oversized upload, to domain errors.
func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.PayloadTooLarge("Request body is too large.")
	}
	return apperr.InvalidRequest("Malformed request body.")
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid id."})
		return uuid.Nil, false
	}
	return id, true
}

// URLBuilder resolves absolute image URLs.
type URLBuilder struct {
	// PublicURL, when set, replaces the scheme and host taken from the request.
	PublicURL string
}

func (b URLBuilder) base(c *gin.Context) string {
	if b.PublicURL != "" {
		return strings.TrimRight(b.PublicURL, "/")
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	return scheme + "://" + c.Request.Host
}

// ImageURL returns "" when id is nil.
func (b URLBuilder) ImageURL(c *gin.Context, id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return b.base(c) + "/api/images/" + id.String()
}

func (b URLBuilder) Teacher(c *gin.Context, p *models.Person) dto.Teacher {
	return dto.Teacher{
		ID:         p.ID,
		Name:       p.Name,
		Branch:     p.Branch,
		Floor:      p.Floor,
		Directions: p.Directions,
		ImageURL:   b.ImageURL(c, p.ImageID),
	}
}
