package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Shreyas165/Find-My-Teacher/internal/apperr"
	"github.com/Shreyas165/Find-My-Teacher/internal/auth"
	"github.com/Shreyas165/Find-My-Teacher/pkg/dto"
)

type CredentialHandler struct {
	auth   *auth.Service
	apiKey string
}

func NewCredentialHandler(svc *auth.Service, apiKey string) *CredentialHandler {
	return &CredentialHandler{auth: svc, apiKey: apiKey}
}

// SetPassword creates or replaces a credential. It is open only until the first credential
// exists; after that the caller must be an admin.
func (h *CredentialHandler) SetPassword(c *gin.Context) {
	var req dto.CredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.InvalidRequest("Username and password are required."), "Failed to set password.")
		return
	}

	has, err := h.auth.HasCredentials(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to set password.")
		return
	}
	if has {
		if _, ok := auth.Authenticate(c, h.auth, h.apiKey); !ok {
			respondError(c, apperr.Unauthorized("Authentication required."), "Failed to set password.")
			return
		}
	}

	created, err := h.auth.SetPassword(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err, "Failed to set password.")
		return
	}
	if created {
		c.JSON(http.StatusCreated, dto.MessageResponse{Message: "Password set successfully."})
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Password updated successfully."})
}

func (h *CredentialHandler) Verify(c *gin.Context) {
	var req dto.CredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.InvalidRequest("Username and password are required."), "Failed to verify password.")
		return
	}

	tok, err := h.auth.Verify(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err, "Failed to verify password.")
		return
	}
	c.JSON(http.StatusOK, dto.VerifyResponse{
		Message:   "Password verified successfully.",
		Token:     tok.Value,
		ExpiresAt: tok.ExpiresAt.Format(time.RFC3339),
	})
}

func (h *CredentialHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.InvalidRequest("Username, old password, and new password are required."), "Failed to change password.")
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), req.Username, req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err, "Failed to change password.")
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Password changed successfully."})
}
