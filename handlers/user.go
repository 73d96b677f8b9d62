package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/splitly/splitly-api/middleware"
	"github.com/splitly/splitly-api/models"
	"github.com/splitly/splitly-api/services"
	"github.com/splitly/splitly-api/store"
	"github.com/splitly/splitly-api/utils"
)

type UserHandler struct {
	Users *services.UserService
	Store store.Store
}

// GetByUsername returns the public profile of a user.
func (h *UserHandler) GetByUsername(c *gin.Context) {
	dto, err := h.Users.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

// Search matches users by username or name fragment.
func (h *UserHandler) Search(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter required"})
		return
	}

	dtos, err := h.Users.Search(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos)
}

// ============================================================================
// 2FA
// ============================================================================

func (h *UserHandler) SetupTOTP(c *gin.Context) {
	userID := middleware.GetUserID(c)

	user, err := h.Store.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	secret, qrCode, err := utils.GenerateTOTPSecret(user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate TOTP"})
		return
	}

	user.TOTPSecret = secret
	if err := h.Store.UpdateUser(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.TOTPSetupResponse{
		Secret: secret,
		QRCode: qrCode,
	})
}

func (h *UserHandler) VerifyTOTP(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.VerifyTOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Store.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	if user.TOTPSecret == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "TOTP not set up"})
		return
	}

	if !utils.VerifyTOTP(user.TOTPSecret, req.Code) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid TOTP code"})
		return
	}

	user.TOTPEnabled = true
	if err := h.Store.UpdateUser(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}

	log.Printf("2FA enabled for user %s", userID)

	c.JSON(http.StatusOK, gin.H{"enabled": true})
}

func (h *UserHandler) DisableTOTP(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req models.DisableTOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Store.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}

	if !user.TOTPEnabled || !utils.VerifyTOTP(user.TOTPSecret, req.Code) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid TOTP code"})
		return
	}

	user.TOTPSecret = ""
	user.TOTPEnabled = false
	if err := h.Store.UpdateUser(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"enabled": false})
}
