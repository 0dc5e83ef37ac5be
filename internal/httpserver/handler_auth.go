package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/grupobacar/helpdesk/internal/apperr"
	"github.com/grupobacar/helpdesk/internal/service/user"
)

type AuthHandler struct {
	users *user.Service
}

func NewAuthHandler(users *user.Service) *AuthHandler {
	return &AuthHandler{users: users}
}

// Login handles POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "email and password are required"})
		return
	}

	token, u, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, apperr.ErrAuth) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"token": token,
			"user":  u,
		},
	})
}
