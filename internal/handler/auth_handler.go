package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "studytracker/backend/internal/errors"
	"studytracker/backend/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authenticateFunc func(ctx context.Context, email, password string) (*service.AuthResult, *apperrors.APIError)

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register answers 201 with a token for the new account.
func (h *AuthHandler) Register(c *gin.Context) {
	h.authenticate(c, http.StatusCreated, h.authService.Register)
}

func (h *AuthHandler) Login(c *gin.Context) {
	h.authenticate(c, http.StatusOK, h.authService.Login)
}

func (h *AuthHandler) authenticate(c *gin.Context, status int, fn authenticateFunc) {
	var req credentialsRequest
	if !bindJSON(c, &req) {
		return
	}
	result, apiErr := fn(c.Request.Context(), req.Email, req.Password)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(status, result)
}
