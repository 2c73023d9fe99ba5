package delivery

import (
	"net/http"

	authdto "ticktask-backend/internal/auth/dto"
	"ticktask-backend/internal/auth/usecase"
	"ticktask-backend/pkg/httpx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler serves account, user and device endpoints
type AuthHandler struct {
	authUsecase usecase.AuthUsecase
	logger      *zap.Logger
}

func NewAuthHandler(authUsecase usecase.AuthUsecase, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authUsecase: authUsecase, logger: logger.Named("http.auth")}
}

// Register creates an account
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req authdto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	resp, err := h.authUsecase.Register(c.Request.Context(), &req)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req authdto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	resp, err := h.authUsecase.Login(c.Request.Context(), &req)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh exchanges a refresh token for a new pair
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req authdto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	resp, err := h.authUsecase.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Logout
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req authdto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	if err := h.authUsecase.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

// Me returns the authenticated user
// GET /api/auth/me, GET /api/me
func (h *AuthHandler) Me(c *gin.Context) {
	resp, err := h.authUsecase.Me(c.Request.Context(), CurrentUser(c))
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListUsers returns the users visible to the actor
// GET /api/users?search=ann
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.authUsecase.ListUsers(c.Request.Context(), CurrentUser(c), c.Query("search"))
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// RegisterFCMToken registers a device for push notifications
// POST /api/fcm/register
func (h *AuthHandler) RegisterFCMToken(c *gin.Context) {
	var req authdto.RegisterFCMTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	if err := h.authUsecase.RegisterFCMToken(c.Request.Context(), CurrentUser(c).ID, req.Token, req.DeviceInfo); err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "token registered"})
}

// UnregisterFCMToken removes a device
// DELETE /api/fcm/unregister
func (h *AuthHandler) UnregisterFCMToken(c *gin.Context) {
	var req authdto.UnregisterFCMTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	if err := h.authUsecase.UnregisterFCMToken(c.Request.Context(), req.Token); err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "token unregistered"})
}
