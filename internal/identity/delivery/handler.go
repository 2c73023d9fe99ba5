package delivery

import (
	"net/http"

	authdelivery "ticktask-backend/internal/auth/delivery"
	"ticktask-backend/internal/identity/domain"
	"ticktask-backend/internal/identity/usecase"
	"ticktask-backend/pkg/httpx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdentityHandler serves group and role administration
type IdentityHandler struct {
	identityUsecase usecase.IdentityUsecase
	logger          *zap.Logger
}

func NewIdentityHandler(identityUsecase usecase.IdentityUsecase, logger *zap.Logger) *IdentityHandler {
	return &IdentityHandler{identityUsecase: identityUsecase, logger: logger.Named("http.identity")}
}

type createGroupRequest struct {
	Name string `json:"name" binding:"required"`
}

type membershipRequest struct {
	UserID string                `json:"user_id" binding:"required"`
	Role   domain.MembershipRole `json:"role"`
}

type roleRequest struct {
	Role domain.Role `json:"role" binding:"required"`
}

// GET /api/groups
func (h *IdentityHandler) ListGroups(c *gin.Context) {
	groups, err := h.identityUsecase.ListGroups(c.Request.Context(), authdelivery.CurrentUser(c))
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// POST /api/groups
func (h *IdentityHandler) CreateGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}
	group, err := h.identityUsecase.CreateGroup(c.Request.Context(), authdelivery.CurrentUser(c), req.Name)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

// GET /api/groups/:id/members
func (h *IdentityHandler) ListMembers(c *gin.Context) {
	members, err := h.identityUsecase.ListMembers(c.Request.Context(), authdelivery.CurrentUser(c), c.Param("id"))
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// SetMembership adds a user to a group or changes their membership role
// PUT /api/groups/:id/members
func (h *IdentityHandler) SetMembership(c *gin.Context) {
	var req membershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}
	m, err := h.identityUsecase.SetMembership(c.Request.Context(), authdelivery.CurrentUser(c), c.Param("id"), req.UserID, req.Role)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// DELETE /api/groups/:id/members/:user_id
func (h *IdentityHandler) RemoveMembership(c *gin.Context) {
	if err := h.identityUsecase.RemoveMembership(c.Request.Context(), authdelivery.CurrentUser(c), c.Param("id"), c.Param("user_id")); err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetUserRole changes the profile role of a user
// PUT /api/users/:id/role
func (h *IdentityHandler) SetUserRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}
	if err := h.identityUsecase.SetUserRole(c.Request.Context(), authdelivery.CurrentUser(c), c.Param("id"), req.Role); err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": c.Param("id"), "role": req.Role})
}
