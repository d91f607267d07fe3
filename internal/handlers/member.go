package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/launchdeck/launchdeck/backend/internal/middleware"
	"github.com/launchdeck/launchdeck/backend/internal/services"
	"github.com/launchdeck/launchdeck/backend/pkg/response"
	"gorm.io/gorm"
)

// MemberHandler manages project permissions.
type MemberHandler struct {
	memberService *services.MemberService
}

func NewMemberHandler(db *gorm.DB) *MemberHandler {
	return &MemberHandler{memberService: services.NewMemberService(db)}
}

// List returns the project's role grants
// GET /api/projects/:id/permissions
func (h *MemberHandler) List(c *gin.Context) {
	perms, err := h.memberService.List(c.Request.Context(), middleware.GetSession(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, perms)
}

// Invite grants a role to a user by email
// POST /api/projects/:id/permissions
func (h *MemberHandler) Invite(c *gin.Context) {
	var req services.InviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	perm, err := h.memberService.Invite(c.Request.Context(), middleware.GetSession(c), c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, perm)
}

// UpdateRole changes a member's role
// PUT /api/projects/:id/permissions/:userID
func (h *MemberHandler) UpdateRole(c *gin.Context) {
	var req services.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	perm, err := h.memberService.UpdateRole(c.Request.Context(), middleware.GetSession(c), c.Param("id"), c.Param("userID"), req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, perm)
}

// Remove revokes a member's access
// DELETE /api/projects/:id/permissions/:userID
func (h *MemberHandler) Remove(c *gin.Context) {
	if err := h.memberService.Remove(c.Request.Context(), middleware.GetSession(c), c.Param("id"), c.Param("userID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"removed": true})
}

// TransferOwnership hands the owner role to another member
// POST /api/projects/:id/transfer-ownership
func (h *MemberHandler) TransferOwnership(c *gin.Context) {
	var req services.TransferOwnershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	if err := h.memberService.TransferOwnership(c.Request.Context(), middleware.GetSession(c), c.Param("id"), req.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"owner_id": req.UserID})
}
