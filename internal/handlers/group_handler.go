package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/pagination"
	"budgeteer/internal/services"
)

// GroupHandler handles group and membership requests.
type GroupHandler struct {
	groupService services.GroupServicer
	auditService services.AuditServicer
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groupService services.GroupServicer, auditService services.AuditServicer) *GroupHandler {
	return &GroupHandler{groupService: groupService, auditService: auditService}
}

// CreateGroupRequest represents the request payload for creating a group
type CreateGroupRequest struct {
	Name string `json:"name" binding:"required,max=100" example:"Flat 4B"`
}

// AddMemberRequest represents the request payload for adding a member by username
type AddMemberRequest struct {
	Username string `json:"username" binding:"required,max=50" example:"bob"`
}

// CreateGroup creates a group owned by the caller
// @Summary     Create group
// @Description The creator becomes the first member.
// @Tags        groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateGroupRequest true "Group details"
// @Success     201 {object} models.Group "Group created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /groups [post]
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	group, err := h.groupService.CreateGroup(userID, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_GROUP", "group", group.ID, c.ClientIP(),
		map[string]interface{}{"name": group.Name})

	c.JSON(http.StatusCreated, gin.H{"group": group})
}

// GetGroups lists the caller's groups
// @Summary     List groups
// @Tags        groups
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Group] "Paginated groups"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /groups [get]
func (h *GroupHandler) GetGroups(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.groupService.GetUserGroups(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetGroup returns a group with its current members
// @Summary     Get group
// @Tags        groups
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Group ID"
// @Success     200 {object} services.GroupDetail "Group with members"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Router      /groups/{id} [get]
func (h *GroupHandler) GetGroup(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	groupID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	detail, err := h.groupService.GetGroup(userID, groupID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"group": detail})
}

// DeleteGroup deletes a group and its ledger
// @Summary     Delete group
// @Description Creator only. Removes members, shared expenses and settlements.
// @Tags        groups
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Group ID"
// @Success     200 {object} map[string]string "Group deleted"
// @Failure     403 {object} ErrorResponse "Not the creator"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Router      /groups/{id} [delete]
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	groupID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.groupService.DeleteGroup(userID, groupID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_GROUP", "group", groupID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"message": "Group deleted successfully"})
}

// AddMember adds a user to a group by username
// @Summary     Add group member
// @Tags        groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string           true "Group ID"
// @Param       request body AddMemberRequest true "Member username"
// @Success     201 {object} models.GroupMember "Member added"
// @Failure     403 {object} ErrorResponse "Not a member"
// @Failure     404 {object} ErrorResponse "Group or user not found"
// @Failure     409 {object} ErrorResponse "Already a member"
// @Router      /groups/{id}/members [post]
func (h *GroupHandler) AddMember(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	groupID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	member, err := h.groupService.AddMember(userID, groupID, req.Username)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "ADD_GROUP_MEMBER", "group", groupID, c.ClientIP(),
		map[string]interface{}{"member_user_id": member.UserID})

	c.JSON(http.StatusCreated, gin.H{"member": member})
}

// RemoveMember removes a member from a group
// @Summary     Remove group member
// @Description Members may leave; the creator may remove anyone. Past shares are kept.
// @Tags        groups
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string true "Group ID"
// @Param       user_id path string true "Member user ID"
// @Success     200 {object} map[string]string "Member removed"
// @Failure     403 {object} ErrorResponse "Not allowed"
// @Failure     404 {object} ErrorResponse "Group or member not found"
// @Router      /groups/{id}/members/{user_id} [delete]
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	groupID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	memberID, err := parsePathID(c, "user_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.groupService.RemoveMember(userID, groupID, memberID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "REMOVE_GROUP_MEMBER", "group", groupID, c.ClientIP(),
		map[string]interface{}{"member_user_id": memberID})

	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}
