package handler

import (
	identityapp "github.com/gasdist/backend/internal/application/identity"
	"github.com/gin-gonic/gin"
)

// BranchHandler handles branch endpoints
type BranchHandler struct {
	BaseHandler
	branchService *identityapp.BranchService
}

// NewBranchHandler creates a new BranchHandler
func NewBranchHandler(base BaseHandler, branchService *identityapp.BranchService) *BranchHandler {
	return &BranchHandler{BaseHandler: base, branchService: branchService}
}

// Create handles POST /api/branches
func (h *BranchHandler) Create(c *gin.Context) {
	var req identityapp.CreateBranchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	branch, err := h.branchService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, branch)
}

// GetByID handles GET /api/branches/:id
func (h *BranchHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	branch, err := h.branchService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, branch)
}

// List handles GET /api/branches
func (h *BranchHandler) List(c *gin.Context) {
	var filter identityapp.BranchListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	branches, total, err := h.branchService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.ListResponse(c, branches, total)
}

// Update handles PUT /api/branches/:id
func (h *BranchHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req identityapp.UpdateBranchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	branch, err := h.branchService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, branch)
}

// Delete handles DELETE /api/branches/:id
func (h *BranchHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.branchService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c, "Branch")
}

// UserHandler handles staff account endpoints
type UserHandler struct {
	BaseHandler
	userService *identityapp.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(base BaseHandler, userService *identityapp.UserService) *UserHandler {
	return &UserHandler{BaseHandler: base, userService: userService}
}

// Create handles POST /api/users
func (h *UserHandler) Create(c *gin.Context) {
	var req identityapp.CreateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}
	user, err := h.userService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}

// GetByID handles GET /api/users/:id
func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	user, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// List handles GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	var filter identityapp.UserListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	users, total, err := h.userService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.ListResponse(c, users, total)
}

// Update handles PUT /api/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	var req identityapp.UpdateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}
	user, err := h.userService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// Delete handles DELETE /api/users/:id. Accounts are deactivated, not removed,
// so their transactions keep a valid author.
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c)
	if !ok {
		return
	}
	if err := h.userService.Deactivate(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Deleted(c, "User")
}
