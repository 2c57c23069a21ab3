package identity

import (
	"time"

	"github.com/gasdist/backend/internal/domain/identity"
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// =============================================================================
// User DTOs
// =============================================================================

// CreateUserRequest contains input for creating a user
type CreateUserRequest struct {
	Username string     `json:"username" binding:"required,min=3,max=50"`
	FullName string     `json:"fullName" binding:"required,max=100"`
	Password string     `json:"password" binding:"required,min=8,max=72"`
	Email    string     `json:"email" binding:"omitempty,email"`
	Phone    string     `json:"phone" binding:"omitempty,phone"`
	Role     string     `json:"role" binding:"required,oneof=admin manager operator"`
	BranchID *uuid.UUID `json:"branchId"`
}

// UpdateUserRequest contains input for updating a user. Nil fields are left
// unchanged; an empty BranchID detaches the user from its branch.
type UpdateUserRequest struct {
	FullName *string `json:"fullName" binding:"omitempty,max=100"`
	Email    *string `json:"email" binding:"omitempty,max=200"`
	Phone    *string `json:"phone" binding:"omitempty,max=30"`
	Role     *string `json:"role" binding:"omitempty,oneof=admin manager operator"`
	BranchID *string `json:"branchId"`
	IsActive *bool   `json:"isActive"`
	Password *string `json:"password" binding:"omitempty,min=8,max=72"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	FullName     string     `json:"fullName"`
	Email        string     `json:"email,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Role         string     `json:"role"`
	BranchID     *uuid.UUID `json:"branchId"`
	IsActive     bool       `json:"isActive"`
	Capabilities []string   `json:"capabilities"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// UserListFilter represents filter options for the user list
type UserListFilter struct {
	Search   string `form:"search"`
	Role     string `form:"role" binding:"omitempty,oneof=admin manager operator"`
	BranchID string `form:"branchId" binding:"omitempty,uuid"`
	IsActive *bool  `form:"isActive"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

// ToDomain builds the repository filter
func (f UserListFilter) ToDomain() shared.Filter {
	out := pageFilter(f.Page, f.PageSize, f.Search)
	if f.Role != "" {
		out.Filters["role"] = f.Role
	}
	if f.BranchID != "" {
		out.Filters["branch_id"] = f.BranchID
	}
	if f.IsActive != nil {
		out.Filters["is_active"] = *f.IsActive
	}
	return out
}

// ToUserResponse converts a domain user to a response
func ToUserResponse(u *identity.User) UserResponse {
	caps := u.Capabilities().List()
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = string(c)
	}
	return UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		FullName:     u.FullName,
		Email:        u.Email,
		Phone:        u.Phone,
		Role:         string(u.Role),
		BranchID:     u.BranchID,
		IsActive:     u.IsActive,
		Capabilities: names,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// =============================================================================
// Branch DTOs
// =============================================================================

// CreateBranchRequest contains input for creating a branch
type CreateBranchRequest struct {
	Name      string     `json:"name" binding:"required,max=100"`
	Location  string     `json:"location" binding:"required,max=200"`
	Phone     string     `json:"phone" binding:"omitempty,phone"`
	ManagerID *uuid.UUID `json:"managerId"`
}

// UpdateBranchRequest contains input for updating a branch
type UpdateBranchRequest struct {
	Name      *string `json:"name" binding:"omitempty,max=100"`
	Location  *string `json:"location" binding:"omitempty,max=200"`
	Phone     *string `json:"phone" binding:"omitempty,max=30"`
	ManagerID *string `json:"managerId"`
	IsActive  *bool   `json:"isActive"`
}

// BranchResponse represents a branch in API responses
type BranchResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Location  string     `json:"location"`
	Phone     string     `json:"phone,omitempty"`
	ManagerID *uuid.UUID `json:"managerId"`
	IsActive  bool       `json:"isActive"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// BranchListFilter represents filter options for the branch list
type BranchListFilter struct {
	Search   string `form:"search"`
	IsActive *bool  `form:"isActive"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

// ToDomain builds the repository filter
func (f BranchListFilter) ToDomain() shared.Filter {
	out := pageFilter(f.Page, f.PageSize, f.Search)
	if f.IsActive != nil {
		out.Filters["is_active"] = *f.IsActive
	}
	return out
}

// ToBranchResponse converts a domain branch to a response
func ToBranchResponse(b *identity.Branch) BranchResponse {
	return BranchResponse{
		ID:        b.ID,
		Name:      b.Name,
		Location:  b.Location,
		Phone:     b.Phone,
		ManagerID: b.ManagerID,
		IsActive:  b.IsActive,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func pageFilter(page, pageSize int, search string) shared.Filter {
	f := shared.DefaultFilter()
	if page > 0 {
		f.Page = page
	}
	if pageSize > 0 {
		f.PageSize = pageSize
	}
	f.Search = search
	f.Filters = map[string]interface{}{}
	return f
}
