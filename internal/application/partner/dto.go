package partner

import (
	"time"

	"github.com/gasdist/backend/internal/domain/partner"
	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Customer DTOs
// =============================================================================

// CreateCustomerRequest represents a request to create a new customer
type CreateCustomerRequest struct {
	Name         string           `json:"name" binding:"required,min=1,max=200"`
	Phone        string           `json:"phone" binding:"required,phone"`
	Email        string           `json:"email" binding:"omitempty,email,max=200"`
	Address      string           `json:"address" binding:"max=500"`
	CustomerType string           `json:"customerType" binding:"omitempty,oneof=individual business"`
	IDNumber     string           `json:"idNumber" binding:"max=50"`
	CreditLimit  *decimal.Decimal `json:"creditLimit"`
	Notes        string           `json:"notes"`
	BranchID     *uuid.UUID       `json:"branchId"`
}

// UpdateCustomerRequest represents a request to update a customer. Nil fields are
// left unchanged.
type UpdateCustomerRequest struct {
	Name         *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Phone        *string          `json:"phone" binding:"omitempty,phone"`
	Email        *string          `json:"email" binding:"omitempty,max=200"`
	Address      *string          `json:"address" binding:"omitempty,max=500"`
	CustomerType *string          `json:"customerType" binding:"omitempty,oneof=individual business"`
	IDNumber     *string          `json:"idNumber" binding:"omitempty,max=50"`
	CreditLimit  *decimal.Decimal `json:"creditLimit"`
	Notes        *string          `json:"notes"`
	IsActive     *bool            `json:"isActive"`
	BranchID     *string          `json:"branchId"`
}

// ToPatch converts the request to the field patch the customer applies
func (r UpdateCustomerRequest) ToPatch() shared.Patch {
	p := shared.Patch{}
	setString := func(key string, v *string) {
		if v != nil {
			p[key] = *v
		}
	}
	setString("name", r.Name)
	setString("phone", r.Phone)
	setString("email", r.Email)
	setString("address", r.Address)
	setString("customerType", r.CustomerType)
	setString("idNumber", r.IDNumber)
	setString("notes", r.Notes)
	setString("branchId", r.BranchID)
	if r.CreditLimit != nil {
		p["creditLimit"] = r.CreditLimit.String()
	}
	if r.IsActive != nil {
		p["isActive"] = *r.IsActive
	}
	return p
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID           uuid.UUID       `json:"id"`
	BranchID     *uuid.UUID      `json:"branchId"`
	Name         string          `json:"name"`
	Phone        string          `json:"phone"`
	Email        string          `json:"email,omitempty"`
	Address      string          `json:"address,omitempty"`
	CustomerType string          `json:"customerType"`
	IDNumber     string          `json:"idNumber,omitempty"`
	Balance      decimal.Decimal `json:"balance"`
	CreditLimit  decimal.Decimal `json:"creditLimit"`
	IsActive     bool            `json:"isActive"`
	Notes        string          `json:"notes,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// CustomerListFilter represents filter options for the customer list
type CustomerListFilter struct {
	Search       string `form:"search"`
	BranchID     string `form:"branchId" binding:"omitempty,uuid"`
	IsActive     *bool  `form:"isActive"`
	CustomerType string `form:"customerType" binding:"omitempty,oneof=individual business"`
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"pageSize" binding:"omitempty,min=1,max=100"`
	OrderBy      string `form:"orderBy"`
	OrderDir     string `form:"orderDir" binding:"omitempty,oneof=asc desc"`
}

// ToDomain builds the repository filter
func (f CustomerListFilter) ToDomain() shared.Filter {
	out := shared.DefaultFilter()
	if f.Page > 0 {
		out.Page = f.Page
	}
	if f.PageSize > 0 {
		out.PageSize = f.PageSize
	}
	if f.OrderDir != "" {
		out.OrderDir = f.OrderDir
	}
	out.OrderBy = f.OrderBy
	out.Search = f.Search
	if f.BranchID != "" {
		out.Filters["branch_id"] = f.BranchID
	}
	if f.IsActive != nil {
		out.Filters["is_active"] = *f.IsActive
	}
	if f.CustomerType != "" {
		out.Filters["customer_type"] = f.CustomerType
	}
	return out
}

// ToCustomerResponse converts a domain customer to a response
func ToCustomerResponse(c *partner.Customer) CustomerResponse {
	return CustomerResponse{
		ID:           c.ID,
		BranchID:     c.BranchID,
		Name:         c.Name,
		Phone:        c.Phone,
		Email:        c.Email,
		Address:      c.Address,
		CustomerType: string(c.CustomerType),
		IDNumber:     c.IDNumber,
		Balance:      c.Balance,
		CreditLimit:  c.CreditLimit,
		IsActive:     c.IsActive,
		Notes:        c.Notes,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// ToCustomerResponses converts a slice of customers
func ToCustomerResponses(customers []partner.Customer) []CustomerResponse {
	out := make([]CustomerResponse, len(customers))
	for i := range customers {
		out[i] = ToCustomerResponse(&customers[i])
	}
	return out
}
