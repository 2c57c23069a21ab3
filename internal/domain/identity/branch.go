package identity

import (
	"context"
	"strings"
	"time"

	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// Branch is a depot or shop from which cylinders are sold.
type Branch struct {
	shared.BaseAggregateRoot
	Name      string
	Location  string
	Phone     string
	ManagerID *uuid.UUID
	IsActive  bool
}

// NewBranch creates an active branch
func NewBranch(name, location string) (*Branch, error) {
	name, err := normalizeBranchName(name)
	if err != nil {
		return nil, err
	}
	location, err = normalizeBranchLocation(location)
	if err != nil {
		return nil, err
	}
	return &Branch{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Location:          location,
		IsActive:          true,
	}, nil
}

// Rename sets the branch name, title-cased.
func (b *Branch) Rename(name string) error {
	name, err := normalizeBranchName(name)
	if err != nil {
		return err
	}
	b.Name = name
	b.touch()
	return nil
}

// Relocate sets the branch location
func (b *Branch) Relocate(location string) error {
	location, err := normalizeBranchLocation(location)
	if err != nil {
		return err
	}
	b.Location = location
	b.touch()
	return nil
}

// SetPhone sets the branch phone
func (b *Branch) SetPhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if len(phone) > 20 {
		return shared.NewValidationError("Phone cannot exceed 20 characters")
	}
	b.Phone = phone
	b.touch()
	return nil
}

// AssignManager sets or clears the branch manager
func (b *Branch) AssignManager(managerID *uuid.UUID) {
	b.ManagerID = managerID
	b.touch()
}

// SetActive opens or closes the branch
func (b *Branch) SetActive(active bool) {
	b.IsActive = active
	b.touch()
}

func (b *Branch) touch() {
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
}

func normalizeBranchName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", shared.NewValidationError("Branch name cannot be empty")
	}
	if len(name) > 100 {
		return "", shared.NewValidationError("Branch name cannot exceed 100 characters")
	}
	return titleCaser.String(name), nil
}

func normalizeBranchLocation(location string) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", shared.NewValidationError("Branch location cannot be empty")
	}
	if len(location) > 200 {
		return "", shared.NewValidationError("Branch location cannot exceed 200 characters")
	}
	return location, nil
}

// BranchRepository defines the interface for branch persistence
type BranchRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Branch, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Branch, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Save(ctx context.Context, branch *Branch) error
	Delete(ctx context.Context, id uuid.UUID) error
}
