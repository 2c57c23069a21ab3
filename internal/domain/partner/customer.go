package partner

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CustomerType represents the type of customer
type CustomerType string

const (
	CustomerTypeIndividual CustomerType = "individual"
	CustomerTypeBusiness   CustomerType = "business"
)

// IsValid reports whether t is a known customer type
func (t CustomerType) IsValid() bool {
	return t == CustomerTypeIndividual || t == CustomerTypeBusiness
}

var (
	phoneRegex = regexp.MustCompile(`^\+?[\d\s\-()]{7,20}$`)
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	nameCaser  = cases.Title(language.English)
)

// Customer is a buyer of gas cylinders. Balance is the amount the customer owes.
type Customer struct {
	shared.BaseAggregateRoot
	BranchID     *uuid.UUID
	Name         string
	Phone        string
	Email        string
	Address      string
	CustomerType CustomerType
	IDNumber     string
	Balance      decimal.Decimal
	CreditLimit  decimal.Decimal
	IsActive     bool
	Notes        string
}

// NewCustomer creates an active customer with a zero balance
func NewCustomer(name, phone string, customerType CustomerType) (*Customer, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	phone, err = normalizePhone(phone)
	if err != nil {
		return nil, err
	}
	if customerType == "" {
		customerType = CustomerTypeIndividual
	}
	if !customerType.IsValid() {
		return nil, shared.NewValidationError("Customer type must be individual or business")
	}

	return &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Phone:             phone,
		CustomerType:      customerType,
		Balance:           decimal.Zero,
		CreditLimit:       decimal.Zero,
		IsActive:          true,
	}, nil
}

// SetName sets the customer's name, title-cased
func (c *Customer) SetName(name string) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	c.Name = name
	c.touch()
	return nil
}

// SetPhone sets the customer's phone number
func (c *Customer) SetPhone(phone string) error {
	phone, err := normalizePhone(phone)
	if err != nil {
		return err
	}
	c.Phone = phone
	c.touch()
	return nil
}

// SetEmail sets the customer's email; empty clears it
func (c *Customer) SetEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" && (len(email) > 200 || !emailRegex.MatchString(email)) {
		return shared.NewValidationError("Invalid email format")
	}
	c.Email = email
	c.touch()
	return nil
}

// SetAddress sets the delivery address
func (c *Customer) SetAddress(address string) error {
	address = strings.TrimSpace(address)
	if len(address) > 500 {
		return shared.NewValidationError("Address cannot exceed 500 characters")
	}
	c.Address = address
	c.touch()
	return nil
}

// SetCustomerType changes between individual and business
func (c *Customer) SetCustomerType(t CustomerType) error {
	if !t.IsValid() {
		return shared.NewValidationError("Customer type must be individual or business")
	}
	c.CustomerType = t
	c.touch()
	return nil
}

// SetIDNumber sets the national id or business registration number
func (c *Customer) SetIDNumber(idNumber string) error {
	idNumber = strings.TrimSpace(idNumber)
	if len(idNumber) > 50 {
		return shared.NewValidationError("ID number cannot exceed 50 characters")
	}
	c.IDNumber = idNumber
	c.touch()
	return nil
}

// SetCreditLimit sets how much the customer may owe. Zero means no credit.
func (c *Customer) SetCreditLimit(limit decimal.Decimal) error {
	if limit.IsNegative() {
		return shared.NewValidationError("Credit limit cannot be negative")
	}
	c.CreditLimit = limit
	c.touch()
	return nil
}

// SetNotes sets free-form notes
func (c *Customer) SetNotes(notes string) {
	c.Notes = strings.TrimSpace(notes)
	c.touch()
}

// AssignBranch sets the customer's home branch
func (c *Customer) AssignBranch(branchID *uuid.UUID) {
	c.BranchID = branchID
	c.touch()
}

// SetActive activates or deactivates the customer
func (c *Customer) SetActive(active bool) {
	c.IsActive = active
	c.touch()
}

// Charge adds an unpaid amount to the customer's balance. A positive credit limit
// caps the balance.
func (c *Customer) Charge(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return nil
	}
	newBalance := c.Balance.Add(amount)
	if c.CreditLimit.IsPositive() && newBalance.GreaterThan(c.CreditLimit) {
		return shared.NewValidationError(fmt.Sprintf(
			"Credit limit of %s exceeded: balance would be %s", c.CreditLimit.StringFixed(2), newBalance.StringFixed(2)))
	}
	c.Balance = newBalance
	c.touch()
	return nil
}

// ReceivePayment reduces the balance by amount. Overpayment leaves a negative
// balance, which is credit in the customer's favour.
func (c *Customer) ReceivePayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("Payment amount must be positive")
	}
	c.Balance = c.Balance.Sub(amount)
	c.touch()
	return nil
}

// AdjustBalance applies a correction without credit-limit checks, used when a
// transaction is edited or removed.
func (c *Customer) AdjustBalance(delta decimal.Decimal) {
	if delta.IsZero() {
		return
	}
	c.Balance = c.Balance.Add(delta)
	c.touch()
}

// Snapshot returns the editable fields keyed by their JSON names, as stored in an
// approval request's original data.
func (c *Customer) Snapshot() shared.Patch {
	return shared.Patch{
		"name":         c.Name,
		"phone":        c.Phone,
		"email":        c.Email,
		"address":      c.Address,
		"customerType": string(c.CustomerType),
		"idNumber":     c.IDNumber,
		"creditLimit":  c.CreditLimit.String(),
		"notes":        c.Notes,
		"isActive":     c.IsActive,
		"branchId":     shared.UUIDPtrValue(c.BranchID),
		"balance":      c.Balance.String(),
	}
}

// ApplyChanges applies a patch of editable fields. Unknown or read-only fields are
// rejected and nothing is changed when any field is invalid.
func (c *Customer) ApplyChanges(changes shared.Patch) error {
	if len(changes) == 0 {
		return shared.NewValidationError("No changes requested")
	}
	next := *c
	for field, value := range changes {
		if err := next.applyField(field, value); err != nil {
			return err
		}
	}
	*c = next
	return nil
}

func (c *Customer) applyField(field string, value any) error {
	switch field {
	case "name", "phone", "email", "address", "idNumber", "notes", "customerType":
		s, err := shared.PatchString(field, value)
		if err != nil {
			return err
		}
		switch field {
		case "name":
			return c.SetName(s)
		case "phone":
			return c.SetPhone(s)
		case "email":
			return c.SetEmail(s)
		case "address":
			return c.SetAddress(s)
		case "idNumber":
			return c.SetIDNumber(s)
		case "customerType":
			return c.SetCustomerType(CustomerType(s))
		default:
			c.SetNotes(s)
			return nil
		}
	case "creditLimit":
		d, err := shared.PatchDecimal(field, value)
		if err != nil {
			return err
		}
		return c.SetCreditLimit(d)
	case "isActive":
		b, err := shared.PatchBool(field, value)
		if err != nil {
			return err
		}
		c.SetActive(b)
		return nil
	case "branchId":
		id, err := shared.PatchUUIDPtr(field, value)
		if err != nil {
			return err
		}
		c.AssignBranch(id)
		return nil
	default:
		return shared.NewValidationError(fmt.Sprintf("Field %q cannot be changed on a customer", field))
	}
}

func (c *Customer) touch() {
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

func normalizeName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "", shared.NewValidationError("Customer name cannot be empty")
	}
	if len(name) > 200 {
		return "", shared.NewValidationError("Customer name cannot exceed 200 characters")
	}
	return nameCaser.String(name), nil
}

func normalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", shared.NewValidationError("Phone number cannot be empty")
	}
	if !phoneRegex.MatchString(phone) {
		return "", shared.NewValidationError("Invalid phone number format")
	}
	return phone, nil
}

// ValidPhone reports whether phone looks like a dialable number
func ValidPhone(phone string) bool {
	return phoneRegex.MatchString(strings.TrimSpace(phone))
}
