package identity

import (
	"sort"
	"strings"

	"github.com/gasdist/backend/internal/domain/shared"
)

// Role is the fixed set of user roles. Each role maps to a capability set.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleOperator Role = "operator"
)

// Capability names one operation a caller may perform.
type Capability string

const (
	CapCustomersRead   Capability = "customers.read"
	CapCustomersCreate Capability = "customers.create"
	CapCustomersEdit   Capability = "customers.edit"
	CapCustomersDelete Capability = "customers.delete"

	CapTransactionsRead   Capability = "transactions.read"
	CapTransactionsCreate Capability = "transactions.create"
	CapTransactionsEdit   Capability = "transactions.edit"
	CapTransactionsDelete Capability = "transactions.delete"

	CapPaymentsRead   Capability = "payments.read"
	CapPaymentsCreate Capability = "payments.create"
	CapPaymentsEdit   Capability = "payments.edit"
	CapPaymentsDelete Capability = "payments.delete"

	CapApprovalsRequest Capability = "approvals.request"
	CapApprovalsManage  Capability = "approvals.manage"

	CapForecastsRead   Capability = "forecasts.read"
	CapForecastsManage Capability = "forecasts.manage"
	CapAnalyticsRead   Capability = "analytics.read"
	CapAnalyticsManage Capability = "analytics.manage"

	CapBranchesRead   Capability = "branches.read"
	CapBranchesManage Capability = "branches.manage"
	CapUsersManage    Capability = "users.manage"
	CapBackupsCreate  Capability = "backups.create"
	CapScansResolve   Capability = "scans.resolve"
)

// CapabilitySet is an immutable set of capabilities.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet builds a set from the given capabilities.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}
	return set
}

// Has reports whether the set contains c.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// HasAny reports whether the set contains at least one of caps.
func (s CapabilitySet) HasAny(caps ...Capability) bool {
	for _, c := range caps {
		if s.Has(c) {
			return true
		}
	}
	return false
}

// List returns the capabilities sorted by name.
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var operatorCapabilities = []Capability{
	CapCustomersRead, CapCustomersCreate,
	CapTransactionsRead, CapTransactionsCreate,
	CapPaymentsRead, CapPaymentsCreate,
	CapApprovalsRequest,
	CapForecastsRead, CapAnalyticsRead,
	CapBranchesRead,
	CapScansResolve,
}

var managerCapabilities = append(append([]Capability{}, operatorCapabilities...),
	CapCustomersEdit, CapCustomersDelete,
	CapTransactionsEdit, CapTransactionsDelete,
	CapPaymentsEdit, CapPaymentsDelete,
	CapApprovalsManage,
	CapForecastsManage, CapAnalyticsManage,
)

var adminCapabilities = append(append([]Capability{}, managerCapabilities...),
	CapBranchesManage, CapUsersManage, CapBackupsCreate,
)

var roleCapabilities = map[Role]CapabilitySet{
	RoleAdmin:    NewCapabilitySet(adminCapabilities...),
	RoleManager:  NewCapabilitySet(managerCapabilities...),
	RoleOperator: NewCapabilitySet(operatorCapabilities...),
}

// Capabilities returns the capability set of the role. Unknown roles get an empty set.
func (r Role) Capabilities() CapabilitySet {
	if set, ok := roleCapabilities[r]; ok {
		return set
	}
	return CapabilitySet{}
}

// Can reports whether the role grants c.
func (r Role) Can(c Capability) bool {
	return r.Capabilities().Has(c)
}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// String returns the role name
func (r Role) String() string {
	return string(r)
}

// ParseRole parses a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", shared.NewValidationError("Role must be one of: admin, manager, operator")
	}
	return r, nil
}
