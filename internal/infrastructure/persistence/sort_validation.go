package persistence

import (
	"strings"

	"github.com/gasdist/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" || !allowedFields[trimmed] {
		return defaultField
	}
	return trimmed
}

// BranchSortFields contains allowed sort fields for branches
var BranchSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"location":   true,
}

// UserSortFields contains allowed sort fields for users
var UserSortFields = map[string]bool{
	"created_at":    true,
	"updated_at":    true,
	"username":      true,
	"full_name":     true,
	"role":          true,
	"last_login_at": true,
}

// CustomerSortFields contains allowed sort fields for customers
var CustomerSortFields = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"name":         true,
	"phone":        true,
	"balance":      true,
	"credit_limit": true,
}

// TransactionSortFields contains allowed sort fields for transactions
var TransactionSortFields = map[string]bool{
	"created_at":       true,
	"transaction_date": true,
	"receipt_number":   true,
	"total_amount":     true,
	"quantity":         true,
}

// PaymentSortFields contains allowed sort fields for payments
var PaymentSortFields = map[string]bool{
	"created_at": true,
	"paid_at":    true,
	"amount":     true,
}

// ForecastSortFields contains allowed sort fields for forecasts
var ForecastSortFields = map[string]bool{
	"created_at":       true,
	"forecast_date":    true,
	"predicted_demand": true,
}

// AnalyticsSortFields contains allowed sort fields for analytics
var AnalyticsSortFields = map[string]bool{
	"created_at":    true,
	"period_start":  true,
	"total_revenue": true,
}

// ApprovalSortFields contains allowed sort fields for approvals
var ApprovalSortFields = map[string]bool{
	"created_at":   true,
	"processed_at": true,
}

// paginate applies ordering, offset and limit. The default field sorts newest first;
// id breaks ties so pages are stable.
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	dir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(field + " " + dir).Order("id " + dir)
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

// likePattern escapes LIKE wildcards in a user search term
func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(strings.TrimSpace(search))) + "%"
}
