package shared

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Patch is a set of field changes keyed by JSON field name, as decoded from a
// request body. Values are the JSON decoder's types: string, float64, bool or nil.
type Patch map[string]any

// Keys returns the field names in the patch.
func (p Patch) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	return keys
}

// PatchString reads a string field. nil yields "".
func PatchString(field string, v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	default:
		return "", NewValidationError(fmt.Sprintf("%s must be a string", field))
	}
}

// PatchBool reads a boolean field.
func PatchBool(field string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, NewValidationError(fmt.Sprintf("%s must be a boolean", field))
	}
	return b, nil
}

// PatchDecimal reads a money or quantity field given as a JSON number or string.
func PatchDecimal(field string, v any) (decimal.Decimal, error) {
	switch val := v.(type) {
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		if err != nil {
			return decimal.Zero, NewValidationError(fmt.Sprintf("%s must be a decimal number", field))
		}
		return d, nil
	case float64:
		return decimal.NewFromFloat(val), nil
	case int:
		return decimal.NewFromInt(int64(val)), nil
	case decimal.Decimal:
		return val, nil
	default:
		return decimal.Zero, NewValidationError(fmt.Sprintf("%s must be a decimal number", field))
	}
}

// PatchInt reads a whole-number field.
func PatchInt(field string, v any) (int, error) {
	switch val := v.(type) {
	case float64:
		if val != math.Trunc(val) {
			return 0, NewValidationError(fmt.Sprintf("%s must be a whole number", field))
		}
		return int(val), nil
	case int:
		return val, nil
	default:
		return 0, NewValidationError(fmt.Sprintf("%s must be a whole number", field))
	}
}

// PatchUUIDPtr reads an optional reference. nil or "" clears it.
func PatchUUIDPtr(field string, v any) (*uuid.UUID, error) {
	s, err := PatchString(field, v)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("%s must be a valid UUID", field))
	}
	return &id, nil
}

// UUIDPtrValue renders an optional reference the way Snapshot values are stored.
func UUIDPtrValue(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}
