package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/gasdist/backend/internal/domain/shared"
)

// JSONMap stores a shared.Patch as a JSON document
type JSONMap map[string]any

// Value implements driver.Valuer
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (m *JSONMap) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = JSONMap{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported JSON source type %T", src)
	}
	out := JSONMap{}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*m = out
	return nil
}

// Patch converts to the domain type
func (m JSONMap) Patch() shared.Patch {
	if m == nil {
		return shared.Patch{}
	}
	return shared.Patch(m)
}
