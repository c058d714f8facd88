package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/siherrmann/geobench/helper"
)

// Metadata represents JSONB metadata stored in PostgreSQL,
// e.g. {"city1": "Perth", "city2": "Adelaide", "distance": 2135} on a passage
type Metadata map[string]interface{}

// Value implements the driver.Valuer interface for database storage
func (m Metadata) Value() (driver.Value, error) {
	return m.Marshal()
}

// Scan implements the sql.Scanner interface for database retrieval
func (m *Metadata) Scan(value interface{}) error {
	return m.Unmarshal(value)
}

// Marshal converts Metadata to JSON bytes
func (m Metadata) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal converts JSON bytes or Metadata to Metadata
func (m *Metadata) Unmarshal(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}

	if s, ok := value.(Metadata); ok {
		*m = s
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return helper.NewError("byte assertion", errors.New("type assertion to []byte failed"))
	}

	return json.Unmarshal(b, m)
}

// String returns the string stored under key
func (m Metadata) String(key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("%w: metadata key %q", ErrNotFound, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("metadata key %q is %T, not string", key, v)
	}
	return s, nil
}

// Float returns the number stored under key
func (m Metadata) Float(key string) (float64, error) {
	v, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("%w: metadata key %q", ErrNotFound, key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	}
	return 0, fmt.Errorf("metadata key %q is %T, not a number", key, v)
}
