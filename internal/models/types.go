package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is a list of strings stored as a JSON array column
type StringList []string

// Scan implements sql.Scanner
func (l *StringList) Scan(src interface{}) error {
	*l = nil
	data, err := jsonBytes(src)
	if err != nil || len(data) == 0 {
		return err
	}
	return json.Unmarshal(data, l)
}

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	return string(data), err
}

// FieldOptions is the option list of a select/radio/checkbox field
type FieldOptions []FieldOption

// FieldOption is one value/label pair
type FieldOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Scan implements sql.Scanner
func (o *FieldOptions) Scan(src interface{}) error {
	*o = nil
	data, err := jsonBytes(src)
	if err != nil || len(data) == 0 {
		return err
	}
	return json.Unmarshal(data, o)
}

// Value implements driver.Valuer
func (o FieldOptions) Value() (driver.Value, error) {
	if o == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]FieldOption(o))
	return string(data), err
}

// JSONMap is a free-form JSON object column (submission payloads)
type JSONMap map[string]any

// Scan implements sql.Scanner
func (m *JSONMap) Scan(src interface{}) error {
	*m = nil
	data, err := jsonBytes(src)
	if err != nil || len(data) == 0 {
		return err
	}
	return json.Unmarshal(data, m)
}

// Value implements driver.Valuer
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(map[string]any(m))
	return string(data), err
}

func jsonBytes(src interface{}) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported JSON column type %T", src)
	}
}
