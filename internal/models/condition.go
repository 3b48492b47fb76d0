package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Operator is a condition comparison operator
type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorNotEquals   Operator = "notEquals"
	OperatorContains    Operator = "contains"
	OperatorNotContains Operator = "notContains"
	OperatorStartsWith  Operator = "startsWith"
	OperatorEndsWith    Operator = "endsWith"
	OperatorGreaterThan Operator = "greaterThan"
	OperatorLessThan    Operator = "lessThan"
)

var knownOperators = map[Operator]bool{
	OperatorEquals:      true,
	OperatorNotEquals:   true,
	OperatorContains:    true,
	OperatorNotContains: true,
	OperatorStartsWith:  true,
	OperatorEndsWith:    true,
	OperatorGreaterThan: true,
	OperatorLessThan:    true,
}

// IsKnown reports whether op is one of the supported operators
func (op Operator) IsKnown() bool {
	return knownOperators[op]
}

// Condition is one clause of a rule; all clauses of a rule are ANDed.
// Field holds whichever identifier the rule was saved with (stable id,
// row id, mapping or label key).
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
}

// Validate checks the condition for write paths. Unknown operators are
// tolerated when reading stored rules but rejected here.
func (c Condition) Validate() error {
	if strings.TrimSpace(c.Field) == "" {
		return &ValidationError{Field: "conditions.field", Message: "Condition field is required"}
	}
	if !c.Operator.IsKnown() {
		return &ValidationError{Field: "conditions.operator", Message: fmt.Sprintf("Unknown operator %q", c.Operator)}
	}
	return nil
}

// rawCondition accepts the historical shapes of a stored condition
type rawCondition struct {
	Field    string          `json:"field"`
	FieldID  string          `json:"fieldId"`
	Operator string          `json:"operator"`
	Value    json.RawMessage `json:"value"`
}

// ParseConditions turns stored condition JSON into a strict list.
// "", "null", "[]", "{}" and a JSON-encoded empty string all mean no
// conditions and return (nil, nil). Accepted shapes: an array of
// conditions, a single condition object, an object wrapping a
// "conditions" array, or any of those double-encoded as a JSON string.
func ParseConditions(raw string) ([]Condition, error) {
	return parseConditions([]byte(strings.TrimSpace(raw)), 0)
}

func parseConditions(data []byte, depth int) ([]Condition, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	switch data[0] {
	case '"':
		if depth > 0 {
			return nil, fmt.Errorf("%w: nested string encoding", ErrInvalidConditions)
		}
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConditions, err)
		}
		return parseConditions([]byte(strings.TrimSpace(inner)), depth+1)

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConditions, err)
		}
		conditions := make([]Condition, 0, len(items))
		for i, item := range items {
			cond, err := parseCondition(item)
			if err != nil {
				return nil, fmt.Errorf("%w: condition %d: %v", ErrInvalidConditions, i, err)
			}
			conditions = append(conditions, cond)
		}
		if len(conditions) == 0 {
			return nil, nil
		}
		return conditions, nil

	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConditions, err)
		}
		if len(obj) == 0 {
			return nil, nil
		}
		if wrapped, ok := obj["conditions"]; ok {
			return parseConditions(wrapped, depth+1)
		}
		cond, err := parseCondition(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConditions, err)
		}
		return []Condition{cond}, nil

	default:
		return nil, fmt.Errorf("%w: unexpected JSON value", ErrInvalidConditions)
	}
}

func parseCondition(data json.RawMessage) (Condition, error) {
	var rc rawCondition
	if err := json.Unmarshal(data, &rc); err != nil {
		return Condition{}, err
	}

	field := strings.TrimSpace(rc.Field)
	if field == "" {
		field = strings.TrimSpace(rc.FieldID)
	}
	if field == "" {
		return Condition{}, fmt.Errorf("missing field")
	}

	value, err := conditionValue(rc.Value)
	if err != nil {
		return Condition{}, err
	}

	return Condition{
		Field:    field,
		Operator: NormalizeOperator(rc.Operator),
		Value:    value,
	}, nil
}

// conditionValue coerces a stored comparison value to its string form
func conditionValue(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}

	switch val := v.(type) {
	case string:
		return val, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", fmt.Errorf("unsupported condition value %s", string(raw))
	}
}

// NormalizeOperator maps snake_case and lowercase spellings onto the
// canonical camelCase operator names. Unknown names pass through.
func NormalizeOperator(s string) Operator {
	key := strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(strings.TrimSpace(s), "_", ""), "-", ""))
	for op := range knownOperators {
		if strings.ToLower(string(op)) == key {
			return op
		}
	}
	return Operator(strings.TrimSpace(s))
}

// EncodeConditions serializes conditions for storage
func EncodeConditions(conditions []Condition) (string, error) {
	if len(conditions) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(conditions)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
