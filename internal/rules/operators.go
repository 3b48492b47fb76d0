package rules

import (
	"strings"

	"github.com/alimgiray/formpilot/internal/models"
)

// Compare applies op to a context value and the condition's target string.
// Unknown operators never match.
func Compare(op models.Operator, value any, target string) bool {
	switch op {
	case models.OperatorEquals:
		return ToText(value) == target
	case models.OperatorNotEquals:
		return ToText(value) != target
	case models.OperatorContains:
		return strings.Contains(ToText(value), target)
	case models.OperatorNotContains:
		return !strings.Contains(ToText(value), target)
	case models.OperatorStartsWith:
		return strings.HasPrefix(ToText(value), target)
	case models.OperatorEndsWith:
		return strings.HasSuffix(ToText(value), target)
	case models.OperatorGreaterThan:
		return ToNumber(value) > ToNumber(target)
	case models.OperatorLessThan:
		return ToNumber(value) < ToNumber(target)
	default:
		return false
	}
}
