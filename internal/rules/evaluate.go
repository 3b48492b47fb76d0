package rules

import (
	"fmt"

	"github.com/alimgiray/formpilot/internal/models"
)

/*
 * Condition evaluation.
 *
 * A rule's conditions are ANDed. Evaluation stops at the first clause that
 * does not hold. A clause whose field cannot be found in the context fails
 * the whole rule. An empty condition list never matches.
 *
 * Field references go through FieldIndex.ContextKey first because rules
 * store whichever identifier was current when they were saved.
 */

// Evaluation is the outcome of evaluating one condition list
type Evaluation struct {
	Matched bool
	// FailedAt is the index of the clause that stopped evaluation, -1 if none.
	FailedAt int
	Reason   string
}

// Evaluate reports whether every condition holds against ctx
func Evaluate(conditions []models.Condition, ctx DataContext, idx *FieldIndex) bool {
	return Explain(conditions, ctx, idx).Matched
}

// Explain evaluates like Evaluate and says why a list did not match
func Explain(conditions []models.Condition, ctx DataContext, idx *FieldIndex) Evaluation {
	if len(conditions) == 0 {
		return Evaluation{FailedAt: -1, Reason: "rule has no conditions"}
	}

	for i, cond := range conditions {
		key, ok := idx.ContextKey(cond.Field, ctx)
		if !ok {
			return Evaluation{
				FailedAt: i,
				Reason:   missingFieldReason(cond.Field, idx),
			}
		}

		value, _ := ctx.Get(key)
		if !cond.Operator.IsKnown() {
			return Evaluation{
				FailedAt: i,
				Reason:   fmt.Sprintf("unknown operator %q", cond.Operator),
			}
		}
		if !Compare(cond.Operator, value, cond.Value) {
			return Evaluation{
				FailedAt: i,
				Reason:   fmt.Sprintf("%s %s %q is false (actual %q)", cond.Field, cond.Operator, cond.Value, ToText(value)),
			}
		}
	}

	return Evaluation{Matched: true, FailedAt: -1}
}

// missingFieldReason names the closest form field when ref is not a
// reference the form knows about
func missingFieldReason(ref string, idx *FieldIndex) string {
	reason := fmt.Sprintf("field %q not present in submission data", ref)
	if _, known := idx.Lookup(ref); known {
		return reason
	}
	if f, ok := idx.Suggest(ref); ok {
		reason += fmt.Sprintf("; closest form field is %q (%s)", f.StableID, f.Label)
	}
	return reason
}
