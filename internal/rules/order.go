package rules

import (
	"sort"

	"github.com/alimgiray/formpilot/internal/models"
)

// OrderRules returns rules with conditioned rules first. The sort is stable
// so creation order breaks ties. The input slice is not modified.
func OrderRules(rules []*models.EmailRule) []*models.EmailRule {
	ordered := make([]*models.EmailRule, len(rules))
	copy(ordered, rules)

	hasConditions := make(map[*models.EmailRule]bool, len(ordered))
	for _, r := range ordered {
		hasConditions[r] = r.HasConditions()
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return hasConditions[ordered[i]] && !hasConditions[ordered[j]]
	})
	return ordered
}
