package rules

import (
	"strings"

	"github.com/alimgiray/formpilot/internal/models"
)

// SubmitterEmailKey is the context key holding the submitter's address
const SubmitterEmailKey = "email"

// ResolveRecipient picks the destination address for a matched rule.
// ok is false when no usable address exists; that is a normal outcome.
func ResolveRecipient(rule *models.EmailRule, ctx DataContext, idx *FieldIndex) (string, bool) {
	switch rule.EffectiveRecipientType() {
	case models.RecipientTypeCustom:
		addr := strings.TrimSpace(rule.RecipientEmail)
		return addr, addr != ""

	case models.RecipientTypeField:
		if key, ok := idx.ContextKey(rule.RecipientField, ctx); ok {
			if addr := textAt(ctx, key); addr != "" {
				return addr, true
			}
		}
		return submitterEmail(ctx)

	default:
		return submitterEmail(ctx)
	}
}

func submitterEmail(ctx DataContext) (string, bool) {
	addr := textAt(ctx, SubmitterEmailKey)
	return addr, addr != ""
}

func textAt(ctx DataContext, key string) string {
	v, ok := ctx.Get(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(ToText(v))
}
