package rules

import (
	"html"
	"regexp"
	"strings"
	"unicode"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([\p{L}\p{N}_][\p{L}\p{N}_.\-]*)\s*\}\}`)

// Render replaces every {{name}} in template with its value from ctx.
// Placeholders that no strategy resolves are left verbatim.
func Render(template string, ctx DataContext) string {
	return render(template, ctx, FormatValue)
}

// RenderHTML is Render with substituted values HTML-escaped, for bodies
// that carry submitted text into markup.
func RenderHTML(template string, ctx DataContext) string {
	return render(template, ctx, func(v any) string {
		return html.EscapeString(FormatValue(v))
	})
}

// Unresolved lists the placeholder names in template that ctx cannot fill,
// in order of first appearance.
func Unresolved(template string, ctx DataContext) []string {
	var missing []string
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := LookupVariable(ctx, name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func render(template string, ctx DataContext, format func(any) string) string {
	if !strings.Contains(template, "{{") {
		return template
	}
	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		sub := placeholderRe.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		value, ok := LookupVariable(ctx, sub[1])
		if !ok {
			return match
		}
		return format(value)
	})
}

// LookupVariable resolves a placeholder name. Strategies, first hit wins:
// exact key, case-insensitive key, dotted path into nested objects, then
// camelCase section prefix ("weddingDetailsVenueName" ->
// ctx["weddingDetails"]["venueName"]).
func LookupVariable(ctx DataContext, name string) (any, bool) {
	return lookupIn(map[string]any(ctx), name, 0)
}

const maxSectionDepth = 4

func lookupIn(m map[string]any, name string, depth int) (any, bool) {
	if m == nil || name == "" {
		return nil, false
	}
	if v, ok := lookupKey(m, name); ok {
		return v, true
	}
	if strings.Contains(name, ".") {
		if v, ok := lookupPath(m, strings.Split(name, ".")); ok {
			return v, true
		}
	}
	if depth < maxSectionDepth {
		return lookupSection(m, name, depth)
	}
	return nil, false
}

// lookupKey tries an exact then a case-insensitive key match
func lookupKey(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok && v != nil {
		return v, true
	}
	for _, k := range sortedKeys(m) {
		if strings.EqualFold(k, key) && m[k] != nil {
			return m[k], true
		}
	}
	return nil, false
}

func lookupPath(m map[string]any, segments []string) (any, bool) {
	var current any = m
	for _, seg := range segments {
		obj, ok := asMap(current)
		if !ok || seg == "" {
			return nil, false
		}
		current, ok = lookupKey(obj, seg)
		if !ok {
			return nil, false
		}
	}
	return current, current != nil
}

func lookupSection(m map[string]any, name string, depth int) (any, bool) {
	runes := []rune(name)
	for i := 1; i < len(runes); i++ {
		if !unicode.IsUpper(runes[i]) {
			continue
		}
		section, ok := lookupKey(m, string(runes[:i]))
		if !ok {
			continue
		}
		obj, ok := asMap(section)
		if !ok {
			continue
		}
		rest := append([]rune{unicode.ToLower(runes[i])}, runes[i+1:]...)
		if v, ok := lookupIn(obj, string(rest), depth+1); ok {
			return v, true
		}
	}
	return nil, false
}
