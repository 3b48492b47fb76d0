package rules

import (
	"strings"
	"unicode"

	"github.com/alimgiray/formpilot/internal/models"
	"golang.org/x/text/unicode/norm"
)

// ResolvedField is a form field with every identifier it can be referenced by
type ResolvedField struct {
	EphemeralID string
	StableID    string
	Label       string
	LabelKey    string
	Type        models.FieldType
	Options     models.FieldOptions
	Mapping     string
}

// FieldIndex looks fields up by stable id, row id, explicit mapping or
// camel-cased label, in that order.
type FieldIndex struct {
	fields    []ResolvedField
	byStable  map[string]int
	byID      map[string]int
	byMapping map[string]int
	byLabel   map[string]int
}

// NewFieldIndex builds an index over the fields of one form. Fields without
// a stable id get the row id as a stand-in so rules saved before stable ids
// existed keep resolving.
func NewFieldIndex(fields []*models.FormField) *FieldIndex {
	idx := &FieldIndex{
		fields:    make([]ResolvedField, 0, len(fields)),
		byStable:  make(map[string]int),
		byID:      make(map[string]int),
		byMapping: make(map[string]int),
		byLabel:   make(map[string]int),
	}

	for _, f := range fields {
		if f == nil {
			continue
		}
		rf := ResolvedField{
			EphemeralID: f.ID,
			StableID:    f.StableID,
			Label:       f.Label,
			LabelKey:    LabelKey(f.Label),
			Type:        f.Type,
			Options:     f.Options,
			Mapping:     strings.TrimSpace(f.Mapping),
		}
		if rf.StableID == "" {
			rf.StableID = f.ID
		}

		pos := len(idx.fields)
		idx.fields = append(idx.fields, rf)

		addFirst(idx.byStable, rf.StableID, pos)
		addFirst(idx.byID, rf.EphemeralID, pos)
		addFirst(idx.byMapping, strings.ToLower(rf.Mapping), pos)
		addFirst(idx.byLabel, rf.LabelKey, pos)
	}

	return idx
}

func addFirst(m map[string]int, key string, pos int) {
	if key == "" {
		return
	}
	if _, exists := m[key]; !exists {
		m[key] = pos
	}
}

// Fields returns the indexed fields in form order
func (idx *FieldIndex) Fields() []ResolvedField {
	if idx == nil {
		return nil
	}
	return idx.fields
}

// Lookup finds the field a stored reference points at
func (idx *FieldIndex) Lookup(ref string) (ResolvedField, bool) {
	if idx == nil {
		return ResolvedField{}, false
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ResolvedField{}, false
	}
	for _, lookup := range []func(string) (int, bool){
		func(r string) (int, bool) { p, ok := idx.byStable[r]; return p, ok },
		func(r string) (int, bool) { p, ok := idx.byID[r]; return p, ok },
		func(r string) (int, bool) { p, ok := idx.byMapping[strings.ToLower(r)]; return p, ok },
		func(r string) (int, bool) {
			if p, ok := idx.byLabel[r]; ok {
				return p, true
			}
			p, ok := idx.byLabel[LabelKey(r)]
			return p, ok
		},
	} {
		if pos, ok := lookup(ref); ok {
			return idx.fields[pos], true
		}
	}
	return ResolvedField{}, false
}

// keyStrategy proposes a context key for a field reference
type keyStrategy func(ref string, field ResolvedField, found bool) string

var keyStrategies = []keyStrategy{
	func(ref string, _ ResolvedField, _ bool) string { return ref },
	func(_ string, f ResolvedField, found bool) string { return pick(found, f.StableID) },
	func(_ string, f ResolvedField, found bool) string { return pick(found, f.EphemeralID) },
	func(_ string, f ResolvedField, found bool) string { return pick(found, f.Mapping) },
	func(_ string, f ResolvedField, found bool) string { return pick(found, f.LabelKey) },
	func(_ string, f ResolvedField, found bool) string { return pick(found, f.Label) },
}

func pick(found bool, key string) string {
	if !found {
		return ""
	}
	return key
}

// ContextKey resolves a stored field reference to the key it occupies in
// ctx. The first strategy whose key is present (and non-nil) wins.
func (idx *FieldIndex) ContextKey(ref string, ctx DataContext) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	field, found := idx.Lookup(ref)
	for _, strategy := range keyStrategies {
		key := strategy(ref, field, found)
		if key == "" {
			continue
		}
		if _, ok := ctx.Get(key); ok {
			return key, true
		}
	}
	return "", false
}

// LabelKey camel-cases a label after stripping diacritics:
// "Nombre Completo" -> "nombreCompleto", "E-mail address" -> "eMailAddress".
func LabelKey(label string) string {
	var words []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	for _, r := range norm.NFD.String(label) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			current.WriteRune(unicode.ToLower(r))
		default:
			flush()
		}
	}
	flush()

	var b strings.Builder
	for i, w := range words {
		if i == 0 {
			b.WriteString(w)
			continue
		}
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}

// WithAliases returns a copy of ctx where every field whose value is stored
// under its stable or row id is also reachable by its mapping and label key.
// Existing keys are never overwritten.
func (idx *FieldIndex) WithAliases(ctx DataContext) DataContext {
	out := ctx.Clone()
	for _, f := range idx.Fields() {
		value, ok := ctx.Get(f.StableID)
		if !ok {
			value, ok = ctx.Get(f.EphemeralID)
		}
		if !ok {
			continue
		}
		for _, alias := range []string{f.Mapping, f.LabelKey} {
			if alias == "" {
				continue
			}
			if _, exists := out[alias]; !exists {
				out[alias] = value
			}
		}
	}
	return out
}
