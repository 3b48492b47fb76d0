package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	ctx := DataContext{
		"x":         "A",
		"firstName": "Ana",
		"Venue":     "Old Mill",
		"guests":    float64(120),
		"deposit":   float64(250.5),
		"vegan":     true,
		"extras":    []any{"DJ", "Photo booth"},
		"empty":     "",
		"nothing":   nil,
		"año":       "2026",
		"größe":     "M",
		"weddingDetails": map[string]any{
			"venueName": "Grand Hotel",
			"ceremony":  map[string]any{"time": "16:00"},
		},
		"eventDate": time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC),
		"createdAt": time.Date(2026, 6, 20, 14, 30, 0, 0, time.UTC),
	}

	testCases := []struct {
		name     string
		template string
		expected string
	}{
		{"Exact key", "{{x}}", "A"},
		{"Whitespace inside braces", "Hi {{ firstName }}!", "Hi Ana!"},
		{"Case insensitive", "{{venue}}", "Old Mill"},
		{"Dotted path", "{{weddingDetails.venueName}}", "Grand Hotel"},
		{"Nested dotted path", "{{weddingDetails.ceremony.time}}", "16:00"},
		{"Section prefix", "{{weddingDetailsVenueName}}", "Grand Hotel"},
		{"Nested section prefix", "{{weddingDetailsCeremonyTime}}", "16:00"},
		{"Number", "{{guests}} guests", "120 guests"},
		{"Decimal", "{{deposit}}", "250.5"},
		{"Boolean", "Vegan: {{vegan}}", "Vegan: Yes"},
		{"List", "{{extras}}", "DJ, Photo booth"},
		{"Date only", "{{eventDate}}", "2026-06-20"},
		{"Date time", "{{createdAt}}", "2026-06-20T14:30:00Z"},
		{"Present but empty", "[{{empty}}]", "[]"},
		{"Non-ASCII key", "{{año}}", "2026"},
		{"Non-ASCII case insensitive", "{{Größe}}", "M"},
		{"Missing stays verbatim", "{{missing}}", "{{missing}}"},
		{"Nil stays verbatim", "{{nothing}}", "{{nothing}}"},
		{"Missing path stays verbatim", "{{weddingDetails.band}}", "{{weddingDetails.band}}"},
		{"No placeholders", "plain text", "plain text"},
		{"Mixed", "{{firstName}} at {{weddingDetailsVenueName}} ({{missing}})", "Ana at Grand Hotel ({{missing}})"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Render(tc.template, ctx))
		})
	}
}

func TestRender_EmptyContext(t *testing.T) {
	assert.Equal(t, "{{missing}}", Render("{{missing}}", DataContext{}))
	assert.Equal(t, "{{missing}}", Render("{{missing}}", nil))
}

func TestRenderHTML_EscapesValues(t *testing.T) {
	ctx := DataContext{"message": `<script>alert("x")</script>`}
	assert.Equal(t,
		"<p>&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;</p>",
		RenderHTML("<p>{{message}}</p>", ctx),
	)
}

func TestUnresolved(t *testing.T) {
	ctx := DataContext{"a": "1", "section": map[string]any{"b": "2"}}
	missing := Unresolved("{{a}} {{sectionB}} {{c}} {{c}} {{d.e}}", ctx)
	assert.Equal(t, []string{"c", "d.e"}, missing)
}
