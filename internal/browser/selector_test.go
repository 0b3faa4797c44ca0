package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectorString(t *testing.T) {
	assert.Equal(t, "css(nav)", CSS("nav").String())
	assert.Equal(t, "xpath(//button)[2]", XPath("//button").Nth(2).String())
}

func TestSelectorNthDoesNotMutate(t *testing.T) {
	base := CSS("textarea")
	third := base.Nth(2)
	assert.Equal(t, 0, base.Index)
	assert.Equal(t, 2, third.Index)
	assert.Equal(t, base.Query, third.Query)
}

func TestSelectorJSPath(t *testing.T) {
	t.Run("CSS", func(t *testing.T) {
		got := CSS(`input[type='email']`).Nth(1).JSPath()
		assert.Equal(t, `(document.querySelectorAll("input[type='email']")[1] || null)`, got)
	})

	t.Run("XPath", func(t *testing.T) {
		got := XPath(`//button[contains(., "Next")]`).JSPath()
		assert.Equal(t,
			`document.evaluate("//button[contains(., \"Next\")]", document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null).snapshotItem(0)`,
			got)
	})
}

func TestSelectorJSAll(t *testing.T) {
	assert.Equal(t, `Array.from(document.querySelectorAll("textarea"))`, CSS("textarea").jsAll())
	assert.Contains(t, XPath("//h4").jsAll(), "snapshotLength")
}

func TestLiteral(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"plain", "Classroom", "'Classroom'"},
		{"single quote", "Don't", `"Don't"`},
		{"both quotes", `it's "fine"`, `concat('it', "'", 's "fine"')`},
		{"leading quote", `'a"`, `concat("'", 'a"')`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Literal(tt.in))
		})
	}
}

func TestContainsFold(t *testing.T) {
	got := ContainsFold("Check Answer")
	assert.Equal(t,
		"contains(translate(normalize-space(.), 'ABCDEFGHIJKLMNOPQRSTUVWXYZ', 'abcdefghijklmnopqrstuvwxyz'), 'check answer')",
		got)
}

func TestTextContainsFold(t *testing.T) {
	got := TextContainsFold("Score")
	assert.Equal(t,
		"contains(translate(text(), 'ABCDEFGHIJKLMNOPQRSTUVWXYZ', 'abcdefghijklmnopqrstuvwxyz'), 'score')",
		got)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "css", KindCSS.String())
	assert.Equal(t, "xpath", KindXPath.String())
}
