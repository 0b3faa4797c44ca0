package browser

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is the query language of a Selector.
type Kind int

const (
	KindCSS Kind = iota
	KindXPath
)

func (k Kind) String() string {
	if k == KindXPath {
		return "xpath"
	}
	return "css"
}

// Selector addresses the Index-th element matching Query.
type Selector struct {
	Kind  Kind
	Query string
	Index int
}

// CSS returns a selector for the first element matching a CSS query.
func CSS(query string) Selector { return Selector{Kind: KindCSS, Query: query} }

// XPath returns a selector for the first element matching an XPath expression.
func XPath(expr string) Selector { return Selector{Kind: KindXPath, Query: expr} }

// Nth returns a copy of s addressing the i-th (zero based) match.
func (s Selector) Nth(i int) Selector {
	s.Index = i
	return s
}

func (s Selector) String() string {
	if s.Index == 0 {
		return fmt.Sprintf("%s(%s)", s.Kind, s.Query)
	}
	return fmt.Sprintf("%s(%s)[%d]", s.Kind, s.Query, s.Index)
}

// JSPath renders a JavaScript expression evaluating to the addressed
// element, or null when it does not exist.
func (s Selector) JSPath() string {
	q := jsonEncode(s.Query)
	if s.Kind == KindXPath {
		return fmt.Sprintf("document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null).snapshotItem(%d)", q, s.Index)
	}
	return fmt.Sprintf("(document.querySelectorAll(%s)[%d] || null)", q, s.Index)
}

// jsAll renders an expression evaluating to an array of every match.
func (s Selector) jsAll() string {
	q := jsonEncode(s.Query)
	if s.Kind == KindXPath {
		return fmt.Sprintf(`(function(){const r=document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);const out=[];for(let i=0;i<r.snapshotLength;i++){out.push(r.snapshotItem(i));}return out;})()`, q)
	}
	return fmt.Sprintf("Array.from(document.querySelectorAll(%s))", q)
}

const (
	upperAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerAlphabet = "abcdefghijklmnopqrstuvwxyz"
)

// Literal quotes s as an XPath string literal. XPath 1.0 has no escape
// sequences, so strings holding both quote kinds are split with concat().
func Literal(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// ContainsFold returns an XPath predicate body matching nodes whose string
// value contains text, ignoring ASCII case.
func ContainsFold(text string) string {
	return fmt.Sprintf("contains(translate(normalize-space(.), %s, %s), %s)",
		Literal(upperAlphabet), Literal(lowerAlphabet), Literal(strings.ToLower(text)))
}

// TextContainsFold is ContainsFold applied to the node's own first text
// node rather than its whole string value.
func TextContainsFold(text string) string {
	return fmt.Sprintf("contains(translate(text(), %s, %s), %s)",
		Literal(upperAlphabet), Literal(lowerAlphabet), Literal(strings.ToLower(text)))
}

func jsonEncode(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `""`
	}
	return string(b)
}
