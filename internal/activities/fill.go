package activities

import (
	"context"
	"fmt"
	"strings"

	"github.com/xkilldash9x/seeqlo-runner/internal/browser"
)

var textboxes = browser.CSS("textarea, input[type='text']")

// anyOf builds an XPath step of tag that matches any of the predicates.
func anyOf(tag string, preds ...string) browser.Selector {
	return browser.XPath(fmt.Sprintf("//%s[%s]", tag, strings.Join(preds, " or ")))
}

func hasClass(class string) string {
	return fmt.Sprintf("contains(@class,%s)", browser.Literal(class))
}

// buttonContaining matches a button whose text contains any of texts, ignoring case.
func buttonContaining(texts ...string) browser.Selector {
	preds := make([]string, len(texts))
	for i, text := range texts {
		preds[i] = browser.ContainsFold(text)
	}
	return anyOf("button", preds...)
}

// buttonWithText matches a button whose string value contains text exactly.
func buttonWithText(text string) browser.Selector {
	return browser.XPath(fmt.Sprintf("//button[contains(., %s)]", browser.Literal(text)))
}

// fillTextboxes types text into up to limit visible text fields and returns
// how many it filled. A limit below one means every field.
func fillTextboxes(ctx context.Context, env *Env, t *Tracker, text string, limit int) (int, error) {
	return fillEach(ctx, env, t, textboxes, limit, func(int) string { return text })
}

// fillEach types answer(i) into the i-th visible match of sel.
func fillEach(ctx context.Context, env *Env, t *Tracker, sel browser.Selector, limit int, answer func(i int) string) (int, error) {
	n, err := env.Page.Count(ctx, sel)
	if err != nil {
		return 0, err
	}
	if limit > 0 && n > limit {
		n = limit
	}

	filled := 0
	for i := 0; i < n; i++ {
		box := sel.Nth(i)
		visible, err := env.Page.Visible(ctx, box)
		if err != nil {
			return filled, err
		}
		if !visible {
			continue
		}
		if err := env.Page.Type(ctx, box, answer(filled)); err != nil {
			return filled, fmt.Errorf("filling %s: %w", box, err)
		}
		filled++
	}
	t.Step("fill_textboxes", fmt.Sprintf("Filled %d text fields", filled))
	return filled, nil
}

// elementState describes a form control as the page sees it.
type elementState struct {
	Found    bool `json:"found"`
	Disabled bool `json:"disabled"`
	Options  int  `json:"options"`
}

func stateOf(ctx context.Context, page browser.Page, sel browser.Selector) (elementState, error) {
	script := fmt.Sprintf(`(function(){const el=%s;if(!el){return {found:false,disabled:false,options:0};}`+
		`return {found:true,disabled:!!el.disabled,options:el.options?el.options.length:0};})()`, sel.JSPath())
	var st elementState
	err := page.Evaluate(ctx, script, &st)
	return st, err
}

// scrollAndClick centres the element, pauses briefly and clicks it natively.
func scrollAndClick(ctx context.Context, env *Env, sel browser.Selector) error {
	if err := env.Page.ScrollIntoView(ctx, sel, false); err != nil {
		return err
	}
	if err := env.Pause(ctx, pauseBeforeClick); err != nil {
		return err
	}
	return env.Page.Click(ctx, sel)
}
