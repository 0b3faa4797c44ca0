// Package browsertest provides an in-memory browser.Page for exercising
// automation flows without Chrome.
package browsertest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xkilldash9x/seeqlo-runner/internal/browser"
)

// Call is one recorded page operation.
type Call struct {
	Op  string
	Sel browser.Selector
	Arg string
}

// Element is the state shared by every match of one selector query.
type Element struct {
	Count   int
	Hidden  bool
	Text    []string
	Options []string
}

type evalRule struct {
	contains string
	value    interface{}
	err      error
}

// Page is a scripted browser.Page. Elements exist only once added, clicks
// can trigger hooks that reshape the page, and every operation is recorded.
type Page struct {
	mu         sync.Mutex
	elements   map[string]*Element
	hooks      map[string][]func(p *Page, index int)
	failures   map[string]error
	evalRules  []evalRule
	calls      []Call
	currentURL string
	slept      time.Duration
	closed     bool
}

var _ browser.Page = (*Page)(nil)

func NewPage() *Page {
	return &Page{
		elements: make(map[string]*Element),
		hooks:    make(map[string][]func(p *Page, index int)),
		failures: make(map[string]error),
	}
}

func key(sel browser.Selector) string { return sel.Kind.String() + ":" + sel.Query }

// Add makes count elements match sel's query.
func (p *Page) Add(sel browser.Selector, count int) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	el := p.element(sel)
	el.Count = count
	el.Hidden = false
	return p
}

// AddText adds one element per text, in order.
func (p *Page) AddText(sel browser.Selector, texts ...string) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	el := p.element(sel)
	el.Count = len(texts)
	el.Text = append([]string(nil), texts...)
	return p
}

// AddSelect adds a select element offering options.
func (p *Page) AddSelect(sel browser.Selector, options ...string) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	el := p.element(sel)
	el.Count = 1
	el.Options = append([]string(nil), options...)
	return p
}

func (p *Page) Remove(sel browser.Selector) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.elements, key(sel))
	return p
}

// Hide keeps the elements attached but not rendered.
func (p *Page) Hide(sel browser.Selector) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.element(sel).Hidden = true
	return p
}

// OnClick registers fn to run after any match of sel is clicked.
func (p *Page) OnClick(sel browser.Selector, fn func(p *Page, index int)) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks[key(sel)] = append(p.hooks[key(sel)], fn)
	return p
}

// Fail makes operation op on sel return err.
func (p *Page) Fail(op string, sel browser.Selector, err error) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[op+"|"+key(sel)] = err
	return p
}

// OnEvaluate answers scripts containing substr with value, or err.
func (p *Page) OnEvaluate(substr string, value interface{}, err error) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evalRules = append(p.evalRules, evalRule{contains: substr, value: value, err: err})
	return p
}

func (p *Page) SetURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentURL = url
}

// Calls returns a copy of the recorded operations.
func (p *Page) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// CallCount returns how often op ran against sel's query, at any index.
func (p *Page) CallCount(op string, sel browser.Selector) int {
	n := 0
	for _, c := range p.Calls() {
		if c.Op == op && key(c.Sel) == key(sel) {
			n++
		}
	}
	return n
}

// Typed returns the text typed into sel's query, in order.
func (p *Page) Typed(sel browser.Selector) []string {
	var out []string
	for _, c := range p.Calls() {
		if (c.Op == "Type" || c.Op == "SendKeys" || c.Op == "SetValue") && key(c.Sel) == key(sel) {
			out = append(out, c.Arg)
		}
	}
	return out
}

func (p *Page) Slept() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.slept
}

func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) element(sel browser.Selector) *Element {
	el, ok := p.elements[key(sel)]
	if !ok {
		el = &Element{}
		p.elements[key(sel)] = el
	}
	return el
}

// lookup records the call and reports whether sel currently resolves.
func (p *Page) lookup(op string, sel browser.Selector, arg string) (*Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, Call{Op: op, Sel: sel, Arg: arg})
	if err, ok := p.failures[op+"|"+key(sel)]; ok {
		return nil, err
	}
	el, ok := p.elements[key(sel)]
	if !ok || sel.Index >= el.Count {
		return nil, fmt.Errorf("%s: %s not found: %w", op, sel, context.DeadlineExceeded)
	}
	return el, nil
}

func (p *Page) fire(sel browser.Selector) {
	p.mu.Lock()
	hooks := append(([]func(*Page, int))(nil), p.hooks[key(sel)]...)
	p.mu.Unlock()
	for _, fn := range hooks {
		fn(p, sel.Index)
	}
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, Call{Op: "Navigate", Arg: url})
	p.currentURL = url
	return nil
}

func (p *Page) URL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentURL, ctx.Err()
}

func (p *Page) WaitPresent(ctx context.Context, sel browser.Selector, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.lookup("WaitPresent", sel, "")
	return err
}

func (p *Page) WaitVisible(ctx context.Context, sel browser.Selector, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	el, err := p.lookup("WaitVisible", sel, "")
	if err != nil {
		return err
	}
	if el.Hidden {
		return fmt.Errorf("WaitVisible: %s hidden: %w", sel, context.DeadlineExceeded)
	}
	return nil
}

func (p *Page) Exists(ctx context.Context, sel browser.Selector) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := p.lookup("Exists", sel, "")
	return err == nil, nil
}

func (p *Page) Visible(ctx context.Context, sel browser.Selector) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	el, err := p.lookup("Visible", sel, "")
	return err == nil && !el.Hidden, nil
}

func (p *Page) Count(ctx context.Context, sel browser.Selector) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, Call{Op: "Count", Sel: sel})
	if el, ok := p.elements[key(sel)]; ok {
		return el.Count, nil
	}
	return 0, nil
}

func (p *Page) Text(ctx context.Context, sel browser.Selector) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	el, err := p.lookup("Text", sel, "")
	if err != nil {
		return "", err
	}
	if sel.Index < len(el.Text) {
		return el.Text[sel.Index], nil
	}
	return "", nil
}

func (p *Page) click(ctx context.Context, op string, sel browser.Selector) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.lookup(op, sel, ""); err != nil {
		return err
	}
	p.fire(sel)
	return nil
}

func (p *Page) Click(ctx context.Context, sel browser.Selector) error {
	return p.click(ctx, "Click", sel)
}

func (p *Page) JSClick(ctx context.Context, sel browser.Selector) error {
	return p.click(ctx, "JSClick", sel)
}

func (p *Page) Type(ctx context.Context, sel browser.Selector, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.lookup("Type", sel, text)
	return err
}

func (p *Page) SendKeys(ctx context.Context, sel browser.Selector, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.lookup("SendKeys", sel, text)
	return err
}

func (p *Page) SetValue(ctx context.Context, sel browser.Selector, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.lookup("SetValue", sel, value)
	return err
}

func (p *Page) SelectOption(ctx context.Context, sel browser.Selector, exact, fallback string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	el, err := p.lookup("SelectOption", sel, exact)
	if err != nil {
		return "", err
	}
	for _, o := range el.Options {
		if o == exact {
			return o, nil
		}
	}
	if fallback != "" {
		for _, o := range el.Options {
			if strings.Contains(strings.ToLower(o), strings.ToLower(fallback)) {
				return o, nil
			}
		}
	}
	return "", fmt.Errorf("no option matches %q or %q", exact, fallback)
}

func (p *Page) Drag(ctx context.Context, from, to browser.Selector) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.lookup("Drag", from, to.String()); err != nil {
		return err
	}
	p.mu.Lock()
	_, ok := p.elements[key(to)]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("drag target %s not found", to)
	}
	p.fire(to)
	return nil
}

func (p *Page) ScrollIntoView(ctx context.Context, sel browser.Selector, _ bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.lookup("ScrollIntoView", sel, "")
	return err
}

func (p *Page) ScrollBy(ctx context.Context, dx, dy int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, Call{Op: "ScrollBy", Arg: fmt.Sprintf("%d,%d", dx, dy)})
	return nil
}

func (p *Page) Evaluate(ctx context.Context, script string, res interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.calls = append(p.calls, Call{Op: "Evaluate", Arg: script})
	rules := append([]evalRule(nil), p.evalRules...)
	p.mu.Unlock()

	for _, r := range rules {
		if !strings.Contains(script, r.contains) {
			continue
		}
		if r.err != nil {
			return r.err
		}
		if res == nil {
			return nil
		}
		b, err := json.Marshal(r.value)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, res)
	}
	return nil
}

func (p *Page) Screenshot(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, Call{Op: "Screenshot", Arg: path})
	return nil
}

// Screenshots returns the paths passed to Screenshot.
func (p *Page) Screenshots() []string {
	var out []string
	for _, c := range p.Calls() {
		if c.Op == "Screenshot" {
			out = append(out, c.Arg)
		}
	}
	return out
}

func (p *Page) Sleep(ctx context.Context, d time.Duration) error {
	p.mu.Lock()
	p.slept += d
	p.mu.Unlock()
	return ctx.Err()
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
