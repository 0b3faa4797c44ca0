package browser

import (
	"context"
	"errors"
	"time"
)

// ErrNoMatch is returned when none of a set of selectors becomes visible.
var ErrNoMatch = errors.New("no selector matched")

// Page is the set of operations automation flows perform on a browser tab.
// Every method honours both ctx and the lifetime of the underlying tab.
type Page interface {
	Navigate(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)

	// WaitPresent waits until the element is attached to the DOM.
	WaitPresent(ctx context.Context, sel Selector, timeout time.Duration) error
	// WaitVisible waits until the element is attached and rendered.
	WaitVisible(ctx context.Context, sel Selector, timeout time.Duration) error
	// Exists reports whether the element is currently attached, without waiting.
	Exists(ctx context.Context, sel Selector) (bool, error)
	// Visible reports whether the element is currently rendered, without waiting.
	Visible(ctx context.Context, sel Selector) (bool, error)
	// Count returns the number of elements matching sel.Query.
	Count(ctx context.Context, sel Selector) (int, error)
	Text(ctx context.Context, sel Selector) (string, error)

	// Click scrolls to the element and dispatches a native mouse click.
	Click(ctx context.Context, sel Selector) error
	// JSClick calls element.click(), which also works on covered elements.
	JSClick(ctx context.Context, sel Selector) error
	// Type clears the field and types text into it.
	Type(ctx context.Context, sel Selector, text string) error
	// SendKeys types text without clearing first.
	SendKeys(ctx context.Context, sel Selector, text string) error
	// SetValue assigns the value property and fires input and change events.
	SetValue(ctx context.Context, sel Selector, value string) error
	// SelectOption picks the option whose text equals exact, falling back to
	// the first option containing fallback. It returns the chosen text.
	SelectOption(ctx context.Context, sel Selector, exact, fallback string) (string, error)
	// Drag presses the mouse on from, moves it onto to, and releases.
	Drag(ctx context.Context, from, to Selector) error

	// ScrollIntoView aligns the element with the viewport. alignTop mirrors
	// the argument of element.scrollIntoView.
	ScrollIntoView(ctx context.Context, sel Selector, alignTop bool) error
	ScrollBy(ctx context.Context, dx, dy int) error

	// Evaluate runs a script and decodes its result into res, when non-nil.
	Evaluate(ctx context.Context, script string, res interface{}) error
	// Screenshot saves a PNG of the viewport to path.
	Screenshot(ctx context.Context, path string) error
	// Sleep pauses for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error

	Close() error
}

// Factory opens a new page. The runner owns the page it gets back.
type Factory func(ctx context.Context) (Page, error)
