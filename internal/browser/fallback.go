package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// First waits for each selector in turn, giving every one the full timeout,
// and returns the first that becomes visible. Context cancellation aborts
// the search immediately.
func First(ctx context.Context, page Page, timeout time.Duration, sels ...Selector) (Selector, error) {
	if len(sels) == 0 {
		return Selector{}, fmt.Errorf("%w: no selectors given", ErrNoMatch)
	}

	attempts := make([]string, 0, len(sels))
	for _, sel := range sels {
		err := page.WaitVisible(ctx, sel, timeout)
		if err == nil {
			return sel, nil
		}
		if ctx.Err() != nil {
			return Selector{}, ctx.Err()
		}
		attempts = append(attempts, fmt.Sprintf("%s: %v", sel, err))
	}
	return Selector{}, fmt.Errorf("%w: %s", ErrNoMatch, strings.Join(attempts, "; "))
}

// ClickFirst resolves the first visible selector and JS-clicks it.
func ClickFirst(ctx context.Context, page Page, timeout time.Duration, sels ...Selector) (Selector, error) {
	sel, err := First(ctx, page, timeout, sels...)
	if err != nil {
		return Selector{}, err
	}
	if err := page.JSClick(ctx, sel); err != nil {
		return sel, fmt.Errorf("clicking %s: %w", sel, err)
	}
	return sel, nil
}

// IsNoMatch reports whether err came from an exhausted selector fallback.
func IsNoMatch(err error) bool { return errors.Is(err, ErrNoMatch) }
