// internal/browser/interaction.go
// Page operations of a Session. Elements are resolved through the
// selector's JS path, so CSS and XPath go through the same chromedp calls.
// Each operation applies its own timeout to the caller's context and
// reports errors in the order: caller cancelled, tab closed, timed out.
package browser

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	navigationTimeout = 60 * time.Second
	dragSteps         = 10
)

// evalOpts makes Evaluate return plain values and await promises.
func evalOpts(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithReturnByValue(true).WithAwaitPromise(true).WithSilent(true)
}

// withElement wraps body in a function receiving the addressed element as el.
func withElement(sel Selector, body string) string {
	return fmt.Sprintf("(function(el){%s})(%s)", body, sel.JSPath())
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Info("Navigating session.", zap.String("url", url))

	navCtx, navCancel := context.WithTimeout(ctx, navigationTimeout)
	defer navCancel()

	if err := s.run(navCtx, chromedp.Navigate(url)); err != nil {
		if navCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return fmt.Errorf("navigation to %s timed out after %v: %w", url, navigationTimeout, navCtx.Err())
		}
		if ctx.Err() != nil || s.ctx.Err() != nil {
			return fmt.Errorf("navigation canceled: %w", err)
		}
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (s *Session) URL(ctx context.Context) (string, error) {
	var location string
	if err := s.run(ctx, chromedp.Location(&location)); err != nil {
		return "", fmt.Errorf("reading location: %w", err)
	}
	return location, nil
}

func (s *Session) WaitPresent(ctx context.Context, sel Selector, timeout time.Duration) error {
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.run(opCtx, chromedp.WaitReady(sel.JSPath(), chromedp.ByJSPath)); err != nil {
		return s.opError(ctx, opCtx, "wait for presence", sel, err)
	}
	return nil
}

func (s *Session) WaitVisible(ctx context.Context, sel Selector, timeout time.Duration) error {
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.run(opCtx, chromedp.WaitVisible(sel.JSPath(), chromedp.ByJSPath)); err != nil {
		return s.opError(ctx, opCtx, "wait for visibility", sel, err)
	}
	return nil
}

func (s *Session) Exists(ctx context.Context, sel Selector) (bool, error) {
	var found bool
	if err := s.Evaluate(ctx, fmt.Sprintf("(%s) !== null", sel.JSPath()), &found); err != nil {
		return false, err
	}
	return found, nil
}

const visibleBody = `if (!el) { return false; }
	const st = window.getComputedStyle(el);
	if (st.display === 'none' || st.visibility === 'hidden') { return false; }
	const r = el.getBoundingClientRect();
	return r.width > 0 && r.height > 0;`

func (s *Session) Visible(ctx context.Context, sel Selector) (bool, error) {
	var visible bool
	if err := s.Evaluate(ctx, withElement(sel, visibleBody), &visible); err != nil {
		return false, err
	}
	return visible, nil
}

func (s *Session) Count(ctx context.Context, sel Selector) (int, error) {
	var n int
	if err := s.Evaluate(ctx, sel.jsAll()+".length", &n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Session) Text(ctx context.Context, sel Selector) (string, error) {
	var res struct {
		Found bool   `json:"found"`
		Text  string `json:"text"`
	}
	script := withElement(sel, `if (!el) { return {found: false, text: ''}; }
		return {found: true, text: el.innerText || el.textContent || ''};`)
	if err := s.Evaluate(ctx, script, &res); err != nil {
		return "", err
	}
	if !res.Found {
		return "", fmt.Errorf("reading text failed for %s: %w", sel, ErrNoMatch)
	}
	return res.Text, nil
}

func (s *Session) Click(ctx context.Context, sel Selector) error {
	s.logger.Debug("Clicking element.", zap.Stringer("selector", sel))

	opCtx, cancel := context.WithTimeout(ctx, s.defaultTimeout())
	defer cancel()

	path := sel.JSPath()
	err := s.run(opCtx,
		chromedp.ScrollIntoView(path, chromedp.ByJSPath),
		chromedp.WaitVisible(path, chromedp.ByJSPath),
		chromedp.Click(path, chromedp.ByJSPath),
	)
	if err != nil {
		return s.opError(ctx, opCtx, "click", sel, err)
	}
	return nil
}

func (s *Session) JSClick(ctx context.Context, sel Selector) error {
	s.logger.Debug("Clicking element via script.", zap.Stringer("selector", sel))

	opCtx, cancel := context.WithTimeout(ctx, s.defaultTimeout())
	defer cancel()

	var clicked bool
	err := s.run(opCtx,
		chromedp.WaitReady(sel.JSPath(), chromedp.ByJSPath),
		chromedp.Evaluate(withElement(sel, `if (!el) { return false; } el.click(); return true;`), &clicked, evalOpts),
	)
	if err != nil {
		return s.opError(ctx, opCtx, "script click", sel, err)
	}
	if !clicked {
		return fmt.Errorf("script click failed for %s: element detached", sel)
	}
	return nil
}

// jsClearBody empties a field through the native value setter so
// framework-controlled inputs see the change.
const jsClearBody = `if (!el || el.disabled || el.readOnly) { return false; }
	try {
		const proto = Object.getPrototypeOf(el);
		const desc = Object.getOwnPropertyDescriptor(proto, 'value');
		if (desc && desc.set) { desc.set.call(el, ''); } else { el.value = ''; }
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
	} catch (e) {
		return false;
	}
	return true;`

func (s *Session) Type(ctx context.Context, sel Selector, text string) error {
	s.logger.Debug("Typing into element.", zap.Stringer("selector", sel), zap.Int("text_length", len(text)))

	opCtx, cancel := context.WithTimeout(ctx, s.defaultTimeout()+time.Duration(len(text)/5)*time.Second)
	defer cancel()

	path := sel.JSPath()
	var cleared bool
	err := s.run(opCtx,
		chromedp.ScrollIntoView(path, chromedp.ByJSPath),
		chromedp.WaitVisible(path, chromedp.ByJSPath),
		chromedp.Evaluate(withElement(sel, jsClearBody), &cleared, evalOpts),
	)
	if err != nil {
		return s.opError(ctx, opCtx, "clear", sel, err)
	}
	if !cleared {
		return fmt.Errorf("clear failed for %s: element is stale, disabled or read-only", sel)
	}

	if err := s.run(opCtx, chromedp.SendKeys(path, text, chromedp.ByJSPath)); err != nil {
		return s.opError(ctx, opCtx, "type", sel, err)
	}
	return nil
}

func (s *Session) SendKeys(ctx context.Context, sel Selector, text string) error {
	opCtx, cancel := context.WithTimeout(ctx, s.defaultTimeout())
	defer cancel()

	path := sel.JSPath()
	if err := s.run(opCtx,
		chromedp.WaitVisible(path, chromedp.ByJSPath),
		chromedp.SendKeys(path, text, chromedp.ByJSPath),
	); err != nil {
		return s.opError(ctx, opCtx, "send keys", sel, err)
	}
	return nil
}

func (s *Session) SetValue(ctx context.Context, sel Selector, value string) error {
	opCtx, cancel := context.WithTimeout(ctx, s.defaultTimeout())
	defer cancel()

	body := fmt.Sprintf(`if (!el) { return false; }
		const proto = Object.getPrototypeOf(el);
		const desc = Object.getOwnPropertyDescriptor(proto, 'value');
		if (desc && desc.set) { desc.set.call(el, %s); } else { el.value = %s; }
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return true;`, jsonEncode(value), jsonEncode(value))

	var ok bool
	err := s.run(opCtx,
		chromedp.WaitReady(sel.JSPath(), chromedp.ByJSPath),
		chromedp.Evaluate(withElement(sel, body), &ok, evalOpts),
	)
	if err != nil {
		return s.opError(ctx, opCtx, "set value", sel, err)
	}
	if !ok {
		return fmt.Errorf("set value failed for %s: element detached", sel)
	}
	return nil
}

func (s *Session) SelectOption(ctx context.Context, sel Selector, exact, fallback string) (string, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.defaultTimeout())
	defer cancel()

	body := fmt.Sprintf(`if (!el || !el.options) { return {found: false, text: ''}; }
		const exact = %s, fallback = %s.toLowerCase();
		const opts = Array.from(el.options);
		let pick = opts.find(o => o.text.trim() === exact);
		if (!pick && fallback) { pick = opts.find(o => o.text.toLowerCase().includes(fallback)); }
		if (!pick) { return {found: false, text: ''}; }
		el.value = pick.value;
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return {found: true, text: pick.text.trim()};`, jsonEncode(exact), jsonEncode(fallback))

	var chosen struct {
		Found bool   `json:"found"`
		Text  string `json:"text"`
	}
	err := s.run(opCtx,
		chromedp.WaitReady(sel.JSPath(), chromedp.ByJSPath),
		chromedp.Evaluate(withElement(sel, body), &chosen, evalOpts),
	)
	if err != nil {
		return "", s.opError(ctx, opCtx, "select option", sel, err)
	}
	if !chosen.Found {
		return "", fmt.Errorf("select option failed for %s: no option matches %q or %q", sel, exact, fallback)
	}
	return chosen.Text, nil
}

type point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Found bool    `json:"found"`
}

func (s *Session) center(ctx context.Context, sel Selector) (point, error) {
	var p point
	script := withElement(sel, `if (!el) { return {found: false, x: 0, y: 0}; }
		el.scrollIntoView({block: 'center'});
		const r = el.getBoundingClientRect();
		return {found: true, x: r.left + r.width / 2, y: r.top + r.height / 2};`)
	if err := s.Evaluate(ctx, script, &p); err != nil {
		return p, err
	}
	if !p.Found {
		return p, fmt.Errorf("locating %s: %w", sel, ErrNoMatch)
	}
	return p, nil
}

func (s *Session) Drag(ctx context.Context, from, to Selector) error {
	opCtx, cancel := context.WithTimeout(ctx, s.defaultTimeout())
	defer cancel()

	src, err := s.center(opCtx, from)
	if err != nil {
		return err
	}
	dst, err := s.center(opCtx, to)
	if err != nil {
		return err
	}

	actions := []chromedp.Action{
		input.DispatchMouseEvent(input.MouseMoved, src.X, src.Y),
		input.DispatchMouseEvent(input.MousePressed, src.X, src.Y).
			WithButton(input.Left).WithButtons(1).WithClickCount(1),
	}
	for i := 1; i <= dragSteps; i++ {
		frac := float64(i) / dragSteps
		x := src.X + (dst.X-src.X)*frac
		y := src.Y + (dst.Y-src.Y)*frac
		actions = append(actions, input.DispatchMouseEvent(input.MouseMoved, x, y).
			WithButton(input.Left).WithButtons(1))
	}
	actions = append(actions, input.DispatchMouseEvent(input.MouseReleased, dst.X, dst.Y).
		WithButton(input.Left).WithButtons(0).WithClickCount(1))

	if err := s.run(opCtx, actions...); err != nil {
		return s.opError(ctx, opCtx, "drag", from, err)
	}
	return nil
}

func (s *Session) ScrollIntoView(ctx context.Context, sel Selector, alignTop bool) error {
	opCtx, cancel := context.WithTimeout(ctx, s.defaultTimeout())
	defer cancel()

	var ok bool
	body := fmt.Sprintf(`if (!el) { return false; } el.scrollIntoView(%t); return true;`, alignTop)
	err := s.run(opCtx,
		chromedp.WaitReady(sel.JSPath(), chromedp.ByJSPath),
		chromedp.Evaluate(withElement(sel, body), &ok, evalOpts),
	)
	if err != nil {
		return s.opError(ctx, opCtx, "scroll into view", sel, err)
	}
	return nil
}

func (s *Session) ScrollBy(ctx context.Context, dx, dy int) error {
	return s.Evaluate(ctx, fmt.Sprintf("window.scrollBy(%d, %d)", dx, dy), nil)
}

// Evaluate runs an expression. When res is nil the value is discarded,
// which also covers expressions that evaluate to undefined.
func (s *Session) Evaluate(ctx context.Context, script string, res interface{}) error {
	opCtx, cancel := context.WithTimeout(ctx, s.defaultTimeout())
	defer cancel()

	if res == nil {
		var discard bool
		script = "((" + script + "), true)"
		res = &discard
	}

	if err := s.run(opCtx, chromedp.Evaluate(script, res, evalOpts)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.ctx.Err() != nil {
			return s.ctx.Err()
		}
		return fmt.Errorf("script evaluation failed: %w", err)
	}
	return nil
}

func (s *Session) Screenshot(ctx context.Context, path string) error {
	opCtx, cancel := context.WithTimeout(ctx, s.defaultTimeout())
	defer cancel()

	var buf []byte
	if err := s.run(opCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return fmt.Errorf("capturing screenshot: %w", err)
	}
	if len(buf) == 0 || !bytes.HasPrefix(buf, []byte("\x89PNG")) {
		return fmt.Errorf("capturing screenshot: empty or non-PNG image")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating screenshot directory: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("writing screenshot: %w", err)
	}
	s.logger.Info("Screenshot saved.", zap.String("path", path))
	return nil
}

func (s *Session) Sleep(ctx context.Context, d time.Duration) error {
	return Sleep(ctx, d)
}

// Sleep waits for d unless ctx is done first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
