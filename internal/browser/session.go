// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/xkilldash9x/seeqlo-runner/internal/config"
	"go.uber.org/zap"
)

// Session is one Chrome tab driven over CDP. It implements Page.
type Session struct {
	id          string
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	cfg         config.BrowserConfig
	logger      *zap.Logger

	mu       sync.Mutex
	isClosed bool
}

var _ Page = (*Session)(nil)

// NewSession launches a local Chrome and attaches to its first tab. The
// browser lives until Close is called or parent is cancelled.
func NewSession(parent context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	sessionID := uuid.New().String()
	sessionLogger := logger.Named("browser").With(zap.String("session_id", sessionID))

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, AllocatorOptions(cfg)...)

	sugar := sessionLogger.Sugar()
	ctxOpts := []chromedp.ContextOption{
		chromedp.WithLogf(sugar.Infof),
		chromedp.WithErrorf(sugar.Debugf),
	}
	if cfg.Debug {
		ctxOpts = append(ctxOpts, chromedp.WithDebugf(sugar.Debugf))
	}
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, ctxOpts...)

	s := &Session{
		id:          sessionID,
		ctx:         tabCtx,
		cancel:      tabCancel,
		allocCancel: allocCancel,
		cfg:         cfg,
		logger:      sessionLogger,
	}

	if cfg.AcceptDialogs {
		chromedp.ListenTarget(tabCtx, s.handleTargetEvent)
	}

	// The first Run allocates the browser. It must not carry a deadline,
	// because cancelling it would kill the browser, so the startup timeout
	// is enforced from outside.
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(tabCtx) }()

	timeout := cfg.StartupTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-started:
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}
	case <-timer.C:
		s.Close()
		return nil, fmt.Errorf("browser did not start within %v", timeout)
	case <-parent.Done():
		s.Close()
		return nil, parent.Err()
	}

	s.logger.Info("Browser session started.", zap.Bool("headless", cfg.Headless))
	return s, nil
}

// NewFactory returns a Factory that opens a new Session per call.
func NewFactory(cfg config.BrowserConfig, logger *zap.Logger) Factory {
	return func(ctx context.Context) (Page, error) {
		return NewSession(ctx, cfg, logger)
	}
}

func (s *Session) ID() string { return s.id }

// handleTargetEvent accepts alert, confirm and beforeunload dialogs so
// flows are never blocked by them.
func (s *Session) handleTargetEvent(ev interface{}) {
	e, ok := ev.(*page.EventJavascriptDialogOpening)
	if !ok {
		return
	}
	s.logger.Info("Accepting JavaScript dialog.", zap.String("type", string(e.Type)), zap.String("message", e.Message))
	// Target callbacks must not block, so the CDP call happens elsewhere.
	go func() {
		if err := chromedp.Run(s.ctx, page.HandleJavaScriptDialog(true)); err != nil && s.ctx.Err() == nil {
			s.logger.Warn("Failed to accept JavaScript dialog.", zap.Error(err))
		}
	}()
}

// Close shuts the tab and then the browser process. It is safe to call
// more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isClosed {
		return nil
	}
	s.isClosed = true

	s.cancel()
	s.allocCancel()
	s.logger.Info("Browser session closed.")
	return nil
}

// run executes actions bound to both the tab lifetime and ctx.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// opError picks the most useful error after a failed operation: caller
// cancellation, then tab shutdown, then the operation's own deadline.
func (s *Session) opError(ctx, opCtx context.Context, action string, sel Selector, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if s.ctx.Err() != nil {
		return s.ctx.Err()
	}
	if opCtx != nil && opCtx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%s timed out for %s: %w", action, sel, opCtx.Err())
	}
	return fmt.Errorf("%s failed for %s: %w", action, sel, err)
}

func (s *Session) defaultTimeout() time.Duration {
	if s.cfg.DefaultTimeout > 0 {
		return s.cfg.DefaultTimeout
	}
	return 10 * time.Second
}
