// Package chrome implements core.Driver on top of chromedp.
package chrome

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/seltest-dev/seltest/pkg/core"
	"github.com/seltest-dev/seltest/pkg/logger"
)

// Default window size and timeouts.
const (
	DefaultWindowWidth   = 1400
	DefaultWindowHeight  = 800
	DefaultTimeout       = 10 * time.Second
	DefaultRetryInterval = 50 * time.Millisecond
	startupTimeout       = 30 * time.Second
)

// Config holds browser launch settings.
type Config struct {
	Headless      bool
	WindowWidth   int
	WindowHeight  int
	ExecPath      string        // Chrome binary; empty uses chromedp's lookup
	Timeout       time.Duration // Per-step timeout when the step sets none
	RetryInterval time.Duration // Pause between click and frame-switch attempts
	NoSandbox     bool
}

func (c *Config) applyDefaults() {
	if c.WindowWidth <= 0 {
		c.WindowWidth = DefaultWindowWidth
	}
	if c.WindowHeight <= 0 {
		c.WindowHeight = DefaultWindowHeight
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = DefaultRetryInterval
	}
}

// allocatorOptions builds the exec allocator options for cfg.
func allocatorOptions(cfg Config) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	return opts
}

// Driver drives one Chrome instance for the duration of a test.
type Driver struct {
	cfg         Config
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	frame       *cdp.Node // Current iframe; nil means the top-level document
	info        *core.BrowserInfo
}

// New launches Chrome and opens a blank tab. The browser lives until Quit
// or until ctx is cancelled.
func New(ctx context.Context, cfg Config) (*Driver, error) {
	cfg.applyDefaults()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions(cfg)...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	d := &Driver{
		cfg:         cfg,
		ctx:         browserCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		info: &core.BrowserInfo{
			Browser:      "chrome",
			Headless:     cfg.Headless,
			WindowWidth:  cfg.WindowWidth,
			WindowHeight: cfg.WindowHeight,
		},
	}

	// The first Run allocates the browser and ties its lifetime to the
	// context it is given, so it must not carry the startup timeout.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, core.ErrBrowserUnreachable.WithCause(err)
	}

	startCtx, startCancel := context.WithTimeout(browserCtx, startupTimeout)
	defer startCancel()

	err := chromedp.Run(startCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, product, _, userAgent, _, err := browser.GetVersion().Do(ctx)
			if err != nil {
				return err
			}
			d.info.Version = strings.TrimPrefix(product, "HeadlessChrome/")
			d.info.Version = strings.TrimPrefix(d.info.Version, "Chrome/")
			d.info.UserAgent = userAgent
			return nil
		}),
	)
	if err != nil {
		cancel()
		allocCancel()
		return nil, core.ErrBrowserUnreachable.WithCause(err)
	}

	logger.Info("chrome %s started (headless=%t, %dx%d)", d.info.Version, cfg.Headless, cfg.WindowWidth, cfg.WindowHeight)
	return d, nil
}

// Screenshot captures the viewport as PNG.
func (d *Driver) Screenshot() ([]byte, error) {
	ctx, cancel := context.WithTimeout(d.ctx, d.cfg.Timeout)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return buf, nil
}

// PageSource returns the outer HTML of the top-level document.
func (d *Driver) PageSource() ([]byte, error) {
	ctx, cancel := context.WithTimeout(d.ctx, d.cfg.Timeout)
	defer cancel()

	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("read page source: %w", err)
	}
	return []byte(html), nil
}

// GetBrowserInfo returns browser and window details.
func (d *Driver) GetBrowserInfo() *core.BrowserInfo {
	return d.info
}

// Quit closes the browser and stops the process.
func (d *Driver) Quit() error {
	err := chromedp.Cancel(d.ctx)
	d.cancel()
	d.allocCancel()
	if err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}
