// Package browser drives a single Chrome page through the DevTools protocol
// so the agent can operate a browser the same way it operates an X display.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Manager handles the Chrome lifecycle and the page actions are sent to.
type Manager struct {
	mu       sync.Mutex
	browser  *rod.Browser
	page     *rod.Page
	headless bool
	width    int
	height   int
	startURL string
	logger   *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithHeadless sets headless mode (default false).
func WithHeadless(h bool) Option {
	return func(m *Manager) { m.headless = h }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithViewport fixes the page size so screenshots match the display size
// reported to the agent.
func WithViewport(width, height int) Option {
	return func(m *Manager) { m.width, m.height = width, height }
}

// WithStartURL sets the page opened on Start (default about:blank).
func WithStartURL(url string) Option {
	return func(m *Manager) { m.startURL = url }
}

// New creates a Manager with options.
func New(opts ...Option) *Manager {
	m := &Manager{
		width:    1024,
		height:   768,
		startURL: "about:blank",
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Start launches Chrome, sizes the working page and then loads the start
// URL, so the first layout already uses the agent's display size.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.launch(ctx); err != nil {
		return err
	}
	if m.startURL == "" || m.startURL == "about:blank" {
		return nil
	}
	if err := m.Navigate(ctx, m.startURL); err != nil {
		_ = m.Stop(ctx)
		return fmt.Errorf("open %s: %w", m.startURL, err)
	}
	return nil
}

func (m *Manager) launch(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser != nil {
		return fmt.Errorf("browser already running")
	}

	l := launcher.New().
		Context(ctx).
		Headless(m.headless).
		Set("disable-gpu").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("window-size", strconv.Itoa(m.width)+","+strconv.Itoa(m.height))

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch Chrome: %w", err)
	}

	m.logger.Info("Chrome launched", "cdp", controlURL, "headless", m.headless)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("connect to Chrome: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = b.Close()
		return fmt.Errorf("open page: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             m.width,
		Height:            m.height,
		DeviceScaleFactor: 1,
	}); err != nil {
		_ = b.Close()
		return fmt.Errorf("set viewport: %w", err)
	}
	waitStable(page)

	m.browser = b
	m.page = page
	return nil
}

// Stop closes Chrome.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser == nil {
		return nil
	}

	err := m.browser.Close()
	m.browser = nil
	m.page = nil
	return err
}

// Close shuts down the browser if running.
func (m *Manager) Close() error {
	return m.Stop(context.Background())
}

// Status returns current browser status.
func (m *Manager) Status() *StatusInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	info := &StatusInfo{Width: m.width, Height: m.height}
	if m.browser == nil {
		return info
	}
	info.Running = true
	if pageInfo, err := m.page.Info(); err == nil && pageInfo != nil {
		info.URL = pageInfo.URL
		info.Title = pageInfo.Title
	}
	return info
}

// Navigate points the working page at url.
func (m *Manager) Navigate(ctx context.Context, url string) error {
	page, err := m.current(ctx)
	if err != nil {
		return err
	}
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	waitStable(page)
	return nil
}

// current returns the working page bound to ctx.
func (m *Manager) current(ctx context.Context) (*rod.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.page == nil {
		return nil, fmt.Errorf("browser not running")
	}
	return m.page.Context(ctx), nil
}

// waitStable waits for page to become stable (no network/DOM activity).
func waitStable(page *rod.Page) {
	_ = page.WaitStable(300 * time.Millisecond)
}
