package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/nebolabs/webagent/internal/aria"
)

// PlaywrightBrowser is the sole concrete Browser Capability driver: a single
// local Chromium instance launched and controlled via playwright-go. It
// serializes access with a mutex because the Action Loop reads GetTitle and
// GetURL concurrently from two goroutines when it refreshes page state.
type PlaywrightBrowser struct {
	cfg ResolvedConfig

	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page

	builder     *aria.Builder
	lastBuilder *aria.Builder
	lastDOM     *liveDOM
}

// New constructs a PlaywrightBrowser. Call Start before use.
func New(cfg ResolvedConfig) *PlaywrightBrowser {
	return &PlaywrightBrowser{cfg: cfg}
}

func (b *PlaywrightBrowser) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
		return fmt.Errorf("install playwright browsers: %w", err)
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(b.cfg.Headless),
	}
	if b.cfg.ExecutablePath != "" {
		launchOpts.ExecutablePath = &b.cfg.ExecutablePath
	}
	if b.cfg.NoSandbox {
		launchOpts.Args = []string{"--no-sandbox", "--disable-setuid-sandbox"}
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		_ = pw.Stop()
		return fmt.Errorf("launch chromium: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: b.cfg.ViewportWidth, Height: b.cfg.ViewportHeight},
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return fmt.Errorf("new browser context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		_ = browser.Close()
		_ = pw.Stop()
		return fmt.Errorf("new page: %w", err)
	}

	b.pw = pw
	b.browser = browser
	b.bctx = bctx
	b.page = page
	return nil
}

func (b *PlaywrightBrowser) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.pw != nil {
		_ = b.pw.Stop()
	}
	return nil
}

func (b *PlaywrightBrowser) Goto(ctx context.Context, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	opts := playwright.PageGotoOptions{}
	if b.cfg.NavigationTimeoutMS > 0 {
		opts.Timeout = playwright.Float(float64(b.cfg.NavigationTimeoutMS))
	}
	if _, err := b.page.Goto(url, opts); err != nil {
		return &NavigationFailedError{URL: url, Err: err}
	}
	return nil
}

func (b *PlaywrightBrowser) GoBack(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.page.GoBack(); err != nil {
		return &NavigationFailedError{URL: "back", Err: err}
	}
	return nil
}

func (b *PlaywrightBrowser) GoForward(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.page.GoForward(); err != nil {
		return &NavigationFailedError{URL: "forward", Err: err}
	}
	return nil
}

func (b *PlaywrightBrowser) GetURL(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.page.URL(), nil
}

func (b *PlaywrightBrowser) GetTitle(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.page.Title()
}

// GetText runs the DOM-extraction script, builds an Aria tree over the
// result with internal/aria, and renders it to text. The builder and parsed
// DOM are retained so a following PerformAction can resolve a ref without a
// second round trip, per spec.md §4.3's "implementations are permitted to
// re-snapshot internally to resolve a ref" — here resolution reuses the
// snapshot already in hand instead.
func (b *PlaywrightBrowser) GetText(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	raw, err := b.page.Evaluate(snapshotScript)
	if err != nil {
		return "", fmt.Errorf("dom snapshot evaluate: %w", err)
	}
	str, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("dom snapshot evaluate: unexpected result type %T", raw)
	}

	var root jsNode
	if err := json.Unmarshal([]byte(str), &root); err != nil {
		return "", fmt.Errorf("dom snapshot decode: %w", err)
	}

	dom := newLiveDOM(&root)
	b.lastDOM = dom
	// One Builder lives for the whole page lifetime so refs stay stable
	// snapshot to snapshot for elements whose role/name are unchanged, per
	// spec.md §4.1 step 5 — rebuilding the Builder per call would reset its
	// ref cache and break that invariant.
	if b.builder == nil {
		b.builder = aria.NewBuilder(dom, true)
	} else {
		b.builder.SetDOM(dom)
	}
	b.lastBuilder = b.builder

	tree := b.lastBuilder.Build()
	return aria.Render(tree), nil
}

// PerformAction resolves ref against the most recent GetText snapshot and
// executes action against the live element.
func (b *PlaywrightBrowser) PerformAction(ctx context.Context, ref, action, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lastBuilder == nil || b.lastDOM == nil {
		return &RefNotFoundError{Ref: ref}
	}
	id, ok := b.lastBuilder.Lookup(ref)
	if !ok {
		return &RefNotFoundError{Ref: ref}
	}
	hid, _ := id.(string)
	node, ok := b.lastDOM.byHID[hid]
	if !ok || hid == "" {
		return &RefNotFoundError{Ref: ref}
	}

	locator := b.page.Locator(hidSelector(hid))

	var err error
	switch action {
	case "click":
		err = locator.Click()
	case "hover":
		err = locator.Hover()
	case "focus":
		err = locator.Focus()
	case "fill":
		err = locator.Fill(value)
	case "check":
		err = locator.Check()
	case "uncheck":
		err = locator.Uncheck()
	case "select":
		_, err = locator.SelectOption(playwright.SelectOptionValues{Values: &[]string{value}})
	default:
		return &UnsupportedActionError{Action: action, Tag: node.Tag}
	}
	if err != nil {
		return fmt.Errorf("perform %s on %s: %w", action, ref, err)
	}
	return nil
}

func (b *PlaywrightBrowser) WaitForLoadState(ctx context.Context, state string, timeout time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var s playwright.LoadState
	switch state {
	case "domcontentloaded":
		s = playwright.LoadStateDomcontentloaded
	case "networkidle":
		s = playwright.LoadStateNetworkidle
	default:
		s = playwright.LoadStateLoad
	}
	opts := playwright.PageWaitForLoadStateOptions{State: s}
	if timeout > 0 {
		opts.Timeout = playwright.Float(float64(timeout.Milliseconds()))
	}
	if err := b.page.WaitForLoadState(opts); err != nil {
		if IsTimeout(err) {
			return &TimeoutError{State: state, Timeout: timeout}
		}
		return fmt.Errorf("wait for load state %s: %w", state, err)
	}
	return nil
}

// IsTimeout reports whether err looks like a Playwright timeout error, used
// by the Action Loop to classify WaitForLoadState failures as the non-fatal
// system:network_timeout case rather than a hard failure.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

var _ Capability = (*PlaywrightBrowser)(nil)
