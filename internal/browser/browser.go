// Package browser provides the single concrete implementation of the
// webagent Browser Capability (spec.md §4.3): a locally launched Chromium
// instance driven by playwright-community/playwright-go. The capability
// itself is an interface so internal/webagent's Action Loop depends only on
// the abstract shape, never on Playwright directly.
package browser

import (
	"context"
	"fmt"
	"time"
)

// Capability is the Browser Capability the Action Loop consumes. Every
// method may block on I/O; callers thread ctx through for cancellation, per
// spec.md §5's requirement that cancellation be honored at every suspension
// point.
type Capability interface {
	// Start acquires the underlying browser resource. Shutdown releases it.
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error

	Goto(ctx context.Context, url string) error
	GoBack(ctx context.Context) error
	GoForward(ctx context.Context) error

	GetURL(ctx context.Context) (string, error)
	GetTitle(ctx context.Context) (string, error)

	// GetText returns the rendered (uncompressed) Aria snapshot of the
	// current page, per spec.md §4.1+§4.2 pre-compression.
	GetText(ctx context.Context) (string, error)

	// PerformAction locates the element identified by ref in the most
	// recently taken snapshot and executes action against it. action is one
	// of click, hover, fill, focus, check, uncheck, select; value is used by
	// fill and select.
	PerformAction(ctx context.Context, ref, action, value string) error

	// WaitForLoadState waits for the named load state ("load",
	// "domcontentloaded", "networkidle"). A zero timeout means the driver's
	// default.
	WaitForLoadState(ctx context.Context, state string, timeout time.Duration) error
}

// RefNotFoundError is returned by PerformAction when ref does not resolve
// against the most recent snapshot.
type RefNotFoundError struct {
	Ref string
}

func (e *RefNotFoundError) Error() string {
	return fmt.Sprintf("ref not found: %s", e.Ref)
}

// UnsupportedActionError is returned when action cannot be applied to the
// element ref resolves to (e.g. "select" on a plain button).
type UnsupportedActionError struct {
	Action string
	Tag    string
}

func (e *UnsupportedActionError) Error() string {
	return fmt.Sprintf("action %q is not supported for element <%s>", e.Action, e.Tag)
}

// NavigationFailedError wraps a driver error encountered during goto/back/
// forward.
type NavigationFailedError struct {
	URL string
	Err error
}

func (e *NavigationFailedError) Error() string {
	return fmt.Sprintf("navigation to %q failed: %v", e.URL, e.Err)
}

func (e *NavigationFailedError) Unwrap() error { return e.Err }

// TimeoutError is returned by WaitForLoadState when the load state was not
// reached within the requested timeout. The Action Loop treats this as
// non-fatal (system:network_timeout), per spec.md §7.
type TimeoutError struct {
	State   string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out waiting for load state %q after %s", e.State, e.Timeout)
}
