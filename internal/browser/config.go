package browser

// Config is the raw, user-facing browser configuration (YAML-decodable),
// following the teacher's Config → ResolveConfig → ResolvedConfig split in
// internal/config. The multi-profile / extension-relay surface the teacher
// carried is dropped here: this module drives exactly one local Chromium
// instance, per SPEC_FULL.md §4.3.
type Config struct {
	// ExecutablePath overrides Playwright's bundled Chromium.
	ExecutablePath string `yaml:"executablePath,omitempty"`

	// Headless runs the browser without UI. Defaults to true.
	Headless *bool `yaml:"headless,omitempty"`

	// NoSandbox disables Chrome's sandbox (needed in some containers).
	NoSandbox bool `yaml:"noSandbox,omitempty"`

	// ViewportWidth/ViewportHeight size the browser window. Default 1280x800.
	ViewportWidth  int `yaml:"viewportWidth,omitempty"`
	ViewportHeight int `yaml:"viewportHeight,omitempty"`

	// NavigationTimeoutMS bounds goto/back/forward. 0 = driver default.
	NavigationTimeoutMS int `yaml:"navigationTimeoutMs,omitempty"`
}

// ResolvedConfig is Config with defaults applied.
type ResolvedConfig struct {
	ExecutablePath      string
	Headless            bool
	NoSandbox            bool
	ViewportWidth        int
	ViewportHeight       int
	NavigationTimeoutMS  int
}

const (
	defaultViewportWidth  = 1280
	defaultViewportHeight = 800
)

// DefaultConfig returns the default browser configuration.
func DefaultConfig() Config {
	headless := true
	return Config{Headless: &headless, ViewportWidth: defaultViewportWidth, ViewportHeight: defaultViewportHeight}
}

// ResolveConfig resolves cfg, applying defaults for anything left zero.
func ResolveConfig(cfg Config) *ResolvedConfig {
	resolved := &ResolvedConfig{
		ExecutablePath:      cfg.ExecutablePath,
		Headless:            true,
		NoSandbox:           cfg.NoSandbox,
		ViewportWidth:       cfg.ViewportWidth,
		ViewportHeight:      cfg.ViewportHeight,
		NavigationTimeoutMS: cfg.NavigationTimeoutMS,
	}
	if cfg.Headless != nil {
		resolved.Headless = *cfg.Headless
	}
	if resolved.ViewportWidth == 0 {
		resolved.ViewportWidth = defaultViewportWidth
	}
	if resolved.ViewportHeight == 0 {
		resolved.ViewportHeight = defaultViewportHeight
	}
	return resolved
}
