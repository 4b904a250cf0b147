package httpapi

// Config is the HTTP API surface configuration (SPEC_FULL.md §4.9's
// "optional SSE sink over HTTP").
type Config struct {
	// Addr is the listen address, e.g. ":8787". Empty disables the HTTP
	// server entirely — runs still execute, just without a remote observer.
	Addr string `yaml:"addr,omitempty"`
}
