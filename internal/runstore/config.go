package runstore

// Config is the raw, user-facing run-history store configuration, following
// the teacher's db.NewSQLite(path) entrypoint (internal/db/sqlite.go).
type Config struct {
	// SQLitePath is the database file. Empty uses an in-process, non-persistent
	// store useful for tests and one-off CLI runs.
	SQLitePath string `yaml:"sqlitePath,omitempty"`
}
