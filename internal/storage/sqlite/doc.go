// Package sqlite persists per-page template bindings in a SQLite database.
package sqlite
