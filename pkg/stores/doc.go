// Package stores persists run history in a local SQLite database. Every run
// records its outcome line plus one row per executed task, queryable through
// the history command.
package stores
