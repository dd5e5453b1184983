// Package session persists the parts of a shopping journey worth resuming
// between CLI runs: the profile id, the last selected store, and the last
// grocery list snapshot, keyed by session name.
//
// Records live in a SQLite database opened through modernc.org/sqlite. A
// per-session file lock keeps two interactive journeys from writing the same
// session concurrently.
package session
