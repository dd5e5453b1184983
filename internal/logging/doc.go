// Package logging assembles structured slog loggers and formatting helpers used
// across SaleSavor.
//
// It owns the console and JSON handlers, fans records out to the terminal and
// the persistent log file, and exposes context-aware helpers so gateway and
// journey code can tag log lines with stages, actions, and request IDs. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
