// Package present renders journey state for the terminal: the stage bar,
// store/sale/recipe/grocery tables, and profile summaries. Money is formatted
// for the configured currency and language with golang.org/x/text.
package present
