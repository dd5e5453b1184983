// Package journey implements the guided shopping journey: locate the shopper,
// discover nearby stores, browse a store's sales, generate recipes from those
// sales, and build a grocery list from the chosen recipes.
//
// Controller is the state machine. It decides which stage is current and
// which stages are reachable, starts the fetch a stage needs when navigation
// lands on it without data, and drops responses that arrive after the journey
// moved on. SelectionSet holds the chosen recipes and ProfileStore holds the
// shopper's profile. Every operation returns a State snapshot that a
// presentation layer can render without any decision logic of its own.
package journey
