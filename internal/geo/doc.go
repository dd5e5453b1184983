// Package geo acquires the shopper's position. Locators never block the
// journey: every failure is a permission error and callers substitute
// Fallback.
package geo
