// Package salesapi is the HTTP client for the SaleSavor API and the home of
// its wire types: stores, sale items, recipes, grocery lists, and profiles.
//
// Money fields decode into shopspring decimals. Every failure is wrapped with
// a services marker so callers can classify it without inspecting transport
// details.
package salesapi
