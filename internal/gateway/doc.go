// Package gateway wraps every external call of a shopping journey behind a
// uniform Result type.
//
// Each call names a logical resource key. While a call for a key is
// outstanding a second call for the same key is rejected locally with
// services.ErrAlreadyInFlight instead of being issued. Calls are never
// retried; surfaced failures are handed to a Notifier and loading flags drop
// when the call ends.
package gateway
