// Package services defines shared utilities consumed by the journey controller
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp stage names, action names, single-flight keys,
//     and correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that tag failures with the
//     journey taxonomy (input, transport, permission, stale, in-flight).
//   - Classify, which turns any error back into a FailureKind so callers can
//     decide whether to notify, fall back, or drop the result silently.
//
// Use these helpers when wiring new API calls so failure handling stays
// uniform across the journey.
package services
