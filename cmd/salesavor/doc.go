// Package main hosts the SaleSavor CLI entrypoint and command graph.
//
// The Cobra command tree wires configuration, logging, the API client, and
// the journey controller together, then hands control to either the
// interactive journey shell or one of the one-shot commands (plan, profile,
// session, config). Journey rules live in internal/journey; this package
// only translates terminal input into controller operations and renders the
// resulting state.
package main
