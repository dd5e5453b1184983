// Package notifications delivers user-facing notices: the short success,
// info, and error messages a shopper sees while moving through the journey.
//
// A Dispatcher fans each notice out to the terminal, the structured log, and
// ntfy when a topic is configured. The ntfy notifier degrades to a no-op when
// notifications are disabled, and delivery failures never block the journey.
package notifications
