// Package logging configures the process-wide structured logger.
//
// Setup builds a slog handler from configuration and installs it as the
// default, so packages can log through slog.Default().With("component", ...)
// without carrying a logger around. All handler output passes through a
// redactor that masks anything shaped like an API credential, as a second
// line of defense behind the rule that plaintext keys are never passed to
// the logger in the first place.
package logging
