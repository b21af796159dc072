// Package moderation is the client for the content moderation backend.
//
// Three analyses are supported. Text moderation uses the backend's
// dedicated moderation endpoint. Image and contextual moderation prompt a
// vision-capable chat model and require it to answer with a bare JSON
// verdict, which the client parses and validates before returning.
//
// The client retries transient failures with exponential backoff and
// treats a malformed model answer as a backend failure, never as a safe
// verdict.
package moderation
