// Package session implements the study-session state machine.
//
// A Controller owns one session: it loads the due cards of a deck once,
// presents them in priority order and persists a new review state for each
// rating. Persistence failures leave the controller on the same card so the
// caller can retry without skipping or double-counting it.
package session
