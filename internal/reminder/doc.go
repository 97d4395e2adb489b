// Package reminder runs the periodic due-card check.
//
// A Scheduler wraps a gocron scheduler. Every tick it asks the deck store how
// many cards are due per deck and hands each non-empty deck to a Notifier.
// The same tick can expire study sessions that have been idle for too long.
package reminder
