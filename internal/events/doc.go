// Package events provides a small in-process publish/subscribe mechanism.
//
// Services emit Events (session.completed, reminder.due) without knowing which
// handlers consume them. The InMemoryEventEmitter dispatches synchronously and
// LoggingHandler records every event in the structured log.
package events
