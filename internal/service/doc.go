// Package service contains the study use cases that sit between the HTTP and
// CLI front ends and the storage layer.
//
// StudyService checks deck ownership, derives deck statistics and due lists
// from the card store, and keeps one session.Controller per open study
// session in a registry keyed by session ID. Finished sessions are announced
// through an events.EventEmitter.
//
// The service depends only on the store interfaces, never on a particular
// database, so the same code runs against postgres on the server and SQLite
// in the CLI.
package service
