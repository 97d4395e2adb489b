// Package api exposes the study service over HTTP.
//
// Handlers decode and validate JSON requests, read the authenticated user
// from the request context, call service.StudyService and answer through the
// helpers in api/shared. Errors are mapped to status codes and safe messages
// in errors.go; raw error text only ever reaches the (redacted) logs.
package api
