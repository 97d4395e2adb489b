// Package testdb provides helpers for PostgreSQL integration tests.
//
// Tests that need a real database call GetTestDBWithT, which skips the test
// when no database URL is configured, migrates the schema once per process,
// and then wrap their work in WithTx so every test sees a clean database.
package testdb
