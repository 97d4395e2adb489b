// Package mocks provides shared test doubles for the service interfaces.
//
// MockJWTService uses function fields with default return values.
// MockStudyService is a testify mock.Mock; set expectations with On and
// verify them with AssertExpectations.
package mocks
