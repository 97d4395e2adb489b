package testdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetTestDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SCRY_TEST_DB_URL", "")
	assert.Empty(t, GetTestDatabaseURL())
	assert.False(t, IsIntegrationTestEnvironment())

	t.Setenv("SCRY_TEST_DB_URL", "postgres://fallback")
	assert.Equal(t, "postgres://fallback", GetTestDatabaseURL())

	t.Setenv("DATABASE_URL", "postgres://primary")
	assert.Equal(t, "postgres://primary", GetTestDatabaseURL())
	assert.True(t, IsIntegrationTestEnvironment())
}

func TestGetTestDBWithTSkipsWithoutURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SCRY_TEST_DB_URL", "")

	skipped := t.Run("inner", func(t *testing.T) {
		GetTestDBWithT(t)
		t.Error("expected the test to be skipped")
	})
	assert.True(t, skipped, "a skipped subtest reports success")
}
