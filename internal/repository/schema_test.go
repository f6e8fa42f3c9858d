package repository

import (
	"os"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// client_id holds the token subject verbatim, which is not necessarily a uuid.
func TestOnboardingClientIDIsText(t *testing.T) {
	ddl, err := os.ReadFile("../../migrations/001_init.sql")
	require.NoError(t, err)

	table := regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS onboarding_tasks \((.*?)\n\);`).FindSubmatch(ddl)
	require.NotNil(t, table, "onboarding_tasks table not found")

	col := regexp.MustCompile(`(?m)^\s*client_id\s+(\w+)`).FindSubmatch(table[1])
	require.NotNil(t, col, "client_id column not found")
	assert.Equal(t, "TEXT", string(col[1]))
}
