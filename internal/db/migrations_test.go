package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestRunMigrations_Idempotent(t *testing.T) {
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, RunMigrations(database))
	require.NoError(t, RunMigrations(database))

	for _, table := range []string{"lots", "settings", "members", "payments"} {
		assert.True(t, database.Migrator().HasTable(table), table)
	}
	assert.True(t, database.Migrator().HasIndex("payments", "idx_payments_member_id"))
}
