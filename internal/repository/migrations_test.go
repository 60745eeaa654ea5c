package repository

import (
	"strings"
	"testing"

	"photo-journal-backend/internal/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMigrationFiles(t *testing.T) {
	names, err := listMigrationFiles()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_init.sql", names[0])
	assert.IsIncreasing(t, names)
}

func TestInitMigrationCreatesTables(t *testing.T) {
	contents, err := migrations.Files.ReadFile("001_init.sql")
	require.NoError(t, err)

	sql := string(contents)
	for _, table := range []string{"users", "events", "event_members", "event_photos", "days", "day_photos", "barcodes", "user_barcodes"} {
		assert.True(t, strings.Contains(sql, "CREATE TABLE IF NOT EXISTS "+table+" "), "missing table %s", table)
	}
}
