package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_EmbeddedInOrder(t *testing.T) {
	names, err := fs.Glob(Migrations, "*.sql")
	require.NoError(t, err)
	require.Equal(t, []string{
		"00001_create_identities.sql",
		"00002_create_refresh_tokens.sql",
	}, names)

	for _, name := range names {
		b, err := fs.ReadFile(Migrations, name)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(b), "-- +goose Up"), name)
		assert.Contains(t, string(b), "-- +goose Down", name)
	}
}
