package repository

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrations, migrationsDir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())

		body, err := fs.ReadFile(migrations, migrationsDir+"/"+e.Name())
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", e.Name())
		assert.Contains(t, string(body), "-- +goose Down", e.Name())
	}
	assert.Equal(t, []string{"00001_create_users.sql", "00002_create_blogs.sql"}, names)
}

func TestUsersMigrationEnforcesUniqueEmail(t *testing.T) {
	body, err := fs.ReadFile(migrations, migrationsDir+"/00001_create_users.sql")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "UNIQUE KEY uq_users_email (email)"))
}

func TestMigrate_UsesEmbeddedDir(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var gotDir string
	gooseUpContext = func(_ context.Context, _ *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, Migrate(context.Background(), nil))
	assert.Equal(t, migrationsDir, gotDir)
}

func TestMigrate_WrapsError(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	boom := errors.New("boom")
	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return boom
	}

	err := Migrate(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "migrate up")
}
