package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBootstrapOpensSQLiteWithoutDatabaseURL(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("FINBOARD_CONFIG", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "boot.db"))
	t.Setenv("LOG_LEVEL", "error")

	cfg, logger, st, err := bootstrap(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NotNil(t, logger)
	require.False(t, cfg.UsesPostgres())
	require.Equal(t, "sqlite", st.Dialect())

	_, err = os.Stat(filepath.Join(dir, "boot.db"))
	require.NoError(t, err)
}

func TestMigrateCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FINBOARD_CONFIG", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "migrate.db"))
	t.Setenv("LOG_LEVEL", "error")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"migrate"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	_, err := os.Stat(filepath.Join(dir, "migrate.db"))
	require.NoError(t, err)
}
