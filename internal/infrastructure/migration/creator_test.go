package migration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"add forecasts table":    "add_forecasts_table",
		"Add-Branch-Manager":     "add_branch_manager",
		"  spaced   out  ":       "spaced_out",
		"index__receipt__number": "index_receipt_number",
		"drop 50kg! cylinders?":  "drop_50kg_cylinders",
		"_leading and trailing_": "leading_and_trailing",
		"!!!":                    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, slugify(in), in)
	}
}

func TestCreate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")
	now := time.Date(2026, 10, 19, 9, 30, 5, 0, time.UTC)

	f, err := Create(dir, "Add payment reference index", now)
	require.NoError(t, err)

	assert.Equal(t, "20261019093005", f.Version)
	assert.Equal(t, filepath.Join(dir, "20261019093005_add_payment_reference_index.up.sql"), f.UpPath)
	assert.Equal(t, filepath.Join(dir, "20261019093005_add_payment_reference_index.down.sql"), f.DownPath)

	up, err := os.ReadFile(f.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: add_payment_reference_index")
	down, err := os.ReadFile(f.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(Rollback)")

	_, err = Create(dir, "add payment reference index", now)
	assert.Error(t, err, "existing files are never overwritten")
}

func TestCreate_RejectsEmptyName(t *testing.T) {
	_, err := Create(t.TempDir(), "???", time.Now())
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"20261001000200_create_pending_approvals.up.sql",
		"20261001000200_create_pending_approvals.down.sql",
		"20261001000000_create_core_tables.up.sql",
		"20261001000000_create_core_tables.down.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old.up.sql"), 0o755))

	names, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"20261001000000_create_core_tables",
		"20261001000200_create_pending_approvals",
	}, names)
}

func TestList_MissingDown(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20261001000000_a.up.sql"), []byte("--"), 0o644))

	names, err := List(dir)
	assert.ErrorContains(t, err, "20261001000000_a")
	assert.Equal(t, []string{"20261001000000_a"}, names)
}

func TestList_MissingDirectory(t *testing.T) {
	names, err := List(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestList_RepositoryMigrations(t *testing.T) {
	names, err := List(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(names), 3)
}
