package migration

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ailat-kz/aaoifi-chat/backend/internal/database"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLFiles_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_b.sql", "001_a.sql", "README.md", "010_c.sql"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o755))

	files, err := SQLFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.sql", "002_b.sql", "010_c.sql"}, files)
}

func TestSQLFiles_MissingDir(t *testing.T) {
	_, err := SQLFiles(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestSQLFiles_ShippedMigrations(t *testing.T) {
	files, err := SQLFiles("../../migrations")
	require.NoError(t, err)
	assert.Contains(t, files, "001_topic_filters.sql")
}

func TestRunMigrations_WithoutDatabase(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	m, err := database.NewManager(&database.Config{}, logger)
	require.NoError(t, err)

	err = NewRunner(m, logger).RunMigrations(t.TempDir())
	assert.ErrorIs(t, err, database.ErrNotConfigured)
}
