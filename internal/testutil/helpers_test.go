package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTempFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := WriteTempFile(t, dir, filepath.Join("nested", "a.txt"), "content")

	assert.Equal(t, filepath.Join(dir, "nested", "a.txt"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}

func TestTempHistoryDSN(t *testing.T) {
	t.Parallel()

	dsn := TempHistoryDSN(t)
	assert.True(t, strings.HasSuffix(dsn, filepath.Join("history", "history.db")))
	assert.NoFileExists(t, dsn)
}

func TestAWSConfigFile(t *testing.T) {
	path := AWSConfigFile(t, "default", "staging-admin")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[default]")
	assert.Contains(t, string(data), "[profile staging-admin]")
	assert.Equal(t, filepath.Join(filepath.Dir(path), "credentials"), os.Getenv("AWS_SHARED_CREDENTIALS_FILE"))
}
