// Package testutil provides test helpers and utilities for blinders tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteTempFile writes content to a file in the specified directory.
func WriteTempFile(t testing.TB, dir, filename, content string) string {
	t.Helper()

	path := filepath.Join(dir, filename)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "failed to create parent of %s", filename)
	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err, "failed to write temp file: %s", filename)

	return path
}

// TempHistoryDSN returns a history database path inside a fresh temp dir.
func TempHistoryDSN(t testing.TB) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "history", "history.db")
}

// AWSConfigFile writes a shared AWS config file defining profiles and
// points AWS_SHARED_CREDENTIALS_FILE at an empty location next to it.
// Tests using it must not run in parallel.
func AWSConfigFile(t *testing.T, profiles ...string) string {
	t.Helper()

	dir := t.TempDir()
	content := ""
	for _, p := range profiles {
		if p == "default" {
			content += "[default]\nregion = eu-west-1\n\n"
			continue
		}
		content += "[profile " + p + "]\nregion = eu-west-1\n\n"
	}

	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	return WriteTempFile(t, dir, "config", content)
}
