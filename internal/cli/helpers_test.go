package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cuetest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
