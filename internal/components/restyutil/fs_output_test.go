package restyutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dump", "http")
	out, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	out.Write("1", "GET / HTTP/1.1")
	out.Write("2", "HTTP/1.1 200 OK")

	contents, err := os.ReadFile(filepath.Join(dir, "1.http"))
	require.NoError(t, err)
	require.Equal(t, "GET / HTTP/1.1", string(contents))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}
