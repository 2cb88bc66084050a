package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestBuildArchive writes entries in name order with their modes and content intact.
func TestBuildArchive(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "installer.zip")

	entries := []Entry{
		{Name: "readme.txt", Body: []byte("read me first\n"), Mode: 0o644},
		{Name: "install.sh", Body: []byte("#!/bin/sh\necho hi\n"), Mode: 0o755},
	}

	require.NoError(t, Build(path, entries, false))

	reader, err := zip.OpenReader(path)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, reader.Close())
	})

	require.Len(t, reader.File, 2)

	// Name order, not insertion order.
	require.Equal(t, "install.sh", reader.File[0].Name)
	require.Equal(t, "readme.txt", reader.File[1].Name)
	require.Equal(t, os.FileMode(0o755), reader.File[0].Mode().Perm())

	member, err := reader.File[0].Open()
	require.NoError(t, err)

	body, err := io.ReadAll(member)
	require.NoError(t, err)
	require.NoError(t, member.Close())
	require.Equal(t, "#!/bin/sh\necho hi\n", string(body))
}

// TestBuildRefusesOverwrite keeps existing archives unless force is set.
func TestBuildRefusesOverwrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "installer.zip")
	entries := []Entry{{Name: "a.txt", Body: []byte("a"), Mode: 0o644}}

	require.NoError(t, Build(path, entries, false))
	require.Error(t, Build(path, entries, false))
	require.NoError(t, Build(path, entries, true))
}

// TestFileEntry loads file content from disk under the archive name.
func TestFileEntry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	source := filepath.Join(dir, "reqs.txt")
	require.NoError(t, os.WriteFile(source, []byte("torch==2.0\n"), 0o644))

	entry, err := FileEntry("py3.10-linux-x86_64-cuda-reqs.txt", source, 0o644)
	require.NoError(t, err)
	require.Equal(t, "py3.10-linux-x86_64-cuda-reqs.txt", entry.Name)
	require.Equal(t, "torch==2.0\n", string(entry.Body))

	_, err = FileEntry("missing.txt", filepath.Join(dir, "missing"), 0o644)
	require.Error(t, err)
}
