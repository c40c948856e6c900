package worker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("package x\n"), 0o644))
	}
}

func TestEnumerateFiles_Basic(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "b.go", "a.go", "notes.txt")

	files, err := enumerateFiles(dir, true, []string{".go"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.go"),
		filepath.Join(dir, "b.go"),
	}, files) // lexical order, unsupported extensions dropped
}

func TestEnumerateFiles_Recursive(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "a.go", "sub/b.go", "sub/deep/c.py")

	files, err := enumerateFiles(dir, true, []string{".go", ".py"}, nil)
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestEnumerateFiles_NonRecursive(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "a.go", "sub/b.go")

	files, err := enumerateFiles(dir, false, []string{".go"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.go")}, files)
}

func TestEnumerateFiles_SkipsHidden(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "a.go", ".hidden.go", ".git/objects/x.go", ".venv/lib.py")

	files, err := enumerateFiles(dir, true, []string{".go", ".py"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.go")}, files)
}

func TestEnumerateFiles_ExcludesLedger(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "a.go", "b.go", "c.go")

	exclude := map[string]struct{}{
		filepath.Join(dir, "b.go"): {},
	}

	files, err := enumerateFiles(dir, true, []string{".go"}, exclude)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.go"),
		filepath.Join(dir, "c.go"),
	}, files)
}

func TestEnumerateFiles_MissingRoot(t *testing.T) {
	_, err := enumerateFiles("/no/such/dir", true, []string{".go"}, nil)
	assert.Error(t, err)
}

func TestEnumerateFiles_ExtensionCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "a.GO")

	files, err := enumerateFiles(dir, true, []string{".go"}, nil)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}
