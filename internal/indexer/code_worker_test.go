package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coderag/index_go_server/internal/model"
)

// memStore is an in-memory UnitStore.
type memStore struct {
	hashes map[string]string
	units  map[string][]model.SemanticUnit
}

func newMemStore() *memStore {
	return &memStore{
		hashes: make(map[string]string),
		units:  make(map[string][]model.SemanticUnit),
	}
}

func (s *memStore) SourceHash(projectName, filePath string) (string, error) {
	return s.hashes[projectName+"|"+filePath], nil
}

func (s *memStore) ReplaceUnits(projectName, filePath, sha string, units []model.SemanticUnit) error {
	key := projectName + "|" + filePath
	s.hashes[key] = sha
	s.units[key] = units
	return nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCodeWorker_Initialize(t *testing.T) {
	w := NewCodeWorker("myproject", newMemStore())
	require.NoError(t, w.Initialize())

	bad := NewCodeWorker("myproject", nil)
	assert.Error(t, bad.Initialize())
}

func TestCodeWorker_IndexFile_RequiresInitialize(t *testing.T) {
	w := NewCodeWorker("myproject", newMemStore())

	_, err := w.IndexFile(context.Background(), "/tmp/nope.go")
	assert.Error(t, err)
}

func TestCodeWorker_IndexFile_Go(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.go", `package main

type Server struct {
	addr string
}

func New(addr string) *Server {
	return &Server{addr: addr}
}

func (s *Server) Run() error {
	return nil
}
`)

	store := newMemStore()
	w := NewCodeWorker("myproject", store)
	require.NoError(t, w.Initialize())

	result, err := w.IndexFile(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 3, result.UnitsIndexed)

	units := store.units["myproject|"+path]
	require.Len(t, units, 3)
	assert.Equal(t, "Server", units[0].Name)
	assert.Equal(t, "type", units[0].UnitType)
	assert.Equal(t, "New", units[1].Name)
	assert.Equal(t, "function", units[1].UnitType)
	assert.Equal(t, "Run", units[2].Name)
}

func TestCodeWorker_IndexFile_Python(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.py", `import os

class JobManager:
    def __init__(self):
        pass

    async def run(self):
        pass

def main():
    pass
`)

	store := newMemStore()
	w := NewCodeWorker("myproject", store)
	require.NoError(t, w.Initialize())

	result, err := w.IndexFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 4, result.UnitsIndexed)

	units := store.units["myproject|"+path]
	assert.Equal(t, "JobManager", units[0].Name)
	assert.Equal(t, "class", units[0].UnitType)
}

func TestCodeWorker_IndexFile_SkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.go", "package a\n\nfunc A() {}\n")

	store := newMemStore()
	w := NewCodeWorker("myproject", store)
	require.NoError(t, w.Initialize())

	first, err := w.IndexFile(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, first.Skipped)

	second, err := w.IndexFile(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Zero(t, second.UnitsIndexed)
}

func TestCodeWorker_IndexFile_ReindexesChanged(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.go", "package a\n\nfunc A() {}\n")

	store := newMemStore()
	w := NewCodeWorker("myproject", store)
	require.NoError(t, w.Initialize())

	_, err := w.IndexFile(context.Background(), path)
	require.NoError(t, err)

	writeFile(t, dir, "a.go", "package a\n\nfunc A() {}\n\nfunc B() {}\n")

	result, err := w.IndexFile(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 2, result.UnitsIndexed)
}

func TestCodeWorker_IndexFile_MissingFile(t *testing.T) {
	store := newMemStore()
	w := NewCodeWorker("myproject", store)
	require.NoError(t, w.Initialize())

	_, err := w.IndexFile(context.Background(), "/no/such/file.go")
	assert.Error(t, err)
}

func TestCodeWorker_IndexFile_CancelledContext(t *testing.T) {
	store := newMemStore()
	w := NewCodeWorker("myproject", store)
	require.NoError(t, w.Initialize())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.IndexFile(ctx, "/tmp/whatever.go")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCodeWorker_SupportedExtensions(t *testing.T) {
	w := NewCodeWorker("myproject", newMemStore())

	exts := w.SupportedExtensions()
	assert.Contains(t, exts, ".go")
	assert.Contains(t, exts, ".py")
	assert.Contains(t, exts, ".ts")
	assert.Contains(t, exts, ".rs")
	assert.Len(t, exts, 8)
}

func TestExtractUnits_UnknownExtension(t *testing.T) {
	units := extractUnits("p", "/src/readme.md", []byte("# hello"))
	assert.Empty(t, units)
}

func TestExtractUnits_LineRanges(t *testing.T) {
	content := []byte(`package a

func First() {
}

func Second() {
}
`)

	units := extractUnits("p", "/src/a.go", content)
	require.Len(t, units, 2)
	assert.Equal(t, 3, units[0].StartLine)
	assert.Equal(t, 5, units[0].EndLine) // up to the line before Second
	assert.Equal(t, 6, units[1].StartLine)
	assert.Equal(t, 7, units[1].EndLine) // through end of file
}
