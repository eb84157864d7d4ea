package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetermineFileFullPath(t *testing.T) {
	tmpDir := t.TempDir()
	existing := filepath.Join(tmpDir, "report.sarif")
	require.NoError(t, os.WriteFile(existing, []byte("{}"), 0o644))

	tests := []struct {
		name         string
		inputPath    string
		nameTemplate string
		expectFile   string
		expectFolder string
	}{
		{
			name:         "directory gets the template appended",
			inputPath:    tmpDir,
			nameTemplate: "findings.sarif",
			expectFile:   filepath.Join(tmpDir, "findings.sarif"),
			expectFolder: tmpDir,
		},
		{
			name:         "existing file is kept",
			inputPath:    existing,
			nameTemplate: "ignored.sarif",
			expectFile:   existing,
			expectFolder: tmpDir,
		},
		{
			name:         "missing path without extension is a folder",
			inputPath:    filepath.Join(tmpDir, "out"),
			nameTemplate: "findings.sarif",
			expectFile:   filepath.Join(tmpDir, "out", "findings.sarif"),
			expectFolder: filepath.Join(tmpDir, "out"),
		},
		{
			name:         "missing path with extension is a file",
			inputPath:    filepath.Join(tmpDir, "new.sarif"),
			nameTemplate: "ignored.sarif",
			expectFile:   filepath.Join(tmpDir, "new.sarif"),
			expectFolder: tmpDir,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filePath, folderPath, err := DetermineFileFullPath(tt.inputPath, tt.nameTemplate)
			require.NoError(t, err)
			assert.Equal(t, tt.expectFile, filePath)
			assert.Equal(t, tt.expectFolder, folderPath)
		})
	}
}

func TestEnsureWithinRoot(t *testing.T) {
	root := t.TempDir()

	inside, err := EnsureWithinRoot(root, filepath.Join(root, "src", "a.ts"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "src", "a.ts"), inside)

	_, err = EnsureWithinRoot(filepath.Join(root, "src"), filepath.Join(root, "b.ts"))
	assert.Error(t, err)

	dotted, err := EnsureWithinRoot(root, filepath.Join(root, "..cache", "c.ts"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "..cache", "c.ts"), dotted)
}

func TestValidatePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(file, []byte("package a\n"), 0o644))

	assert.NoError(t, ValidatePath(file))
	assert.Error(t, ValidatePath(dir))
	assert.Error(t, ValidatePath(filepath.Join(dir, "missing.go")))
}

func TestAbsPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := AbsPath("~/project/a.ts")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "project", "a.ts"), got)

	got, err = AbsPath("/work/../work/a.ts")
	require.NoError(t, err)
	assert.Equal(t, "/work/a.ts", got)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "report.sarif")

	require.NoError(t, WriteFileAtomic(target, []byte("first")))
	require.NoError(t, WriteFileAtomic(target, []byte("second")))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestCreateFolderIfNotExistsRejectsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "a")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.Error(t, CreateFolderIfNotExists(file))
}
