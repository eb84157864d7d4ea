package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateExportArgs(t *testing.T) {
	dir := t.TempDir()

	t.Run("Creates the output folder", func(t *testing.T) {
		options := RunOptionsExport{OutputPath: filepath.Join(dir, "reports", "out.sarif"), Root: dir}
		require.NoError(t, validateExportArgs(&options, nil))
		info, err := os.Stat(filepath.Join(dir, "reports"))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Equal(t, dir, options.Root)
	})

	t.Run("Folder gets the default report name", func(t *testing.T) {
		options := RunOptionsExport{OutputPath: dir}
		require.NoError(t, validateExportArgs(&options, nil))
		assert.Equal(t, filepath.Join(dir, defaultReportName), options.OutputPath)
	})

	t.Run("Missing output", func(t *testing.T) {
		err := validateExportArgs(&RunOptionsExport{}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "'output' flag")
	})

	t.Run("Positional arguments", func(t *testing.T) {
		err := validateExportArgs(&RunOptionsExport{OutputPath: "out.sarif"}, []string{"x"})
		assert.Error(t, err)
	})
}
