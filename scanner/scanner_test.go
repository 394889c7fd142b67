package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	tempDir := t.TempDir()
	for path, content := range files {
		fullPath := filepath.Join(tempDir, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
		require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644))
	}
	return tempDir
}

func TestProjectScanner(t *testing.T) {
	t.Parallel()
	tempDir := writeTree(t, map[string]string{
		"package.json":                   `{"name": "web"}`,
		"deploy/compose.yml":             "services: {}",
		"deploy/values.YAML":             "replicas: 1",
		"README.md":                      "# readme",
		".github/workflows/ci.yaml":      "on: push",
		".git/config.json":               "{}",
		"node_modules/left-pad/pkg.json": "{}",
	})

	scannedFiles, err := New(tempDir, DefaultExtensions...).Scan()
	require.NoError(t, err)

	paths := make([]string, 0, len(scannedFiles))
	for _, file := range scannedFiles {
		paths = append(paths, file.Path)
		assert.Greater(t, file.Size, int64(0), "File size should be greater than 0")
	}

	assert.Equal(t, []string{
		filepath.Join(tempDir, ".github/workflows/ci.yaml"),
		filepath.Join(tempDir, "deploy/compose.yml"),
		filepath.Join(tempDir, "deploy/values.YAML"),
		filepath.Join(tempDir, "package.json"),
	}, paths)
}

func TestScannerWithoutExtensions(t *testing.T) {
	t.Parallel()
	tempDir := writeTree(t, map[string]string{
		".babelrc":  "{}",
		"README.md": "# readme",
	})

	scannedFiles, err := New(tempDir).Scan()
	require.NoError(t, err)
	assert.Len(t, scannedFiles, 2)
}

func TestExpand(t *testing.T) {
	t.Parallel()
	tempDir := writeTree(t, map[string]string{
		"conf/a.json":   "{}",
		"conf/b.txt":    "text",
		"tsconfig.json": "{}",
	})
	file := filepath.Join(tempDir, "tsconfig.json")
	missing := filepath.Join(tempDir, "missing.json")

	paths, err := Expand([]string{file, filepath.Join(tempDir, "conf"), missing})
	require.NoError(t, err)
	assert.Equal(t, []string{file, filepath.Join(tempDir, "conf/a.json"), missing}, paths)
}
