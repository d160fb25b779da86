package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path with the given contents, making parent
// directories as needed. Used for stub images and fixture files.
func WriteFile(t testing.TB, path string, contents []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
