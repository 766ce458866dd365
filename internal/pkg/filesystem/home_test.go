package filesystem

import (
	"path/filepath"
	"testing"
)

func TestAppDirHonoursOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PROMPTSMITH_HOME", dir)
	if got := AppDir(); got != dir {
		t.Fatalf("AppDir() = %s, want %s", got, dir)
	}
}

func TestAppDirDefaultsUnderHome(t *testing.T) {
	t.Setenv("PROMPTSMITH_HOME", "")
	want := filepath.Join(UserHomeDir(), ".promptsmith")
	if got := AppDir(); got != want {
		t.Fatalf("AppDir() = %s, want %s", got, want)
	}
}
