package filesystem

import (
	"os"
	"path/filepath"
)

// UserHomeDir returns the current user's home directory.
// If the home directory cannot be determined, it returns "." as a fallback.
func UserHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// AppDir returns ~/.promptsmith, where config, history and the file cache live.
// PROMPTSMITH_HOME overrides it.
func AppDir() string {
	if dir := os.Getenv("PROMPTSMITH_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(UserHomeDir(), ".promptsmith")
}
