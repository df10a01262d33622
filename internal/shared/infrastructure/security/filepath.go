// Package security validates filesystem paths taken from configuration.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MemoryDatabase is the SQLite name for a private in-memory database.
const MemoryDatabase = ":memory:"

// forbiddenChars are shell metacharacters and DSN separators.
var forbiddenChars = []string{";", "&", "|", "$", "`", "<", ">", "?", "#", "\n", "\r"}

// ValidateFilePath cleans a path, makes it absolute and resolves symlinks
// when the file already exists.
func ValidateFilePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("file path cannot be empty")
	}

	for _, char := range forbiddenChars {
		if strings.Contains(path, char) {
			return "", fmt.Errorf("file path contains forbidden character %q: %s", char, path)
		}
	}

	cleanPath := filepath.Clean(path)
	if !filepath.IsAbs(cleanPath) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
		cleanPath = filepath.Join(cwd, cleanPath)
	}

	resolvedPath, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cleanPath, nil
		}
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
	return resolvedPath, nil
}

// ValidateDatabasePath validates a SQLite database location. The in-memory
// name passes through unchanged and directories are rejected.
func ValidateDatabasePath(path string) (string, error) {
	if path == MemoryDatabase {
		return path, nil
	}
	cleanPath, err := ValidateFilePath(path)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return "", fmt.Errorf("database path is a directory: %s", path)
	}
	return cleanPath, nil
}
