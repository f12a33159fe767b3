package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// File extensions to skip when scanning the destination folder: partial
// downloads must not count as already-present content.
var (
	SkippedExtensions = []string{".part", ".ytdl", ".tmp"}
)

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}

// DestinationContainsID reports whether any completed file in dir carries the
// content id in its name. Downloaded files embed the id as a suffix, so this
// bridges manually-placed or pre-existing files into the dedup state without
// re-downloading them. A missing or unreadable directory counts as "not
// present" rather than an error: the download step creates it on demand.
func DestinationContainsID(dir, id string) bool {
	if id == "" {
		return false
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if isPartialFile(name) {
			continue
		}
		if strings.Contains(name, id) {
			return true
		}
	}
	return false
}

func isPartialFile(name string) bool {
	for _, ext := range SkippedExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// GetHomeDownloadsDir returns the standard Downloads directory for the user
func GetHomeDownloadsDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, "Downloads"), nil
}
