package middleware

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

var filenamePattern = regexp.MustCompile(`^[a-zA-Z0-9._ -]+$`)

// SanitizeFilename reduces a client-supplied filename to a safe base name.
// Directory components are stripped, control characters removed, and the
// remainder must match a conservative allowlist. Returns an error when
// nothing usable is left.
func SanitizeFilename(name string) (string, error) {
	// Normalize Windows separators before taking the base name
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.Clean(name))

	name = SanitizeString(name)

	if name == "" || name == "." || name == ".." || name == "/" {
		return "", fmt.Errorf("invalid filename")
	}
	if strings.Contains(name, "..") {
		return "", fmt.Errorf("path traversal detected")
	}
	if !filenamePattern.MatchString(name) {
		return "", fmt.Errorf("invalid characters in filename")
	}
	// Hidden files would shadow server config in the storage root
	if strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid filename")
	}
	return name, nil
}

// ValidateHistoryName checks a history entry name as used in URLs and the
// AI interpret endpoint. Same rules as uploads plus a .json requirement.
func ValidateHistoryName(name string) error {
	cleaned, err := SanitizeFilename(name)
	if err != nil {
		return err
	}
	if cleaned != name {
		return fmt.Errorf("invalid history entry name")
	}
	if !strings.HasSuffix(name, ".json") {
		return fmt.Errorf("history entries are .json files")
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
