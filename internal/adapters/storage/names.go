// internal/adapters/storage/names.go
package storage

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const maxKeyLength = 128

// SanitizeName reduces a client supplied filename to a safe key. It returns
// an empty string when nothing usable is left.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	key := strings.TrimLeft(b.String(), ".")
	if len(key) > maxKeyLength {
		ext := filepath.Ext(key)
		if len(ext) > 16 {
			ext = ""
		}
		key = key[:maxKeyLength-len(ext)] + ext
	}

	return key
}

// ValidKey reports whether key can name a stored blob
func ValidKey(key string) bool {
	if key == "" || strings.HasPrefix(key, ".") {
		return false
	}
	if strings.ContainsAny(key, "/\\") || strings.Contains(key, "..") {
		return false
	}
	return true
}

// FreshKey returns a new random key keeping ext
func FreshKey(ext string) string {
	if len(ext) > 16 || !ValidKey("x"+ext) {
		ext = ""
	}
	return uuid.NewString() + ext
}
