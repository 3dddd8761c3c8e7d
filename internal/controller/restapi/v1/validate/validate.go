package validate

import (
	"net/url"
	"strings"
)

const MaxFilenameLen = 255

var AllowedPreferences = map[string]bool{
	"":          true,
	"proxy":     true,
	"signed":    true,
	"thumbnail": true,
}

// Filename unescapes a path parameter and rejects names that cannot be a
// single object key segment.
func Filename(raw string) (string, bool) {
	name, err := url.PathUnescape(raw)
	if err != nil {
		return "", false
	}

	name = strings.TrimSpace(name)
	if name == "" || len(name) > MaxFilenameLen || strings.ContainsAny(name, "/\\") {
		return "", false
	}

	return name, true
}
