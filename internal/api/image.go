package api

import "strings"

// ResolveImageURL turns a stored cover value into a fetchable URL.
// Absolute http(s) URLs are returned unchanged; anything else is joined
// onto base with exactly one slash. An empty path stays empty.
func ResolveImageURL(base, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	base = strings.TrimRight(base, "/")
	if strings.HasPrefix(path, "/") {
		return base + path
	}
	return base + "/" + path
}
