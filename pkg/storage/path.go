package storage

import (
	gopath "path"
	"strings"
)

// Path helpers shared by all backends and by the file engine.
//
// Backend paths are always forward-slash separated, regardless of host OS.
// The local backend translates to filepath form internally.

// Join joins path elements with forward slashes, cleaning the result.
// Empty elements are skipped so Join("dir", "", "file") == "dir/file".
func Join(elements ...string) string {
	parts := make([]string, 0, len(elements))
	for _, element := range elements {
		if element != "" {
			parts = append(parts, element)
		}
	}
	return gopath.Join(parts...)
}

// Dir returns all but the last element of path.
func Dir(path string) string {
	return gopath.Dir(path)
}

// Base returns the last element of path.
func Base(path string) string {
	return gopath.Base(path)
}

// Sanitize normalizes a raw caller-supplied path into backend-safe form:
// backslashes become slashes, the path is cleaned, and any leading slash or
// drive-style prefix is stripped so the result stays relative to the
// backend root.
func Sanitize(path string) string {
	p := strings.ReplaceAll(path, "\\", "/")

	// Strip "C:" style prefixes left over from Windows-originated paths.
	if len(p) >= 2 && p[1] == ':' {
		p = p[2:]
	}

	// Clean as a rooted path so ".." segments collapse against the root
	// instead of escaping it.
	p = gopath.Clean("/" + p)
	p = strings.TrimPrefix(p, "/")

	if p == "." {
		return ""
	}
	return p
}
