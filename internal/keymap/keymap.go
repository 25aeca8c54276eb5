// Package keymap converts between local paths and S3 object keys.
package keymap

import (
	"path/filepath"
	"strings"
)

// Matcher reports whether a file name is selected.
type Matcher interface {
	Match(name string) bool
}

// ObjectKey returns the key for the local file at path. The name is the
// base name, or the path relative to root with '/' separators when
// preserve is set. The prefix is joined with a single '/'.
func ObjectKey(prefix, root, path string, preserve bool) (string, error) {
	name := filepath.Base(path)
	if preserve {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return "", err
		}
		name = filepath.ToSlash(rel)
	}

	prefix = strings.TrimRight(prefix, `/\`)
	if prefix == "" {
		return name, nil
	}
	return prefix + "/" + name, nil
}

// LastSegment returns the part of key after its final '/'.
func LastSegment(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

// Depth returns the number of '/'-separated segments in s.
func Depth(s string) int {
	return strings.Count(s, "/") + 1
}

// InScope reports whether key is selected for download from directory.
// The file name must match, the key must not be a folder marker and must
// start with directory. With currentOnly the key must also sit at the same
// depth as directory+pattern.
func InScope(key, directory, pattern string, currentOnly bool, matcher Matcher) bool {
	if strings.HasSuffix(key, "/") || !strings.HasPrefix(key, directory) {
		return false
	}
	if currentOnly && Depth(key) != Depth(directory+pattern) {
		return false
	}
	return matcher.Match(LastSegment(key))
}
