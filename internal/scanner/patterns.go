package scanner

import (
	"fmt"
	"regexp"
	"strings"
)

// PatternMatcher matches file names against a wildcard pattern.
// '*' matches any run of characters and '?' matches exactly one.
// Every other character is literal.
type PatternMatcher struct {
	pattern string
	re      *regexp.Regexp
}

// NewMaskMatcher creates a matcher for upload file masks.
// The mask must match the whole name and comparison ignores case.
// An empty mask matches everything.
func NewMaskMatcher(mask string) (*PatternMatcher, error) {
	if mask == "" {
		mask = "*"
	}
	return compile(mask, "(?i)^", "$")
}

// NewSearchMatcher creates a matcher for download search patterns.
// The pattern may match anywhere in the name and is case-sensitive.
// An empty pattern matches everything.
func NewSearchMatcher(pattern string) (*PatternMatcher, error) {
	return compile(pattern, "", "")
}

func compile(pattern, prefix, suffix string) (*PatternMatcher, error) {
	expr := regexp.QuoteMeta(pattern)
	expr = strings.ReplaceAll(expr, `\*`, ".*")
	expr = strings.ReplaceAll(expr, `\?`, ".")

	re, err := regexp.Compile(prefix + expr + suffix)
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: err}
	}
	return &PatternMatcher{pattern: pattern, re: re}, nil
}

// Match reports whether name matches the pattern.
func (pm *PatternMatcher) Match(name string) bool {
	return pm.re.MatchString(name)
}

// Pattern returns the pattern the matcher was built from.
func (pm *PatternMatcher) Pattern() string {
	return pm.pattern
}

// PatternError represents an error with a pattern.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern '%s': %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}
