// Package repourl validates and normalizes analysis request inputs: GitHub
// repository URLs and contact email addresses.
package repourl

import (
	"regexp"
	"strings"
)

var (
	repoPattern  = regexp.MustCompile(`^https?://github\.com/([^/]+)/([^/]+)/?$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Parse extracts the (owner, repo) pair from a GitHub repository URL.
// Fragments are stripped before matching and a trailing ".git" is removed
// from the repository name. ok is false for anything that is not a
// two-segment github.com URL.
func Parse(rawURL string) (owner, repo string, ok bool) {
	cleaned := strings.TrimSpace(strings.SplitN(rawURL, "#", 2)[0])

	m := repoPattern.FindStringSubmatch(cleaned)
	if m == nil {
		return "", "", false
	}

	return m[1], strings.TrimSuffix(m[2], ".git"), true
}

// ValidEmail reports whether addr looks like a deliverable email address.
// Intentionally loose: one "@", no whitespace, a dotted domain.
func ValidEmail(addr string) bool {
	return emailPattern.MatchString(addr)
}
