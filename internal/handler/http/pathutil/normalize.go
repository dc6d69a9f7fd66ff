package pathutil

import (
	"regexp"
	"strings"
)

// PathPattern maps a dynamic route to its label template.
type PathPattern struct {
	Pattern  *regexp.Regexp
	Template string
}

var pathPatterns = []*PathPattern{
	{Pattern: regexp.MustCompile(`^/articles/[^/]+$`), Template: "/articles/:id"},
	{Pattern: regexp.MustCompile(`^/interests/[^/]+$`), Template: "/interests/:id"},
	{Pattern: regexp.MustCompile(`^/me/newsletters/[^/]+$`), Template: "/me/newsletters/:id"},
}

// NormalizePath converts paths with IDs (e.g., /articles/123) to template
// format (e.g., /articles/:id) so metric labels stay bounded. Query strings
// and a trailing slash are ignored; unknown paths pass through unchanged.
//
//	NormalizePath("/articles/123")        // "/articles/:id"
//	NormalizePath("/me/newsletters/9/")   // "/me/newsletters/:id"
//	NormalizePath("/me/interests")        // "/me/interests"
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	for _, p := range pathPatterns {
		if p.Pattern.MatchString(path) {
			return p.Template
		}
	}
	return path
}
