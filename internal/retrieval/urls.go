package retrieval

import (
	"net/url"
	"regexp"
	"strings"
)

var discourseTopicPattern = regexp.MustCompile(`^/t/[^/]+/\d+(/\d+)?/?$`)

// CanonicalURL is the key used for URL deduplication: scheme and host are
// lowercased and trailing slashes are dropped. Fragments are kept because
// single-page course sites route on them; Discourse topic links lose their
// query string.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimRight(raw, "/")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if discourseTopicPattern.MatchString(u.Path) {
		u.RawQuery = ""
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""

	return u.String()
}
