package sources

import (
	"net/url"
	"strings"
)

// boardHosts maps careers page hosts to the source that serves them.
var boardHosts = map[string]Source{
	"boards.greenhouse.io":     Greenhouse,
	"job-boards.greenhouse.io": Greenhouse,
	"jobs.lever.co":            Lever,
	"jobs.ashbyhq.com":         Ashby,
}

// DetectBoard identifies the source and board slug from a careers page URL
// such as https://jobs.lever.co/acme/1234. The slug is the first path segment.
func DetectBoard(rawURL string) (Source, string, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if !strings.Contains(rawURL, "://") {
		return "", "", false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", "", false
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	source, ok := boardHosts[host]
	if !ok {
		return "", "", false
	}

	slug, _, _ := strings.Cut(strings.Trim(parsed.Path, "/"), "/")
	// Embedded Greenhouse boards carry the slug as ?for=acme
	if slug == "embed" || slug == "" {
		slug = parsed.Query().Get("for")
	}
	if slug == "" {
		return "", "", false
	}
	return source, strings.ToLower(slug), true
}
