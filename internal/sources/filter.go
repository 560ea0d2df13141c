package sources

import "strings"

// MatchesRole reports whether title contains any of keywords, ignoring case.
// An empty keyword list matches every title.
func MatchesRole(title string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	lower := strings.ToLower(title)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(strings.TrimSpace(kw))) {
			return true
		}
	}
	return false
}

// ParseKeywords splits a comma-separated target role preference into
// lowercased keywords. Blank entries are dropped.
func ParseKeywords(targetRole string) []string {
	var keywords []string
	for _, part := range strings.Split(targetRole, ",") {
		kw := strings.ToLower(strings.TrimSpace(part))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}
