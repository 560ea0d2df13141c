package sources

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/job-tracker/internal/fetch"
)

// experiencePattern matches "5 years", "3+ years of", "2-4 years of product management".
var experiencePattern = regexp.MustCompile(`(?i)\d+\+?\s*(?:[-–]\s*\d+\+?)?\s*years?(?:\s+of(?:\s+\w+){0,4})?`)

const (
	maxExperienceLen   = 45
	truncatedPrefixLen = 42
)

// ExtractExperience pulls a short "N years of ..." label out of a description.
// HTML is reduced to text first. Returns nil when description is nil or has no match.
func ExtractExperience(description *string) *string {
	if description == nil || *description == "" {
		return nil
	}

	text, err := fetch.HTMLToText(*description)
	if err != nil {
		return nil
	}

	match := experiencePattern.FindString(text)
	if match == "" {
		return nil
	}

	label := strings.TrimSpace(match)
	if utf8.RuneCountInString(label) > maxExperienceLen {
		label = string([]rune(label)[:truncatedPrefixLen]) + "…"
	}
	return &label
}
