package sources

import (
	"context"
	"fmt"
	"net/url"
)

// DefaultAshbyURL is the Ashby public job board API root.
const DefaultAshbyURL = "https://boards-api.ashbyhq.com"

const ashbyIDPrefix = "ashby_"

type ashbyBoard struct {
	JobPostings []ashbyPosting `json:"jobPostings"`
}

type ashbyPosting struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	JobURL          *string `json:"jobUrl"`
	LocationName    *string `json:"locationName"`
	DepartmentName  *string `json:"departmentName"`
	PublishedDate   *string `json:"publishedDate"`
	DescriptionHTML *string `json:"descriptionHtml"`
}

// AshbyAdapter reads the public Ashby job board API.
type AshbyAdapter struct {
	client  *client
	baseURL string
}

func (a *AshbyAdapter) Source() Source { return Ashby }

// Fetch returns the organization's postings whose titles match keywords.
// A board without a jobPostings field has no postings.
func (a *AshbyAdapter) Fetch(ctx context.Context, slug string, keywords []string) []Posting {
	endpoint := fmt.Sprintf("%s/posting-public/job-board?organizationHostedJobsPageName=%s",
		a.baseURL, url.QueryEscape(slug))

	var board ashbyBoard
	if !a.client.getJSON(ctx, Ashby, slug, endpoint, ashbySchema, &board) {
		return nil
	}

	postings := make([]Posting, 0, len(board.JobPostings))
	for _, ap := range board.JobPostings {
		if !MatchesRole(ap.Title, keywords) {
			continue
		}
		postings = append(postings, Posting{
			ExternalID: ashbyIDPrefix + ap.ID,
			Title:      ap.Title,
			URL:        deref(ap.JobURL),
			Location:   deref(ap.LocationName),
			Department: deref(ap.DepartmentName),
			PostedAt:   parseTimestamp(ap.PublishedDate),
			Experience: ExtractExperience(ap.DescriptionHTML),
		})
	}
	return postings
}
