package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// DefaultGreenhouseURL is the Greenhouse job board API root.
const DefaultGreenhouseURL = "https://boards-api.greenhouse.io"

type greenhouseBoard struct {
	Jobs []greenhouseJob `json:"jobs"`
}

type greenhouseJob struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	AbsoluteURL *string `json:"absolute_url"`
	Location    *struct {
		Name *string `json:"name"`
	} `json:"location"`
	Departments []struct {
		Name *string `json:"name"`
	} `json:"departments"`
	FirstPublished *string `json:"first_published"`
	UpdatedAt      *string `json:"updated_at"`
	Content        *string `json:"content"`
}

// GreenhouseAdapter reads the public Greenhouse job board API.
// External ids are the bare numeric posting ids.
type GreenhouseAdapter struct {
	client  *client
	baseURL string
}

func (a *GreenhouseAdapter) Source() Source { return Greenhouse }

// Fetch returns the board's postings whose titles match keywords.
func (a *GreenhouseAdapter) Fetch(ctx context.Context, slug string, keywords []string) []Posting {
	endpoint := fmt.Sprintf("%s/v1/boards/%s/jobs?content=true", a.baseURL, url.PathEscape(slug))

	var board greenhouseBoard
	if !a.client.getJSON(ctx, Greenhouse, slug, endpoint, greenhouseSchema, &board) {
		return nil
	}

	postings := make([]Posting, 0, len(board.Jobs))
	for _, job := range board.Jobs {
		if !MatchesRole(job.Title, keywords) {
			continue
		}
		p := Posting{
			ExternalID: strconv.FormatInt(job.ID, 10),
			Title:      job.Title,
			URL:        deref(job.AbsoluteURL),
			PostedAt:   parseTimestamp(firstNonEmpty(job.FirstPublished, job.UpdatedAt)),
			Experience: ExtractExperience(job.Content),
		}
		if job.Location != nil {
			p.Location = deref(job.Location.Name)
		}
		if len(job.Departments) > 0 {
			p.Department = deref(job.Departments[0].Name)
		}
		postings = append(postings, p)
	}
	return postings
}
