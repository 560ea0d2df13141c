package sources

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// DefaultLeverURL is the Lever postings API root.
const DefaultLeverURL = "https://api.lever.co"

// leverIDPrefix keeps Lever ids from colliding with Greenhouse's numeric ids.
const leverIDPrefix = "lever_"

type leverPosting struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	HostedURL  *string `json:"hostedUrl"`
	CreatedAt  *int64  `json:"createdAt"`
	Categories *struct {
		Location   *string `json:"location"`
		Department *string `json:"department"`
		Team       *string `json:"team"`
	} `json:"categories"`
	Content *struct {
		DescriptionHTML  *string `json:"descriptionHtml"`
		DescriptionPlain *string `json:"descriptionPlain"`
	} `json:"content"`
}

// LeverAdapter reads the public Lever postings API.
type LeverAdapter struct {
	client  *client
	baseURL string
}

func (a *LeverAdapter) Source() Source { return Lever }

// Fetch returns the company's postings whose titles match keywords.
func (a *LeverAdapter) Fetch(ctx context.Context, slug string, keywords []string) []Posting {
	endpoint := fmt.Sprintf("%s/v0/postings/%s?mode=json", a.baseURL, url.PathEscape(slug))

	var payload []leverPosting
	if !a.client.getJSON(ctx, Lever, slug, endpoint, leverSchema, &payload) {
		return nil
	}

	postings := make([]Posting, 0, len(payload))
	for _, lp := range payload {
		if !MatchesRole(lp.Text, keywords) {
			continue
		}
		p := Posting{
			ExternalID: leverIDPrefix + lp.ID,
			Title:      lp.Text,
			URL:        deref(lp.HostedURL),
		}
		if lp.CreatedAt != nil && *lp.CreatedAt != 0 {
			t := time.UnixMilli(*lp.CreatedAt).UTC()
			p.PostedAt = &t
		}
		if c := lp.Categories; c != nil {
			p.Location = deref(c.Location)
			p.Department = deref(firstNonEmpty(c.Department, c.Team))
		}
		if c := lp.Content; c != nil {
			p.Experience = ExtractExperience(firstNonEmpty(c.DescriptionHTML, c.DescriptionPlain))
		}
		postings = append(postings, p)
	}
	return postings
}
