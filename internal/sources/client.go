package sources

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/job-tracker/internal/fetch"
	"github.com/jonathan/job-tracker/internal/metrics"
	"github.com/jonathan/job-tracker/internal/schemas"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	greenhouseSchema = mustLoadSchema(Greenhouse)
	leverSchema      = mustLoadSchema(Lever)
	ashbySchema      = mustLoadSchema(Ashby)
)

func mustLoadSchema(s Source) *schemas.Schema {
	content, err := schemaFS.ReadFile("schemas/" + string(s) + ".json")
	if err != nil {
		panic(err)
	}
	return schemas.MustCompile(string(s), string(content))
}

// client is the HTTP plumbing shared by the adapters.
type client struct {
	opts   *fetch.Options
	logger *zap.Logger
}

// getJSON fetches url, validates the body against schema and decodes it into out.
// It reports false after logging and counting any failure.
func (c *client) getJSON(ctx context.Context, source Source, slug, url string, schema *schemas.Schema, out any) bool {
	log := c.logger.With(zap.String("source", string(source)), zap.String("slug", slug))

	start := time.Now()
	res, err := fetch.URL(ctx, url, c.opts)
	metrics.SourceFetchDuration.WithLabelValues(string(source)).Observe(time.Since(start).Seconds())
	if err != nil {
		outcome := metrics.OutcomeTransport
		var fetchErr *fetch.Error
		if errors.As(err, &fetchErr) && fetchErr.StatusCode != 0 {
			outcome = metrics.OutcomeHTTPError
		}
		metrics.SourceFetches.WithLabelValues(string(source), outcome).Inc()
		log.Warn("board fetch failed", zap.Error(err))
		return false
	}

	if err := schema.Validate(res.Body); err != nil {
		metrics.SourceFetches.WithLabelValues(string(source), metrics.OutcomeMalformed).Inc()
		log.Warn("board payload rejected", zap.Error(err))
		return false
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		metrics.SourceFetches.WithLabelValues(string(source), metrics.OutcomeMalformed).Inc()
		log.Warn("failed to decode board payload", zap.Error(err))
		return false
	}

	metrics.SourceFetches.WithLabelValues(string(source), metrics.OutcomeSuccess).Inc()
	return true
}

// parseTimestamp parses the ISO 8601 variants the boards emit. Unparseable or
// empty values yield nil.
func parseTimestamp(value *string) *time.Time {
	if value == nil || *value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, *value); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// firstNonEmpty returns the first non-nil, non-empty value.
func firstNonEmpty(values ...*string) *string {
	for _, v := range values {
		if v != nil && *v != "" {
			return v
		}
	}
	return nil
}
