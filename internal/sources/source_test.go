package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	source   Source
	postings []Posting
	calls    []string
}

func (s *stubAdapter) Source() Source { return s.source }

func (s *stubAdapter) Fetch(_ context.Context, slug string, _ []string) []Posting {
	s.calls = append(s.calls, slug)
	return s.postings
}

func TestParseSource(t *testing.T) {
	tests := []struct {
		in      string
		want    Source
		wantErr bool
	}{
		{"greenhouse", Greenhouse, false},
		{" Lever ", Lever, false},
		{"ASHBY", Ashby, false},
		{"workday", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSource(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAll_AreValid(t *testing.T) {
	for _, s := range All() {
		assert.True(t, s.Valid(), s.String())
	}
	assert.False(t, Source("workday").Valid())
}

func TestRegistry_DispatchesBySource(t *testing.T) {
	gh := &stubAdapter{source: Greenhouse, postings: []Posting{{ExternalID: "1"}}}
	lv := &stubAdapter{source: Lever, postings: []Posting{{ExternalID: "lever_1"}}}
	r := NewRegistryOf(gh, lv)

	got := r.Fetch(context.Background(), Lever, "acme", nil)
	require.Len(t, got, 1)
	assert.Equal(t, "lever_1", got[0].ExternalID)
	assert.Empty(t, gh.calls)
	assert.Equal(t, []string{"acme"}, lv.calls)

	assert.Nil(t, r.Fetch(context.Background(), Ashby, "acme", nil))

	a, ok := r.Adapter(Greenhouse)
	assert.True(t, ok)
	assert.Same(t, gh, a)
}

func TestNewRegistry_RegistersAllSources(t *testing.T) {
	r := NewRegistry(Options{})
	for _, s := range All() {
		a, ok := r.Adapter(s)
		require.True(t, ok, s.String())
		assert.Equal(t, s, a.Source())
	}

	gh, _ := r.Adapter(Greenhouse)
	assert.Equal(t, DefaultGreenhouseURL, gh.(*GreenhouseAdapter).baseURL)
}

func TestDetectBoard(t *testing.T) {
	tests := []struct {
		url      string
		source   Source
		slug     string
		detected bool
	}{
		{"https://boards.greenhouse.io/Acme", Greenhouse, "acme", true},
		{"https://job-boards.greenhouse.io/acme/jobs/123", Greenhouse, "acme", true},
		{"https://boards.greenhouse.io/embed/job_board?for=acme", Greenhouse, "acme", true},
		{"https://jobs.lever.co/acme/abc-123", Lever, "acme", true},
		{"https://jobs.ashbyhq.com/acme", Ashby, "acme", true},
		{"https://example.com/careers", "", "", false},
		{"https://jobs.lever.co/", "", "", false},
		{"acme", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			source, slug, ok := DetectBoard(tt.url)
			assert.Equal(t, tt.detected, ok)
			assert.Equal(t, tt.source, source)
			assert.Equal(t, tt.slug, slug)
		})
	}
}
