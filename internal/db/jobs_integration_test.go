//go:build integration

package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-tracker/internal/sources"
)

type jobState struct {
	Title      string
	PostedAt   *time.Time
	Experience *string
	FetchedAt  time.Time
}

func loadJob(t *testing.T, db *DB, externalID string) jobState {
	t.Helper()
	var s jobState
	err := db.pool.QueryRow(context.Background(),
		`SELECT title, posted_at, experience, fetched_at FROM jobs WHERE external_id = $1`, externalID,
	).Scan(&s.Title, &s.PostedAt, &s.Experience, &s.FetchedAt)
	require.NoError(t, err)
	return s
}

func countApplications(t *testing.T, db *DB, companyID uuid.UUID) int {
	t.Helper()
	var n int
	err := db.pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM applications a JOIN jobs j ON a.job_id = j.id WHERE j.company_id = $1`, companyID,
	).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestIntegration_UpsertBatch_Idempotent(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()
	c := createTestCompany(t, db, sources.Greenhouse)

	id := "itest-" + uuid.NewString()
	batch := []CompanyPostings{{Company: *c, Postings: []sources.Posting{{ExternalID: id, Title: "PM"}}}}

	created, err := db.UpsertBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	first := loadJob(t, db, id)

	created, err = db.UpsertBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Equal(t, 1, countApplications(t, db, c.ID))

	second := loadJob(t, db, id)
	assert.False(t, second.FetchedAt.Before(first.FetchedAt), "fetched_at refreshed")
}

func TestIntegration_UpsertBatch_FirstWriteWins(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()
	c := createTestCompany(t, db, sources.Greenhouse)

	id := "itest-" + uuid.NewString()
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	exp1, exp2 := "3+ years", "10 years"

	// First sighting without dates or experience
	_, err := db.UpsertBatch(ctx, []CompanyPostings{{Company: *c, Postings: []sources.Posting{
		{ExternalID: id, Title: "Original Title"},
	}}})
	require.NoError(t, err)

	// Nulls are filled
	_, err = db.UpsertBatch(ctx, []CompanyPostings{{Company: *c, Postings: []sources.Posting{
		{ExternalID: id, Title: "Renamed", PostedAt: &t1, Experience: &exp1},
	}}})
	require.NoError(t, err)

	// Populated values are frozen
	_, err = db.UpsertBatch(ctx, []CompanyPostings{{Company: *c, Postings: []sources.Posting{
		{ExternalID: id, Title: "Renamed Again", PostedAt: &t2, Experience: &exp2},
	}}})
	require.NoError(t, err)

	s := loadJob(t, db, id)
	assert.Equal(t, "Original Title", s.Title)
	require.NotNil(t, s.PostedAt)
	assert.True(t, t1.Equal(*s.PostedAt))
	require.NotNil(t, s.Experience)
	assert.Equal(t, exp1, *s.Experience)
}

func TestIntegration_UpsertBatch_CrossSourceIDs(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()
	gh := createTestCompany(t, db, sources.Greenhouse)
	lv := createTestCompany(t, db, sources.Lever)

	native := uuid.NewString()
	created, err := db.UpsertBatch(ctx, []CompanyPostings{
		{Company: *gh, Postings: []sources.Posting{{ExternalID: native, Title: "PM"}}},
		{Company: *lv, Postings: []sources.Posting{{ExternalID: "lever_" + native, Title: "PM"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Equal(t, 1, countApplications(t, db, gh.ID))
	assert.Equal(t, 1, countApplications(t, db, lv.ID))
}

func TestIntegration_UpsertBatch_RollsBackOnError(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()
	c := createTestCompany(t, db, sources.Greenhouse)

	missing := Company{ID: uuid.New(), Source: sources.Greenhouse}
	_, err := db.UpsertBatch(ctx, []CompanyPostings{
		{Company: *c, Postings: []sources.Posting{{ExternalID: "itest-" + uuid.NewString(), Title: "PM"}}},
		{Company: missing, Postings: []sources.Posting{{ExternalID: "itest-" + uuid.NewString(), Title: "PM"}}},
	})
	require.Error(t, err)
	assert.Zero(t, countApplications(t, db, c.ID))
}

func TestIntegration_ApplyEmailMatches_OverwriteGate(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()
	c := createTestCompany(t, db, sources.Greenhouse)

	ids := []string{"itest-" + uuid.NewString(), "itest-" + uuid.NewString()}
	_, err := db.UpsertBatch(ctx, []CompanyPostings{{Company: *c, Postings: []sources.Posting{
		{ExternalID: ids[0], Title: "PM"},
		{ExternalID: ids[1], Title: "Senior PM"},
	}}})
	require.NoError(t, err)

	// One application already at interview, the other still new
	_, err = db.pool.Exec(ctx,
		`UPDATE applications SET status = 'interview'
		 WHERE job_id = (SELECT id FROM jobs WHERE external_id = $1)`, ids[0])
	require.NoError(t, err)

	updated, err := db.ApplyEmailMatches(ctx, map[uuid.UUID]EmailMatch{
		c.ID: {Subject: "Unfortunately", From: "jobs@acme.com", Date: "2024-03-01T10:00:00Z", Status: StatusRejected},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	rows, err := db.ListApplications(ctx)
	require.NoError(t, err)
	byExternal := map[string]ApplicationRow{}
	for _, r := range rows {
		byExternal[r.ExternalID] = r
	}

	assert.Equal(t, StatusInterview, byExternal[ids[0]].Status)
	assert.Nil(t, byExternal[ids[0]].EmailSubject)

	changed := byExternal[ids[1]]
	assert.Equal(t, StatusRejected, changed.Status)
	require.NotNil(t, changed.EmailSubject)
	assert.Equal(t, "Unfortunately", *changed.EmailSubject)
	require.NotNil(t, changed.EmailDate)
	assert.True(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).Equal(*changed.EmailDate))
}

func TestIntegration_ApplyEmailMatches_EmptyDate(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()
	c := createTestCompany(t, db, sources.Ashby)

	_, err := db.UpsertBatch(ctx, []CompanyPostings{{Company: *c, Postings: []sources.Posting{
		{ExternalID: "itest-" + uuid.NewString(), Title: "PM"},
	}}})
	require.NoError(t, err)

	updated, err := db.ApplyEmailMatches(ctx, map[uuid.UUID]EmailMatch{
		c.ID: {Subject: "Interview invite", Status: StatusInterview},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)
}

func TestIntegration_EmailSyncCandidates(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()

	withJobs := createTestCompany(t, db, sources.Greenhouse)
	withoutJobs := createTestCompany(t, db, sources.Greenhouse)

	_, err := db.UpsertBatch(ctx, []CompanyPostings{{Company: *withJobs, Postings: []sources.Posting{
		{ExternalID: "itest-" + uuid.NewString(), Title: "PM"},
	}}})
	require.NoError(t, err)

	candidates, err := db.EmailSyncCandidates(ctx)
	require.NoError(t, err)

	found := map[uuid.UUID]Candidate{}
	for _, c := range candidates {
		found[c.ID] = c
	}
	require.Contains(t, found, withJobs.ID)
	assert.Equal(t, StatusNew, found[withJobs.ID].CurrentStatus)
	assert.NotContains(t, found, withoutJobs.ID)
}

func TestIntegration_UpdateApplication(t *testing.T) {
	db := getTestDB(t)
	ctx := context.Background()
	c := createTestCompany(t, db, sources.Greenhouse)

	id := "itest-" + uuid.NewString()
	_, err := db.UpsertBatch(ctx, []CompanyPostings{{Company: *c, Postings: []sources.Posting{{ExternalID: id, Title: "PM"}}}})
	require.NoError(t, err)

	var appID uuid.UUID
	require.NoError(t, db.pool.QueryRow(ctx,
		`SELECT a.id FROM applications a JOIN jobs j ON a.job_id = j.id WHERE j.external_id = $1`, id,
	).Scan(&appID))

	status := StatusOffer
	notes := "verbal offer"
	done := true
	require.NoError(t, db.UpdateApplication(ctx, appID, ApplicationUpdate{Status: &status, Notes: &notes, MarkedComplete: &done}))

	rows, err := db.ListApplications(ctx)
	require.NoError(t, err)
	for _, r := range rows {
		if r.ID == appID {
			assert.Equal(t, StatusOffer, r.Status)
			assert.Equal(t, "verbal offer", r.Notes)
			assert.True(t, r.MarkedComplete)
		}
	}

	assert.ErrorIs(t, db.UpdateApplication(ctx, uuid.New(), ApplicationUpdate{Notes: &notes}), ErrNotFound)
	assert.Error(t, db.UpdateApplication(ctx, appID, ApplicationUpdate{}))
}
