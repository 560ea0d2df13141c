package server

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-tracker/internal/config"
	"github.com/jonathan/job-tracker/internal/db"
)

func TestHandleUpdateApplication(t *testing.T) {
	ts := newTestServer(t)
	id := uuid.New()

	w := ts.do(t, http.MethodPatch, "/applications/"+id.String(), `{"status":"interview","notes":"call Tuesday"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	u := ts.store.updates[id]
	require.NotNil(t, u.Status)
	assert.Equal(t, db.StatusInterview, *u.Status)
	require.NotNil(t, u.Notes)
	assert.Equal(t, "call Tuesday", *u.Notes)
	assert.Nil(t, u.MarkedComplete)
}

func TestHandleUpdateApplication_MarkedCompleteOnly(t *testing.T) {
	ts := newTestServer(t)
	id := uuid.New()

	w := ts.do(t, http.MethodPatch, "/applications/"+id.String(), `{"marked_complete":true}`)
	require.Equal(t, http.StatusOK, w.Code)

	u := ts.store.updates[id]
	assert.Nil(t, u.Status)
	require.NotNil(t, u.MarkedComplete)
	assert.True(t, *u.MarkedComplete)
}

func TestHandleUpdateApplication_NothingToUpdate(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPatch, "/applications/"+uuid.New().String(), `{"title":"ignored"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Nothing to update", decodeBody(t, w)["error"])
	assert.Empty(t, ts.store.updates)
}

func TestHandleUpdateApplication_InvalidStatus(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPatch, "/applications/"+uuid.New().String(), `{"status":"ghosted"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, ts.store.updates)
}

func TestHandleUpdateApplication_NotFound(t *testing.T) {
	ts := newTestServer(t)
	id := uuid.New()
	ts.store.missingIDs[id] = true

	w := ts.do(t, http.MethodPatch, "/applications/"+id.String(), `{"notes":""}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleEmailSync(t *testing.T) {
	ts := newTestServer(t)
	ts.syncer.updated = 3

	w := ts.do(t, http.MethodPost, "/email/sync", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w)
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, float64(3), resp["updated"])
	assert.Equal(t, 1, ts.syncer.calls)
}

func TestHandleEmailSync_ConfigurationError(t *testing.T) {
	ts := newTestServer(t)
	ts.syncer.err = &config.Error{Field: "GMAIL_USER", Message: "GMAIL_USER and GMAIL_APP_PASSWORD must be set"}

	w := ts.do(t, http.MethodPost, "/email/sync", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "GMAIL_APP_PASSWORD")
}
