package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-tracker/internal/db"
)

func TestHandleGetProfile_Defaults(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/profile", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"targetRole": null,
		"targetLocation": null,
		"targetLocationType": "all",
		"targetExp": "all",
		"targetDateWithin": "any"
	}`, w.Body.String())
}

func TestHandleGetProfile_StoredValues(t *testing.T) {
	ts := newTestServer(t)
	ts.store.meta[db.MetaTargetRole] = "product manager, pm"
	ts.store.meta[db.MetaTargetLocationType] = "remote"

	w := ts.do(t, http.MethodGet, "/profile", "")
	resp := decodeBody(t, w)
	assert.Equal(t, "product manager, pm", resp["targetRole"])
	assert.Equal(t, "remote", resp["targetLocationType"])
	assert.Equal(t, "any", resp["targetDateWithin"])
}

func TestHandleUpdateProfile_OnlyPresentKeys(t *testing.T) {
	ts := newTestServer(t)
	ts.store.meta[db.MetaTargetLocation] = "NYC"

	w := ts.do(t, http.MethodPatch, "/profile", `{"targetRole":"engineer","targetExp":"senior"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["ok"])

	require.Len(t, ts.store.metaSets, 1)
	assert.Equal(t, map[string]string{
		db.MetaTargetRole: "engineer",
		db.MetaTargetExp:  "senior",
	}, ts.store.metaSets[0])
	assert.Equal(t, "NYC", ts.store.meta[db.MetaTargetLocation])
}

func TestHandleUpdateProfile_EmptyStringIsStored(t *testing.T) {
	ts := newTestServer(t)
	ts.store.meta[db.MetaTargetRole] = "engineer"

	w := ts.do(t, http.MethodPatch, "/profile", `{"targetRole":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", ts.store.meta[db.MetaTargetRole])
}

func TestHandleUpdateProfile_InvalidBody(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPatch, "/profile", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, ts.store.metaSets)
}
