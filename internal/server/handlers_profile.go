package server

import (
	"net/http"

	"github.com/jonathan/job-tracker/internal/db"
	"github.com/jonathan/job-tracker/internal/types"
)

// Profile defaults reported when a preference was never set.
const (
	defaultLocationType = "all"
	defaultExp          = "all"
	defaultDateWithin   = "any"
)

var profileKeys = []string{
	db.MetaTargetRole,
	db.MetaTargetLocation,
	db.MetaTargetLocationType,
	db.MetaTargetExp,
	db.MetaTargetDateWithin,
}

// handleGetProfile returns the stored search preferences
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	meta, err := s.store.GetMetaValues(r.Context(), profileKeys...)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, types.Profile{
		TargetRole:         metaValue(meta, db.MetaTargetRole),
		TargetLocation:     metaValue(meta, db.MetaTargetLocation),
		TargetLocationType: metaOr(meta, db.MetaTargetLocationType, defaultLocationType),
		TargetExp:          metaOr(meta, db.MetaTargetExp, defaultExp),
		TargetDateWithin:   metaOr(meta, db.MetaTargetDateWithin, defaultDateWithin),
	})
}

// handleUpdateProfile stores the preferences present in the request
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateProfileRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.errorFromErr(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.errorFromErr(w, err)
		return
	}

	values := map[string]string{}
	set := func(key string, v *string) {
		if v != nil {
			values[key] = *v
		}
	}
	set(db.MetaTargetRole, req.TargetRole)
	set(db.MetaTargetLocation, req.TargetLocation)
	set(db.MetaTargetLocationType, req.TargetLocationType)
	set(db.MetaTargetExp, req.TargetExp)
	set(db.MetaTargetDateWithin, req.TargetDateWithin)

	if err := s.store.SetMetaValues(r.Context(), values); err != nil {
		s.errorFromErr(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]bool{"ok": true})
}

func metaOr(meta map[string]string, key, fallback string) string {
	if v, ok := meta[key]; ok {
		return v
	}
	return fallback
}
