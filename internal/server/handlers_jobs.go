package server

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/jonathan/job-tracker/internal/db"
	"github.com/jonathan/job-tracker/internal/ingest"
	"github.com/jonathan/job-tracker/internal/types"
)

// handleListJobs returns the applications of active companies with the refresh
// time and the search preferences the list was built for
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	apps, err := s.store.ListApplications(r.Context())
	if err != nil {
		s.errorFromErr(w, err)
		return
	}
	if apps == nil {
		apps = []db.ApplicationRow{}
	}

	meta, err := s.store.GetMetaValues(r.Context(), db.MetaLastRefreshed, db.MetaTargetRole, db.MetaTargetLocation)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"jobs":           apps,
		"lastRefreshed":  metaValue(meta, db.MetaLastRefreshed),
		"targetRole":     metaValue(meta, db.MetaTargetRole),
		"targetLocation": metaValue(meta, db.MetaTargetLocation),
	})
}

// handleRefresh ingests postings for one company or all active companies
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req types.RefreshRequest
	if err := decodeJSON(r, &req, true); err != nil {
		s.errorFromErr(w, err)
		return
	}

	result, err := s.refresher.Run(r.Context(), req.CompanyID)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, types.RefreshResponse{OK: true, NewJobs: result.NewApplications})
}

// handleRefreshStream runs ingestion and streams batch progress via SSE
func (s *Server) handleRefreshStream(w http.ResponseWriter, r *http.Request) {
	var req types.RefreshRequest
	if err := decodeJSON(r, &req, true); err != nil {
		s.errorFromErr(w, err)
		return
	}

	stream, err := newRefreshStream(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := s.refresher.RunWithProgress(r.Context(), req.CompanyID, func(event ingest.ProgressEvent) {
		if err := stream.Progress(event); err != nil {
			s.logger.Warn("failed to write refresh progress", zap.Error(err))
		}
	})
	if err != nil {
		s.logger.Error("streamed refresh failed", zap.Error(err))
		stream.Fail(err) //nolint:errcheck
		return
	}

	if err := stream.Complete(result); err != nil {
		s.logger.Warn("failed to write refresh result", zap.Error(err))
	}
}

// metaValue returns the stored value or nil, so unset keys encode as null.
func metaValue(meta map[string]string, key string) *string {
	if v, ok := meta[key]; ok {
		return &v
	}
	return nil
}
