package server

import (
	"net/http"

	"github.com/jonathan/job-tracker/internal/db"
	"github.com/jonathan/job-tracker/internal/types"
)

// handleUpdateApplication edits an application's status, notes or completion flag
func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "application")
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	var req types.UpdateApplicationRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.errorFromErr(w, err)
		return
	}
	if req.Empty() {
		s.errorResponse(w, http.StatusBadRequest, "Nothing to update")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorFromErr(w, err)
		return
	}

	update := db.ApplicationUpdate{
		Notes:          req.Notes,
		MarkedComplete: req.MarkedComplete,
	}
	if req.Status != nil {
		status, err := db.ParseStatus(*req.Status)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid status")
			return
		}
		update.Status = &status
	}

	if err := s.store.UpdateApplication(r.Context(), id, update); err != nil {
		s.errorFromErr(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]bool{"ok": true})
}
