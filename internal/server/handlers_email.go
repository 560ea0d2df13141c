package server

import (
	"net/http"

	"github.com/jonathan/job-tracker/internal/types"
)

// handleEmailSync reconciles application statuses with recent mailbox messages
func (s *Server) handleEmailSync(w http.ResponseWriter, r *http.Request) {
	updated, err := s.syncer.Sync(r.Context())
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, types.SyncResponse{OK: true, Updated: updated})
}
