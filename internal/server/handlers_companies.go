package server

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/job-tracker/internal/db"
	"github.com/jonathan/job-tracker/internal/types"
)

// handleListCompanies lists every tracked company, active or not
func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.store.ListCompanies(r.Context())
	if err != nil {
		s.errorFromErr(w, err)
		return
	}
	if companies == nil {
		companies = []db.Company{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"companies": companies})
}

// handleCreateCompany starts tracking a company
func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var req types.CreateCompanyRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.errorFromErr(w, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Slug) == "" {
		s.errorResponse(w, http.StatusBadRequest, "name and slug are required")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorFromErr(w, err)
		return
	}

	source, slug, err := req.Board()
	if err != nil {
		s.errorFromErr(w, err)
		return
	}
	company, err := s.store.CreateCompany(r.Context(), db.CompanyInput{
		Name:       strings.TrimSpace(req.Name),
		Slug:       slug,
		WebsiteURL: strings.TrimSpace(req.Website),
		Source:     source,
	})
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	s.logger.Info("company added",
		zap.String("company_id", company.ID.String()),
		zap.String("slug", company.Slug),
		zap.String("source", company.Source.String()))
	s.jsonResponse(w, http.StatusOK, map[string]any{"company": company})
}

// handleUpdateCompany activates or deactivates a company
func (s *Server) handleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "company")
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	var req types.UpdateCompanyRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.errorFromErr(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "is_active is required")
		return
	}

	if err := s.store.SetCompanyActive(r.Context(), id, *req.IsActive); err != nil {
		s.errorFromErr(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleDeleteCompany removes a company with its jobs and applications
func (s *Server) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "company")
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	if err := s.store.DeleteCompany(r.Context(), id); err != nil {
		s.errorFromErr(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]bool{"ok": true})
}
