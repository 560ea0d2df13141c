// Package types provides the request and response payloads of the HTTP API.
package types

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/job-tracker/internal/sources"
)

// RefreshRequest triggers ingestion of one company, or all when CompanyID is nil.
type RefreshRequest struct {
	CompanyID *uuid.UUID `json:"companyId,omitempty"`
}

// RefreshResponse reports how many new applications ingestion created.
type RefreshResponse struct {
	OK      bool `json:"ok"`
	NewJobs int  `json:"newJobs"`
}

// SyncResponse reports how many applications email sync updated.
type SyncResponse struct {
	OK      bool  `json:"ok"`
	Updated int64 `json:"updated"`
}

// CreateCompanyRequest represents the request to start tracking a company.
// Slug may also be a careers page URL, from which the source and slug are derived.
type CreateCompanyRequest struct {
	Name    string `json:"name" validate:"required"`
	Slug    string `json:"slug" validate:"required"`
	Website string `json:"website,omitempty" validate:"omitempty,max=2048"`
	Source  string `json:"source,omitempty"`
}

// ErrUnrecognizedBoardURL is returned when the slug is a URL that does not
// point at a supported job board.
var ErrUnrecognizedBoardURL = errors.New("unrecognized careers page URL")

// Board returns the source and slug the company is fetched from. An unknown
// or missing source falls back to Greenhouse. A URL slug must resolve to a
// supported board.
func (r *CreateCompanyRequest) Board() (sources.Source, string, error) {
	if source, slug, ok := sources.DetectBoard(r.Slug); ok {
		return source, slug, nil
	}
	if strings.Contains(r.Slug, "://") {
		return "", "", ErrUnrecognizedBoardURL
	}
	source, err := sources.ParseSource(r.Source)
	if err != nil {
		source = sources.Greenhouse
	}
	return source, strings.ToLower(strings.TrimSpace(r.Slug)), nil
}

// UpdateCompanyRequest activates or deactivates a company.
type UpdateCompanyRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// UpdateApplicationRequest holds the user-editable application fields.
// Absent fields are left unchanged.
type UpdateApplicationRequest struct {
	Status         *string `json:"status,omitempty" validate:"omitempty,oneof=new applied phone_screen interview offer rejected withdrawn complete"`
	Notes          *string `json:"notes,omitempty" validate:"omitempty,max=10000"`
	MarkedComplete *bool   `json:"marked_complete,omitempty"`
}

// Empty reports whether the request changes nothing.
func (r *UpdateApplicationRequest) Empty() bool {
	return r.Status == nil && r.Notes == nil && r.MarkedComplete == nil
}

// Profile holds the job search preferences stored in meta.
type Profile struct {
	TargetRole         *string `json:"targetRole"`
	TargetLocation     *string `json:"targetLocation"`
	TargetLocationType string  `json:"targetLocationType"`
	TargetExp          string  `json:"targetExp"`
	TargetDateWithin   string  `json:"targetDateWithin"`
}

// UpdateProfileRequest sets the preferences that are present.
type UpdateProfileRequest struct {
	TargetRole         *string `json:"targetRole,omitempty" validate:"omitempty,max=500"`
	TargetLocation     *string `json:"targetLocation,omitempty" validate:"omitempty,max=500"`
	TargetLocationType *string `json:"targetLocationType,omitempty" validate:"omitempty,max=50"`
	TargetExp          *string `json:"targetExp,omitempty" validate:"omitempty,max=50"`
	TargetDateWithin   *string `json:"targetDateWithin,omitempty" validate:"omitempty,max=50"`
}

// Validate validates the CreateCompanyRequest using the validator and checks
// that a URL slug names a supported board.
func (r *CreateCompanyRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return err
	}
	_, _, err := r.Board()
	return err
}

// Validate validates the UpdateCompanyRequest using the validator.
func (r *UpdateCompanyRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the UpdateApplicationRequest using the validator.
func (r *UpdateApplicationRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the UpdateProfileRequest using the validator.
func (r *UpdateProfileRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
