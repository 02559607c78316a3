package model

import (
	"strings"

	"github.com/erazemk/gudang/internal/apperr"
)

// Location is a storage place items can be assigned to.
type Location struct {
	ID   string `json:"id" db:"id"`
	Code string `json:"code" db:"code"`
	Name string `json:"name" db:"name"`
}

// LocationPatch holds the fields of a partial location update.
type LocationPatch struct {
	Code *string `json:"code,omitempty"`
	Name *string `json:"name,omitempty"`
}

// NormalizeCode trims and uppercases a location code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks the fields required on insert.
func (l Location) Validate() error {
	if strings.TrimSpace(l.Code) == "" {
		return apperr.Validation(apperr.ErrRequiredField, "location code required")
	}
	if strings.TrimSpace(l.Name) == "" {
		return apperr.Validation(apperr.ErrRequiredField, "location name required")
	}
	return nil
}

// Validate checks the fields that are set.
func (p LocationPatch) Validate() error {
	if p.Code != nil && strings.TrimSpace(*p.Code) == "" {
		return apperr.Validation(apperr.ErrRequiredField, "location code required")
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return apperr.Validation(apperr.ErrRequiredField, "location name required")
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (p LocationPatch) Empty() bool {
	return p.Code == nil && p.Name == nil
}

// Apply returns a copy of l with the patch applied.
func (p LocationPatch) Apply(l Location) Location {
	if p.Code != nil {
		l.Code = *p.Code
	}
	if p.Name != nil {
		l.Name = *p.Name
	}
	return l
}
