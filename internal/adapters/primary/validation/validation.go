// Package validation checks request shapes before they reach the core.
// Domain rules (field priority, status membership on entities) live in the
// domain package; this layer only rejects bodies and query strings that are
// structurally wrong.
package validation

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/polizadesk/ticketboard/internal/core/errors"
)

// Validator accumulates field errors across chained checks.
type Validator struct {
	errors *apperrors.ValidationErrors
}

// NewValidator creates an empty validator.
func NewValidator() *Validator {
	return &Validator{errors: apperrors.NewValidationErrors()}
}

// HasErrors reports whether any check failed.
func (v *Validator) HasErrors() bool {
	return v.errors.HasErrors()
}

// Errors returns the accumulated field errors.
func (v *Validator) Errors() *apperrors.ValidationErrors {
	return v.errors
}

// Required fails when the value is empty after trimming.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.errors.Add(field, "This field is required")
	}
	return v
}

// MaxLength fails when the value exceeds max bytes.
func (v *Validator) MaxLength(field, value string, max int) *Validator {
	if len(value) > max {
		v.errors.Add(field, "Must be at most "+strconv.Itoa(max)+" characters")
	}
	return v
}

// UUID fails when a non-empty value is not a UUID. Empty values pass; pair
// with Required when the field is mandatory.
func (v *Validator) UUID(field, value string) *Validator {
	if value == "" {
		return v
	}
	if _, err := uuid.Parse(value); err != nil {
		v.errors.Add(field, "Must be a valid UUID")
	}
	return v
}

// OneOf fails when a non-empty value is outside the allowed set.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" {
		return v
	}
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.errors.Add(field, "Must be one of: "+strings.Join(allowed, ", "))
	return v
}

// Custom records message for the field when valid is false.
func (v *Validator) Custom(field string, valid bool, message string) *Validator {
	if !valid {
		v.errors.Add(field, message)
	}
	return v
}

// DecodeAndValidate decodes the JSON request body into T. Malformed JSON
// maps to a 400 before any field-level validation runs.
func DecodeAndValidate[T any](r *http.Request) (*T, error) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, apperrors.NewBadRequestError(err, "Invalid request body")
	}
	return &req, nil
}

// ParseStringQueryParam returns the trimmed query parameter value.
func ParseStringQueryParam(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}

// ParseDateQueryParam parses an optional YYYY-MM-DD query parameter in the
// given location. A missing parameter yields nil without error.
func ParseDateQueryParam(r *http.Request, name string, loc *time.Location) (*time.Time, error) {
	raw := ParseStringQueryParam(r, name)
	if raw == "" {
		return nil, nil
	}

	t, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
