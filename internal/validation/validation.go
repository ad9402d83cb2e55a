// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

// Package validation wraps go-playground/validator with Brandlens-specific
// rules. Request structs declare constraints via `validate` tags; handlers
// call Struct and surface the field errors in the API error envelope.
//
// Custom rules:
//
//	known_kpi   - value is one of models.KnownKPIs
//	known_chart - value is one of models.KnownCharts
//	brand_slug  - lowercase letters, digits, and hyphens, 1-64 chars
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/brandlens/brandlens/internal/models"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,63}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Registration only fails for empty tags or nil funcs, neither of which
	// can happen here.
	_ = v.RegisterValidation("known_kpi", func(fl validator.FieldLevel) bool {
		return slices.Contains(models.KnownKPIs, fl.Field().String())
	})
	_ = v.RegisterValidation("known_chart", func(fl validator.FieldLevel) bool {
		return slices.Contains(models.KnownCharts, fl.Field().String())
	})
	_ = v.RegisterValidation("brand_slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})

	return v
}

// FieldError describes one failed constraint, shaped for JSON error details.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// Struct validates a tagged struct and returns one FieldError per failed
// constraint. A nil slice means the struct is valid.
func Struct(s any) []FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return []FieldError{{Rule: "struct", Message: err.Error()}}
	}

	fields := make([]FieldError, 0, len(invalid))
	for _, fe := range invalid {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Value:   fmt.Sprintf("%v", fe.Value()),
			Message: message(fe),
		})
	}
	return fields
}

// message renders a short human-readable description for a failed rule.
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "known_kpi":
		return fmt.Sprintf("%s must be a known KPI identifier", fe.Field())
	case "known_chart":
		return fmt.Sprintf("%s must be a known chart identifier", fe.Field())
	case "brand_slug":
		return fmt.Sprintf("%s must be lowercase letters, digits, and hyphens", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
