// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package validation

import "testing"

type brandRequest struct {
	Slug string `validate:"required,brand_slug"`
	Name string `validate:"required,max=128"`
}

type dashboardRequest struct {
	KPIs   []string `validate:"required,dive,known_kpi"`
	Charts []string `validate:"required,dive,known_chart"`
}

func TestStructPassesValidBrand(t *testing.T) {
	errs := Struct(brandRequest{Slug: "acme-corp", Name: "Acme Corp"})
	if errs != nil {
		t.Fatalf("expected no errors, got %+v", errs)
	}
}

func TestStructRejectsBadSlug(t *testing.T) {
	for _, slug := range []string{"", "Has Spaces", "UPPER", "-leading"} {
		errs := Struct(brandRequest{Slug: slug, Name: "Acme"})
		if len(errs) == 0 {
			t.Errorf("expected slug %q to fail", slug)
		}
	}
}

func TestStructValidatesDashboardSelections(t *testing.T) {
	errs := Struct(dashboardRequest{
		KPIs:   []string{"sessions", "mention_rate"},
		Charts: []string{"traffic", "cited_sources"},
	})
	if errs != nil {
		t.Fatalf("expected no errors, got %+v", errs)
	}

	errs = Struct(dashboardRequest{
		KPIs:   []string{"sessions", "bogus_kpi"},
		Charts: []string{"traffic"},
	})
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %+v", errs)
	}
	if errs[0].Rule != "known_kpi" {
		t.Errorf("expected known_kpi rule, got %q", errs[0].Rule)
	}
}
