package services

import (
	"strings"
	"testing"
	"time"

	"github.com/launchdeck/launchdeck/backend/internal/models"
	"gorm.io/datatypes"
)

var analyzedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleDocument() ProjectDocument {
	equity := 40.0
	return ProjectDocument{
		Project: &models.Project{Slug: "rocket", IsPublic: true},
		Snapshot: &models.Snapshot{
			Version:        3,
			Name:           "Rocket",
			Slogan:         "Ship faster",
			Description:    "Deploys in one click.",
			Status:         models.StatusMVP,
			Country:        "Germany",
			City:           "Berlin",
			RepositoryURLs: datatypes.JSONSlice[string]{"https://github.com/acme/rocket"},
			WebsiteURLs:    datatypes.JSONSlice[string]{"https://rocket.dev"},
			LogoURL:        "https://rocket.dev/logo.png",
		},
		Contents: []models.ProjectContent{
			{Title: "Pitch", ContentType: models.ContentPitchDeck, Content: "We are great."},
		},
		TeamMembers: []models.TeamMember{
			{Name: "Sam", IsFounder: false, Positions: datatypes.JSONSlice[string]{"Engineer"}},
			{Name: "Alex", IsFounder: true, EquityPercent: &equity, Positions: datatypes.JSONSlice[string]{"CEO"}},
		},
	}
}

func TestRenderProjectMarkdown_SectionOrder(t *testing.T) {
	md := RenderProjectMarkdown(sampleDocument(), analyzedAt)

	order := []string{
		"# Rocket",
		"> Ship faster",
		"## Overview",
		"### Location",
		"### Links",
		"### Media",
		"## Documentation",
		"## Team",
		"### Founders",
		"### Team Members",
		"## Analysis Context",
	}
	last := -1
	for _, heading := range order {
		idx := strings.Index(md, heading)
		if idx < 0 {
			t.Fatalf("missing %q in:\n%s", heading, md)
		}
		if idx <= last {
			t.Errorf("%q is out of order", heading)
		}
		last = idx
	}
	if !strings.Contains(md, "- **Analysis Date:** 2025-03-01T12:00:00Z") {
		t.Errorf("analysis date line missing:\n%s", md)
	}
	if !strings.Contains(md, "#### 1. Alex") {
		t.Error("founder should be listed first under Founders")
	}
}

func TestRenderProjectMarkdown_OmitsEmptySections(t *testing.T) {
	doc := ProjectDocument{
		Project:  &models.Project{Slug: "bare"},
		Snapshot: &models.Snapshot{Version: 1, Name: "Bare", Country: "France"},
	}
	md := RenderProjectMarkdown(doc, analyzedAt)

	if !strings.Contains(md, "**Country:** France") {
		t.Error("country should be rendered")
	}
	if strings.Contains(md, "**City:**") {
		t.Error("city line should be omitted when empty")
	}
	for _, absent := range []string{"### Links", "### Media", "## Documentation", "## Team"} {
		if strings.Contains(md, absent) {
			t.Errorf("%q should be omitted", absent)
		}
	}
}

func TestRenderProjectMarkdown_NoLocation(t *testing.T) {
	doc := ProjectDocument{Snapshot: &models.Snapshot{Name: "Nowhere"}}
	if md := RenderProjectMarkdown(doc, analyzedAt); strings.Contains(md, "### Location") {
		t.Error("location section should be omitted without country and city")
	}
}

func TestRenderProjectMarkdown_Deterministic(t *testing.T) {
	a := RenderProjectMarkdown(sampleDocument(), analyzedAt)
	b := RenderProjectMarkdown(sampleDocument(), analyzedAt)
	if a != b {
		t.Error("same inputs should render identical markdown")
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("héllo", 10); got != "héllo" {
		t.Errorf("short input changed: %q", got)
	}
	if got := truncateRunes("héllo", 2); got != "hé\n\n[truncated]" {
		t.Errorf("truncateRunes = %q", got)
	}
}
