package models

import "testing"

func strPtr(s string) *string { return &s }

func TestProject_State(t *testing.T) {
	tests := []struct {
		name     string
		public   *string
		draft    *string
		expected PublicationState
		hasDraft bool
	}{
		{"nothing published", nil, strPtr("a"), StateUnpublished, true},
		{"no snapshots", nil, nil, StateUnpublished, false},
		{"draft differs", strPtr("a"), strPtr("b"), StateDraftPending, true},
		{"draft equals public", strPtr("a"), strPtr("a"), StatePublished, false},
		{"draft absent", strPtr("a"), nil, StatePublished, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Project{PublicSnapshotID: tt.public, NewSnapshotID: tt.draft}
			if got := p.State(); got != tt.expected {
				t.Errorf("State() = %q, expected %q", got, tt.expected)
			}
			if got := p.HasDraft(); got != tt.hasDraft {
				t.Errorf("HasDraft() = %v, expected %v", got, tt.hasDraft)
			}
		})
	}
}

func TestRole_AtLeast(t *testing.T) {
	roles := []Role{RoleViewer, RoleEditor, RoleAdmin, RoleOwner}
	for i, held := range roles {
		for j, required := range roles {
			if got := held.AtLeast(required); got != (i >= j) {
				t.Errorf("%s.AtLeast(%s) = %v", held, required, got)
			}
		}
	}
	if Role("guest").AtLeast(RoleViewer) {
		t.Error("unknown role should never satisfy a requirement")
	}
}

func TestSnapshot_NextVersion(t *testing.T) {
	scoring := "s1"
	src := &Snapshot{
		ID:          "old",
		ProjectID:   "p1",
		Version:     3,
		Name:        "Acme",
		Contents:    []string{"c1"},
		TeamMembers: []string{"m1", "m2"},
		IsLocked:    true,
		ScoringID:   &scoring,
	}

	next := src.NextVersion("u1")
	if next.ID != "" || next.IsLocked || next.ScoringID != nil {
		t.Errorf("identity, lock and scoring must not be copied: %+v", next)
	}
	if next.Version != 4 || next.Name != "Acme" || next.CreatedBy != "u1" {
		t.Errorf("unexpected copy: %+v", next)
	}

	next.TeamMembers[0] = "changed"
	if src.TeamMembers[0] != "m1" {
		t.Error("list fields must be copied, not shared")
	}
}
