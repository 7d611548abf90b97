package models

import (
	"testing"
	"time"
)

func mkMatch(code string, mt MatchType, round, seq int) *Match {
	return &Match{
		ID:               code,
		EventID:          "event-1",
		MatchCode:        code,
		MatchType:        mt,
		RoundIndex:       round,
		SequenceInRound:  seq,
		DurationMinutes:  60,
		PlaceholderSideA: "A",
		PlaceholderSideB: "B",
		Status:           MatchUnscheduled,
	}
}

func TestStagePriorityOrdering(t *testing.T) {
	wf := mkMatch("WF_R1_M1", MatchWF, 1, 1)
	qf := mkMatch("QF1", MatchMain, 1, 1)
	final := mkMatch("FINAL", MatchMain, 3, 1)
	cons := mkMatch("CONS1_1", MatchConsolation, 1, 1)
	pl := mkMatch("PL1_3rd4th", MatchPlacement, 1, 1)
	pt := PlacementMainSFLosers
	pl.PlacementType = &pt

	matches := []*Match{pl, final, cons, qf, wf}
	SortMatches(matches)

	want := []string{"WF_R1_M1", "QF1", "FINAL", "CONS1_1", "PL1_3rd4th"}
	for i, code := range want {
		if matches[i].MatchCode != code {
			t.Fatalf("position %d: got %s, want %s", i, matches[i].MatchCode, code)
		}
	}
}

func TestFinalPrecedesPlacement(t *testing.T) {
	// The MAIN final sits in round 3 but stage priority puts it ahead of any
	// placement match in round 1.
	final := mkMatch("FINAL", MatchMain, 3, 1)
	pl := mkMatch("PL1_3rd4th", MatchPlacement, 1, 1)
	if !final.Less(pl) {
		t.Fatal("MAIN final must sort before placement matches")
	}
	if pl.Less(final) {
		t.Fatal("placement must not sort before the MAIN final")
	}
}

func TestPlacementTieBreak(t *testing.T) {
	mk := func(code string, pt PlacementType) *Match {
		m := mkMatch(code, MatchPlacement, 1, 1)
		m.PlacementType = &pt
		return m
	}
	pl3 := mk("PL3_7th8th", PlacementConsR1Losers)
	pl1 := mk("PL1_3rd4th", PlacementMainSFLosers)
	pl2 := mk("PL2_5th6th", PlacementConsR1Winners)

	matches := []*Match{pl3, pl1, pl2}
	SortMatches(matches)

	want := []string{"PL1_3rd4th", "PL2_5th6th", "PL3_7th8th"}
	for i, code := range want {
		if matches[i].MatchCode != code {
			t.Fatalf("position %d: got %s, want %s", i, matches[i].MatchCode, code)
		}
	}
}

func TestMatchValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Match)
		wantErr bool
	}{
		{"valid", func(m *Match) {}, false},
		{"bad duration", func(m *Match) { m.DurationMinutes = 45 }, true},
		{"zero round", func(m *Match) { m.RoundIndex = 0 }, true},
		{"zero sequence", func(m *Match) { m.SequenceInRound = 0 }, true},
		{"missing placeholder", func(m *Match) { m.PlaceholderSideA = "" }, true},
		{"bad tier", func(m *Match) { tier := 3; m.ConsolationTier = &tier }, true},
		{"unknown type", func(m *Match) { m.MatchType = "EXHIBITION" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mkMatch("QF1", MatchMain, 1, 1)
			m.CreatedAt = time.Now()
			tt.mutate(m)
			err := m.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestVersionValidate(t *testing.T) {
	now := time.Now()
	checksum := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

	draft := &ScheduleVersion{ID: "v1", TournamentID: "t1", VersionNumber: 1, Status: VersionDraft}
	if err := draft.Validate(); err != nil {
		t.Fatalf("draft should validate: %v", err)
	}

	draft.FinalizedChecksum = &checksum
	if err := draft.Validate(); err == nil {
		t.Fatal("draft with checksum must fail validation")
	}

	final := &ScheduleVersion{
		ID: "v2", TournamentID: "t1", VersionNumber: 2, Status: VersionFinal,
		FinalizedAt: &now, FinalizedChecksum: &checksum,
	}
	if err := final.Validate(); err != nil {
		t.Fatalf("final should validate: %v", err)
	}

	final.FinalizedChecksum = nil
	if err := final.Validate(); err == nil {
		t.Fatal("final without checksum must fail validation")
	}
}

func TestAvoidEdgeCanonicalForm(t *testing.T) {
	edge, err := NewAvoidEdge("e1", "event-1", "team-b", "team-a", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if edge.TeamIDA != "team-a" || edge.TeamIDB != "team-b" {
		t.Fatalf("edge not canonicalized: %s, %s", edge.TeamIDA, edge.TeamIDB)
	}

	if _, err := NewAvoidEdge("e2", "event-1", "team-a", "team-a", nil); err == nil {
		t.Fatal("self edge must be rejected")
	}
}
