package services

import (
	"testing"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/models"
)

func planEvent(template models.TemplateType, teamCount, wfRounds, guarantee int) *models.Event {
	return &models.Event{
		ID:                "event-1",
		TournamentID:      "t1",
		Name:              "Open",
		TeamCount:         teamCount,
		GuaranteeSelected: guarantee,
		DrawStatus:        models.DrawNotStarted,
		DrawPlan: &models.DrawPlan{
			TemplateType: template,
			WFRounds:     wfRounds,
			Timing:       models.PlanTiming{WFBlockMinutes: 60, StandardBlockMinutes: 90},
		},
	}
}

func TestValidateDrawPlanRules(t *testing.T) {
	tests := []struct {
		name     string
		event    *models.Event
		ok       bool
		wantCode string
	}{
		{"rr any even", planEvent(models.TemplateRROnly, 6, 0, 4), true, ""},
		{"rr odd count", planEvent(models.TemplateRROnly, 9, 0, 4), false, IssueTeamCountOdd},
		{"rr below minimum", planEvent(models.TemplateRROnly, 0, 0, 4), false, IssueTeamCountTooSmall},
		{"rr with wf rounds", planEvent(models.TemplateRROnly, 6, 1, 4), false, IssueWFRoundsMismatch},
		{"dynamic 8 one round", planEvent(models.TemplateWFToPoolsDynamic, 8, 1, 4), true, ""},
		{"dynamic 10 one round", planEvent(models.TemplateWFToPoolsDynamic, 10, 1, 4), true, ""},
		{"dynamic 16 two rounds", planEvent(models.TemplateWFToPoolsDynamic, 16, 2, 5), true, ""},
		{"dynamic 20 two rounds", planEvent(models.TemplateWFToPoolsDynamic, 20, 2, 4), true, ""},
		{"dynamic 8 wrong rounds", planEvent(models.TemplateWFToPoolsDynamic, 8, 2, 4), false, IssueWFRoundsMismatch},
		{"dynamic 22 unsupported", planEvent(models.TemplateWFToPoolsDynamic, 22, 2, 4), false, IssueTemplateTeamCount},
		{"brackets needs 32", planEvent(models.TemplateWFToBrackets8, 16, 2, 5), false, IssueTemplateTeamCount},
		{"brackets 32 ok", planEvent(models.TemplateWFToBrackets8, 32, 2, 5), true, ""},
		{"canonical legacy 8", planEvent(models.TemplateCanonical32, 8, 2, 5), true, ""},
		{"canonical wrong count", planEvent(models.TemplateCanonical32, 32, 2, 5), false, IssueTemplateTeamCount},
		{"pools4 legacy 16", planEvent(models.TemplateWFToPools4, 16, 2, 4), true, ""},
		{"guarantee out of range", planEvent(models.TemplateRROnly, 6, 0, 3), false, IssueGuaranteeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ValidateDrawPlan(tt.event, tt.event.TeamCount)
			if v.OK != tt.ok {
				t.Fatalf("OK = %v, want %v (blocking: %v)", v.OK, tt.ok, v.Blocking)
			}
			if tt.wantCode == "" {
				return
			}
			found := false
			for _, issue := range v.Blocking {
				if issue.Code == tt.wantCode {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected blocking code %s, got %v", tt.wantCode, v.Blocking)
			}
		})
	}
}

func TestValidateDrawPlanBadDuration(t *testing.T) {
	event := planEvent(models.TemplateRROnly, 6, 0, 4)
	event.DrawPlan.Timing.StandardBlockMinutes = 45
	v := ValidateDrawPlan(event, 6)
	if v.OK {
		t.Fatal("45-minute standard block must be rejected")
	}
}

func TestValidateDrawPlanRosterWarnings(t *testing.T) {
	event := planEvent(models.TemplateRROnly, 6, 0, 4)

	v := ValidateDrawPlan(event, 4)
	if !v.OK {
		t.Fatalf("underfilled roster must not block: %v", v.Blocking)
	}
	if len(v.Warnings) == 0 || v.Warnings[0].Code != IssueRosterUnderfilled {
		t.Fatalf("expected underfill warning, got %v", v.Warnings)
	}

	v = ValidateDrawPlan(event, 8)
	if len(v.Warnings) == 0 || v.Warnings[0].Code != IssueRosterOverfilled {
		t.Fatalf("expected overfill warning, got %v", v.Warnings)
	}
}

func TestExpectedMatchCounts(t *testing.T) {
	tests := []struct {
		name  string
		event *models.Event
		want  ExpectedCounts
	}{
		{
			"rr four teams",
			planEvent(models.TemplateRROnly, 4, 0, 4),
			ExpectedCounts{Main: 6, Total: 6},
		},
		{
			"canonical guarantee four",
			planEvent(models.TemplateCanonical32, 8, 2, 4),
			ExpectedCounts{Main: 7, Consolation: 2, Total: 9},
		},
		{
			"canonical guarantee five",
			planEvent(models.TemplateCanonical32, 8, 2, 5),
			ExpectedCounts{Main: 7, Consolation: 3, Placement: 3, Total: 13},
		},
		{
			"dynamic sixteen",
			planEvent(models.TemplateWFToPoolsDynamic, 16, 2, 4),
			ExpectedCounts{WF: 16, Main: 24, Total: 40},
		},
		{
			"brackets thirty-two guarantee five",
			planEvent(models.TemplateWFToBrackets8, 32, 2, 5),
			ExpectedCounts{WF: 32, Main: 28, Consolation: 12, Placement: 12, Total: 84},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpectedMatchCounts(tt.event)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("counts = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPoolSizeFor(t *testing.T) {
	tests := []struct {
		teamCount int
		want      int
	}{
		{8, 4}, {10, 5}, {12, 4}, {14, 7}, {16, 4}, {18, 6}, {20, 4},
	}
	for _, tt := range tests {
		got, err := poolSizeFor(tt.teamCount)
		if err != nil {
			t.Fatalf("poolSizeFor(%d): %v", tt.teamCount, err)
		}
		if got != tt.want {
			t.Fatalf("poolSizeFor(%d) = %d, want %d", tt.teamCount, got, tt.want)
		}
	}

	if _, err := poolSizeFor(26); err == nil {
		t.Fatal("26 teams cannot form equal pools and must error")
	}
}
