package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/models"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/utils"
)

func seededTeams(n int) []*models.Team {
	teams := make([]*models.Team, 0, n)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		registered := base.Add(time.Duration(i) * time.Minute)
		teams = append(teams, &models.Team{
			ID:           fmt.Sprintf("team-%02d", i),
			EventID:      "event-1",
			Name:         fmt.Sprintf("Team %d", i),
			Seed:         utils.IntPtr(i),
			RegisteredAt: &registered,
		})
	}
	return teams
}

func edgeBetween(teams []*models.Team, a, b int) *models.AvoidEdge {
	edge, _ := models.NewAvoidEdge(fmt.Sprintf("edge-%d-%d", a, b), "event-1", teams[a-1].ID, teams[b-1].ID, nil)
	return edge
}

func TestPartitionSeparatesAvoidEdges(t *testing.T) {
	teams := seededTeams(16)
	edges := []*models.AvoidEdge{
		edgeBetween(teams, 1, 9),
		edgeBetween(teams, 2, 10),
	}

	result, err := PartitionWaterfallGroups(teams, edges, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.SeparationRate != 1.0 {
		t.Fatalf("separation rate = %v, want 1.0", result.SeparationRate)
	}
	for i, size := range result.GroupSizes {
		if size != 4 {
			t.Fatalf("group %d size = %d, want 4", i, size)
		}
	}
	if result.Assignments[teams[0].ID] == result.Assignments[teams[8].ID] {
		t.Fatal("teams 1 and 9 must land in different groups")
	}
	if result.Assignments[teams[1].ID] == result.Assignments[teams[9].ID] {
		t.Fatal("teams 2 and 10 must land in different groups")
	}
}

func TestPartitionDeterministic(t *testing.T) {
	teams := seededTeams(16)
	edges := []*models.AvoidEdge{
		edgeBetween(teams, 1, 9),
		edgeBetween(teams, 2, 10),
		edgeBetween(teams, 3, 4),
	}

	first, err := PartitionWaterfallGroups(teams, edges, 4)
	if err != nil {
		t.Fatal(err)
	}
	for run := 0; run < 5; run++ {
		again, err := PartitionWaterfallGroups(teams, edges, 4)
		if err != nil {
			t.Fatal(err)
		}
		for id, group := range first.Assignments {
			if again.Assignments[id] != group {
				t.Fatalf("run %d: team %s moved from group %d to %d", run, id, group, again.Assignments[id])
			}
		}
	}
}

func TestPartitionCapacityMismatch(t *testing.T) {
	teams := seededTeams(10)
	if _, err := PartitionWaterfallGroups(teams, nil, 4); err == nil {
		t.Fatal("10 teams into 4 equal groups must error")
	}
}

func TestPartitionReportsUnavoidableConflicts(t *testing.T) {
	// A clique over three teams with only two groups cannot be fully
	// separated; the run must still succeed and report the internal edge.
	teams := seededTeams(4)
	edges := []*models.AvoidEdge{
		edgeBetween(teams, 1, 2),
		edgeBetween(teams, 1, 3),
		edgeBetween(teams, 2, 3),
	}

	result, err := PartitionWaterfallGroups(teams, edges, 2)
	if err != nil {
		t.Fatalf("conflicted inputs must not abort: %v", err)
	}

	internal := 0
	for _, count := range result.InternalConflicts {
		internal += count
	}
	if internal+result.SeparatedEdges != len(edges) {
		t.Fatalf("edges unaccounted for: internal %d + separated %d != %d", internal, result.SeparatedEdges, len(edges))
	}
	if internal == 0 {
		t.Fatal("a triangle across two groups must leave an internal conflict")
	}
	if result.SeparationRate >= 1.0 {
		t.Fatalf("separation rate %v should reflect the unavoidable conflict", result.SeparationRate)
	}
}

func TestCanonicalTeamOrder(t *testing.T) {
	unseeded := &models.Team{ID: "team-z", Name: "Z"}
	high := &models.Team{ID: "team-h", Name: "H", Seed: utils.IntPtr(1)}
	low := &models.Team{ID: "team-l", Name: "L", Seed: utils.IntPtr(5)}
	rated := &models.Team{ID: "team-r", Name: "R", Rating: utils.Float64Ptr(1800)}

	ordered := CanonicalTeamOrder([]*models.Team{unseeded, low, rated, high})
	want := []string{"team-h", "team-l", "team-r", "team-z"}
	for i, id := range want {
		if ordered[i].ID != id {
			t.Fatalf("position %d: got %s, want %s", i, ordered[i].ID, id)
		}
	}
}

func TestWaterfallGroupTarget(t *testing.T) {
	tests := []struct {
		event *models.Event
		want  int
	}{
		{planEvent(models.TemplateWFToPoolsDynamic, 16, 2, 4), 4},
		{planEvent(models.TemplateWFToPoolsDynamic, 10, 1, 4), 2},
		{planEvent(models.TemplateWFToPools4, 16, 2, 4), 4},
		{planEvent(models.TemplateWFToBrackets8, 32, 2, 5), 4},
		{planEvent(models.TemplateRROnly, 6, 0, 4), 0},
		{planEvent(models.TemplateCanonical32, 8, 2, 5), 0},
	}
	for _, tt := range tests {
		got, err := WaterfallGroupTarget(tt.event)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Fatalf("target for %s/%d = %d, want %d",
				tt.event.DrawPlan.TemplateType, tt.event.TeamCount, got, tt.want)
		}
	}
}
