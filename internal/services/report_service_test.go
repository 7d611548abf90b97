package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/models"
)

// reportFixture builds a small fully-assigned version: an 8-team bracket on
// one long day with the first-fit pass applied.
func reportFixture(t *testing.T) ReportInput {
	t.Helper()

	event := planEvent(models.TemplateCanonical32, 8, 2, 5)
	event.DrawPlan.Timing.StandardBlockMinutes = 60
	matches := buildFor(t, event)
	slots := gridSlots(t, "2026-06-01", "08:00", "21:00", 1)

	outcome, err := AssignMatches("version-1", matches, slots, nil, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	require.Equal(t, len(matches), outcome.AssignedCount)

	version := &models.ScheduleVersion{
		ID: "version-1", TournamentID: "t1", VersionNumber: 1, Status: models.VersionDraft,
	}
	return ReportInput{
		Version:      version,
		Slots:        slots,
		Matches:      matches,
		Assignments:  outcome.Assignments,
		Events:       []*models.Event{event},
		TeamsByEvent: map[string][]*models.Team{event.ID: nil},
		EdgesByEvent: map[string][]*models.AvoidEdge{event.ID: nil},
	}
}

func TestConflictReportSummary(t *testing.T) {
	input := reportFixture(t)
	report, err := BuildConflictReport(input)
	require.NoError(t, err)

	require.Equal(t, 13, report.Summary.TotalMatches)
	require.Equal(t, 13, report.Summary.AssignedMatches)
	require.Equal(t, 0, report.Summary.UnassignedMatches)
	require.Equal(t, 1.0, report.Summary.AssignmentRate)
	require.Equal(t, 13, report.Summary.UsedSlots)
	require.Empty(t, report.Unassigned)
	require.True(t, report.OrderingIntegrity.OK)
}

func TestConflictReportByteIdentical(t *testing.T) {
	input := reportFixture(t)

	first, err := BuildConflictReport(input)
	require.NoError(t, err)
	second, err := BuildConflictReport(input)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	require.Equal(t, firstJSON, secondJSON)
}

func TestConflictReportOrderingInversion(t *testing.T) {
	input := reportFixture(t)

	// Swap the slots of the FINAL and a placement match so the placement
	// runs first: a stage-order inversion.
	var finalID, placementID string
	for _, m := range input.Matches {
		switch m.MatchCode {
		case "FINAL":
			finalID = m.ID
		case "PL1_3rd4th":
			placementID = m.ID
		}
	}
	for _, a := range input.Assignments {
		switch a.MatchID {
		case finalID:
			a.MatchID = placementID
		case placementID:
			a.MatchID = finalID
		}
	}

	report, err := BuildConflictReport(input)
	require.NoError(t, err)
	require.False(t, report.OrderingIntegrity.OK)

	found := false
	for _, v := range report.OrderingIntegrity.Violations {
		if v.Type == ViolationStageOrder {
			found = true
		}
	}
	require.True(t, found, "expected a stage order inversion, got %+v", report.OrderingIntegrity.Violations)
}

func TestConflictReportSpillover(t *testing.T) {
	input := reportFixture(t)
	report, err := BuildConflictReport(input)
	require.NoError(t, err)

	// On a single court every stage fully drains before the next begins.
	for _, entry := range report.StageTimeline {
		require.False(t, entry.SpilloverWarning, "stage %s", entry.Stage)
	}
}

func TestConflictReportUnassignedReasons(t *testing.T) {
	// Slots shorter than every match: the reporter lists each match as
	// duration-blocked.
	event := planEvent(models.TemplateRROnly, 4, 0, 4)
	matches := buildFor(t, event)
	slots := gridSlots(t, "2026-06-01", "09:00", "09:30", 1)

	version := &models.ScheduleVersion{ID: "version-1", TournamentID: "t1", VersionNumber: 1, Status: models.VersionDraft}
	input := ReportInput{
		Version:      version,
		Slots:        slots,
		Matches:      matches,
		Assignments:  nil,
		Events:       []*models.Event{event},
		TeamsByEvent: map[string][]*models.Team{event.ID: nil},
		EdgesByEvent: map[string][]*models.AvoidEdge{event.ID: nil},
	}

	report, err := BuildConflictReport(input)
	require.NoError(t, err)
	require.Len(t, report.Unassigned, 6)
	for _, u := range report.Unassigned {
		require.Equal(t, ReasonDurationTooLong, u.Reason)
	}
	require.Equal(t, len(slots), report.SlotPressure.ShortBlocks)
}

func TestConflictLensGrouping(t *testing.T) {
	event := planEvent(models.TemplateWFToPoolsDynamic, 16, 2, 4)
	teams := seededTeams(16)
	edges := []*models.AvoidEdge{
		edgeBetween(teams, 1, 9),
		edgeBetween(teams, 2, 10),
	}

	grouping, err := PartitionWaterfallGroups(teams, edges, 4)
	require.NoError(t, err)
	for _, team := range teams {
		group := grouping.Assignments[team.ID]
		team.WFGroupIndex = &group
	}

	lens := buildConflictLens(event, teams, edges)
	require.Equal(t, 16, lens.GraphSummary.TeamCount)
	require.Equal(t, 2, lens.GraphSummary.EdgeCount)
	require.Equal(t, 4, lens.GroupingSummary.GroupCount)
	require.Equal(t, []int{4, 4, 4, 4}, lens.GroupingSummary.GroupSizes)
	require.Empty(t, lens.UnavoidableConflicts)
	require.Equal(t, 1.0, lens.SeparationEffectiveness.SeparationRate)
}

func TestBuildGridProjection(t *testing.T) {
	input := reportFixture(t)
	grid := BuildGrid(input)

	require.Len(t, grid.Days, 1)
	day := grid.Days[0]
	require.Equal(t, "2026-06-01", day.DayDate)
	require.Len(t, day.Courts, 1)

	cells := day.Courts[0].Cells
	require.Len(t, cells, 13)
	for i := 1; i < len(cells); i++ {
		require.LessOrEqual(t, cells[i-1].StartTime, cells[i].StartTime)
	}
	// The first cell is the earliest quarterfinal with its computed end.
	require.Equal(t, "08:00", cells[0].StartTime)
	require.Equal(t, "09:00", cells[0].EndTime)
	require.Equal(t, "QF1", cells[0].MatchCode)
}
