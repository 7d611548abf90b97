package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/models"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/utils"
)

func scoringMatch(code string, round, seq, duration int, teamA, teamB string) *models.Match {
	m := &models.Match{
		ID:               "match-" + code,
		EventID:          "event-1",
		MatchCode:        code,
		MatchType:        models.MatchMain,
		RoundIndex:       round,
		SequenceInRound:  seq,
		DurationMinutes:  duration,
		PlaceholderSideA: "Side A",
		PlaceholderSideB: "Side B",
		Status:           models.MatchUnscheduled,
	}
	if teamA != "" {
		m.TeamAID = utils.StringPtr(teamA)
	}
	if teamB != "" {
		m.TeamBID = utils.StringPtr(teamB)
	}
	return m
}

func wfMatch(code string, round, seq int, teamA, teamB string) *models.Match {
	m := scoringMatch(code, round, seq, 60, teamA, teamB)
	m.MatchType = models.MatchWF
	m.ID = "match-" + code
	return m
}

func gridSlots(t *testing.T, date, start, end string, courts int) []*models.Slot {
	t.Helper()
	slots, err := BuildSlotGrid("version-1", []models.TournamentDay{testDay(date, start, end, courts)}, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	return slots
}

func slotOf(t *testing.T, slots []*models.Slot, outcome *AssignmentOutcome, matchID string) *models.Slot {
	t.Helper()
	byID := make(map[string]*models.Slot, len(slots))
	for _, s := range slots {
		byID[s.ID] = s
	}
	for _, a := range outcome.Assignments {
		if a.MatchID == matchID {
			return byID[a.SlotID]
		}
	}
	t.Fatalf("match %s not assigned", matchID)
	return nil
}

func TestAssignFirstFitSingleCourt(t *testing.T) {
	slots := gridSlots(t, "2026-06-01", "09:00", "12:00", 1)
	matches := []*models.Match{
		scoringMatch("RR_R1_M1", 1, 1, 60, "A", "D"),
		scoringMatch("RR_R1_M2", 1, 2, 60, "B", "C"),
	}

	outcome, err := AssignMatches("version-1", matches, slots, nil, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	require.Equal(t, 2, outcome.AssignedCount)

	// First match takes 09:00; the second cannot start inside its hour and
	// lands on the 10:00 tick.
	require.Equal(t, "09:00", slotOf(t, slots, outcome, "match-RR_R1_M1").StartTime)
	require.Equal(t, "10:00", slotOf(t, slots, outcome, "match-RR_R1_M2").StartTime)
}

func TestAssignRestBlocksSharedTeams(t *testing.T) {
	slots := gridSlots(t, "2026-06-01", "09:00", "12:00", 1)
	matches := []*models.Match{
		scoringMatch("RR_R1_M1", 1, 1, 60, "A", "D"),
		scoringMatch("RR_R1_M2", 1, 2, 60, "B", "C"),
		scoringMatch("RR_R2_M1", 2, 1, 60, "A", "B"),
		scoringMatch("RR_R2_M2", 2, 2, 60, "C", "D"),
	}

	outcome, err := AssignMatches("version-1", matches, slots, nil, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	require.Equal(t, 2, outcome.AssignedCount)
	require.Equal(t, 2, outcome.UnassignedCount)

	for _, u := range outcome.Unassigned {
		require.Equal(t, ReasonNoRestCompatibleSlot, u.Reason, "match %s", u.MatchCode)
		require.Contains(t, u.RestViolations, "scoring_to_scoring")
	}
	require.Equal(t, 2, outcome.RestSummary.TotalRestBlocked)
	require.Equal(t, 2, outcome.RestSummary.ScoringToScoringViolations)
}

func TestAssignScoringRestGapIsNinetyMinutes(t *testing.T) {
	// A 13:00 window leaves room after the 90-minute gap: the rematch lands
	// exactly at last_end + 90.
	slots := gridSlots(t, "2026-06-01", "09:00", "13:00", 1)
	matches := []*models.Match{
		scoringMatch("M1", 1, 1, 60, "A", "B"),
		scoringMatch("M2", 2, 1, 60, "A", "C"),
	}

	outcome, err := AssignMatches("version-1", matches, slots, nil, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	require.Equal(t, 2, outcome.AssignedCount)
	// M1 ends 10:00; A's next start is 11:30.
	require.Equal(t, "11:30", slotOf(t, slots, outcome, "match-M2").StartTime)
}

func TestAssignWaterfallRestGapIsSixtyMinutes(t *testing.T) {
	slots := gridSlots(t, "2026-06-01", "09:00", "13:00", 2)
	matches := []*models.Match{
		wfMatch("WF_R1_M1", 1, 1, "A", "B"),
		scoringMatch("QF1", 1, 1, 60, "A", "C"),
	}

	outcome, err := AssignMatches("version-1", matches, slots, nil, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	require.Equal(t, 2, outcome.AssignedCount)

	// WF runs 09:00-10:00; with the 60-minute WF gap A may start at 11:00.
	require.Equal(t, "09:00", slotOf(t, slots, outcome, "match-WF_R1_M1").StartTime)
	require.Equal(t, "11:00", slotOf(t, slots, outcome, "match-QF1").StartTime)
}

func TestAssignRestTooShortIsRejected(t *testing.T) {
	// The day ends at 12:15: the only slots fitting a 60-minute match leave a
	// sub-90-minute gap, so the rematch is rest-blocked.
	slots := gridSlots(t, "2026-06-01", "09:00", "12:15", 1)
	matches := []*models.Match{
		scoringMatch("M1", 1, 1, 60, "A", "B"),
		scoringMatch("M2", 2, 1, 60, "A", "C"),
	}

	outcome, err := AssignMatches("version-1", matches, slots, nil, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	require.Equal(t, 1, outcome.AssignedCount)
	require.Equal(t, 1, outcome.UnassignedCount)
	require.Equal(t, ReasonNoRestCompatibleSlot, outcome.Unassigned[0].Reason)
}

func TestAssignDurationTooLong(t *testing.T) {
	slots := gridSlots(t, "2026-06-01", "09:00", "09:45", 1)
	matches := []*models.Match{scoringMatch("M1", 1, 1, 60, "A", "B")}

	outcome, err := AssignMatches("version-1", matches, slots, nil, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	require.Equal(t, 0, outcome.AssignedCount)
	require.Equal(t, ReasonDurationTooLong, outcome.Unassigned[0].Reason)
}

func TestAssignSlotsExhausted(t *testing.T) {
	// Four disjoint-team matches on one 3-hour court: three fit, the fourth
	// finds every slot either occupied or beyond the day end.
	slots := gridSlots(t, "2026-06-01", "09:00", "12:00", 1)
	matches := []*models.Match{
		scoringMatch("M1", 1, 1, 60, "A", "B"),
		scoringMatch("M2", 1, 2, 60, "C", "D"),
		scoringMatch("M3", 1, 3, 60, "E", "F"),
		scoringMatch("M4", 1, 4, 60, "G", "H"),
	}

	outcome, err := AssignMatches("version-1", matches, slots, nil, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	require.Equal(t, 3, outcome.AssignedCount)
	require.Equal(t, 1, outcome.UnassignedCount)
	require.Equal(t, "match-M4", outcome.Unassigned[0].MatchID)
	require.Equal(t, ReasonSlotsExhausted, outcome.Unassigned[0].Reason)
}

func TestAssignNoSlots(t *testing.T) {
	matches := []*models.Match{scoringMatch("M1", 1, 1, 60, "A", "B")}
	outcome, err := AssignMatches("version-1", matches, nil, nil, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	require.Equal(t, ReasonSlotsExhausted, outcome.Unassigned[0].Reason)
}

func TestAssignPlaceholdersSkipRestCheck(t *testing.T) {
	// Two placeholder matches can run back to back on one court because no
	// resolved team carries rest state.
	slots := gridSlots(t, "2026-06-01", "09:00", "12:00", 1)
	matches := []*models.Match{
		scoringMatch("SF1", 2, 1, 60, "", ""),
		scoringMatch("SF2", 2, 2, 60, "", ""),
	}

	outcome, err := AssignMatches("version-1", matches, slots, nil, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	require.Equal(t, 2, outcome.AssignedCount)
	require.Equal(t, "10:00", slotOf(t, slots, outcome, "match-SF2").StartTime)
}

func TestAssignBracketStageOrder(t *testing.T) {
	event := planEvent(models.TemplateCanonical32, 8, 2, 5)
	event.DrawPlan.Timing.StandardBlockMinutes = 60
	matches := buildFor(t, event)
	slots := gridSlots(t, "2026-06-01", "08:00", "21:00", 1)

	outcome, err := AssignMatches("version-1", matches, slots, nil, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	require.Equal(t, 13, outcome.AssignedCount)

	startOf := func(code string) string {
		for _, m := range matches {
			if m.MatchCode == code {
				return slotOf(t, slots, outcome, m.ID).StartTime
			}
		}
		t.Fatalf("no match %s", code)
		return ""
	}

	// QF1 before SF1 before FINAL, and the FINAL before any placement.
	require.Less(t, startOf("QF1"), startOf("SF1"))
	require.Less(t, startOf("SF1"), startOf("FINAL"))
	require.Less(t, startOf("FINAL"), startOf("PL1_3rd4th"))
	require.Less(t, startOf("FINAL"), startOf("PL2_5th6th"))
	require.Less(t, startOf("FINAL"), startOf("PL3_7th8th"))
}

func TestAssignDeterministic(t *testing.T) {
	event := planEvent(models.TemplateCanonical32, 8, 2, 5)
	event.DrawPlan.Timing.StandardBlockMinutes = 60
	matches := buildFor(t, event)
	slots := gridSlots(t, "2026-06-01", "08:00", "21:00", 2)

	pairsOf := func(outcome *AssignmentOutcome) map[string]string {
		pairs := make(map[string]string, len(outcome.Assignments))
		for _, a := range outcome.Assignments {
			pairs[a.MatchID] = a.SlotID
		}
		return pairs
	}

	first, err := AssignMatches("version-1", matches, slots, nil, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := AssignMatches("version-1", matches, slots, nil, time.Unix(0, 0).UTC())
		require.NoError(t, err)
		require.Equal(t, pairsOf(first), pairsOf(again))
	}
}

func TestAssignRespectsExistingAssignments(t *testing.T) {
	slots := gridSlots(t, "2026-06-01", "09:00", "12:00", 1)
	m1 := scoringMatch("M1", 1, 1, 60, "A", "B")
	m2 := scoringMatch("M2", 1, 2, 60, "C", "D")
	matches := []*models.Match{m1, m2}

	// Pin M1 to the 09:00 slot by hand, then run the pass without clearing.
	models.SortSlots(slots)
	existing := []*models.Assignment{{
		ID:                "existing-1",
		ScheduleVersionID: "version-1",
		MatchID:           m1.ID,
		SlotID:            slots[0].ID,
	}}

	outcome, err := AssignMatches("version-1", matches, slots, existing, time.Unix(0, 0).UTC())
	require.NoError(t, err)
	require.Equal(t, 1, outcome.AssignedCount)
	require.Equal(t, "10:00", slotOf(t, slots, outcome, m2.ID).StartTime)
}
