package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/models"
)

func checksumFixture() ([]*models.Slot, []*models.Match, []*models.Assignment) {
	slots := []*models.Slot{
		{ID: "slot-b", ScheduleVersionID: "v1", DayDate: "2026-06-01", StartTime: "09:15", EndTime: "09:30", CourtNumber: 1, CourtLabel: "Court 1", BlockMinutes: 15, IsActive: true},
		{ID: "slot-a", ScheduleVersionID: "v1", DayDate: "2026-06-01", StartTime: "09:00", EndTime: "09:15", CourtNumber: 1, CourtLabel: "Court 1", BlockMinutes: 15, IsActive: true},
		{ID: "slot-c", ScheduleVersionID: "v1", DayDate: "2026-06-01", StartTime: "09:00", EndTime: "09:15", CourtNumber: 2, CourtLabel: "Court 2", BlockMinutes: 15, IsActive: true},
	}
	matches := []*models.Match{
		{ID: "match-2", ScheduleVersionID: "v1", EventID: "e1", MatchCode: "QF2", MatchType: models.MatchMain, RoundIndex: 1, SequenceInRound: 2, DurationMinutes: 60, PlaceholderSideA: "a", PlaceholderSideB: "b"},
		{ID: "match-1", ScheduleVersionID: "v1", EventID: "e1", MatchCode: "QF1", MatchType: models.MatchMain, RoundIndex: 1, SequenceInRound: 1, DurationMinutes: 60, PlaceholderSideA: "a", PlaceholderSideB: "b"},
	}
	assignments := []*models.Assignment{
		{ID: "as-2", ScheduleVersionID: "v1", MatchID: "match-2", SlotID: "slot-c"},
		{ID: "as-1", ScheduleVersionID: "v1", MatchID: "match-1", SlotID: "slot-a"},
	}
	return slots, matches, assignments
}

func TestComputeChecksumStable(t *testing.T) {
	slots, matches, assignments := checksumFixture()

	first := ComputeChecksum(slots, matches, assignments)
	require.Len(t, first, 64)
	require.Equal(t, first, ComputeChecksum(slots, matches, assignments))
}

func TestComputeChecksumOrderInvariant(t *testing.T) {
	slots, matches, assignments := checksumFixture()
	want := ComputeChecksum(slots, matches, assignments)

	// Reverse every input slice: the canonical orderings absorb it.
	reverse := func(n int, swap func(i, j int)) {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			swap(i, j)
		}
	}
	reverse(len(slots), func(i, j int) { slots[i], slots[j] = slots[j], slots[i] })
	reverse(len(matches), func(i, j int) { matches[i], matches[j] = matches[j], matches[i] })
	reverse(len(assignments), func(i, j int) { assignments[i], assignments[j] = assignments[j], assignments[i] })

	require.Equal(t, want, ComputeChecksum(slots, matches, assignments))
}

func TestComputeChecksumDetectsChanges(t *testing.T) {
	slots, matches, assignments := checksumFixture()
	base := ComputeChecksum(slots, matches, assignments)

	assignments[0].SlotID = "slot-b"
	require.NotEqual(t, base, ComputeChecksum(slots, matches, assignments))
}

func TestComputeChecksumMatchesIdenticalCopy(t *testing.T) {
	// A clone remaps every id, so its checksum differs; but an identical
	// schedule produced independently with the same ids matches.
	slots, matches, assignments := checksumFixture()
	base := ComputeChecksum(slots, matches, assignments)

	cloneSlots := make([]*models.Slot, len(slots))
	for i, s := range slots {
		c := *s
		cloneSlots[i] = &c
	}
	require.Equal(t, base, ComputeChecksum(cloneSlots, matches, assignments))
}

func TestSanityCheckDoubleBooking(t *testing.T) {
	slots, matches, _ := checksumFixture()
	version := &models.ScheduleVersion{ID: "v1", TournamentID: "t1", VersionNumber: 1, Status: models.VersionDraft}

	assignments := []*models.Assignment{
		{ID: "as-1", ScheduleVersionID: "v1", MatchID: "match-1", SlotID: "slot-a"},
		{ID: "as-2", ScheduleVersionID: "v1", MatchID: "match-2", SlotID: "slot-a"},
	}

	issues := SanityCheckVersion(version, slots, matches, assignments, nil)
	require.NotEmpty(t, issues)
	require.Contains(t, issues[0], "double-booked")
}

func TestSanityCheckForeignReferences(t *testing.T) {
	slots, matches, assignments := checksumFixture()
	version := &models.ScheduleVersion{ID: "v1", TournamentID: "t1", VersionNumber: 1, Status: models.VersionDraft}

	require.Empty(t, SanityCheckVersion(version, slots, matches, assignments, map[string][]*models.Team{"e1": nil}))

	// An assignment pointing at a slot outside the version must be flagged.
	bad := append(assignments, &models.Assignment{
		ID: "as-3", ScheduleVersionID: "v1", MatchID: "match-1", SlotID: "slot-foreign",
	})
	require.NotEmpty(t, SanityCheckVersion(version, slots, matches, bad, nil))
}

func TestSanityCheckTeamOwnership(t *testing.T) {
	slots, matches, assignments := checksumFixture()
	version := &models.ScheduleVersion{ID: "v1", TournamentID: "t1", VersionNumber: 1, Status: models.VersionDraft}

	rogue := "team-rogue"
	matches[0].TeamAID = &rogue
	teams := map[string][]*models.Team{
		"e1": {{ID: "team-ours", EventID: "e1", Name: "Ours", CreatedAt: time.Now()}},
	}

	issues := SanityCheckVersion(version, slots, matches, assignments, teams)
	require.NotEmpty(t, issues)
}
