package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/models"
)

func TestPlanInjectionBracketSeeding(t *testing.T) {
	event := planEvent(models.TemplateCanonical32, 8, 2, 5)
	matches := buildFor(t, event)
	teams := seededTeams(8)

	plan, err := PlanInjection(event, matches, teams, nil)
	require.NoError(t, err)

	byCode := codesOf(matches)
	wantPairs := map[string][2]string{
		"QF1": {"team-01", "team-08"},
		"QF2": {"team-04", "team-05"},
		"QF3": {"team-03", "team-06"},
		"QF4": {"team-02", "team-07"},
	}
	for code, want := range wantPairs {
		pair, ok := plan.Pairs[byCode[code].ID]
		require.True(t, ok, "%s must be injected", code)
		require.Equal(t, want[0], *pair[0], "%s side A", code)
		require.Equal(t, want[1], *pair[1], "%s side B", code)
	}

	// Everything past the quarterfinals keeps its placeholders.
	require.Equal(t, 8, plan.InjectedCount)
	require.Equal(t, 18, plan.PlaceholderCount)
	_, sfInjected := plan.Pairs[byCode["SF1"].ID]
	require.False(t, sfInjected)
}

func TestPlanInjectionRoundRobin(t *testing.T) {
	event := planEvent(models.TemplateRROnly, 4, 0, 4)
	matches := buildFor(t, event)
	teams := seededTeams(4)

	plan, err := PlanInjection(event, matches, teams, nil)
	require.NoError(t, err)
	require.Equal(t, 12, plan.InjectedCount)
	require.Equal(t, 0, plan.PlaceholderCount)

	// Every team meets every other team exactly once.
	meetings := make(map[string]int)
	perTeam := make(map[string]int)
	for _, pair := range plan.Pairs {
		a, b := *pair[0], *pair[1]
		lo, hi := models.CanonicalPair(a, b)
		meetings[lo+"|"+hi]++
		perTeam[a]++
		perTeam[b]++
	}
	require.Len(t, meetings, 6)
	for key, count := range meetings {
		require.Equal(t, 1, count, "pairing %s repeated", key)
	}
	for id, count := range perTeam {
		require.Equal(t, 3, count, "team %s match count", id)
	}
}

func TestPlanInjectionIdempotent(t *testing.T) {
	event := planEvent(models.TemplateRROnly, 6, 0, 4)
	matches := buildFor(t, event)
	teams := seededTeams(6)

	first, err := PlanInjection(event, matches, teams, nil)
	require.NoError(t, err)
	second, err := PlanInjection(event, matches, teams, nil)
	require.NoError(t, err)

	require.Equal(t, first.InjectedCount, second.InjectedCount)
	for matchID, pair := range first.Pairs {
		again := second.Pairs[matchID]
		require.Equal(t, *pair[0], *again[0])
		require.Equal(t, *pair[1], *again[1])
	}
}

func TestPlanInjectionRejectsLargeEvents(t *testing.T) {
	event := planEvent(models.TemplateWFToPoolsDynamic, 16, 2, 4)
	matches := buildFor(t, event)
	teams := seededTeams(16)

	_, err := PlanInjection(event, matches, teams, nil)
	require.Error(t, err)
}

func TestPlanInjectionZeroTeams(t *testing.T) {
	event := planEvent(models.TemplateRROnly, 4, 0, 4)
	matches := buildFor(t, event)

	plan, err := PlanInjection(event, matches, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, plan.InjectedCount)
	require.Contains(t, plan.Warnings, WarnNoTeamsForEvent)
}

func TestPlanInjectionIncompleteRoster(t *testing.T) {
	event := planEvent(models.TemplateRROnly, 6, 0, 4)
	matches := buildFor(t, event)
	teams := seededTeams(4)

	plan, err := PlanInjection(event, matches, teams, nil)
	require.NoError(t, err)
	require.Equal(t, 0, plan.InjectedCount)
	require.Contains(t, plan.Warnings, WarnRosterIncomplete)
}

func TestPlanInjectionOrderOverride(t *testing.T) {
	event := planEvent(models.TemplateCanonical32, 8, 2, 4)
	matches := buildFor(t, event)
	teams := seededTeams(8)

	// Reverse the canonical order: team-08 becomes the top seed.
	override := make([]string, 0, 8)
	for i := 8; i >= 1; i-- {
		override = append(override, teams[i-1].ID)
	}

	plan, err := PlanInjection(event, matches, teams, override)
	require.NoError(t, err)

	byCode := codesOf(matches)
	pair := plan.Pairs[byCode["QF1"].ID]
	require.Equal(t, "team-08", *pair[0])
	require.Equal(t, "team-01", *pair[1])

	_, err = PlanInjection(event, matches, teams, []string{"not-a-team"})
	require.Error(t, err)
}

func TestPlanInjectionEightTeamRoundRobin(t *testing.T) {
	// An 8-team RR_ONLY event has no quarterfinals, so injection falls back
	// to the pairing path despite the bracket-sized roster.
	event := planEvent(models.TemplateRROnly, 8, 0, 4)
	matches := buildFor(t, event)
	teams := seededTeams(8)

	plan, err := PlanInjection(event, matches, teams, nil)
	require.NoError(t, err)
	require.Equal(t, 2*len(matches), plan.InjectedCount)
}
