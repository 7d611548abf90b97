package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/models"
)

func buildFor(t *testing.T, event *models.Event) []*models.Match {
	t.Helper()
	matches, err := BuildInventory(event, "version-1", time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return matches
}

func codesOf(matches []*models.Match) map[string]*models.Match {
	byCode := make(map[string]*models.Match, len(matches))
	for _, m := range matches {
		byCode[m.MatchCode] = m
	}
	return byCode
}

func TestRoundRobinRounds(t *testing.T) {
	rounds := roundRobinRounds(4)
	require.Len(t, rounds, 3)

	seen := make(map[[2]int]int)
	for _, round := range rounds {
		require.Len(t, round, 2)
		for _, pair := range round {
			require.Less(t, pair[0], pair[1])
			seen[pair]++
		}
	}
	// Every pairing appears exactly once.
	require.Len(t, seen, 6)
	for pair, count := range seen {
		require.Equal(t, 1, count, "pair %v repeated", pair)
	}
}

func TestRoundRobinRoundsEachTeamOncePerRound(t *testing.T) {
	for _, n := range []int{4, 6, 8} {
		for r, round := range roundRobinRounds(n) {
			used := make(map[int]bool, n)
			for _, pair := range round {
				require.False(t, used[pair[0]], "n=%d round %d reuses team %d", n, r, pair[0])
				require.False(t, used[pair[1]], "n=%d round %d reuses team %d", n, r, pair[1])
				used[pair[0]] = true
				used[pair[1]] = true
			}
			require.Len(t, used, n)
		}
	}
}

func TestBuildInventoryRROnly(t *testing.T) {
	event := planEvent(models.TemplateRROnly, 4, 0, 4)
	matches := buildFor(t, event)

	require.Len(t, matches, 6)
	perRound := make(map[int]int)
	for _, m := range matches {
		require.Equal(t, models.MatchMain, m.MatchType)
		require.Equal(t, 90, m.DurationMinutes)
		perRound[m.RoundIndex]++
	}
	require.Equal(t, map[int]int{1: 2, 2: 2, 3: 2}, perRound)
}

func TestBuildInventoryCanonicalGuaranteeFive(t *testing.T) {
	event := planEvent(models.TemplateCanonical32, 8, 2, 5)
	matches := buildFor(t, event)

	// Legacy 8-team bracket: 13 matches, no WF even though the plan stores
	// wf_rounds = 2.
	require.Len(t, matches, 13)
	byCode := codesOf(matches)
	for _, code := range []string{
		"QF1", "QF2", "QF3", "QF4", "SF1", "SF2", "FINAL",
		"CONS1_1", "CONS1_2", "CONS2_1",
		"PL1_3rd4th", "PL2_5th6th", "PL3_7th8th",
	} {
		require.Contains(t, byCode, code)
	}

	require.Equal(t, models.MatchMain, byCode["FINAL"].MatchType)
	require.Equal(t, 3, byCode["FINAL"].RoundIndex)
	require.Equal(t, 1, *byCode["CONS1_1"].ConsolationTier)
	require.Equal(t, 2, *byCode["CONS2_1"].ConsolationTier)
	require.Equal(t, models.PlacementMainSFLosers, *byCode["PL1_3rd4th"].PlacementType)
	require.Equal(t, models.PlacementConsR1Winners, *byCode["PL2_5th6th"].PlacementType)
	require.Equal(t, models.PlacementConsR1Losers, *byCode["PL3_7th8th"].PlacementType)
	require.Equal(t, "Winner of QF1", byCode["SF1"].PlaceholderSideA)
	require.Equal(t, "Loser of QF3", byCode["CONS1_2"].PlaceholderSideA)
}

func TestBuildInventoryCanonicalGuaranteeFour(t *testing.T) {
	event := planEvent(models.TemplateCanonical32, 8, 2, 4)
	matches := buildFor(t, event)

	require.Len(t, matches, 9)
	byCode := codesOf(matches)
	require.NotContains(t, byCode, "CONS2_1")
	require.NotContains(t, byCode, "PL1_3rd4th")
}

func TestBuildInventoryPoolsDynamic(t *testing.T) {
	event := planEvent(models.TemplateWFToPoolsDynamic, 16, 2, 4)
	matches := buildFor(t, event)

	wf, main := 0, 0
	for _, m := range matches {
		switch m.MatchType {
		case models.MatchWF:
			wf++
			require.Equal(t, 60, m.DurationMinutes)
		case models.MatchMain:
			main++
			// round_index carries the pool number for pool play.
			require.GreaterOrEqual(t, m.RoundIndex, 1)
			require.LessOrEqual(t, m.RoundIndex, 4)
		}
	}
	require.Equal(t, 16, wf)
	require.Equal(t, 24, main)
}

func TestBuildInventoryBrackets32(t *testing.T) {
	event := planEvent(models.TemplateWFToBrackets8, 32, 2, 5)
	matches := buildFor(t, event)

	// 32 WF + 4 replicated brackets of 13.
	require.Len(t, matches, 32+52)
	byCode := codesOf(matches)
	for b := 1; b <= 4; b++ {
		require.Contains(t, byCode, buildCode("B", b, "_FINAL"))
	}
}

func buildCode(prefix string, b int, suffix string) string {
	return prefix + string(rune('0'+b)) + suffix
}

func TestBuildInventoryDeterministicCodes(t *testing.T) {
	event := planEvent(models.TemplateWFToPoolsDynamic, 16, 2, 5)
	first := buildFor(t, event)
	second := buildFor(t, event)

	require.Equal(t, len(first), len(second))
	for i := range first {
		require.Equal(t, first[i].MatchCode, second[i].MatchCode)
		require.Equal(t, first[i].MatchType, second[i].MatchType)
		require.Equal(t, first[i].RoundIndex, second[i].RoundIndex)
		require.Equal(t, first[i].SequenceInRound, second[i].SequenceInRound)
	}
}

func TestBuildInventoryRejectsInvalidPlan(t *testing.T) {
	event := planEvent(models.TemplateWFToPoolsDynamic, 9, 1, 4)
	_, err := BuildInventory(event, "version-1", time.Now())
	require.Error(t, err)
}
