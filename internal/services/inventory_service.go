// internal/services/inventory_service.go
// Match inventory generation: deterministically expands a validated draw plan
// into the full match list for an event within a draft version.

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/apperr"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/models"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/repositories"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/utils"
)

// roundRobinRounds returns the circle-method round slate for n teams
// (n even): rounds[r] is a list of [2]int pairs indexing the canonical team
// order, lower index first. Team 0 stays fixed while 1..n-1 rotate, so the
// slate is fully determined by n.
func roundRobinRounds(n int) [][][2]int {
	if n < 2 || n%2 != 0 {
		return nil
	}
	rounds := make([][][2]int, 0, n-1)
	rotating := make([]int, n-1)
	for i := range rotating {
		rotating[i] = i + 1
	}

	for r := 0; r < n-1; r++ {
		arr := make([]int, 0, n)
		arr = append(arr, 0)
		for i := 0; i < n-1; i++ {
			arr = append(arr, rotating[(i+r)%(n-1)])
		}

		pairs := make([][2]int, 0, n/2)
		for i := 0; i < n/2; i++ {
			a, b := arr[i], arr[n-1-i]
			if b < a {
				a, b = b, a
			}
			pairs = append(pairs, [2]int{a, b})
		}
		rounds = append(rounds, pairs)
	}
	return rounds
}

type matchFactory struct {
	eventID   string
	versionID string
	now       time.Time
}

func (f *matchFactory) match(code string, matchType models.MatchType, round, seq, duration int, sideA, sideB string) *models.Match {
	return &models.Match{
		ID:                utils.GenerateUUID(),
		EventID:           f.eventID,
		ScheduleVersionID: f.versionID,
		MatchCode:         code,
		MatchType:         matchType,
		RoundIndex:        round,
		SequenceInRound:   seq,
		DurationMinutes:   duration,
		PlaceholderSideA:  sideA,
		PlaceholderSideB:  sideB,
		Status:            models.MatchUnscheduled,
		CreatedAt:         f.now,
		UpdatedAt:         f.now,
	}
}

// bracketSeedPairs is the fixed QF seeding of an 8-team bracket.
var bracketSeedPairs = [4][2]int{{1, 8}, {4, 5}, {3, 6}, {2, 7}}

// buildBracket8 emits one 8-team bracket. prefix namespaces the match codes
// when the bracket is replicated (WF_TO_BRACKETS_8); seqOffset keeps
// sequence_in_round unique across replicas.
func buildBracket8(f *matchFactory, prefix string, seqOffset, guarantee, duration int, seedLabel func(int) string) []*models.Match {
	matches := make([]*models.Match, 0, 13)

	for i, pair := range bracketSeedPairs {
		code := fmt.Sprintf("%sQF%d", prefix, i+1)
		matches = append(matches, f.match(code, models.MatchMain, 1, seqOffset+i+1, duration,
			seedLabel(pair[0]), seedLabel(pair[1])))
	}

	sf1 := fmt.Sprintf("%sSF1", prefix)
	sf2 := fmt.Sprintf("%sSF2", prefix)
	matches = append(matches,
		f.match(sf1, models.MatchMain, 2, seqOffset/2+1, duration,
			fmt.Sprintf("Winner of %sQF1", prefix), fmt.Sprintf("Winner of %sQF2", prefix)),
		f.match(sf2, models.MatchMain, 2, seqOffset/2+2, duration,
			fmt.Sprintf("Winner of %sQF3", prefix), fmt.Sprintf("Winner of %sQF4", prefix)),
		f.match(fmt.Sprintf("%sFINAL", prefix), models.MatchMain, 3, seqOffset/4+1, duration,
			fmt.Sprintf("Winner of %s", sf1), fmt.Sprintf("Winner of %s", sf2)),
	)

	cons1a := f.match(fmt.Sprintf("%sCONS1_1", prefix), models.MatchConsolation, 1, seqOffset/2+1, duration,
		fmt.Sprintf("Loser of %sQF1", prefix), fmt.Sprintf("Loser of %sQF2", prefix))
	cons1a.ConsolationTier = utils.IntPtr(1)
	cons1b := f.match(fmt.Sprintf("%sCONS1_2", prefix), models.MatchConsolation, 1, seqOffset/2+2, duration,
		fmt.Sprintf("Loser of %sQF3", prefix), fmt.Sprintf("Loser of %sQF4", prefix))
	cons1b.ConsolationTier = utils.IntPtr(1)
	matches = append(matches, cons1a, cons1b)

	if guarantee == 5 {
		cons2 := f.match(fmt.Sprintf("%sCONS2_1", prefix), models.MatchConsolation, 2, seqOffset/4+1, duration,
			fmt.Sprintf("Winner of %sCONS1_1", prefix), fmt.Sprintf("Winner of %sCONS1_2", prefix))
		cons2.ConsolationTier = utils.IntPtr(2)

		pl1 := f.match(fmt.Sprintf("%sPL1_3rd4th", prefix), models.MatchPlacement, 1, seqOffset/4+1, duration,
			fmt.Sprintf("Loser of %s", sf1), fmt.Sprintf("Loser of %s", sf2))
		pt1 := models.PlacementMainSFLosers
		pl1.PlacementType = &pt1

		pl2 := f.match(fmt.Sprintf("%sPL2_5th6th", prefix), models.MatchPlacement, 1, seqOffset/4+1, duration,
			fmt.Sprintf("Winner of %sCONS1_1", prefix), fmt.Sprintf("Winner of %sCONS1_2", prefix))
		pt2 := models.PlacementConsR1Winners
		pl2.PlacementType = &pt2

		pl3 := f.match(fmt.Sprintf("%sPL3_7th8th", prefix), models.MatchPlacement, 1, seqOffset/4+1, duration,
			fmt.Sprintf("Loser of %sCONS1_1", prefix), fmt.Sprintf("Loser of %sCONS1_2", prefix))
		pt3 := models.PlacementConsR1Losers
		pl3.PlacementType = &pt3

		matches = append(matches, cons2, pl1, pl2, pl3)
	}

	return matches
}

// buildWaterfall emits the pre-stage WF matches: wfRounds rounds of
// team_count/2 matches each.
func buildWaterfall(f *matchFactory, wfRounds, teamCount, duration int) []*models.Match {
	matches := make([]*models.Match, 0, wfRounds*teamCount/2)
	for r := 1; r <= wfRounds; r++ {
		for seq := 1; seq <= teamCount/2; seq++ {
			code := fmt.Sprintf("WF_R%d_M%d", r, seq)
			matches = append(matches, f.match(code, models.MatchWF, r, seq, duration,
				fmt.Sprintf("WF Round %d Match %d Side A", r, seq),
				fmt.Sprintf("WF Round %d Match %d Side B", r, seq)))
		}
	}
	return matches
}

// BuildInventory deterministically produces the match list for an event with
// a validated draw plan. The output is fully determined by the event's plan,
// guarantee and team count; ids are fresh but codes and orderings are stable.
func BuildInventory(event *models.Event, versionID string, now time.Time) ([]*models.Match, error) {
	if event.DrawPlan == nil {
		return nil, apperr.Validation(apperr.CodePlanInvalid, "event %s has no draw plan", event.ID)
	}
	if v := ValidateDrawPlan(event, 0); !v.OK {
		return nil, apperr.Validation(apperr.CodePlanInvalid,
			"draw plan for event %s is not implementable: %s", event.ID, v.Blocking[0].Message).
			With("blocking", v.Blocking)
	}

	plan := event.DrawPlan
	wfDur := event.WaterfallBlockMinutes()
	stdDur := event.StandardBlockMinutes()
	if !models.AllowedDuration(wfDur) || !models.AllowedDuration(stdDur) {
		return nil, apperr.Validation(apperr.CodePlanInvalid,
			"durations (%d, %d) must be one of %v", wfDur, stdDur, models.AllowedDurations)
	}

	f := &matchFactory{eventID: event.ID, versionID: versionID, now: now}
	n := event.TeamCount
	var matches []*models.Match

	switch plan.TemplateType {
	case models.TemplateRROnly:
		for r, pairs := range roundRobinRounds(n) {
			for i, pair := range pairs {
				code := fmt.Sprintf("RR_R%d_M%d", r+1, i+1)
				matches = append(matches, f.match(code, models.MatchMain, r+1, i+1, stdDur,
					fmt.Sprintf("Seed %d", pair[0]+1), fmt.Sprintf("Seed %d", pair[1]+1)))
			}
		}

	case models.TemplateWFToPoolsDynamic, models.TemplateWFToPools4:
		matches = append(matches, buildWaterfall(f, plan.WFRounds, n, wfDur)...)

		size, err := poolSizeFor(n)
		if err != nil {
			return nil, err
		}
		poolCount := n / size
		// Odd pools play against a bye seat (index size); its pairs are dropped.
		rrSize := size
		if rrSize%2 != 0 {
			rrSize++
		}
		for p := 1; p <= poolCount; p++ {
			seq := 0
			for _, pairs := range roundRobinRounds(rrSize) {
				for _, pair := range pairs {
					if pair[1] == size {
						continue
					}
					seq++
					code := fmt.Sprintf("P%d_M%d", p, seq)
					matches = append(matches, f.match(code, models.MatchMain, p, seq, stdDur,
						fmt.Sprintf("Pool %d Seat %d", p, pair[0]+1),
						fmt.Sprintf("Pool %d Seat %d", p, pair[1]+1)))
				}
			}
		}

	case models.TemplateWFToBrackets8:
		matches = append(matches, buildWaterfall(f, plan.WFRounds, n, wfDur)...)
		for b := 0; b < 4; b++ {
			prefix := fmt.Sprintf("B%d_", b+1)
			bracketNum := b + 1
			matches = append(matches, buildBracket8(f, prefix, b*4, event.GuaranteeSelected, stdDur,
				func(seed int) string { return fmt.Sprintf("Bracket %d Seed %d", bracketNum, seed) })...)
		}

	case models.TemplateCanonical32:
		// Legacy 8-team bracket alias: no waterfall matches are emitted even
		// though the stored plan carries wf_rounds = 2.
		matches = buildBracket8(f, "", 0, event.GuaranteeSelected, stdDur,
			func(seed int) string { return fmt.Sprintf("Seed %d", seed) })

	default:
		return nil, apperr.Validation(apperr.CodeTemplateUnsupported,
			"unsupported (template, team_count) pair (%s, %d)", plan.TemplateType, n)
	}

	for _, m := range matches {
		if err := m.Validate(); err != nil {
			return nil, apperr.Validation(apperr.CodePlanInvalid, "generated match %s invalid: %v", m.MatchCode, err)
		}
	}
	return matches, nil
}

// InventoryService persists generated match inventories.
type InventoryService struct {
	repos  *repositories.Container
	cache  *CacheService
	audit  *AuditService
	logger *logrus.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(repos *repositories.Container, cache *CacheService, audit *AuditService, logger *logrus.Logger) *InventoryService {
	return &InventoryService{repos: repos, cache: cache, audit: audit, logger: logger}
}

// GenerateResult reports one generation run.
type GenerateResult struct {
	EventCounts    map[string]int `json:"event_counts"`
	MatchesCreated int            `json:"matches_created"`
	SkippedEvents  []string       `json:"skipped_events,omitempty"`
	Warnings       []string       `json:"warnings,omitempty"`
}

// GenerateForTournament regenerates the match inventory of every plannable
// event of a tournament within a draft version. Idempotent: existing
// version-bound matches of each event are wiped first.
func (s *InventoryService) GenerateForTournament(ctx context.Context, tournamentID, versionID string) (*GenerateResult, error) {
	tx, err := s.repos.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	version, err := s.repos.Version.LockForUpdate(ctx, tx, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock version: %w", err)
	}
	if version == nil || version.TournamentID != tournamentID {
		return nil, apperr.NotFound(apperr.CodeVersionNotFound, "schedule version %s not found", versionID)
	}
	if !version.IsDraft() {
		return nil, apperr.Precondition(apperr.CodeVersionNotDraft,
			"schedule version %d is %s, writes require draft", version.VersionNumber, version.Status)
	}

	events, err := s.repos.Event.ListByTournament(ctx, tx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	now := time.Now().UTC()
	result := &GenerateResult{EventCounts: make(map[string]int)}
	for _, event := range events {
		if event.DrawPlan == nil {
			result.SkippedEvents = append(result.SkippedEvents, event.ID)
			result.Warnings = append(result.Warnings, fmt.Sprintf("event %s has no draw plan", event.Name))
			continue
		}

		matches, err := BuildInventory(event, versionID, now)
		if err != nil {
			return nil, err
		}
		if err := s.repos.Match.DeleteByEventAndVersion(ctx, tx, event.ID, versionID); err != nil {
			return nil, fmt.Errorf("failed to wipe matches for event %s: %w", event.ID, err)
		}
		if err := s.repos.Match.BulkCreate(ctx, tx, matches); err != nil {
			return nil, err
		}
		if event.DrawStatus == models.DrawNotStarted {
			if err := s.repos.Event.UpdateDrawStatus(ctx, tx, event.ID, models.DrawDraft); err != nil {
				return nil, fmt.Errorf("failed to advance draw status: %w", err)
			}
		}

		result.EventCounts[event.ID] = len(matches)
		result.MatchesCreated += len(matches)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.cache.InvalidateVersion(tournamentID, versionID)
	s.audit.Record(ctx, "matches_generated", map[string]interface{}{
		"tournament_id":       tournamentID,
		"schedule_version_id": versionID,
		"matches_created":     result.MatchesCreated,
	})
	s.logger.WithFields(logrus.Fields{
		"tournament_id": tournamentID,
		"version_id":    versionID,
		"matches":       result.MatchesCreated,
	}).Info("match inventory generated")

	return result, nil
}
