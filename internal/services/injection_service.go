// internal/services/injection_service.go
// Team injection: attach concrete team ids to matches whose participants are
// immediately resolvable, leaving bracket placeholders in place elsewhere.

package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/apperr"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/models"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/repositories"
)

// Warning codes emitted by injection.
const (
	WarnNoTeamsForEvent  = "NO_TEAMS_FOR_EVENT"
	WarnRosterIncomplete = "TEAM_ROSTER_INCOMPLETE"
	WarnInjectionSkipped = "INJECTION_SKIPPED"
)

// InjectionPlan is the pure outcome of resolving teams onto matches.
type InjectionPlan struct {
	Pairs            map[string][2]*string `json:"-"`
	InjectedCount    int                   `json:"injected_count"`
	PlaceholderCount int                   `json:"placeholder_count"`
	Warnings         []string              `json:"warnings"`
}

// bracketQFSeedIndexes maps QF order to 0-based positions in the canonical
// team order: QF1 seed1 v seed8, QF2 seed4 v seed5, QF3 seed3 v seed6,
// QF4 seed2 v seed7.
var bracketQFSeedIndexes = [4][2]int{{0, 7}, {3, 4}, {2, 5}, {1, 6}}

// PlanInjection computes team placements for an event's matches.
// orderOverride, when non-empty, replaces the canonical team order with an
// explicit list of team ids.
func PlanInjection(event *models.Event, matches []*models.Match, teams []*models.Team, orderOverride []string) (*InjectionPlan, error) {
	plan := &InjectionPlan{Pairs: make(map[string][2]*string), Warnings: []string{}}

	if event.TeamCount > 8 {
		return nil, apperr.Validation(apperr.CodeInvalidTeamCount,
			"team injection supports at most 8 teams, event has %d", event.TeamCount)
	}
	if len(teams) == 0 {
		plan.Warnings = append(plan.Warnings, WarnNoTeamsForEvent)
		plan.PlaceholderCount = 2 * len(matches)
		return plan, nil
	}

	ordered := CanonicalTeamOrder(teams)
	if len(orderOverride) > 0 {
		byID := make(map[string]*models.Team, len(teams))
		for _, t := range teams {
			byID[t.ID] = t
		}
		override := make([]*models.Team, 0, len(orderOverride))
		for _, id := range orderOverride {
			t, ok := byID[id]
			if !ok {
				return nil, apperr.Validation(apperr.CodeTeamNotFound,
					"override team %s does not belong to event %s", id, event.ID)
			}
			override = append(override, t)
		}
		if len(override) != len(teams) {
			return nil, apperr.Validation(apperr.CodeInvalidTeamCount,
				"team order override lists %d of %d teams", len(override), len(teams))
		}
		ordered = override
	}

	if len(ordered) != event.TeamCount {
		plan.Warnings = append(plan.Warnings, WarnRosterIncomplete)
		plan.PlaceholderCount = 2 * len(matches)
		return plan, nil
	}

	// Bracket mode when the inventory carries quarterfinals, round-robin
	// pairing otherwise. An 8-team RR_ONLY event has no QF matches and falls
	// through to the pairing path.
	hasBracket := false
	for _, m := range matches {
		if m.MatchType == models.MatchMain && strings.HasPrefix(m.MatchCode, "QF") {
			hasBracket = true
			break
		}
	}

	if event.TeamCount == 8 && hasBracket {
		planBracketInjection(plan, matches, ordered)
	} else {
		planRoundRobinInjection(plan, matches, ordered)
	}

	return plan, nil
}

func planBracketInjection(plan *InjectionPlan, matches []*models.Match, ordered []*models.Team) {
	qfs := make([]*models.Match, 0, 4)
	for _, m := range matches {
		if m.MatchType == models.MatchMain && strings.HasPrefix(m.MatchCode, "QF") {
			qfs = append(qfs, m)
		}
	}
	sort.Slice(qfs, func(i, j int) bool { return qfs[i].MatchCode < qfs[j].MatchCode })

	injected := make(map[string]bool, len(qfs))
	for i, m := range qfs {
		if i >= len(bracketQFSeedIndexes) {
			break
		}
		a := ordered[bracketQFSeedIndexes[i][0]].ID
		b := ordered[bracketQFSeedIndexes[i][1]].ID
		plan.Pairs[m.ID] = [2]*string{&a, &b}
		plan.InjectedCount += 2
		injected[m.ID] = true
	}
	for _, m := range matches {
		if !injected[m.ID] {
			plan.PlaceholderCount += 2
		}
	}
}

func planRoundRobinInjection(plan *InjectionPlan, matches []*models.Match, ordered []*models.Team) {
	mains := make([]*models.Match, 0, len(matches))
	for _, m := range matches {
		if m.MatchType == models.MatchMain {
			mains = append(mains, m)
		}
	}
	sort.Slice(mains, func(i, j int) bool {
		a, b := mains[i], mains[j]
		if a.RoundIndex != b.RoundIndex {
			return a.RoundIndex < b.RoundIndex
		}
		if a.SequenceInRound != b.SequenceInRound {
			return a.SequenceInRound < b.SequenceInRound
		}
		return a.ID < b.ID
	})

	pairings := make([][2]int, 0)
	for _, round := range roundRobinRounds(len(ordered)) {
		pairings = append(pairings, round...)
	}

	injected := make(map[string]bool, len(mains))
	for i, m := range mains {
		if i >= len(pairings) {
			break
		}
		a := ordered[pairings[i][0]].ID
		b := ordered[pairings[i][1]].ID
		plan.Pairs[m.ID] = [2]*string{&a, &b}
		plan.InjectedCount += 2
		injected[m.ID] = true
	}
	for _, m := range matches {
		if !injected[m.ID] {
			plan.PlaceholderCount += 2
		}
	}
}

// InjectionService persists injection plans.
type InjectionService struct {
	repos  *repositories.Container
	cache  *CacheService
	logger *logrus.Logger
}

// NewInjectionService creates a new injection service
func NewInjectionService(repos *repositories.Container, cache *CacheService, logger *logrus.Logger) *InjectionService {
	return &InjectionService{repos: repos, cache: cache, logger: logger}
}

// Inject resolves and persists team ids onto an event's matches within a
// draft version. Idempotent: prior injections are cleared first.
func (s *InjectionService) Inject(ctx context.Context, eventID, versionID string, orderOverride []string) (*InjectionPlan, error) {
	tx, err := s.repos.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	version, err := s.repos.Version.LockForUpdate(ctx, tx, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock version: %w", err)
	}
	if version == nil {
		return nil, apperr.NotFound(apperr.CodeVersionNotFound, "schedule version %s not found", versionID)
	}
	if !version.IsDraft() {
		return nil, apperr.Precondition(apperr.CodeVersionNotDraft,
			"schedule version %d is %s, writes require draft", version.VersionNumber, version.Status)
	}

	plan, err := s.injectTx(ctx, tx, eventID, versionID, orderOverride)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.cache.InvalidateVersion(version.TournamentID, versionID)
	return plan, nil
}

// injectTx is the transaction-scoped body shared with the orchestrator.
func (s *InjectionService) injectTx(ctx context.Context, q repositories.Querier, eventID, versionID string, orderOverride []string) (*InjectionPlan, error) {
	event, err := s.repos.Event.GetByID(ctx, q, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return nil, apperr.NotFound(apperr.CodeEventNotFound, "event %s not found", eventID)
	}

	matches, err := s.repos.Match.ListByEventAndVersion(ctx, q, eventID, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}
	teams, err := s.repos.Team.ListByEvent(ctx, q, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}

	plan, err := PlanInjection(event, matches, teams, orderOverride)
	if err != nil {
		return nil, err
	}

	if err := s.repos.Match.ClearInjections(ctx, q, eventID, versionID); err != nil {
		return nil, fmt.Errorf("failed to clear injections: %w", err)
	}
	for matchID, pair := range plan.Pairs {
		if err := s.repos.Match.SetTeams(ctx, q, matchID, pair[0], pair[1]); err != nil {
			return nil, fmt.Errorf("failed to inject match %s: %w", matchID, err)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"event_id": eventID,
		"injected": plan.InjectedCount,
	}).Info("teams injected")
	return plan, nil
}
