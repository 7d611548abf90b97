// internal/services/plan_service.go
// Draw-plan validation and the per-tournament plan report. This gates every
// operation that depends on a plan being implementable.

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/apperr"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/models"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/repositories"
)

// Stable issue codes carried by plan validations.
const (
	IssuePlanMissing           = "PLAN_MISSING"
	IssueTeamCountOdd          = "TEAM_COUNT_ODD"
	IssueTeamCountTooSmall     = "TEAM_COUNT_TOO_SMALL"
	IssueTemplateUnknown       = "TEMPLATE_UNKNOWN"
	IssueTemplateTeamCount     = "TEMPLATE_TEAM_COUNT_MISMATCH"
	IssueWFRoundsMismatch      = "WF_ROUNDS_MISMATCH"
	IssueGuaranteeInvalid      = "GUARANTEE_INVALID"
	IssueDurationInvalid       = "DURATION_INVALID"
	IssueRosterUnderfilled     = "TEAM_ROSTER_UNDERFILLED"
	IssueRosterOverfilled      = "TEAM_ROSTER_OVERFILLED"
)

// PlanIssue is one blocking error or warning with a stable code.
type PlanIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PlanValidation is the result of validating one event's draw plan.
type PlanValidation struct {
	OK       bool        `json:"ok"`
	Blocking []PlanIssue `json:"blocking"`
	Warnings []PlanIssue `json:"warnings"`
}

func (v *PlanValidation) block(code, format string, args ...interface{}) {
	v.Blocking = append(v.Blocking, PlanIssue{Code: code, Message: fmt.Sprintf(format, args...)})
}

func (v *PlanValidation) warn(code, format string, args ...interface{}) {
	v.Warnings = append(v.Warnings, PlanIssue{Code: code, Message: fmt.Sprintf(format, args...)})
}

// requiredWFRounds returns the wf_rounds value fixed by the
// (template, team_count) pair, or -1 when the pair is unsupported.
func requiredWFRounds(template models.TemplateType, teamCount int) int {
	switch template {
	case models.TemplateRROnly:
		return 0
	case models.TemplateWFToPoolsDynamic:
		switch teamCount {
		case 8, 10:
			return 1
		case 12, 14, 16, 18, 20:
			return 2
		}
		return -1
	case models.TemplateWFToPools4:
		if teamCount == 16 {
			return 2
		}
		return -1
	case models.TemplateWFToBrackets8:
		if teamCount == 32 {
			return 2
		}
		return -1
	case models.TemplateCanonical32:
		// Legacy alias for the 8-team bracket. The historical document kept
		// wf_rounds = 2 even though the bracket runs without waterfall play.
		if teamCount == 8 {
			return 2
		}
		return -1
	}
	return -1
}

// ValidateDrawPlan applies the authoritative template/team-count rules.
// registeredTeams is the actual roster size, used for capacity warnings.
func ValidateDrawPlan(event *models.Event, registeredTeams int) PlanValidation {
	v := PlanValidation{Blocking: []PlanIssue{}, Warnings: []PlanIssue{}}

	if event.DrawPlan == nil {
		v.block(IssuePlanMissing, "event %s has no draw plan", event.Name)
		return v
	}
	plan := event.DrawPlan

	if event.TeamCount < 2 {
		v.block(IssueTeamCountTooSmall, "team_count %d is below the minimum of 2", event.TeamCount)
	}
	if event.TeamCount%2 != 0 {
		v.block(IssueTeamCountOdd, "team_count %d must be even", event.TeamCount)
	}
	if event.GuaranteeSelected != 4 && event.GuaranteeSelected != 5 {
		v.block(IssueGuaranteeInvalid, "guarantee_selected %d must be 4 or 5", event.GuaranteeSelected)
	}

	if !models.KnownTemplate(plan.TemplateType) {
		v.block(IssueTemplateUnknown, "unknown template_type %q", plan.TemplateType)
		return v
	}

	if len(v.Blocking) == 0 {
		want := requiredWFRounds(plan.TemplateType, event.TeamCount)
		if want < 0 {
			v.block(IssueTemplateTeamCount, "template %s does not support team_count %d",
				plan.TemplateType, event.TeamCount)
		} else if plan.WFRounds != want {
			v.block(IssueWFRoundsMismatch, "template %s with %d teams requires wf_rounds %d, got %d",
				plan.TemplateType, event.TeamCount, want, plan.WFRounds)
		}
	}

	if plan.Timing.WFBlockMinutes != 0 && !models.AllowedDuration(plan.Timing.WFBlockMinutes) {
		v.block(IssueDurationInvalid, "wf_block_minutes %d not in %v", plan.Timing.WFBlockMinutes, models.AllowedDurations)
	}
	if plan.Timing.StandardBlockMinutes != 0 && !models.AllowedDuration(plan.Timing.StandardBlockMinutes) {
		v.block(IssueDurationInvalid, "standard_block_minutes %d not in %v", plan.Timing.StandardBlockMinutes, models.AllowedDurations)
	}

	if registeredTeams > 0 && registeredTeams < event.TeamCount {
		v.warn(IssueRosterUnderfilled, "%d of %d teams registered", registeredTeams, event.TeamCount)
	}
	if registeredTeams > event.TeamCount {
		v.warn(IssueRosterOverfilled, "%d teams registered for a %d-team plan", registeredTeams, event.TeamCount)
	}

	v.OK = len(v.Blocking) == 0
	return v
}

// ExpectedCounts is the inventory a valid plan will generate.
type ExpectedCounts struct {
	WF          int `json:"wf"`
	Main        int `json:"main"`
	Consolation int `json:"consolation"`
	Placement   int `json:"placement"`
	Total       int `json:"total"`
}

// ExpectedMatchCounts computes the inventory expectation for a valid plan.
func ExpectedMatchCounts(event *models.Event) (ExpectedCounts, error) {
	var c ExpectedCounts
	if event.DrawPlan == nil {
		return c, apperr.Validation(apperr.CodePlanInvalid, "event %s has no draw plan", event.ID)
	}
	n := event.TeamCount
	plan := event.DrawPlan

	switch plan.TemplateType {
	case models.TemplateRROnly:
		c.Main = n * (n - 1) / 2
	case models.TemplateWFToPoolsDynamic, models.TemplateWFToPools4:
		size, err := poolSizeFor(n)
		if err != nil {
			return c, err
		}
		c.WF = plan.WFRounds * n / 2
		c.Main = (n / size) * size * (size - 1) / 2
	case models.TemplateWFToBrackets8:
		c.WF = plan.WFRounds * n / 2
		main, cons, placement := bracketStageCounts(event.GuaranteeSelected)
		c.Main = 4 * main
		c.Consolation = 4 * cons
		c.Placement = 4 * placement
	case models.TemplateCanonical32:
		main, cons, placement := bracketStageCounts(event.GuaranteeSelected)
		c.Main = main
		c.Consolation = cons
		c.Placement = placement
	default:
		return c, apperr.Validation(apperr.CodeTemplateUnsupported, "unsupported template %q", plan.TemplateType)
	}

	c.Total = c.WF + c.Main + c.Consolation + c.Placement
	return c, nil
}

// bracketStageCounts returns (main, consolation, placement) counts for one
// 8-team bracket under the given guarantee.
func bracketStageCounts(guarantee int) (int, int, int) {
	if guarantee == 5 {
		return 7, 3, 3
	}
	return 7, 2, 0
}

// poolSizeFor picks the pool size for a dynamic pools event: the first of
// {4, 5, 6, 7} that divides team_count evenly.
func poolSizeFor(teamCount int) (int, error) {
	for _, size := range []int{4, 5, 6, 7} {
		if teamCount%size == 0 {
			return size, nil
		}
	}
	return 0, apperr.Validation(apperr.CodeGroupCapacityMismatch,
		"team_count %d cannot be split into pools of 4-7", teamCount)
}

// EventPlanReport is the per-event section of the plan report.
type EventPlanReport struct {
	EventID         string              `json:"event_id"`
	Name            string              `json:"name"`
	TemplateType    models.TemplateType `json:"template_type,omitempty"`
	TeamCount       int                 `json:"team_count"`
	RegisteredTeams int                 `json:"registered_teams"`
	Guarantee       int                 `json:"guarantee_selected"`
	DrawStatus      models.DrawStatus   `json:"draw_status"`
	Validation      PlanValidation      `json:"validation"`
	Expected        *ExpectedCounts     `json:"expected,omitempty"`
}

// PlanReport enumerates per-event inventory expectations plus totals.
type PlanReport struct {
	TournamentID  string            `json:"tournament_id"`
	Events        []EventPlanReport `json:"events"`
	TotalExpected ExpectedCounts    `json:"total_expected"`
	BlockedEvents int               `json:"blocked_events"`
}

// PlanService validates draw plans and produces plan reports.
type PlanService struct {
	repos  *repositories.Container
	cache  *CacheService
	logger *logrus.Logger
}

// NewPlanService creates a new plan service
func NewPlanService(repos *repositories.Container, cache *CacheService, logger *logrus.Logger) *PlanService {
	return &PlanService{repos: repos, cache: cache, logger: logger}
}

// ValidateEvent validates one event's draw plan against its roster.
func (s *PlanService) ValidateEvent(ctx context.Context, eventID string) (*PlanValidation, error) {
	event, err := s.repos.Event.GetByID(ctx, s.repos.DB(), eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return nil, apperr.NotFound(apperr.CodeEventNotFound, "event %s not found", eventID)
	}
	teams, err := s.repos.Team.ListByEvent(ctx, s.repos.DB(), eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}
	v := ValidateDrawPlan(event, len(teams))
	return &v, nil
}

// GetPlanReport builds the tournament-wide plan report. Cached briefly since
// the draw board polls it.
func (s *PlanService) GetPlanReport(ctx context.Context, tournamentID string) (*PlanReport, error) {
	cacheKey := fmt.Sprintf("plan_report_%s", tournamentID)
	var cached PlanReport
	if err := s.cache.Get(cacheKey, &cached); err == nil {
		return &cached, nil
	}

	tournament, err := s.repos.Tournament.GetByID(ctx, s.repos.DB(), tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament: %w", err)
	}
	if tournament == nil {
		return nil, apperr.NotFound(apperr.CodeTournamentNotFound, "tournament %s not found", tournamentID)
	}

	events, err := s.repos.Event.ListByTournament(ctx, s.repos.DB(), tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	report := &PlanReport{TournamentID: tournamentID, Events: make([]EventPlanReport, 0, len(events))}
	for _, event := range events {
		teams, err := s.repos.Team.ListByEvent(ctx, s.repos.DB(), event.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load teams for event %s: %w", event.ID, err)
		}

		entry := EventPlanReport{
			EventID:         event.ID,
			Name:            event.Name,
			TeamCount:       event.TeamCount,
			RegisteredTeams: len(teams),
			Guarantee:       event.GuaranteeSelected,
			DrawStatus:      event.DrawStatus,
			Validation:      ValidateDrawPlan(event, len(teams)),
		}
		if event.DrawPlan != nil {
			entry.TemplateType = event.DrawPlan.TemplateType
		}
		if entry.Validation.OK {
			counts, err := ExpectedMatchCounts(event)
			if err == nil {
				entry.Expected = &counts
				report.TotalExpected.WF += counts.WF
				report.TotalExpected.Main += counts.Main
				report.TotalExpected.Consolation += counts.Consolation
				report.TotalExpected.Placement += counts.Placement
				report.TotalExpected.Total += counts.Total
			}
		} else {
			report.BlockedEvents++
		}
		report.Events = append(report.Events, entry)
	}

	s.cache.Set(cacheKey, report, 2*time.Minute)
	return report, nil
}
