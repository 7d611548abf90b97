// internal/services/report_service.go
// Read-only conflict/diagnostic reporting plus the schedule grid projection.
// The reporter never writes; repeated calls on unchanged state marshal to
// byte-identical JSON because every section is a fixed-order struct over
// deterministically sorted slices.

package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/apperr"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/models"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/repositories"
)

// Ordering violation types.
const (
	ViolationStageOrder = "STAGE_ORDER_INVERSION"
	ViolationRoundOrder = "ROUND_ORDER_INVERSION"
	ViolationOrdering   = "ORDERING_VIOLATION"
)

// ReportInput is the full version state the reporter analyzes.
type ReportInput struct {
	Version      *models.ScheduleVersion
	Slots        []*models.Slot
	Matches      []*models.Match
	Assignments  []*models.Assignment
	Events       []*models.Event
	TeamsByEvent map[string][]*models.Team
	EdgesByEvent map[string][]*models.AvoidEdge
}

// ReportSummary is section 1: headline counts and the assignment rate.
type ReportSummary struct {
	TotalMatches     int     `json:"total_matches"`
	AssignedMatches  int     `json:"assigned_matches"`
	UnassignedMatches int    `json:"unassigned_matches"`
	AssignmentRate   float64 `json:"assignment_rate"`
	TotalSlots       int     `json:"total_slots"`
	UsedSlots        int     `json:"used_slots"`
}

// SlotPressureEntry is one (day, court) row of section 3.
type SlotPressureEntry struct {
	DayDate     string `json:"day_date"`
	CourtNumber int    `json:"court_number"`
	CourtLabel  string `json:"court_label"`
	TotalSlots  int    `json:"total_slots"`
	UnusedSlots int    `json:"unused_slots"`
}

// SlotPressure is section 3.
type SlotPressure struct {
	Entries     []SlotPressureEntry `json:"entries"`
	ShortBlocks int                 `json:"short_blocks"`
}

// StageTimelineEntry is one stage row of section 4.
type StageTimelineEntry struct {
	Stage            models.MatchType `json:"stage"`
	AssignedCount    int              `json:"assigned_count"`
	UnassignedCount  int              `json:"unassigned_count"`
	FirstStart       string           `json:"first_start,omitempty"`
	LastStart        string           `json:"last_start,omitempty"`
	SpilloverWarning bool             `json:"spillover_warning"`
}

// OrderingViolation is one section 5 finding.
type OrderingViolation struct {
	Type           string `json:"type"`
	EarlierMatchID string `json:"earlier_match_id"`
	EarlierCode    string `json:"earlier_code"`
	LaterMatchID   string `json:"later_match_id"`
	LaterCode      string `json:"later_code"`
}

// OrderingIntegrity is section 5.
type OrderingIntegrity struct {
	OK         bool                `json:"ok"`
	Violations []OrderingViolation `json:"violations"`
}

// ConflictPair names an avoid-edge by its teams.
type ConflictPair struct {
	TeamA string `json:"team_a"`
	TeamB string `json:"team_b"`
	Group int    `json:"group"`
}

// GraphSummary describes the avoid-edge graph of one event.
type GraphSummary struct {
	TeamCount      int   `json:"team_count"`
	EdgeCount      int   `json:"edge_count"`
	ComponentCount int   `json:"component_count"`
	ComponentSizes []int `json:"component_sizes"`
	MaxDegree      int   `json:"max_degree"`
}

// GroupingSummary describes the persisted group assignment of one event.
type GroupingSummary struct {
	GroupCount        int   `json:"group_count"`
	GroupSizes        []int `json:"group_sizes"`
	InternalConflicts []int `json:"internal_conflicts"`
}

// SeparationEffectiveness reports how many edges grouping separated.
type SeparationEffectiveness struct {
	TotalEdges     int     `json:"total_edges"`
	SeparatedEdges int     `json:"separated_edges"`
	SeparationRate float64 `json:"separation_rate"`
}

// EventConflictLens is the per-event section 6 block.
type EventConflictLens struct {
	EventID                 string                  `json:"event_id"`
	EventName               string                  `json:"event_name"`
	GraphSummary            GraphSummary            `json:"graph_summary"`
	GroupingSummary         GroupingSummary         `json:"grouping_summary"`
	UnavoidableConflicts    []ConflictPair          `json:"unavoidable_conflicts"`
	SeparationEffectiveness SeparationEffectiveness `json:"separation_effectiveness"`
}

// ConflictReport is the full section 1-6 diagnostic document.
type ConflictReport struct {
	ScheduleVersionID string              `json:"schedule_version_id"`
	Summary           ReportSummary       `json:"summary"`
	Unassigned        []UnassignedMatch   `json:"unassigned"`
	SlotPressure      SlotPressure        `json:"slot_pressure"`
	StageTimeline     []StageTimelineEntry `json:"stage_timeline"`
	OrderingIntegrity OrderingIntegrity   `json:"ordering_integrity"`
	WFConflictLens    []EventConflictLens `json:"wf_conflict_lens"`
}

// BuildConflictReport assembles the diagnostic report from version state.
func BuildConflictReport(input ReportInput) (*ConflictReport, error) {
	report := &ConflictReport{
		ScheduleVersionID: input.Version.ID,
		Unassigned:        []UnassignedMatch{},
		StageTimeline:     []StageTimelineEntry{},
		WFConflictLens:    []EventConflictLens{},
	}

	slotByID := make(map[string]*models.Slot, len(input.Slots))
	for _, s := range input.Slots {
		slotByID[s.ID] = s
	}
	matchByID := make(map[string]*models.Match, len(input.Matches))
	for _, m := range input.Matches {
		matchByID[m.ID] = m
	}
	assignedMatch := make(map[string]string, len(input.Assignments))
	usedSlot := make(map[string]bool, len(input.Assignments))
	for _, a := range input.Assignments {
		assignedMatch[a.MatchID] = a.SlotID
		usedSlot[a.SlotID] = true
	}

	// Section 1: summary.
	report.Summary = ReportSummary{
		TotalMatches:      len(input.Matches),
		AssignedMatches:   len(assignedMatch),
		UnassignedMatches: len(input.Matches) - len(assignedMatch),
		TotalSlots:        len(input.Slots),
		UsedSlots:         len(usedSlot),
	}
	if len(input.Matches) > 0 {
		report.Summary.AssignmentRate = float64(report.Summary.AssignedMatches) / float64(len(input.Matches))
	}

	// Section 2: best-effort reason recomputation with the assignment
	// predicates, against the committed occupancy and rest state.
	st, err := newAssignmentState(input.Matches, input.Slots, input.Assignments)
	if err != nil {
		return nil, err
	}
	activeSlots := make([]*models.Slot, 0, len(input.Slots))
	for _, s := range input.Slots {
		if s.IsActive {
			activeSlots = append(activeSlots, s)
		}
	}
	models.SortSlots(activeSlots)

	unassigned := make([]*models.Match, 0)
	for _, m := range input.Matches {
		if _, ok := assignedMatch[m.ID]; !ok {
			unassigned = append(unassigned, m)
		}
	}
	models.SortMatches(unassigned)

	for _, m := range unassigned {
		overlapFails, durationFails, restFails := 0, 0, 0
		kinds := make(map[string]bool)
		for _, slot := range activeSlots {
			if usedSlot[slot.ID] {
				overlapFails++
				continue
			}
			failure, ks := st.checkSlot(m, slot)
			switch failure {
			case slotOK:
				// A free slot exists now; the match simply ran after
				// resources were consumed by earlier matches in the pass.
			case slotOverlap:
				overlapFails++
			case slotDuration:
				durationFails++
			case slotRest:
				restFails++
				for _, k := range ks {
					kinds[k] = true
				}
			}
		}
		entry := UnassignedMatch{
			MatchID:   m.ID,
			MatchCode: m.MatchCode,
			Reason:    classifyUnassigned(len(activeSlots), overlapFails, durationFails, restFails),
		}
		if entry.Reason == ReasonNoRestCompatibleSlot {
			if kinds["wf_to_scoring"] {
				entry.RestViolations = append(entry.RestViolations, "wf_to_scoring")
			}
			if kinds["scoring_to_scoring"] {
				entry.RestViolations = append(entry.RestViolations, "scoring_to_scoring")
			}
		}
		report.Unassigned = append(report.Unassigned, entry)
	}

	// Section 3: slot pressure.
	longestDuration := 0
	for _, m := range input.Matches {
		if m.DurationMinutes > longestDuration {
			longestDuration = m.DurationMinutes
		}
	}
	pressure := make(map[string]*SlotPressureEntry)
	for _, s := range input.Slots {
		key := dayCourtKey(s.DayDate, s.CourtNumber)
		entry, ok := pressure[key]
		if !ok {
			entry = &SlotPressureEntry{DayDate: s.DayDate, CourtNumber: s.CourtNumber, CourtLabel: s.CourtLabel}
			pressure[key] = entry
		}
		entry.TotalSlots++
		if !usedSlot[s.ID] {
			entry.UnusedSlots++
		}
		if s.BlockMinutes < longestDuration {
			report.SlotPressure.ShortBlocks++
		}
	}
	entries := make([]SlotPressureEntry, 0, len(pressure))
	for _, e := range pressure {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].DayDate != entries[j].DayDate {
			return entries[i].DayDate < entries[j].DayDate
		}
		return entries[i].CourtNumber < entries[j].CourtNumber
	})
	report.SlotPressure.Entries = entries

	// Section 4: stage timeline with spillover detection.
	type stageWindow struct {
		assigned, unassigned int
		firstStart, lastStart int64
		maxEnd                int64
		firstLabel, lastLabel string
		seen                  bool
	}
	stages := []models.MatchType{models.MatchWF, models.MatchMain, models.MatchConsolation, models.MatchPlacement}
	windows := make(map[models.MatchType]*stageWindow, len(stages))
	for _, stage := range stages {
		windows[stage] = &stageWindow{}
	}
	for _, m := range input.Matches {
		w, ok := windows[m.MatchType]
		if !ok {
			continue
		}
		slotID, assigned := assignedMatch[m.ID]
		if !assigned {
			w.unassigned++
			continue
		}
		w.assigned++
		slot := slotByID[slotID]
		if slot == nil {
			continue
		}
		start := st.slotAbs[slot.ID]
		end := start + int64(m.DurationMinutes)
		label := fmt.Sprintf("%s %s", slot.DayDate, slot.StartTime)
		if !w.seen || start < w.firstStart {
			w.firstStart = start
			w.firstLabel = label
		}
		if !w.seen || start > w.lastStart {
			w.lastStart = start
			w.lastLabel = label
		}
		if !w.seen || end > w.maxEnd {
			w.maxEnd = end
		}
		w.seen = true
	}
	for _, stage := range stages {
		w := windows[stage]
		entry := StageTimelineEntry{
			Stage:           stage,
			AssignedCount:   w.assigned,
			UnassignedCount: w.unassigned,
			FirstStart:      w.firstLabel,
			LastStart:       w.lastLabel,
		}
		if w.seen {
			for _, higher := range stages {
				if models.StagePriorityOf(higher) >= models.StagePriorityOf(stage) {
					break
				}
				hw := windows[higher]
				if hw.seen && hw.maxEnd > w.firstStart {
					entry.SpilloverWarning = true
				}
			}
		}
		report.StageTimeline = append(report.StageTimeline, entry)
	}

	// Section 5: ordering integrity. Assigned matches are walked per event in
	// slot-time order and adjacent pairs are checked against the canonical
	// match order.
	report.OrderingIntegrity = buildOrderingIntegrity(input, slotByID, assignedMatch, st)

	// Section 6: waterfall conflict lens per WF-bearing event.
	sortedEvents := make([]*models.Event, len(input.Events))
	copy(sortedEvents, input.Events)
	sort.Slice(sortedEvents, func(i, j int) bool { return sortedEvents[i].ID < sortedEvents[j].ID })
	for _, event := range sortedEvents {
		if !event.HasWaterfall() {
			continue
		}
		lens := buildConflictLens(event, input.TeamsByEvent[event.ID], input.EdgesByEvent[event.ID])
		report.WFConflictLens = append(report.WFConflictLens, lens)
	}

	return report, nil
}

func buildOrderingIntegrity(input ReportInput, slotByID map[string]*models.Slot, assignedMatch map[string]string, st *assignmentState) OrderingIntegrity {
	integrity := OrderingIntegrity{OK: true, Violations: []OrderingViolation{}}

	byEvent := make(map[string][]*models.Match)
	for _, m := range input.Matches {
		if _, ok := assignedMatch[m.ID]; ok {
			byEvent[m.EventID] = append(byEvent[m.EventID], m)
		}
	}
	eventIDs := make([]string, 0, len(byEvent))
	for id := range byEvent {
		eventIDs = append(eventIDs, id)
	}
	sort.Strings(eventIDs)

	for _, eventID := range eventIDs {
		assigned := byEvent[eventID]
		sort.Slice(assigned, func(i, j int) bool {
			si := slotByID[assignedMatch[assigned[i].ID]]
			sj := slotByID[assignedMatch[assigned[j].ID]]
			if si.DayDate != sj.DayDate {
				return si.DayDate < sj.DayDate
			}
			if a, b := si.StartMinutes(), sj.StartMinutes(); a != b {
				return a < b
			}
			if si.CourtLabel != sj.CourtLabel {
				return si.CourtLabel < sj.CourtLabel
			}
			return si.ID < sj.ID
		})

		for i := 1; i < len(assigned); i++ {
			earlier, later := assigned[i-1], assigned[i]
			if !later.Less(earlier) {
				continue
			}
			violation := OrderingViolation{
				EarlierMatchID: earlier.ID,
				EarlierCode:    earlier.MatchCode,
				LaterMatchID:   later.ID,
				LaterCode:      later.MatchCode,
			}
			switch {
			case later.StagePriority() != earlier.StagePriority():
				violation.Type = ViolationStageOrder
			case later.RoundIndex != earlier.RoundIndex:
				violation.Type = ViolationRoundOrder
			default:
				violation.Type = ViolationOrdering
			}
			integrity.Violations = append(integrity.Violations, violation)
			integrity.OK = false
		}
	}
	return integrity
}

func buildConflictLens(event *models.Event, teams []*models.Team, edges []*models.AvoidEdge) EventConflictLens {
	lens := EventConflictLens{
		EventID:              event.ID,
		EventName:            event.Name,
		UnavoidableConflicts: []ConflictPair{},
	}

	teamName := make(map[string]string, len(teams))
	groupOf := make(map[string]int, len(teams))
	maxGroup := -1
	for _, t := range teams {
		teamName[t.ID] = t.Name
		if t.WFGroupIndex != nil {
			groupOf[t.ID] = *t.WFGroupIndex
			if *t.WFGroupIndex > maxGroup {
				maxGroup = *t.WFGroupIndex
			}
		}
	}

	// Graph stats come from a single-group partition probe, which runs the
	// same DFS component walk the grouping engine runs.
	if probe, err := PartitionWaterfallGroups(teams, edges, 1); err == nil {
		lens.GraphSummary = GraphSummary{
			TeamCount:      len(teams),
			EdgeCount:      len(edges),
			ComponentCount: probe.ComponentCount,
			ComponentSizes: probe.ComponentSizes,
			MaxDegree:      probe.MaxDegree,
		}
	} else {
		lens.GraphSummary = GraphSummary{TeamCount: len(teams), EdgeCount: len(edges)}
	}

	if maxGroup >= 0 {
		sizes := make([]int, maxGroup+1)
		internal := make([]int, maxGroup+1)
		for _, g := range groupOf {
			sizes[g]++
		}
		separated := 0
		for _, e := range edges {
			ga, okA := groupOf[e.TeamIDA]
			gb, okB := groupOf[e.TeamIDB]
			if okA && okB && ga == gb {
				internal[ga]++
				lens.UnavoidableConflicts = append(lens.UnavoidableConflicts, ConflictPair{
					TeamA: teamName[e.TeamIDA],
					TeamB: teamName[e.TeamIDB],
					Group: ga,
				})
			} else {
				separated++
			}
		}
		lens.GroupingSummary = GroupingSummary{GroupCount: maxGroup + 1, GroupSizes: sizes, InternalConflicts: internal}
		lens.SeparationEffectiveness = SeparationEffectiveness{
			TotalEdges:     len(edges),
			SeparatedEdges: separated,
		}
		if len(edges) > 0 {
			lens.SeparationEffectiveness.SeparationRate = float64(separated) / float64(len(edges))
		} else {
			lens.SeparationEffectiveness.SeparationRate = 1.0
		}
	}

	return lens
}

// GridCell is one occupied start opportunity in the grid projection.
type GridCell struct {
	SlotID    string `json:"slot_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	MatchID   string `json:"match_id"`
	MatchCode string `json:"match_code"`
	EventID   string `json:"event_id"`
	EventName string `json:"event_name"`
	SideA     string `json:"side_a"`
	SideB     string `json:"side_b"`
}

// GridCourt groups cells per court within a day.
type GridCourt struct {
	CourtNumber int        `json:"court_number"`
	CourtLabel  string     `json:"court_label"`
	Cells       []GridCell `json:"cells"`
}

// GridDay groups courts per day.
type GridDay struct {
	DayDate string      `json:"day_date"`
	Courts  []GridCourt `json:"courts"`
}

// Grid is the day -> court -> time projection of a version's assignments.
type Grid struct {
	ScheduleVersionID string    `json:"schedule_version_id"`
	Days              []GridDay `json:"days"`
}

// BuildGrid assembles the grid projection from version state.
func BuildGrid(input ReportInput) *Grid {
	grid := &Grid{ScheduleVersionID: input.Version.ID, Days: []GridDay{}}

	slotByID := make(map[string]*models.Slot, len(input.Slots))
	for _, s := range input.Slots {
		slotByID[s.ID] = s
	}
	matchByID := make(map[string]*models.Match, len(input.Matches))
	for _, m := range input.Matches {
		matchByID[m.ID] = m
	}
	eventName := make(map[string]string, len(input.Events))
	for _, e := range input.Events {
		eventName[e.ID] = e.Name
	}
	teamName := make(map[string]string)
	for _, teams := range input.TeamsByEvent {
		for _, t := range teams {
			teamName[t.ID] = t.Name
		}
	}

	cells := make(map[string]map[int][]GridCell)
	for _, a := range input.Assignments {
		slot, okS := slotByID[a.SlotID]
		match, okM := matchByID[a.MatchID]
		if !okS || !okM {
			continue
		}
		sideA := match.PlaceholderSideA
		if match.TeamAID != nil {
			if name, ok := teamName[*match.TeamAID]; ok {
				sideA = name
			}
		}
		sideB := match.PlaceholderSideB
		if match.TeamBID != nil {
			if name, ok := teamName[*match.TeamBID]; ok {
				sideB = name
			}
		}
		cell := GridCell{
			SlotID:    slot.ID,
			StartTime: slot.StartTime,
			EndTime:   models.FormatClock(slot.StartMinutes() + match.DurationMinutes),
			MatchID:   match.ID,
			MatchCode: match.MatchCode,
			EventID:   match.EventID,
			EventName: eventName[match.EventID],
			SideA:     sideA,
			SideB:     sideB,
		}
		if cells[slot.DayDate] == nil {
			cells[slot.DayDate] = make(map[int][]GridCell)
		}
		cells[slot.DayDate][slot.CourtNumber] = append(cells[slot.DayDate][slot.CourtNumber], cell)
	}

	courtLabels := make(map[string]map[int]string)
	for _, s := range input.Slots {
		if courtLabels[s.DayDate] == nil {
			courtLabels[s.DayDate] = make(map[int]string)
		}
		courtLabels[s.DayDate][s.CourtNumber] = s.CourtLabel
	}

	days := make([]string, 0, len(courtLabels))
	for day := range courtLabels {
		days = append(days, day)
	}
	sort.Strings(days)

	for _, day := range days {
		gridDay := GridDay{DayDate: day, Courts: []GridCourt{}}
		courts := make([]int, 0, len(courtLabels[day]))
		for court := range courtLabels[day] {
			courts = append(courts, court)
		}
		sort.Ints(courts)
		for _, court := range courts {
			courtCells := cells[day][court]
			sort.Slice(courtCells, func(i, j int) bool {
				if courtCells[i].StartTime != courtCells[j].StartTime {
					return courtCells[i].StartTime < courtCells[j].StartTime
				}
				return courtCells[i].SlotID < courtCells[j].SlotID
			})
			if courtCells == nil {
				courtCells = []GridCell{}
			}
			gridDay.Courts = append(gridDay.Courts, GridCourt{
				CourtNumber: court,
				CourtLabel:  courtLabels[day][court],
				Cells:       courtCells,
			})
		}
		grid.Days = append(grid.Days, gridDay)
	}

	return grid
}

// ReportService loads version state and serves reports and grids.
type ReportService struct {
	repos  *repositories.Container
	cache  *CacheService
	logger *logrus.Logger
}

// NewReportService creates a new report service
func NewReportService(repos *repositories.Container, cache *CacheService, logger *logrus.Logger) *ReportService {
	return &ReportService{repos: repos, cache: cache, logger: logger}
}

// loadReportInput gathers the full version state with plain reads.
func (s *ReportService) loadReportInput(ctx context.Context, q repositories.Querier, tournamentID, versionID string) (*ReportInput, error) {
	version, err := s.repos.Version.GetByID(ctx, q, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load version: %w", err)
	}
	if version == nil || version.TournamentID != tournamentID {
		return nil, apperr.NotFound(apperr.CodeVersionNotFound, "schedule version %s not found", versionID)
	}

	slots, err := s.repos.Slot.ListByVersion(ctx, q, versionID)
	if err != nil {
		return nil, err
	}
	matches, err := s.repos.Match.ListByVersion(ctx, q, versionID)
	if err != nil {
		return nil, err
	}
	assignments, err := s.repos.Assignment.ListByVersion(ctx, q, versionID)
	if err != nil {
		return nil, err
	}
	events, err := s.repos.Event.ListByTournament(ctx, q, tournamentID)
	if err != nil {
		return nil, err
	}

	input := &ReportInput{
		Version:      version,
		Slots:        slots,
		Matches:      matches,
		Assignments:  assignments,
		Events:       events,
		TeamsByEvent: make(map[string][]*models.Team, len(events)),
		EdgesByEvent: make(map[string][]*models.AvoidEdge, len(events)),
	}
	for _, event := range events {
		teams, err := s.repos.Team.ListByEvent(ctx, q, event.ID)
		if err != nil {
			return nil, err
		}
		edges, err := s.repos.AvoidEdge.ListByEvent(ctx, q, event.ID)
		if err != nil {
			return nil, err
		}
		input.TeamsByEvent[event.ID] = teams
		input.EdgesByEvent[event.ID] = edges
	}
	return input, nil
}

// GetConflicts builds the diagnostic report for a version.
func (s *ReportService) GetConflicts(ctx context.Context, tournamentID, versionID string) (*ConflictReport, error) {
	cacheKey := fmt.Sprintf("conflicts_%s_%s", tournamentID, versionID)
	var cached ConflictReport
	if err := s.cache.Get(cacheKey, &cached); err == nil {
		return &cached, nil
	}

	input, err := s.loadReportInput(ctx, s.repos.DB(), tournamentID, versionID)
	if err != nil {
		return nil, err
	}
	report, err := BuildConflictReport(*input)
	if err != nil {
		return nil, err
	}

	s.cache.Set(cacheKey, report, 2*time.Minute)
	return report, nil
}

// GetGrid builds the schedule grid for a version.
func (s *ReportService) GetGrid(ctx context.Context, tournamentID, versionID string) (*Grid, error) {
	cacheKey := fmt.Sprintf("grid_%s_%s", tournamentID, versionID)
	var cached Grid
	if err := s.cache.Get(cacheKey, &cached); err == nil {
		return &cached, nil
	}

	input, err := s.loadReportInput(ctx, s.repos.DB(), tournamentID, versionID)
	if err != nil {
		return nil, err
	}
	grid := BuildGrid(*input)

	s.cache.Set(cacheKey, grid, 2*time.Minute)
	return grid, nil
}
