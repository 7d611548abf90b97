// internal/services/grouping_service.go
// Waterfall grouping: a deterministic, conflict-minimizing partition of an
// event's teams into equally sized groups honoring avoid-edges.

package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/apperr"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/models"
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/repositories"
)

// nullSeedRank is the sort rank of teams without a seed.
const nullSeedRank = 999

// CanonicalTeamOrder returns a new slice sorted by the canonical team order:
// seed ascending (null seeds last), rating descending, registration
// timestamp ascending, team id ascending.
func CanonicalTeamOrder(teams []*models.Team) []*models.Team {
	ordered := make([]*models.Team, len(teams))
	copy(ordered, teams)
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]

		seedA, seedB := nullSeedRank, nullSeedRank
		if a.Seed != nil {
			seedA = *a.Seed
		}
		if b.Seed != nil {
			seedB = *b.Seed
		}
		if seedA != seedB {
			return seedA < seedB
		}

		var ratingA, ratingB float64
		if a.Rating != nil {
			ratingA = *a.Rating
		}
		if b.Rating != nil {
			ratingB = *b.Rating
		}
		if ratingA != ratingB {
			return ratingA > ratingB
		}

		switch {
		case a.RegisteredAt != nil && b.RegisteredAt != nil && !a.RegisteredAt.Equal(*b.RegisteredAt):
			return a.RegisteredAt.Before(*b.RegisteredAt)
		case a.RegisteredAt != nil && b.RegisteredAt == nil:
			return true
		case a.RegisteredAt == nil && b.RegisteredAt != nil:
			return false
		}

		return a.ID < b.ID
	})
	return ordered
}

// GroupingResult is the outcome of one partition run.
type GroupingResult struct {
	GroupCount        int            `json:"group_count"`
	GroupSizes        []int          `json:"group_sizes"`
	Assignments       map[string]int `json:"assignments"`
	InternalConflicts []int          `json:"internal_conflicts"`
	TotalEdges        int            `json:"total_edges"`
	SeparatedEdges    int            `json:"separated_edges"`
	SeparationRate    float64        `json:"separation_rate"`
	ComponentCount    int            `json:"component_count"`
	ComponentSizes    []int          `json:"component_sizes"`
	MaxDegree         int            `json:"max_degree"`
}

// PartitionWaterfallGroups partitions teams into groupCount equal groups with
// a single-pass constructive heuristic: teams are visited in canonical order
// and each lands in the lowest-index under-capacity group holding the fewest
// of its avoid-neighbors. No backtracking; identical inputs give identical
// assignments.
func PartitionWaterfallGroups(teams []*models.Team, edges []*models.AvoidEdge, groupCount int) (*GroupingResult, error) {
	if groupCount < 1 {
		return nil, apperr.Validation(apperr.CodeGroupCapacityMismatch, "group count must be positive, got %d", groupCount)
	}
	if len(teams)%groupCount != 0 {
		return nil, apperr.Validation(apperr.CodeGroupCapacityMismatch,
			"%d teams cannot fill %d equal groups", len(teams), groupCount)
	}
	capacity := len(teams) / groupCount

	adjacency := make(map[string][]string)
	for _, e := range edges {
		adjacency[e.TeamIDA] = append(adjacency[e.TeamIDA], e.TeamIDB)
		adjacency[e.TeamIDB] = append(adjacency[e.TeamIDB], e.TeamIDA)
	}

	// Connected components via iterative DFS over a sorted id list, plus the
	// degree stats the conflict lens reports.
	ids := make([]string, 0, len(teams))
	for _, t := range teams {
		ids = append(ids, t.ID)
	}
	sort.Strings(ids)

	maxDegree := 0
	for _, neighbors := range adjacency {
		if len(neighbors) > maxDegree {
			maxDegree = len(neighbors)
		}
	}

	visited := make(map[string]bool, len(ids))
	componentSizes := make([]int, 0)
	for _, start := range ids {
		if visited[start] {
			continue
		}
		size := 0
		stack := []string{start}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[id] {
				continue
			}
			visited[id] = true
			size++
			neighbors := append([]string(nil), adjacency[id]...)
			sort.Strings(neighbors)
			for i := len(neighbors) - 1; i >= 0; i-- {
				if !visited[neighbors[i]] {
					stack = append(stack, neighbors[i])
				}
			}
		}
		componentSizes = append(componentSizes, size)
	}

	// Single constructive pass in canonical order.
	assignments := make(map[string]int, len(teams))
	groupSizes := make([]int, groupCount)
	for _, team := range CanonicalTeamOrder(teams) {
		bestGroup := -1
		bestConflicts := 0
		for g := 0; g < groupCount; g++ {
			if groupSizes[g] >= capacity {
				continue
			}
			conflicts := 0
			for _, neighbor := range adjacency[team.ID] {
				if assigned, ok := assignments[neighbor]; ok && assigned == g {
					conflicts++
				}
			}
			if bestGroup == -1 || conflicts < bestConflicts {
				bestGroup = g
				bestConflicts = conflicts
			}
		}
		assignments[team.ID] = bestGroup
		groupSizes[bestGroup]++
	}

	result := &GroupingResult{
		GroupCount:        groupCount,
		GroupSizes:        groupSizes,
		Assignments:       assignments,
		InternalConflicts: make([]int, groupCount),
		TotalEdges:        len(edges),
		ComponentCount:    len(componentSizes),
		ComponentSizes:    componentSizes,
		MaxDegree:         maxDegree,
	}
	for _, e := range edges {
		ga, okA := assignments[e.TeamIDA]
		gb, okB := assignments[e.TeamIDB]
		if okA && okB && ga == gb {
			result.InternalConflicts[ga]++
		} else {
			result.SeparatedEdges++
		}
	}
	if result.TotalEdges > 0 {
		result.SeparationRate = float64(result.SeparatedEdges) / float64(result.TotalEdges)
	} else {
		result.SeparationRate = 1.0
	}
	return result, nil
}

// WaterfallGroupTarget derives the number of groups from the event template:
// the pool count for pool templates, four for the replicated bracket
// template, zero when the plan has no grouping stage.
func WaterfallGroupTarget(event *models.Event) (int, error) {
	if event.DrawPlan == nil {
		return 0, nil
	}
	switch event.DrawPlan.TemplateType {
	case models.TemplateWFToPoolsDynamic, models.TemplateWFToPools4:
		size, err := poolSizeFor(event.TeamCount)
		if err != nil {
			return 0, err
		}
		return event.TeamCount / size, nil
	case models.TemplateWFToBrackets8:
		return 4, nil
	}
	return 0, nil
}

// GroupingService runs waterfall grouping and persists group indexes.
type GroupingService struct {
	repos  *repositories.Container
	audit  *AuditService
	logger *logrus.Logger
}

// NewGroupingService creates a new grouping service
func NewGroupingService(repos *repositories.Container, audit *AuditService, logger *logrus.Logger) *GroupingService {
	return &GroupingService{repos: repos, audit: audit, logger: logger}
}

// AssignGroups partitions an event's teams and persists wf_group_index.
func (s *GroupingService) AssignGroups(ctx context.Context, eventID string) (*GroupingResult, error) {
	tx, err := s.repos.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := s.assignGroupsTx(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.audit.Record(ctx, "waterfall_groups_assigned", map[string]interface{}{
		"event_id":        eventID,
		"group_count":     result.GroupCount,
		"separation_rate": result.SeparationRate,
	})
	return result, nil
}

// assignGroupsTx is the transaction-scoped body shared with the orchestrator.
func (s *GroupingService) assignGroupsTx(ctx context.Context, q repositories.Querier, eventID string) (*GroupingResult, error) {
	event, err := s.repos.Event.GetByID(ctx, q, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return nil, apperr.NotFound(apperr.CodeEventNotFound, "event %s not found", eventID)
	}

	target, err := WaterfallGroupTarget(event)
	if err != nil {
		return nil, err
	}
	if target == 0 {
		return nil, apperr.Validation(apperr.CodePlanInvalid,
			"event %s has no waterfall grouping stage", event.Name)
	}

	teams, err := s.repos.Team.ListByEvent(ctx, q, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}
	edges, err := s.repos.AvoidEdge.ListByEvent(ctx, q, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load avoid edges: %w", err)
	}

	result, err := PartitionWaterfallGroups(teams, edges, target)
	if err != nil {
		return nil, err
	}

	for teamID, group := range result.Assignments {
		if err := s.repos.Team.UpdateWFGroupIndex(ctx, q, teamID, group); err != nil {
			return nil, fmt.Errorf("failed to persist group for team %s: %w", teamID, err)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"event_id":        eventID,
		"groups":          result.GroupCount,
		"separation_rate": result.SeparationRate,
	}).Info("waterfall groups assigned")
	return result, nil
}
