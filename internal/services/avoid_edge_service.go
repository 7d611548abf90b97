// internal/services/avoid_edge_service.go
// Bulk avoid-edge registration: explicit pairs or link groups, canonicalized
// and deduplicated so the post-state is invariant under input ordering.

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
	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/utils"
)

// EdgePairRequest is one explicit avoid pair.
type EdgePairRequest struct {
	TeamIDA string  `json:"team_id_a" binding:"required"`
	TeamIDB string  `json:"team_id_b" binding:"required"`
	Reason  *string `json:"reason"`
}

// LinkGroupRequest expands to the full clique over its team ids: a group of
// size k emits k*(k-1)/2 canonical edges.
type LinkGroupRequest struct {
	Code    string   `json:"code" binding:"required"`
	TeamIDs []string `json:"team_ids" binding:"required,min=2"`
	Reason  *string  `json:"reason"`
}

// BulkEdgeRequest is the request body of the bulk route.
type BulkEdgeRequest struct {
	Pairs      []EdgePairRequest  `json:"pairs"`
	LinkGroups []LinkGroupRequest `json:"link_groups"`
}

// EdgePair is one canonical (min, max) pair in a bulk response.
type EdgePair struct {
	TeamIDA string  `json:"team_id_a"`
	TeamIDB string  `json:"team_id_b"`
	Reason  *string `json:"reason,omitempty"`
}

// BulkEdgeResult reports one bulk insert or dry run.
type BulkEdgeResult struct {
	DryRun           bool       `json:"dry_run"`
	CreatedCount     int        `json:"created_count"`
	WouldCreateCount int        `json:"would_create_count"`
	SkippedExisting  int        `json:"skipped_existing"`
	Pairs            []EdgePair `json:"pairs"`
}

// ExpandBulkEdges canonicalizes and deduplicates a bulk request into the
// sorted pair list it would create. Self-edges fail the whole request.
func ExpandBulkEdges(req BulkEdgeRequest) ([]EdgePair, error) {
	seen := make(map[string]bool)
	pairs := make([]EdgePair, 0)

	add := func(a, b string, reason *string) error {
		if a == b {
			return apperr.Validation(apperr.CodeSelfEdge, "team %s cannot avoid itself", a)
		}
		lo, hi := models.CanonicalPair(a, b)
		key := lo + "|" + hi
		if seen[key] {
			return nil
		}
		seen[key] = true
		pairs = append(pairs, EdgePair{TeamIDA: lo, TeamIDB: hi, Reason: reason})
		return nil
	}

	for _, p := range req.Pairs {
		if err := add(p.TeamIDA, p.TeamIDB, p.Reason); err != nil {
			return nil, err
		}
	}
	for _, g := range req.LinkGroups {
		reason := g.Reason
		if reason == nil && g.Code != "" {
			code := g.Code
			reason = &code
		}
		for i := 0; i < len(g.TeamIDs); i++ {
			for j := i + 1; j < len(g.TeamIDs); j++ {
				if err := add(g.TeamIDs[i], g.TeamIDs[j], reason); err != nil {
					return nil, err
				}
			}
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].TeamIDA != pairs[j].TeamIDA {
			return pairs[i].TeamIDA < pairs[j].TeamIDA
		}
		return pairs[i].TeamIDB < pairs[j].TeamIDB
	})
	return pairs, nil
}

// AvoidEdgeService persists bulk edge requests.
type AvoidEdgeService struct {
	repos  *repositories.Container
	logger *logrus.Logger
}

// NewAvoidEdgeService creates a new avoid-edge service
func NewAvoidEdgeService(repos *repositories.Container, logger *logrus.Logger) *AvoidEdgeService {
	return &AvoidEdgeService{repos: repos, logger: logger}
}

// BulkAdd expands, validates and inserts a bulk edge request. With dryRun the
// response enumerates what would be created and nothing commits.
func (s *AvoidEdgeService) BulkAdd(ctx context.Context, eventID string, req BulkEdgeRequest, dryRun bool) (*BulkEdgeResult, error) {
	pairs, err := ExpandBulkEdges(req)
	if err != nil {
		return nil, err
	}

	tx, err := s.repos.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	event, err := s.repos.Event.GetByID(ctx, tx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return nil, apperr.NotFound(apperr.CodeEventNotFound, "event %s not found", eventID)
	}

	teams, err := s.repos.Team.ListByEvent(ctx, tx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}
	teamIDs := make(map[string]bool, len(teams))
	for _, t := range teams {
		teamIDs[t.ID] = true
	}
	for _, p := range pairs {
		if !teamIDs[p.TeamIDA] {
			return nil, apperr.Validation(apperr.CodeTeamNotFound, "team %s does not belong to event %s", p.TeamIDA, eventID)
		}
		if !teamIDs[p.TeamIDB] {
			return nil, apperr.Validation(apperr.CodeTeamNotFound, "team %s does not belong to event %s", p.TeamIDB, eventID)
		}
	}

	existing, err := s.repos.AvoidEdge.ListByEvent(ctx, tx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing edges: %w", err)
	}
	existingPairs := make(map[string]bool, len(existing))
	for _, e := range existing {
		existingPairs[e.TeamIDA+"|"+e.TeamIDB] = true
	}

	result := &BulkEdgeResult{DryRun: dryRun, Pairs: []EdgePair{}}
	toCreate := make([]EdgePair, 0, len(pairs))
	for _, p := range pairs {
		if existingPairs[p.TeamIDA+"|"+p.TeamIDB] {
			result.SkippedExisting++
			continue
		}
		toCreate = append(toCreate, p)
	}
	result.Pairs = toCreate
	result.WouldCreateCount = len(toCreate)

	if dryRun {
		return result, nil
	}

	now := time.Now().UTC()
	for _, p := range toCreate {
		edge := &models.AvoidEdge{
			ID:        utils.GenerateUUID(),
			EventID:   eventID,
			TeamIDA:   p.TeamIDA,
			TeamIDB:   p.TeamIDB,
			Reason:    p.Reason,
			CreatedAt: now,
		}
		if err := edge.Validate(); err != nil {
			return nil, apperr.Validation(apperr.CodeValidationFailed, "%v", err)
		}
		if err := s.repos.AvoidEdge.Create(ctx, tx, edge); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	result.CreatedCount = len(toCreate)
	s.logger.WithFields(logrus.Fields{
		"event_id": eventID,
		"created":  result.CreatedCount,
		"skipped":  result.SkippedExisting,
	}).Info("avoid edges registered")
	return result, nil
}
