// internal/services/tournament_service.go
// Tournament, event and team registration: the minimal CRUD surface feeding
// the schedule orchestration core.

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

// TournamentService handles tournament, event and team setup.
type TournamentService struct {
	repos  *repositories.Container
	cache  *CacheService
	logger *logrus.Logger
}

// NewTournamentService creates a new tournament service
func NewTournamentService(repos *repositories.Container, cache *CacheService, logger *logrus.Logger) *TournamentService {
	return &TournamentService{repos: repos, cache: cache, logger: logger}
}

// CreateDayRequest is one day of a tournament creation request.
type CreateDayRequest struct {
	Date            string   `json:"date" binding:"required"`
	StartTime       string   `json:"start_time" binding:"required"`
	EndTime         string   `json:"end_time" binding:"required"`
	CourtsAvailable int      `json:"courts_available" binding:"required,min=1"`
	CourtLabels     []string `json:"court_labels"`
	IsActive        *bool    `json:"is_active"`
}

// CreateTournamentRequest carries the tournament setup payload.
type CreateTournamentRequest struct {
	Name string             `json:"name" binding:"required,min=3,max=255"`
	Days []CreateDayRequest `json:"days" binding:"required,min=1,dive"`
}

// CreateTournament persists a tournament with its days.
func (s *TournamentService) CreateTournament(ctx context.Context, req CreateTournamentRequest) (*models.Tournament, error) {
	now := time.Now().UTC()
	tournament := &models.Tournament{
		ID:        utils.GenerateUUID(),
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, d := range req.Days {
		active := true
		if d.IsActive != nil {
			active = *d.IsActive
		}
		tournament.Days = append(tournament.Days, models.TournamentDay{
			ID:              utils.GenerateUUID(),
			TournamentID:    tournament.ID,
			Date:            d.Date,
			StartTime:       d.StartTime,
			EndTime:         d.EndTime,
			CourtsAvailable: d.CourtsAvailable,
			CourtLabels:     d.CourtLabels,
			IsActive:        active,
			CreatedAt:       now,
		})
	}
	if err := tournament.Validate(); err != nil {
		return nil, apperr.Validation(apperr.CodeValidationFailed, "%v", err)
	}

	tx, err := s.repos.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.repos.Tournament.Create(ctx, tx, tournament); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.WithField("tournament_id", tournament.ID).Info("tournament created")
	return tournament, nil
}

// GetTournament loads a tournament with its days, cached briefly.
func (s *TournamentService) GetTournament(ctx context.Context, id string) (*models.Tournament, error) {
	cacheKey := fmt.Sprintf("tournament_%s", id)
	var cached models.Tournament
	if err := s.cache.Get(cacheKey, &cached); err == nil {
		return &cached, nil
	}

	tournament, err := s.repos.Tournament.GetByID(ctx, s.repos.DB(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament: %w", err)
	}
	if tournament == nil {
		return nil, apperr.NotFound(apperr.CodeTournamentNotFound, "tournament %s not found", id)
	}

	s.cache.Set(cacheKey, tournament, 5*time.Minute)
	return tournament, nil
}

// ListTournaments returns all tournaments, newest first.
func (s *TournamentService) ListTournaments(ctx context.Context) ([]*models.Tournament, error) {
	return s.repos.Tournament.List(ctx, s.repos.DB())
}

// CreateEventRequest carries the event setup payload.
type CreateEventRequest struct {
	Name              string           `json:"name" binding:"required"`
	Category          string           `json:"category"`
	TeamCount         int              `json:"team_count" binding:"required,min=2"`
	GuaranteeSelected int              `json:"guarantee_selected" binding:"required,oneof=4 5"`
	DrawPlan          *models.DrawPlan `json:"draw_plan"`
	ScheduleProfile   string           `json:"schedule_profile"`
	StandardMinutes   int              `json:"standard_minutes"`
	WaterfallMinutes  int              `json:"waterfall_minutes"`
}

// CreateEvent persists an event under a tournament.
func (s *TournamentService) CreateEvent(ctx context.Context, tournamentID string, req CreateEventRequest) (*models.Event, error) {
	tournament, err := s.repos.Tournament.GetByID(ctx, s.repos.DB(), tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament: %w", err)
	}
	if tournament == nil {
		return nil, apperr.NotFound(apperr.CodeTournamentNotFound, "tournament %s not found", tournamentID)
	}

	now := time.Now().UTC()
	event := &models.Event{
		ID:                utils.GenerateUUID(),
		TournamentID:      tournamentID,
		Name:              req.Name,
		Category:          req.Category,
		TeamCount:         req.TeamCount,
		GuaranteeSelected: req.GuaranteeSelected,
		DrawStatus:        models.DrawNotStarted,
		DrawPlan:          req.DrawPlan,
		ScheduleProfile:   req.ScheduleProfile,
		StandardMinutes:   req.StandardMinutes,
		WaterfallMinutes:  req.WaterfallMinutes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := event.Validate(); err != nil {
		return nil, apperr.Validation(apperr.CodeValidationFailed, "%v", err)
	}

	tx, err := s.repos.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.repos.Event.Create(ctx, tx, event); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return event, nil
}

// GetEvent loads an event by id.
func (s *TournamentService) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := s.repos.Event.GetByID(ctx, s.repos.DB(), eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return nil, apperr.NotFound(apperr.CodeEventNotFound, "event %s not found", eventID)
	}
	return event, nil
}

// ListEvents returns a tournament's events.
func (s *TournamentService) ListEvents(ctx context.Context, tournamentID string) ([]*models.Event, error) {
	return s.repos.Event.ListByTournament(ctx, s.repos.DB(), tournamentID)
}

// RegisterTeamRequest carries one team registration.
type RegisterTeamRequest struct {
	Name   string   `json:"name" binding:"required"`
	Seed   *int     `json:"seed"`
	Rating *float64 `json:"rating"`
}

// RegisterTeams adds teams to an event in one transaction.
func (s *TournamentService) RegisterTeams(ctx context.Context, eventID string, reqs []RegisterTeamRequest) ([]*models.Team, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	tx, err := s.repos.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	teams := make([]*models.Team, 0, len(reqs))
	for _, req := range reqs {
		registered := now
		team := &models.Team{
			ID:           utils.GenerateUUID(),
			EventID:      event.ID,
			Name:         req.Name,
			Seed:         req.Seed,
			Rating:       req.Rating,
			RegisteredAt: &registered,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := team.Validate(); err != nil {
			return nil, apperr.Validation(apperr.CodeValidationFailed, "%v", err)
		}
		if err := s.repos.Team.Create(ctx, tx, team); err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return teams, nil
}

// ListTeams returns an event's teams.
func (s *TournamentService) ListTeams(ctx context.Context, eventID string) ([]*models.Team, error) {
	return s.repos.Team.ListByEvent(ctx, s.repos.DB(), eventID)
}
