// internal/api/tournament_handlers.go
// Tournament and event setup HTTP handlers

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/services"
)

// HandleCreateTournament handles tournament creation
func HandleCreateTournament(tournamentService *services.TournamentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.CreateTournamentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
			return
		}

		tournament, err := tournamentService.CreateTournament(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"tournament": tournament})
	}
}

// HandleGetTournament retrieves a single tournament with its days
func HandleGetTournament(tournamentService *services.TournamentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tournament, err := tournamentService.GetTournament(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"tournament": tournament})
	}
}

// HandleListTournaments lists all tournaments
func HandleListTournaments(tournamentService *services.TournamentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tournaments, err := tournamentService.ListTournaments(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"tournaments": tournaments})
	}
}

// HandleCreateEvent creates an event under a tournament
func HandleCreateEvent(tournamentService *services.TournamentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.CreateEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
			return
		}

		event, err := tournamentService.CreateEvent(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"event": event})
	}
}

// HandleListEvents lists a tournament's events
func HandleListEvents(tournamentService *services.TournamentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := tournamentService.ListEvents(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"events": events})
	}
}

// HandleGetEvent retrieves a single event
func HandleGetEvent(tournamentService *services.TournamentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		event, err := tournamentService.GetEvent(c.Request.Context(), c.Param("eventId"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"event": event})
	}
}

// HandleRegisterTeams registers teams for an event
func HandleRegisterTeams(tournamentService *services.TournamentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Teams []services.RegisterTeamRequest `json:"teams" binding:"required,min=1,dive"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
			return
		}

		teams, err := tournamentService.RegisterTeams(c.Request.Context(), c.Param("eventId"), req.Teams)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"teams": teams, "count": len(teams)})
	}
}

// HandleListTeams lists an event's teams
func HandleListTeams(tournamentService *services.TournamentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		teams, err := tournamentService.ListTeams(c.Request.Context(), c.Param("eventId"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"teams": teams})
	}
}
