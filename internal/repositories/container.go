// internal/repositories/container.go
// Repository container for dependency injection

package repositories

import (
	"context"
	"database/sql"

	"github.com/oakleyfoy/rw-tournament-software-sub000/internal/database"
)

// Querier is satisfied by both *sql.DB and *sql.Tx so every repository
// method can run inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Container holds all repository instances
type Container struct {
	Tournament *TournamentRepository
	Event      *EventRepository
	Team       *TeamRepository
	AvoidEdge  *AvoidEdgeRepository
	Version    *VersionRepository
	Slot       *SlotRepository
	Match      *MatchRepository
	Assignment *AssignmentRepository
	db         *sql.DB
}

// NewContainer creates a new repository container
func NewContainer(conn *database.Connections) *Container {
	return &Container{
		Tournament: NewTournamentRepository(),
		Event:      NewEventRepository(),
		Team:       NewTeamRepository(),
		AvoidEdge:  NewAvoidEdgeRepository(),
		Version:    NewVersionRepository(),
		Slot:       NewSlotRepository(),
		Match:      NewMatchRepository(),
		Assignment: NewAssignmentRepository(),
		db:         conn.MySQL,
	}
}

// DB returns the connection pool for non-transactional reads.
func (c *Container) DB() Querier {
	return c.db
}

// BeginTx starts a new database transaction
func (c *Container) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return c.db.BeginTx(ctx, nil)
}
