package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Postgres reads the user/team schema owned by the REST backend.
type Postgres struct {
	db *sqlx.DB
}

// OpenPostgres connects to the directory database.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("directory: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("directory: ping postgres: %w", err)
	}
	return &Postgres{db: db}, nil
}

// NewPostgresFromDB wraps an existing connection (tests).
func NewPostgresFromDB(db *sqlx.DB) *Postgres { return &Postgres{db: db} }

// Close releases the connection pool.
func (p *Postgres) Close() error { return p.db.Close() }

// DB exposes the underlying pool for collaborators sharing the schema.
func (p *Postgres) DB() *sqlx.DB { return p.db }

const findAuthorQuery = `
SELECT u.id, u.name, u.email, COALESCE(s.status, 'INACTIVE') AS status,
       t.id AS team_id, t.name AS team_name, t.leader_id, l.email AS leader_email
FROM my_user u
LEFT JOIN user_statistics s ON s.author_id = u.id
LEFT JOIN team t ON u.team_id = t.id
LEFT JOIN my_user l ON t.leader_id = l.id
WHERE u.id = $1`

type authorRow struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	Email       string         `db:"email"`
	Status      string         `db:"status"`
	TeamID      sql.NullInt64  `db:"team_id"`
	TeamName    sql.NullString `db:"team_name"`
	LeaderID    sql.NullInt64  `db:"leader_id"`
	LeaderEmail sql.NullString `db:"leader_email"`
}

// FindAuthor implements Directory.
func (p *Postgres) FindAuthor(ctx context.Context, id int64) (Author, bool, error) {
	var row authorRow
	err := p.db.GetContext(ctx, &row, findAuthorQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Author{}, false, nil
	}
	if err != nil {
		return Author{}, false, fmt.Errorf("directory: find author %d: %w", id, err)
	}
	a := Author{ID: row.ID, Name: row.Name, Email: row.Email, Status: Status(row.Status)}
	if row.TeamID.Valid {
		a.Team = &Team{
			ID:             row.TeamID.Int64,
			Name:           row.TeamName.String,
			LeaderID:       row.LeaderID.Int64,
			LeaderUsername: row.LeaderEmail.String,
		}
	}
	return a, true, nil
}

const findTeamQuery = `
SELECT t.id, t.name, t.leader_id, l.email AS leader_username
FROM team t
LEFT JOIN my_user l ON t.leader_id = l.id
WHERE t.id = $1`

// FindTeam implements Directory.
func (p *Postgres) FindTeam(ctx context.Context, id int64) (Team, bool, error) {
	var t Team
	err := p.db.GetContext(ctx, &t, findTeamQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Team{}, false, nil
	}
	if err != nil {
		return Team{}, false, fmt.Errorf("directory: find team %d: %w", id, err)
	}
	return t, true, nil
}

// SetAuthorStatus implements Directory. Status lives on the author's
// statistics row, matching the schema the REST backend maintains.
func (p *Postgres) SetAuthorStatus(ctx context.Context, id int64, status Status) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE user_statistics SET status = $1 WHERE author_id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("directory: set status for %d: %w", id, err)
	}
	return nil
}
