package directory

import "context"

// Status is an author's runtime typing state.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Team groups authors under a leader who receives their live keystrokes.
type Team struct {
	ID             int64  `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	LeaderID       int64  `db:"leader_id" json:"leaderId"`
	LeaderUsername string `db:"leader_username" json:"leaderUsername"`
}

// Author is a typist. Team is nil for authors who have not joined one;
// events from such authors are dropped by the pipeline.
type Author struct {
	ID     int64  `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Email  string `db:"email" json:"email"`
	Status Status `db:"status" json:"status"`
	Team   *Team  `db:"-" json:"team,omitempty"`
}

// Username returns the author's login identifier. Logins are by email.
func (a Author) Username() string { return a.Email }

// IsTeamLeader reports whether the author leads their own team.
func (a Author) IsTeamLeader() bool {
	return a.Team != nil && a.Team.LeaderID == a.ID
}

// Directory resolves authors and teams and records runtime status. It is an
// external collaborator of the liveness core: lookups on the ingest path,
// status writes from the expiry reactor.
type Directory interface {
	// FindAuthor resolves an author with their team (if any). ok=false when
	// no such author exists; that is routine, not an error.
	FindAuthor(ctx context.Context, id int64) (Author, bool, error)

	// FindTeam resolves a team by id.
	FindTeam(ctx context.Context, id int64) (Team, bool, error)

	// SetAuthorStatus records the author's runtime state. Unknown authors are
	// a no-op.
	SetAuthorStatus(ctx context.Context, id int64, status Status) error
}
