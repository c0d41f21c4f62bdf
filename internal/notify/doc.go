// Package notify delivers inactivity notifications to team leaders. The
// live path rides the fanout hub; persistence in Postgres is best-effort so
// a database outage never silences the push stream.
package notify
