// Package directory is the user/team lookup consumed by the keystroke
// pipeline. The Postgres implementation reads the same schema the REST
// backend owns (my_user, team, user_statistics); the in-memory implementation
// serves dev mode and tests.
package directory
