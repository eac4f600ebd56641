package models

import "time"

// Participant links one user to one tournament they have joined.
// (tournament_id, user_id) is unique at the database level; that
// constraint, not the service pre-check, is what prevents duplicate
// registrations under concurrency.
type Participant struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	UserID       int       `json:"user_id" db:"user_id"`
	JoinedAt     time.Time `json:"joined_at" db:"joined_at"`

	User *User `json:"user,omitempty" db:"-"`
}

// JoinedTournament is a participant row merged with its tournament,
// as returned by the my-tournaments pipeline.
type JoinedTournament struct {
	Tournament
	JoinedAt time.Time `json:"joined_at"`
}
