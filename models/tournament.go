package models

import "time"

// TournamentStatus mirrors the tournament_status ENUM in the database.
type TournamentStatus string

const (
	StatusUpcoming  TournamentStatus = "upcoming"
	StatusLive      TournamentStatus = "live"
	StatusCompleted TournamentStatus = "completed"
	StatusCancelled TournamentStatus = "cancelled"
)

// Tournament is a scheduled competitive event with capacity, entry fee
// and prize pool. current_players is denormalized and kept in step with
// the participants table by the enrollment workflow plus a periodic
// reconciliation pass.
type Tournament struct {
	ID             int              `json:"id" db:"id"`
	Name           string           `json:"name" db:"name"`
	Game           string           `json:"game" db:"game"`
	EntryFee       int64            `json:"entry_fee" db:"entry_fee"`
	PrizePool      int64            `json:"prize_pool" db:"prize_pool"`
	MaxPlayers     int              `json:"max_players" db:"max_players"`
	CurrentPlayers int              `json:"current_players" db:"current_players"`
	Status         TournamentStatus `json:"status" db:"status"`
	StartTime      time.Time        `json:"start_time" db:"start_time"`
	RoomID         *string          `json:"room_id,omitempty" db:"room_id"`
	RoomPassword   *string          `json:"room_password,omitempty" db:"room_password"`
	BannerKey      *string          `json:"-" db:"banner_key"`
	BannerURL      *string          `json:"banner_url,omitempty" db:"-"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}

// Joinable reports whether new registrations are accepted at all.
// Capacity and balance checks live in the enrollment workflow.
func (t *Tournament) Joinable() bool {
	return t.Status == StatusUpcoming || t.Status == StatusLive
}

// HideRoomCredentials strips the room id/password for viewers that have
// not joined the tournament.
func (t *Tournament) HideRoomCredentials() {
	t.RoomID = nil
	t.RoomPassword = nil
}
