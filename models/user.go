package models

import "time"

type UserRole string

const (
	RolePlayer UserRole = "player"
	RoleAdmin  UserRole = "admin"
)

// User holds the account record, the wallet balance (source of truth
// for the ledger) and display statistics. Statistics start at zero for
// new accounts; demo data lives only in cmd/seed.
type User struct {
	ID            int      `json:"id" db:"id"`
	Email         string   `json:"email" db:"email"`
	FullName      string   `json:"full_name" db:"full_name"`
	PasswordHash  string   `json:"-" db:"password_hash"`
	Role          UserRole `json:"role" db:"role"`
	WalletBalance int64    `json:"wallet_balance" db:"wallet_balance"`
	AvatarKey     *string  `json:"-" db:"avatar_key"`
	AvatarURL     *string  `json:"avatar_url,omitempty" db:"-"`

	TotalKills       int   `json:"total_kills" db:"total_kills"`
	TotalWins        int   `json:"total_wins" db:"total_wins"`
	TotalTournaments int   `json:"total_tournaments" db:"total_tournaments"`
	TotalWinnings    int64 `json:"total_winnings" db:"total_winnings"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
