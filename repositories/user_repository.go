package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/arenahq/arena/models"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("user email conflict")
	// ErrInsufficientFunds is returned by Debit when the guarded update
	// matched no row because the balance would go negative.
	ErrInsufficientFunds = errors.New("wallet balance insufficient for debit")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdateAvatarKey(ctx context.Context, userID int, avatarKey *string) error
	Debit(ctx context.Context, exec SQLExecutor, userID int, amount int64) error
	Credit(ctx context.Context, exec SQLExecutor, userID int, amount int64) error
	IncrementTournamentsPlayed(ctx context.Context, exec SQLExecutor, userID int) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const userColumns = `
	id, email, full_name, password_hash, role, wallet_balance, avatar_key,
	total_kills, total_wins, total_tournaments, total_winnings, created_at`

func scanUser(row interface{ Scan(dest ...interface{}) error }, u *models.User) error {
	return row.Scan(
		&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.Role, &u.WalletBalance, &u.AvatarKey,
		&u.TotalKills, &u.TotalWins, &u.TotalTournaments, &u.TotalWinnings, &u.CreatedAt,
	)
}

// Create inserts a new account. Statistics and wallet balance start at
// zero; any demo seeding happens outside this path.
func (r *postgresUserRepository) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (email, full_name, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, wallet_balance, total_kills, total_wins, total_tournaments, total_winnings, created_at`

	err := r.db.QueryRowContext(ctx, query, u.Email, u.FullName, u.PasswordHash, u.Role).
		Scan(&u.ID, &u.WalletBalance, &u.TotalKills, &u.TotalWins, &u.TotalTournaments, &u.TotalWinnings, &u.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrUserEmailConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE email = $1`
	return r.findOne(ctx, query, email)
}

func (r *postgresUserRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	u := &models.User{}
	err := scanUser(r.db.QueryRowContext(ctx, query, args...), u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return u, nil
}

func (r *postgresUserRepository) UpdateProfile(ctx context.Context, u *models.User) error {
	query := `UPDATE users SET full_name = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, u.FullName, u.ID)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateAvatarKey(ctx context.Context, userID int, avatarKey *string) error {
	query := `UPDATE users SET avatar_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, avatarKey, userID)
	if err != nil {
		return fmt.Errorf("failed to update user avatar key: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

// Debit subtracts amount from the wallet, guarded so the balance can
// never go negative. The remote row is the source of truth; callers
// must treat a zero-row match as insufficient funds, not as "missing".
func (r *postgresUserRepository) Debit(ctx context.Context, exec SQLExecutor, userID int, amount int64) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE users
		SET wallet_balance = wallet_balance - $1
		WHERE id = $2 AND wallet_balance >= $1`
	result, err := executor.ExecContext(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to debit wallet: %w", err)
	}
	return checkAffectedRows(result, ErrInsufficientFunds)
}

func (r *postgresUserRepository) Credit(ctx context.Context, exec SQLExecutor, userID int, amount int64) error {
	executor := r.getExecutor(exec)
	query := `UPDATE users SET wallet_balance = wallet_balance + $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to credit wallet: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) IncrementTournamentsPlayed(ctx context.Context, exec SQLExecutor, userID int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE users SET total_tournaments = total_tournaments + 1 WHERE id = $1`
	result, err := executor.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to increment tournaments played: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}
