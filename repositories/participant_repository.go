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
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrParticipantConflict is the authoritative duplicate-registration
	// signal: the unique (tournament_id, user_id) index rejected the
	// insert. The service-level pre-check is only an optimization.
	ErrParticipantConflict          = errors.New("participant conflict: user already registered for this tournament")
	ErrParticipantUserInvalid       = errors.New("participant user reference invalid")
	ErrParticipantTournamentInvalid = errors.New("participant tournament reference invalid")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error
	FindByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.Participant, error)
	ListRecentByUser(ctx context.Context, userID, limit int) ([]*models.Participant, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error)
	DeleteByUserAndTournament(ctx context.Context, exec SQLExecutor, userID, tournamentID int) (bool, error)
	CountByTournament(ctx context.Context, tournamentID int) (int, error)
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO participants (tournament_id, user_id)
		VALUES ($1, $2)
		RETURNING id, joined_at`

	err := executor.QueryRowContext(ctx, query, p.TournamentID, p.UserID).Scan(&p.ID, &p.JoinedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				return ErrParticipantConflict
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "participants_user_id_fkey":
					return ErrParticipantUserInvalid
				case "participants_tournament_id_fkey":
					return ErrParticipantTournamentInvalid
				}
			}
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

func (r *postgresParticipantRepository) scanParticipant(rowScanner interface {
	Scan(dest ...interface{}) error
}, p *models.Participant) error {
	return rowScanner.Scan(&p.ID, &p.TournamentID, &p.UserID, &p.JoinedAt)
}

func (r *postgresParticipantRepository) FindByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.Participant, error) {
	query := `
		SELECT id, tournament_id, user_id, joined_at
		FROM participants
		WHERE user_id = $1 AND tournament_id = $2`

	p := &models.Participant{}
	err := r.scanParticipant(r.db.QueryRowContext(ctx, query, userID, tournamentID), p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to find participant: %w", err)
	}
	return p, nil
}

// ListRecentByUser returns the user's join records, newest first,
// capped at limit. This is step A of the my-tournaments pipeline.
func (r *postgresParticipantRepository) ListRecentByUser(ctx context.Context, userID, limit int) ([]*models.Participant, error) {
	query := `
		SELECT id, tournament_id, user_id, joined_at
		FROM participants
		WHERE user_id = $1
		ORDER BY joined_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants by user: %w", err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if err := r.scanParticipant(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		participants = append(participants, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}
	return participants, nil
}

// ListByTournament returns the tournament roster with nested user
// display fields, for the waiting room.
func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	query := `
		SELECT
			p.id, p.tournament_id, p.user_id, p.joined_at,
			u.id, u.email, u.full_name, u.avatar_key
		FROM participants p
		JOIN users u ON p.user_id = u.id
		WHERE p.tournament_id = $1
		ORDER BY p.joined_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants by tournament: %w", err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		var u models.User
		if err := rows.Scan(
			&p.ID, &p.TournamentID, &p.UserID, &p.JoinedAt,
			&u.ID, &u.Email, &u.FullName, &u.AvatarKey,
		); err != nil {
			return nil, fmt.Errorf("failed to scan roster row: %w", err)
		}
		p.User = &u
		participants = append(participants, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roster rows: %w", err)
	}
	return participants, nil
}

// DeleteByUserAndTournament removes the join record. The boolean result
// reports whether a row existed; deleting a non-existent registration
// is not an error (leave is a no-op then).
func (r *postgresParticipantRepository) DeleteByUserAndTournament(ctx context.Context, exec SQLExecutor, userID, tournamentID int) (bool, error) {
	executor := r.getExecutor(exec)
	query := `DELETE FROM participants WHERE user_id = $1 AND tournament_id = $2`
	result, err := executor.ExecContext(ctx, query, userID, tournamentID)
	if err != nil {
		return false, fmt.Errorf("failed to delete participant: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows for participant deletion: %w", err)
	}
	return rowsAffected > 0, nil
}

func (r *postgresParticipantRepository) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	query := `SELECT COUNT(*) FROM participants WHERE tournament_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, tournamentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}
