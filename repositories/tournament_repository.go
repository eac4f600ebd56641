package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/arenahq/arena/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentNameConflict = errors.New("tournament name conflict")
	ErrTournamentInUse        = errors.New("tournament is in use (participants exist)")
	// ErrTournamentCapacity is returned by IncrementPlayerCount when the
	// guarded update matched no row because the tournament is full.
	ErrTournamentCapacity = errors.New("tournament player count at capacity")
)

type ListTournamentsFilter struct {
	Status *models.TournamentStatus
	Game   *string
	Limit  int
	Offset int
}

// PlayerCountDrift reports a tournament whose denormalized
// current_players differs from the actual participant count.
type PlayerCountDrift struct {
	TournamentID   int
	CurrentPlayers int
	ActualPlayers  int
}

type TournamentRepository interface {
	Create(ctx context.Context, t *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	ListByIDs(ctx context.Context, ids []int) ([]models.Tournament, error)
	Update(ctx context.Context, t *models.Tournament) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error
	UpdateBannerKey(ctx context.Context, id int, bannerKey *string) error
	IncrementPlayerCount(ctx context.Context, exec SQLExecutor, id int) error
	DecrementPlayerCount(ctx context.Context, exec SQLExecutor, id int) error
	SetPlayerCount(ctx context.Context, exec SQLExecutor, id, count int) error
	ListCountDrift(ctx context.Context) ([]PlayerCountDrift, error)
	ListStartedBefore(ctx context.Context, cutoff time.Time) ([]*models.Tournament, error)
	Delete(ctx context.Context, id int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	id, name, game, entry_fee, prize_pool, max_players, current_players,
	status, start_time, room_id, room_password, banner_key, created_at`

func scanTournament(row interface{ Scan(dest ...interface{}) error }, t *models.Tournament) error {
	return row.Scan(
		&t.ID, &t.Name, &t.Game, &t.EntryFee, &t.PrizePool, &t.MaxPlayers, &t.CurrentPlayers,
		&t.Status, &t.StartTime, &t.RoomID, &t.RoomPassword, &t.BannerKey, &t.CreatedAt,
	)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (
			name, game, entry_fee, prize_pool, max_players, current_players,
			status, start_time, room_id, room_password, banner_key
		) VALUES ($1, $2, $3, $4, $5, 0, $6, $7, $8, $9, $10)
		RETURNING id, current_players, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Name, t.Game, t.EntryFee, t.PrizePool, t.MaxPlayers,
		t.Status, t.StartTime, t.RoomID, t.RoomPassword, t.BannerKey,
	).Scan(&t.ID, &t.CurrentPlayers, &t.CreatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t := &models.Tournament{}
	err := scanTournament(r.db.QueryRowContext(ctx, query, id), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.Game != nil {
		query += fmt.Sprintf(" AND game = $%d", argID)
		args = append(args, *filter.Game)
		argID++
	}

	query += " ORDER BY start_time ASC, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	return collectTournaments(rows)
}

// ListByIDs fetches tournament rows for the given ids in one query.
// Missing ids are simply absent from the result; the caller decides how
// to treat them.
func (r *postgresTournamentRepository) ListByIDs(ctx context.Context, ids []int) ([]models.Tournament, error) {
	if len(ids) == 0 {
		return []models.Tournament{}, nil
	}
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments by ids: %w", err)
	}
	defer rows.Close()

	return collectTournaments(rows)
}

func collectTournaments(rows *sql.Rows) ([]models.Tournament, error) {
	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if err := scanTournament(rows, &t); err != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tournament rows: %w", err)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			name = $1, game = $2, entry_fee = $3, prize_pool = $4,
			max_players = $5, status = $6, start_time = $7,
			room_id = $8, room_password = $9
		WHERE id = $10`

	result, err := r.db.ExecContext(ctx, query,
		t.Name, t.Game, t.EntryFee, t.PrizePool,
		t.MaxPlayers, t.Status, t.StartTime,
		t.RoomID, t.RoomPassword,
		t.ID,
	)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET status = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, status, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateBannerKey(ctx context.Context, id int, bannerKey *string) error {
	query := `UPDATE tournaments SET banner_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, bannerKey, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament banner key: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// IncrementPlayerCount bumps current_players by one, guarded so the
// counter can never exceed max_players even when two joins race past
// the service-level capacity pre-check.
func (r *postgresTournamentRepository) IncrementPlayerCount(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournaments
		SET current_players = current_players + 1
		WHERE id = $1 AND current_players < max_players`
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment player count: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentCapacity)
}

// DecrementPlayerCount lowers current_players by one, floored at zero.
// A no-op match (already zero, or unknown id) is not an error.
func (r *postgresTournamentRepository) DecrementPlayerCount(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournaments
		SET current_players = current_players - 1
		WHERE id = $1 AND current_players > 0`
	if _, err := executor.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to decrement player count: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) SetPlayerCount(ctx context.Context, exec SQLExecutor, id, count int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET current_players = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, count, id)
	if err != nil {
		return fmt.Errorf("failed to set player count: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// ListCountDrift compares current_players against the real participant
// count for every non-completed tournament.
func (r *postgresTournamentRepository) ListCountDrift(ctx context.Context) ([]PlayerCountDrift, error) {
	query := `
		SELECT t.id, t.current_players, COUNT(p.id)
		FROM tournaments t
		LEFT JOIN participants p ON p.tournament_id = t.id
		WHERE t.status NOT IN ($1, $2)
		GROUP BY t.id, t.current_players
		HAVING t.current_players <> COUNT(p.id)`

	rows, err := r.db.QueryContext(ctx, query, models.StatusCompleted, models.StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to query player count drift: %w", err)
	}
	defer rows.Close()

	drifts := make([]PlayerCountDrift, 0)
	for rows.Next() {
		var d PlayerCountDrift
		if err := rows.Scan(&d.TournamentID, &d.CurrentPlayers, &d.ActualPlayers); err != nil {
			return nil, fmt.Errorf("failed to scan drift row: %w", err)
		}
		drifts = append(drifts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating drift rows: %w", err)
	}
	return drifts, nil
}

// ListStartedBefore returns upcoming tournaments whose start time has
// passed, for the status scheduler.
func (r *postgresTournamentRepository) ListStartedBefore(ctx context.Context, cutoff time.Time) ([]*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE status = $1 AND start_time <= $2`

	rows, err := r.db.QueryContext(ctx, query, models.StatusUpcoming, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query started tournaments: %w", err)
	}
	defer rows.Close()

	var tournaments []*models.Tournament
	for rows.Next() {
		var t models.Tournament
		if err := scanTournament(rows, &t); err != nil {
			return nil, fmt.Errorf("failed to scan started tournament: %w", err)
		}
		tournaments = append(tournaments, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating started tournaments: %w", err)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM tournaments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505": // unique_violation
			if pqErr.Constraint == "tournaments_name_key" {
				return ErrTournamentNameConflict
			}
		case "23503": // foreign_key_violation
			return ErrTournamentInUse
		}
	}
	return err
}
