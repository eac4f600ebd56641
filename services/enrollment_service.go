package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arenahq/arena/cache"
	"github.com/arenahq/arena/models"
	"github.com/arenahq/arena/repositories"
	"github.com/arenahq/arena/rooms"
)

// RoomNotifier pushes events to waiting-room clients. Satisfied by
// *rooms.Hub; nil disables notifications.
type RoomNotifier interface {
	BroadcastToRoom(room string, event rooms.Event)
}

type JoinResult struct {
	Participant *models.Participant `json:"participant"`
	Tournament  *models.Tournament  `json:"tournament"`
	// NewBalance reflects the wallet after the entry-fee debit. When the
	// best-effort debit step failed it equals the pre-join balance.
	NewBalance int64 `json:"new_balance"`
}

type EnrollmentService interface {
	Join(ctx context.Context, userID, tournamentID int) (*JoinResult, error)
	Leave(ctx context.Context, userID, tournamentID int, confirmed bool) error
}

// enrollmentService owns the join/leave workflow: the one place that
// moves a (user, tournament) pair between "not joined" and "joined"
// while keeping the participant table, the player counter and the
// wallet ledger in agreement.
type enrollmentService struct {
	tx           repositories.TxRunner
	participants repositories.ParticipantRepository
	tournaments  repositories.TournamentRepository
	users        repositories.UserRepository
	transactions repositories.TransactionRepository
	cache        *cache.Cache
	notifier     RoomNotifier
	logger       *slog.Logger
}

func NewEnrollmentService(
	tx repositories.TxRunner,
	participants repositories.ParticipantRepository,
	tournaments repositories.TournamentRepository,
	users repositories.UserRepository,
	transactions repositories.TransactionRepository,
	c *cache.Cache,
	notifier RoomNotifier,
	logger *slog.Logger,
) EnrollmentService {
	return &enrollmentService{
		tx:           tx,
		participants: participants,
		tournaments:  tournaments,
		users:        users,
		transactions: transactions,
		cache:        c,
		notifier:     notifier,
		logger:       logger,
	}
}

// Join registers the user for the tournament. Preconditions are checked
// in a fixed order and abort with no side effects; after the participant
// insert succeeds the remaining bookkeeping steps are best-effort.
func (s *enrollmentService) Join(ctx context.Context, userID, tournamentID int) (*JoinResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrAuthRequired
		}
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	// Pre-check for an existing registration. This is an optimization
	// for a friendly error; the unique index enforced at insert time is
	// the real guard.
	_, err = s.participants.FindByUserAndTournament(ctx, userID, tournamentID)
	if err == nil {
		return nil, ErrAlreadyRegistered
	}
	if !errors.Is(err, repositories.ErrParticipantNotFound) {
		return nil, fmt.Errorf("failed to check existing registration: %w", err)
	}

	tournament, err := s.tournaments.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentUnavailable
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}
	if !tournament.Joinable() {
		return nil, ErrTournamentUnavailable
	}

	// Two users can both pass this check for the last slot; the guarded
	// counter update below keeps the counter itself honest.
	if tournament.CurrentPlayers >= tournament.MaxPlayers {
		return nil, ErrTournamentFull
	}

	if user.WalletBalance < tournament.EntryFee {
		return nil, ErrInsufficientBalance
	}

	participant := &models.Participant{
		TournamentID: tournamentID,
		UserID:       userID,
	}

	steps := []sagaStep{
		{
			name:     "insert_participant",
			critical: true,
			run: func(ctx context.Context) error {
				if err := s.participants.Create(ctx, nil, participant); err != nil {
					if errors.Is(err, repositories.ErrParticipantConflict) {
						// Lost a race with another join attempt by the
						// same user. The conflict is authoritative.
						return ErrAlreadyRegistered
					}
					return fmt.Errorf("%w: %v", ErrJoinFailed, err)
				}
				return nil
			},
		},
		{
			name: "increment_player_count",
			run: func(ctx context.Context) error {
				return s.tournaments.IncrementPlayerCount(ctx, nil, tournamentID)
			},
		},
		{
			name: "debit_wallet",
			run: func(ctx context.Context) error {
				if tournament.EntryFee == 0 {
					return nil
				}
				return s.tx.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
					if err := s.users.Debit(ctx, exec, userID, tournament.EntryFee); err != nil {
						return err
					}
					entry := &models.Transaction{
						UserID:      userID,
						Type:        models.TransactionTypeEntry,
						Amount:      -tournament.EntryFee,
						Description: fmt.Sprintf("Entry fee: %s", tournament.Name),
					}
					if err := s.transactions.Create(ctx, exec, entry); err != nil {
						return err
					}
					return s.users.IncrementTournamentsPlayed(ctx, exec, userID)
				})
			},
		},
	}

	results, err := runSaga(ctx, s.logger, "join", steps)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.InvalidateTournament(ctx, tournamentID)
		s.cache.InvalidateMyTournaments(ctx, userID)
	}
	if s.notifier != nil {
		s.notifier.BroadcastToRoom(rooms.RoomKey(tournamentID), rooms.Event{
			Type: rooms.EventPlayerJoined,
			Payload: map[string]interface{}{
				"user_id":   userID,
				"full_name": user.FullName,
			},
		})
	}

	newBalance := user.WalletBalance
	for _, res := range results {
		if res.name == "debit_wallet" && res.ok() && tournament.EntryFee > 0 {
			newBalance -= tournament.EntryFee
		}
	}

	return &JoinResult{
		Participant: participant,
		Tournament:  tournament,
		NewBalance:  newBalance,
	}, nil
}

// Leave removes the user's registration. The entry fee is forfeited, so
// the caller must pass an explicit confirmation. Removing a registration
// that does not exist succeeds as a no-op.
func (s *enrollmentService) Leave(ctx context.Context, userID, tournamentID int, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}

	removed, err := s.participants.DeleteByUserAndTournament(ctx, nil, userID, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to remove registration: %w", err)
	}
	if !removed {
		return nil
	}

	// Best-effort from here: the registration itself is already gone.
	if err := s.tournaments.DecrementPlayerCount(ctx, nil, tournamentID); err != nil {
		s.logger.Error("failed to decrement player count after leave",
			slog.Int("tournament_id", tournamentID),
			slog.Any("error", err))
	}

	if s.cache != nil {
		s.cache.InvalidateTournament(ctx, tournamentID)
		s.cache.InvalidateMyTournaments(ctx, userID)
	}
	if s.notifier != nil {
		s.notifier.BroadcastToRoom(rooms.RoomKey(tournamentID), rooms.Event{
			Type:    rooms.EventPlayerLeft,
			Payload: map[string]interface{}{"user_id": userID},
		})
	}

	return nil
}
