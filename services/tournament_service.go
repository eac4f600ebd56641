package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/arenahq/arena/cache"
	"github.com/arenahq/arena/models"
	"github.com/arenahq/arena/repositories"
	"github.com/arenahq/arena/rooms"
	"github.com/arenahq/arena/storage"
	"github.com/google/uuid"
)

// CreateTournamentInput carries the admin-provided fields for a new
// tournament. Status always starts as upcoming.
type CreateTournamentInput struct {
	Name         string
	Game         string
	EntryFee     int64
	PrizePool    int64
	MaxPlayers   int
	StartTime    time.Time
	RoomID       *string
	RoomPassword *string
}

// UpdateTournamentInput uses pointers so absent fields are left as is.
type UpdateTournamentInput struct {
	Name         *string
	Game         *string
	EntryFee     *int64
	PrizePool    *int64
	MaxPlayers   *int
	StartTime    *time.Time
	RoomID       *string
	RoomPassword *string
	Status       *models.TournamentStatus
}

type TournamentService interface {
	List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	GetForViewer(ctx context.Context, id, viewerID int) (*models.Tournament, error)
	Roster(ctx context.Context, tournamentID int) ([]*models.Participant, error)

	Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	Update(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error)
	Delete(ctx context.Context, id int) error
	UploadBanner(ctx context.Context, id int, contentType string, file io.Reader) (*models.Tournament, error)

	ReconcilePlayerCounts(ctx context.Context) error
	AdvanceStatuses(ctx context.Context, now time.Time) error
}

type tournamentService struct {
	tournaments  repositories.TournamentRepository
	participants repositories.ParticipantRepository
	uploader     storage.FileUploader
	cache        *cache.Cache
	notifier     RoomNotifier
	logger       *slog.Logger
}

func NewTournamentService(
	tournaments repositories.TournamentRepository,
	participants repositories.ParticipantRepository,
	uploader storage.FileUploader,
	c *cache.Cache,
	notifier RoomNotifier,
	logger *slog.Logger,
) *tournamentService {
	return &tournamentService{
		tournaments:  tournaments,
		participants: participants,
		uploader:     uploader,
		cache:        c,
		notifier:     notifier,
		logger:       logger,
	}
}

// List serves the catalog. The unpaginated first page per (status,game)
// is cached; deeper pages always hit the database.
func (s *tournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	// Only the unpaginated, game-unfiltered lists are cached: those are
	// the keys InvalidateTournament can enumerate.
	cacheable := s.cache != nil && filter.Offset == 0 && filter.Limit == 0 && filter.Game == nil

	statusKey, gameKey := "", ""
	if filter.Status != nil {
		statusKey = string(*filter.Status)
	}
	if filter.Game != nil {
		gameKey = *filter.Game
	}

	if cacheable {
		if list, ok := s.cache.GetCatalog(ctx, statusKey, gameKey); ok {
			s.sanitizeList(list)
			return list, nil
		}
	}

	list, err := s.tournaments.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	if cacheable {
		s.cache.SetCatalog(ctx, statusKey, gameKey, list)
	}
	s.sanitizeList(list)
	return list, nil
}

func (s *tournamentService) sanitizeList(list []models.Tournament) {
	for i := range list {
		list[i].HideRoomCredentials()
		s.populateBannerURL(&list[i])
	}
}

// GetForViewer returns the tournament with room credentials included
// only when the viewer has joined it. viewerID 0 means anonymous.
func (s *tournamentService) GetForViewer(ctx context.Context, id, viewerID int) (*models.Tournament, error) {
	t, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}

	joined := false
	if viewerID > 0 {
		p, err := s.participants.FindByUserAndTournament(ctx, viewerID, id)
		if err != nil && !errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, fmt.Errorf("check participation: %w", err)
		}
		joined = p != nil
	}
	if !joined {
		t.HideRoomCredentials()
	}
	s.populateBannerURL(t)
	return t, nil
}

func (s *tournamentService) getTournament(ctx context.Context, id int) (*models.Tournament, error) {
	if s.cache != nil {
		if t, ok := s.cache.GetTournament(ctx, id); ok {
			return t, nil
		}
	}
	t, err := s.tournaments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("get tournament: %w", err)
	}
	if s.cache != nil {
		s.cache.SetTournament(ctx, t)
	}
	cp := *t
	return &cp, nil
}

func (s *tournamentService) Roster(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	if _, err := s.getTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	roster, err := s.participants.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	for _, p := range roster {
		if p.User != nil {
			s.populateAvatarURL(p.User)
		}
	}
	return roster, nil
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	t := &models.Tournament{
		Name:         input.Name,
		Game:         input.Game,
		EntryFee:     input.EntryFee,
		PrizePool:    input.PrizePool,
		MaxPlayers:   input.MaxPlayers,
		Status:       models.StatusUpcoming,
		StartTime:    input.StartTime,
		RoomID:       input.RoomID,
		RoomPassword: input.RoomPassword,
	}
	if err := validateTournament(t); err != nil {
		return nil, err
	}

	if err := s.tournaments.Create(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameConflict
		}
		return nil, fmt.Errorf("create tournament: %w", err)
	}
	s.invalidate(ctx, t.ID)
	return t, nil
}

func (s *tournamentService) Update(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error) {
	t, err := s.tournaments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("get tournament: %w", err)
	}

	if input.Name != nil {
		t.Name = *input.Name
	}
	if input.Game != nil {
		t.Game = *input.Game
	}
	if input.EntryFee != nil {
		t.EntryFee = *input.EntryFee
	}
	if input.PrizePool != nil {
		t.PrizePool = *input.PrizePool
	}
	if input.MaxPlayers != nil {
		t.MaxPlayers = *input.MaxPlayers
	}
	if input.StartTime != nil {
		t.StartTime = *input.StartTime
	}
	if input.RoomID != nil {
		t.RoomID = input.RoomID
	}
	if input.RoomPassword != nil {
		t.RoomPassword = input.RoomPassword
	}
	if input.Status != nil {
		if !isValidStatus(*input.Status) {
			return nil, ErrTournamentInvalidStatus
		}
		if *input.Status != t.Status && !isValidStatusTransition(t.Status, *input.Status) {
			return nil, ErrTournamentInvalidStatusTransition
		}
		t.Status = *input.Status
	}
	if err := validateTournament(t); err != nil {
		return nil, err
	}

	if err := s.tournaments.Update(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameConflict
		}
		return nil, fmt.Errorf("update tournament: %w", err)
	}

	s.invalidate(ctx, id)
	s.broadcastUpdated(t)
	s.populateBannerURL(t)
	return t, nil
}

func (s *tournamentService) Delete(ctx context.Context, id int) error {
	if err := s.tournaments.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("delete tournament: %w", err)
	}
	s.invalidate(ctx, id)
	return nil
}

// UploadBanner stores the image under a fresh key, points the
// tournament at it and only then removes the previous object.
func (s *tournamentService) UploadBanner(ctx context.Context, id int, contentType string, file io.Reader) (*models.Tournament, error) {
	t, err := s.tournaments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("get tournament: %w", err)
	}

	ext, err := extensionForContentType(contentType)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("tournaments/banners/%d-%s%s", id, uuid.NewString(), ext)

	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("upload banner: %w", err)
	}

	oldKey := t.BannerKey
	if err := s.tournaments.UpdateBannerKey(ctx, id, &key); err != nil {
		if derr := s.uploader.Delete(ctx, key); derr != nil {
			s.logger.Error("failed to clean up orphaned banner",
				slog.String("key", key), slog.Any("error", derr))
		}
		return nil, fmt.Errorf("update banner key: %w", err)
	}
	if oldKey != nil && *oldKey != key {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.Warn("failed to delete previous banner",
				slog.String("key", *oldKey), slog.Any("error", err))
		}
	}

	t.BannerKey = &key
	s.invalidate(ctx, id)
	s.populateBannerURL(t)
	return t, nil
}

// ReconcilePlayerCounts recounts participants per tournament and
// repairs drift left behind by swallowed best-effort counter updates.
func (s *tournamentService) ReconcilePlayerCounts(ctx context.Context) error {
	drifts, err := s.tournaments.ListCountDrift(ctx)
	if err != nil {
		return fmt.Errorf("list counter drift: %w", err)
	}
	for _, d := range drifts {
		if err := s.tournaments.SetPlayerCount(ctx, nil, d.TournamentID, d.ActualPlayers); err != nil {
			s.logger.Error("failed to repair player count",
				slog.Int("tournament_id", d.TournamentID),
				slog.Any("error", err))
			continue
		}
		s.logger.Info("repaired player count drift",
			slog.Int("tournament_id", d.TournamentID),
			slog.Int("recorded", d.CurrentPlayers),
			slog.Int("actual", d.ActualPlayers))
		s.invalidate(ctx, d.TournamentID)
	}
	return nil
}

// AdvanceStatuses flips upcoming tournaments whose start time has
// passed to live. Completion stays a manual admin action.
func (s *tournamentService) AdvanceStatuses(ctx context.Context, now time.Time) error {
	started, err := s.tournaments.ListStartedBefore(ctx, now)
	if err != nil {
		return fmt.Errorf("list started tournaments: %w", err)
	}
	for _, t := range started {
		if err := s.tournaments.UpdateStatus(ctx, nil, t.ID, models.StatusLive); err != nil {
			s.logger.Error("failed to advance tournament status",
				slog.Int("tournament_id", t.ID),
				slog.Any("error", err))
			continue
		}
		s.logger.Info("tournament went live", slog.Int("tournament_id", t.ID), slog.String("name", t.Name))
		s.invalidate(ctx, t.ID)
		t.Status = models.StatusLive
		s.broadcastUpdated(t)
	}
	return nil
}

func (s *tournamentService) broadcastUpdated(t *models.Tournament) {
	if s.notifier == nil {
		return
	}
	s.notifier.BroadcastToRoom(rooms.RoomKey(t.ID), rooms.Event{
		Type: rooms.EventTournamentUpdated,
		Payload: map[string]interface{}{
			"tournament_id": t.ID,
			"status":        t.Status,
			"start_time":    t.StartTime,
		},
	})
}

func (s *tournamentService) invalidate(ctx context.Context, id int) {
	if s.cache != nil {
		s.cache.InvalidateTournament(ctx, id)
	}
}

func (s *tournamentService) populateBannerURL(t *models.Tournament) {
	if t.BannerKey != nil && s.uploader != nil {
		url := s.uploader.GetPublicURL(*t.BannerKey)
		t.BannerURL = &url
	}
}

func (s *tournamentService) populateAvatarURL(u *models.User) {
	if u.AvatarKey != nil && s.uploader != nil {
		url := s.uploader.GetPublicURL(*u.AvatarKey)
		u.AvatarURL = &url
	}
}

func validateTournament(t *models.Tournament) error {
	if t.Name == "" {
		return ErrTournamentNameRequired
	}
	if t.Game == "" {
		return ErrTournamentGameRequired
	}
	if t.MaxPlayers <= 0 {
		return ErrTournamentInvalidCapacity
	}
	if t.EntryFee < 0 {
		return ErrTournamentInvalidFee
	}
	if t.PrizePool < 0 {
		return ErrTournamentInvalidPrizePool
	}
	return nil
}

func isValidStatus(s models.TournamentStatus) bool {
	switch s {
	case models.StatusUpcoming, models.StatusLive, models.StatusCompleted, models.StatusCancelled:
		return true
	}
	return false
}

// Lifecycle moves forward only: upcoming -> live -> completed, with
// cancellation allowed until completion.
func isValidStatusTransition(from, to models.TournamentStatus) bool {
	switch from {
	case models.StatusUpcoming:
		return to == models.StatusLive || to == models.StatusCancelled
	case models.StatusLive:
		return to == models.StatusCompleted || to == models.StatusCancelled
	default:
		return false
	}
}

func extensionForContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/webp":
		return ".webp", nil
	default:
		return "", fmt.Errorf("unsupported image content type %q", contentType)
	}
}
