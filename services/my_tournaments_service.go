package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/arenahq/arena/cache"
	"github.com/arenahq/arena/models"
	"github.com/arenahq/arena/repositories"
	"github.com/jpillora/backoff"
	"golang.org/x/sync/singleflight"
)

const (
	myTournamentsLimit = 15

	// How long a caller waits before getting an empty answer while the
	// fetch keeps running in the background.
	defaultSoftTimeout = 10 * time.Second
	// Per-attempt budget for the background fetch itself.
	defaultFetchTimeout = 30 * time.Second
	defaultMaxAttempts  = 3
)

// MyTournamentsLister returns the tournaments a user has joined, merged
// with live tournament details, within a bounded time budget.
type MyTournamentsLister interface {
	List(ctx context.Context, userID int) ([]models.JoinedTournament, error)
}

// MyTournamentsCache is the slice of the cache this service reads and
// publishes into. Satisfied by *cache.Cache.
type MyTournamentsCache interface {
	GetMyTournaments(ctx context.Context, userID int) ([]models.JoinedTournament, bool)
	SetMyTournaments(ctx context.Context, userID int, list []models.JoinedTournament)
}

type listOutcome struct {
	list []models.JoinedTournament
	err  error
}

type myTournamentsService struct {
	participants repositories.ParticipantRepository
	tournaments  repositories.TournamentRepository
	cache        MyTournamentsCache
	logger       *slog.Logger

	softTimeout  time.Duration
	fetchTimeout time.Duration
	maxAttempts  int
	backoffMin   time.Duration
	backoffMax   time.Duration

	// Concurrent requests for the same user share one in-flight fetch.
	group singleflight.Group

	// Generation counter per user: a background fetch may only publish
	// its result if no newer request superseded it.
	mu  sync.Mutex
	gen map[int]uint64
}

func NewMyTournamentsService(
	participants repositories.ParticipantRepository,
	tournaments repositories.TournamentRepository,
	c *cache.Cache,
	logger *slog.Logger,
) *myTournamentsService {
	s := &myTournamentsService{
		participants: participants,
		tournaments:  tournaments,
		logger:       logger,
		softTimeout:  defaultSoftTimeout,
		fetchTimeout: defaultFetchTimeout,
		maxAttempts:  defaultMaxAttempts,
		backoffMin:   2 * time.Second,
		backoffMax:   8 * time.Second,
		gen:          make(map[int]uint64),
	}
	// A nil *cache.Cache must stay a nil interface.
	if c != nil {
		s.cache = c
	}
	return s
}

// List races the fetch against a soft timeout. When the timer wins, the
// caller gets the last cached result (possibly empty) immediately and
// the fetch continues in the background; its eventual result lands in
// the cache for the next read. Only non-timeout errors are surfaced.
func (s *myTournamentsService) List(ctx context.Context, userID int) ([]models.JoinedTournament, error) {
	if userID <= 0 {
		return []models.JoinedTournament{}, nil
	}

	ch := make(chan listOutcome, 1)
	go func() {
		v, err, _ := s.group.Do(strconv.Itoa(userID), func() (interface{}, error) {
			// Bump only when a fetch actually starts: callers that
			// join an in-flight fetch share its generation, so the
			// shared result still publishes for its latest joiner.
			gen := s.bumpGeneration(userID)
			return s.fetchWithRetry(userID, gen)
		})
		list, _ := v.([]models.JoinedTournament)
		ch <- listOutcome{list: list, err: err}
	}()

	timer := time.NewTimer(s.softTimeout)
	defer timer.Stop()

	select {
	case out := <-ch:
		if out.err != nil {
			if errors.Is(out.err, ErrConnectionTimeout) {
				// Soft policy: a timed-out fetch is not a user-visible
				// failure; the background continuation owns the retry.
				return []models.JoinedTournament{}, nil
			}
			return []models.JoinedTournament{}, out.err
		}
		return out.list, nil

	case <-timer.C:
		if s.cache != nil {
			if cached, ok := s.cache.GetMyTournaments(ctx, userID); ok {
				return cached, nil
			}
		}
		return []models.JoinedTournament{}, nil

	case <-ctx.Done():
		return []models.JoinedTournament{}, nil
	}
}

func (s *myTournamentsService) bumpGeneration(userID int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen[userID]++
	return s.gen[userID]
}

func (s *myTournamentsService) currentGeneration(userID int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen[userID]
}

// fetchWithRetry runs detached from the caller's context so a caller
// that stopped waiting does not cancel the work. Timeouts are retried
// on a doubling schedule; other errors fail fast.
func (s *myTournamentsService) fetchWithRetry(userID int, gen uint64) ([]models.JoinedTournament, error) {
	b := &backoff.Backoff{
		Min:    s.backoffMin,
		Max:    s.backoffMax,
		Factor: 2,
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), s.fetchTimeout)
		list, err := s.fetchOnce(ctx, userID)
		cancel()

		if err == nil {
			s.publish(userID, gen, list)
			return list, nil
		}

		lastErr = err
		if !errors.Is(err, ErrConnectionTimeout) || attempt == s.maxAttempts {
			break
		}

		delay := b.Duration()
		s.logger.Warn("my-tournaments fetch timed out, retrying",
			slog.Int("user_id", userID),
			slog.Int("attempt", attempt),
			slog.Duration("retry_in", delay))
		time.Sleep(delay)
	}

	return nil, lastErr
}

// publish writes the result into the cache unless a newer request for
// the same user has started since this fetch began.
func (s *myTournamentsService) publish(userID int, gen uint64, list []models.JoinedTournament) {
	if s.cache == nil {
		return
	}
	if s.currentGeneration(userID) != gen {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.cache.SetMyTournaments(ctx, userID, list)
}

// fetchOnce is the two-step pipeline: recent join records, then one
// batched tournament fetch, merged by id. A join record whose
// tournament no longer resolves is dropped and logged, never fatal.
func (s *myTournamentsService) fetchOnce(ctx context.Context, userID int) ([]models.JoinedTournament, error) {
	joins, err := s.participants.ListRecentByUser(ctx, userID, myTournamentsLimit)
	if err != nil {
		return nil, classifyFetchError("list participants", err)
	}
	if len(joins) == 0 {
		return []models.JoinedTournament{}, nil
	}

	ids := make([]int, 0, len(joins))
	for _, j := range joins {
		ids = append(ids, j.TournamentID)
	}

	tournaments, err := s.tournaments.ListByIDs(ctx, ids)
	if err != nil {
		return nil, classifyFetchError("list tournaments", err)
	}

	byID := make(map[int]models.Tournament, len(tournaments))
	for _, t := range tournaments {
		byID[t.ID] = t
	}

	merged := make([]models.JoinedTournament, 0, len(joins))
	for _, j := range joins {
		t, ok := byID[j.TournamentID]
		if !ok {
			s.logger.Warn("dropping orphaned join record",
				slog.Int("user_id", userID),
				slog.Int("tournament_id", j.TournamentID))
			continue
		}
		merged = append(merged, models.JoinedTournament{
			Tournament: t,
			JoinedAt:   j.JoinedAt,
		})
	}

	return merged, nil
}

func classifyFetchError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrConnectionTimeout, op)
	}
	return fmt.Errorf("%w: %s: %v", ErrDatabaseError, op, err)
}
