package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/arenahq/arena/models"
	"github.com/arenahq/arena/repositories"
	"github.com/arenahq/arena/rooms"
)

// In-memory fakes for the repository interfaces. The real repositories
// are thin database/sql wrappers; these reproduce their documented
// error contracts so services can be exercised without Postgres.

type fakeTxRunner struct {
	failWith error
	calls    int
}

func (f *fakeTxRunner) RunInTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	f.calls++
	if f.failWith != nil {
		return f.failWith
	}
	return fn(nil)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[int]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	m := make(map[int]*models.User)
	for _, u := range users {
		m[u.ID] = u
	}
	return &fakeUserRepo{users: m}
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	user.ID = len(f.users) + 1
	user.CreatedAt = time.Now()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[user.ID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.FullName = user.FullName
	return nil
}

func (f *fakeUserRepo) UpdateAvatarKey(_ context.Context, userID int, avatarKey *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.AvatarKey = avatarKey
	return nil
}

func (f *fakeUserRepo) Debit(_ context.Context, _ repositories.SQLExecutor, userID int, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	if u.WalletBalance < amount {
		return repositories.ErrInsufficientFunds
	}
	u.WalletBalance -= amount
	return nil
}

func (f *fakeUserRepo) Credit(_ context.Context, _ repositories.SQLExecutor, userID int, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.WalletBalance += amount
	return nil
}

func (f *fakeUserRepo) IncrementTournamentsPlayed(_ context.Context, _ repositories.SQLExecutor, userID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.TotalTournaments++
	return nil
}

func (f *fakeUserRepo) balance(userID int) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[userID].WalletBalance
}

type fakeTournamentRepo struct {
	mu          sync.Mutex
	tournaments map[int]*models.Tournament
	nextID      int

	drifts       []repositories.PlayerCountDrift
	incrementErr error
	listByIDsErr error
}

func newFakeTournamentRepo(ts ...*models.Tournament) *fakeTournamentRepo {
	m := make(map[int]*models.Tournament)
	next := 1
	for _, t := range ts {
		m[t.ID] = t
		if t.ID >= next {
			next = t.ID + 1
		}
	}
	return &fakeTournamentRepo{tournaments: m, nextID: next}
}

func (f *fakeTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.tournaments {
		if existing.Name == t.Name {
			return repositories.ErrTournamentNameConflict
		}
	}
	t.ID = f.nextID
	f.nextID++
	t.CreatedAt = time.Now()
	f.tournaments[t.ID] = t
	return nil
}

func (f *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTournamentRepo) List(_ context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Tournament, 0, len(f.tournaments))
	for _, t := range f.tournaments {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Game != nil && t.Game != *filter.Game {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTournamentRepo) ListByIDs(_ context.Context, ids []int) ([]models.Tournament, error) {
	if f.listByIDsErr != nil {
		return nil, f.listByIDsErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Tournament, 0, len(ids))
	for _, id := range ids {
		if t, ok := f.tournaments[id]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTournamentRepo) Update(_ context.Context, t *models.Tournament) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tournaments[t.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	cp := *t
	f.tournaments[t.ID] = &cp
	return nil
}

func (f *fakeTournamentRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (f *fakeTournamentRepo) UpdateBannerKey(_ context.Context, id int, bannerKey *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.BannerKey = bannerKey
	return nil
}

func (f *fakeTournamentRepo) IncrementPlayerCount(_ context.Context, _ repositories.SQLExecutor, id int) error {
	if f.incrementErr != nil {
		return f.incrementErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if t.CurrentPlayers >= t.MaxPlayers {
		return repositories.ErrTournamentCapacity
	}
	t.CurrentPlayers++
	return nil
}

func (f *fakeTournamentRepo) DecrementPlayerCount(_ context.Context, _ repositories.SQLExecutor, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if t.CurrentPlayers > 0 {
		t.CurrentPlayers--
	}
	return nil
}

func (f *fakeTournamentRepo) SetPlayerCount(_ context.Context, _ repositories.SQLExecutor, id, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.CurrentPlayers = count
	return nil
}

func (f *fakeTournamentRepo) ListCountDrift(_ context.Context) ([]repositories.PlayerCountDrift, error) {
	return f.drifts, nil
}

func (f *fakeTournamentRepo) ListStartedBefore(_ context.Context, cutoff time.Time) ([]*models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Tournament
	for _, t := range f.tournaments {
		if t.Status == models.StatusUpcoming && t.StartTime.Before(cutoff) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeTournamentRepo) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(f.tournaments, id)
	return nil
}

func (f *fakeTournamentRepo) playerCount(id int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tournaments[id].CurrentPlayers
}

type fakeParticipantRepo struct {
	mu     sync.Mutex
	rows   []*models.Participant
	nextID int

	createErr      error
	listRecentErr  error
	listRecentWait time.Duration
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{nextID: 1}
}

func (f *fakeParticipantRepo) Create(_ context.Context, _ repositories.SQLExecutor, p *models.Participant) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.UserID == p.UserID && row.TournamentID == p.TournamentID {
			return repositories.ErrParticipantConflict
		}
	}
	p.ID = f.nextID
	f.nextID++
	p.JoinedAt = time.Now()
	cp := *p
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeParticipantRepo) FindByUserAndTournament(_ context.Context, userID, tournamentID int) (*models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.UserID == userID && row.TournamentID == tournamentID {
			cp := *row
			return &cp, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (f *fakeParticipantRepo) ListRecentByUser(ctx context.Context, userID, limit int) ([]*models.Participant, error) {
	if f.listRecentWait > 0 {
		select {
		case <-time.After(f.listRecentWait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.listRecentErr != nil {
		return nil, f.listRecentErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Participant
	for _, row := range f.rows {
		if row.UserID == userID {
			cp := *row
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.After(out[j].JoinedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeParticipantRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Participant
	for _, row := range f.rows {
		if row.TournamentID == tournamentID {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeParticipantRepo) DeleteByUserAndTournament(_ context.Context, _ repositories.SQLExecutor, userID, tournamentID int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, row := range f.rows {
		if row.UserID == userID && row.TournamentID == tournamentID {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeParticipantRepo) CountByTournament(_ context.Context, tournamentID int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, row := range f.rows {
		if row.TournamentID == tournamentID {
			n++
		}
	}
	return n, nil
}

func (f *fakeParticipantRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeTransactionRepo struct {
	mu        sync.Mutex
	entries   []*models.Transaction
	createErr error
}

func (f *fakeTransactionRepo) Create(_ context.Context, _ repositories.SQLExecutor, t *models.Transaction) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = len(f.entries) + 1
	t.CreatedAt = time.Now()
	cp := *t
	f.entries = append(f.entries, &cp)
	return nil
}

func (f *fakeTransactionRepo) ListByUser(_ context.Context, userID, limit, offset int) ([]*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Transaction
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].UserID == userID {
			cp := *f.entries[i]
			out = append(out, &cp)
		}
	}
	if offset < len(out) {
		out = out[offset:]
	} else {
		out = nil
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeTransactionRepo) byUser(userID int) []*models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Transaction
	for _, e := range f.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

type fakePaymentOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*models.PaymentOrder
}

func newFakePaymentOrderRepo() *fakePaymentOrderRepo {
	return &fakePaymentOrderRepo{orders: make(map[string]*models.PaymentOrder)}
}

func (f *fakePaymentOrderRepo) Create(_ context.Context, o *models.PaymentOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[o.OrderID]; ok {
		return repositories.ErrPaymentOrderConflict
	}
	o.CreatedAt = time.Now()
	cp := *o
	f.orders[o.OrderID] = &cp
	return nil
}

func (f *fakePaymentOrderRepo) GetByOrderID(_ context.Context, orderID string) (*models.PaymentOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, repositories.ErrPaymentOrderNotFound
	}
	cp := *o
	return &cp, nil
}

// Settle only transitions out of the created state, matching the
// guarded UPDATE in the real repository.
func (f *fakePaymentOrderRepo) Settle(_ context.Context, _ repositories.SQLExecutor, orderID string, status models.PaymentOrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok || o.Status != models.PaymentOrderCreated {
		return repositories.ErrPaymentOrderSettled
	}
	o.Status = status
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []rooms.Event
}

func (f *fakeNotifier) BroadcastToRoom(room string, event rooms.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event.Room = room
	f.events = append(f.events, event)
}

func (f *fakeNotifier) eventTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}
