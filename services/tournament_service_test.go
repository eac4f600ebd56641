package services

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/arenahq/arena/models"
	"github.com/arenahq/arena/repositories"
	"github.com/arenahq/arena/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	uploaded []string
	deleted  []string
}

func (f *fakeUploader) Upload(_ context.Context, key, _ string, _ io.Reader) (*storage.UploadResult, error) {
	f.uploaded = append(f.uploaded, key)
	return &storage.UploadResult{Key: key, Location: "https://cdn.example.com/" + key}, nil
}

func (f *fakeUploader) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

type tournamentFixture struct {
	svc          *tournamentService
	tournaments  *fakeTournamentRepo
	participants *fakeParticipantRepo
	uploader     *fakeUploader
	notifier     *fakeNotifier
}

func newTournamentFixture(ts ...*models.Tournament) *tournamentFixture {
	f := &tournamentFixture{
		tournaments:  newFakeTournamentRepo(ts...),
		participants: newFakeParticipantRepo(),
		uploader:     &fakeUploader{},
		notifier:     &fakeNotifier{},
	}
	f.svc = NewTournamentService(f.tournaments, f.participants, f.uploader, nil, f.notifier, discardLogger())
	return f
}

func validCreateInput() CreateTournamentInput {
	return CreateTournamentInput{
		Name:       "Weekend Clash",
		Game:       "BGMI",
		EntryFee:   250,
		PrizePool:  10000,
		MaxPlayers: 64,
		StartTime:  time.Now().Add(24 * time.Hour),
	}
}

func TestCreateTournament(t *testing.T) {
	f := newTournamentFixture()

	created, err := f.svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, models.StatusUpcoming, created.Status)
	assert.Zero(t, created.CurrentPlayers)
}

func TestCreateTournamentValidation(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*CreateTournamentInput)
		wantErr error
	}{
		{"missing name", func(in *CreateTournamentInput) { in.Name = "" }, ErrTournamentNameRequired},
		{"missing game", func(in *CreateTournamentInput) { in.Game = "" }, ErrTournamentGameRequired},
		{"zero capacity", func(in *CreateTournamentInput) { in.MaxPlayers = 0 }, ErrTournamentInvalidCapacity},
		{"negative fee", func(in *CreateTournamentInput) { in.EntryFee = -1 }, ErrTournamentInvalidFee},
		{"negative prize pool", func(in *CreateTournamentInput) { in.PrizePool = -1 }, ErrTournamentInvalidPrizePool},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newTournamentFixture()
			input := validCreateInput()
			tc.mutate(&input)

			_, err := f.svc.Create(context.Background(), input)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestCreateTournamentNameConflict(t *testing.T) {
	f := newTournamentFixture()

	_, err := f.svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), validCreateInput())
	require.ErrorIs(t, err, ErrTournamentNameConflict)
}

func TestUpdateStatusTransitions(t *testing.T) {
	cases := []struct {
		from models.TournamentStatus
		to   models.TournamentStatus
		ok   bool
	}{
		{models.StatusUpcoming, models.StatusLive, true},
		{models.StatusUpcoming, models.StatusCancelled, true},
		{models.StatusUpcoming, models.StatusCompleted, false},
		{models.StatusLive, models.StatusCompleted, true},
		{models.StatusLive, models.StatusCancelled, true},
		{models.StatusLive, models.StatusUpcoming, false},
		{models.StatusCompleted, models.StatusLive, false},
		{models.StatusCancelled, models.StatusUpcoming, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			tournament := testTournament()
			tournament.Status = tc.from
			f := newTournamentFixture(tournament)

			_, err := f.svc.Update(context.Background(), tournament.ID, UpdateTournamentInput{Status: &tc.to})
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrTournamentInvalidStatusTransition)
			}
		})
	}
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	tournament := testTournament()
	f := newTournamentFixture(tournament)

	bogus := models.TournamentStatus("archived")
	_, err := f.svc.Update(context.Background(), tournament.ID, UpdateTournamentInput{Status: &bogus})
	require.ErrorIs(t, err, ErrTournamentInvalidStatus)
}

func TestGetForViewerHidesRoomCredentials(t *testing.T) {
	roomID, roomPassword := "RM-778", "hunter2"
	tournament := testTournament()
	tournament.RoomID = &roomID
	tournament.RoomPassword = &roomPassword
	f := newTournamentFixture(tournament)

	// Anonymous viewer.
	got, err := f.svc.GetForViewer(context.Background(), tournament.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, got.RoomID)
	assert.Nil(t, got.RoomPassword)

	// Authenticated but not joined.
	got, err = f.svc.GetForViewer(context.Background(), tournament.ID, 1)
	require.NoError(t, err)
	assert.Nil(t, got.RoomID)

	// Joined viewer sees the credentials.
	require.NoError(t, f.participants.Create(context.Background(), nil, &models.Participant{
		UserID:       1,
		TournamentID: tournament.ID,
	}))
	got, err = f.svc.GetForViewer(context.Background(), tournament.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, got.RoomID)
	assert.Equal(t, roomID, *got.RoomID)
	require.NotNil(t, got.RoomPassword)
	assert.Equal(t, roomPassword, *got.RoomPassword)
}

func TestListHidesRoomCredentials(t *testing.T) {
	roomID := "RM-778"
	tournament := testTournament()
	tournament.RoomID = &roomID
	f := newTournamentFixture(tournament)

	list, err := f.svc.List(context.Background(), repositories.ListTournamentsFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].RoomID)
}

func TestReconcileRepairsDrift(t *testing.T) {
	tournament := testTournament()
	tournament.CurrentPlayers = 7
	f := newTournamentFixture(tournament)
	f.tournaments.drifts = []repositories.PlayerCountDrift{
		{TournamentID: tournament.ID, CurrentPlayers: 7, ActualPlayers: 5},
	}

	require.NoError(t, f.svc.ReconcilePlayerCounts(context.Background()))
	assert.Equal(t, 5, f.tournaments.playerCount(tournament.ID))
}

func TestAdvanceStatuses(t *testing.T) {
	started := testTournament()
	started.StartTime = time.Now().Add(-time.Minute)
	future := testTournament()
	future.ID = 11
	future.Name = "Later"
	future.StartTime = time.Now().Add(time.Hour)
	f := newTournamentFixture(started, future)

	require.NoError(t, f.svc.AdvanceStatuses(context.Background(), time.Now()))

	got, err := f.tournaments.GetByID(context.Background(), started.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusLive, got.Status)

	got, err = f.tournaments.GetByID(context.Background(), future.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpcoming, got.Status)
}

func TestUploadBannerReplacesOldKey(t *testing.T) {
	oldKey := "tournaments/banners/stale.jpg"
	tournament := testTournament()
	tournament.BannerKey = &oldKey
	f := newTournamentFixture(tournament)

	got, err := f.svc.UploadBanner(context.Background(), tournament.ID, "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	require.Len(t, f.uploader.uploaded, 1)
	assert.True(t, strings.HasSuffix(f.uploader.uploaded[0], ".png"))
	assert.Equal(t, []string{oldKey}, f.uploader.deleted)
	require.NotNil(t, got.BannerURL)
	assert.Contains(t, *got.BannerURL, f.uploader.uploaded[0])
}

func TestUploadBannerRejectsUnknownContentType(t *testing.T) {
	tournament := testTournament()
	f := newTournamentFixture(tournament)

	_, err := f.svc.UploadBanner(context.Background(), tournament.ID, "application/pdf", strings.NewReader("x"))
	require.Error(t, err)
	assert.Empty(t, f.uploader.uploaded)
}
