// Command seed fills the database with clearly-labeled demo data for
// local development. Production signup never touches this path; real
// profiles always start with zeroed stats and an empty wallet.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/arenahq/arena/config"
	"github.com/arenahq/arena/db"
	"github.com/arenahq/arena/models"
	"github.com/arenahq/arena/repositories"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	demoBalance := flag.Int64("balance", 50_000, "starting wallet balance for demo players")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbConn.Close()

	ctx := context.Background()
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)

	hash, err := bcrypt.GenerateFromPassword([]byte("demo-password"), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash demo password", slog.Any("error", err))
		os.Exit(1)
	}

	for i := 1; i <= 5; i++ {
		user := &models.User{
			Email:        fmt.Sprintf("demo.player%d@example.com", i),
			FullName:     fmt.Sprintf("[DEMO] Player %d", i),
			PasswordHash: string(hash),
			Role:         models.RolePlayer,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			if errors.Is(err, repositories.ErrUserEmailConflict) {
				logger.Info("demo user already exists", slog.String("email", user.Email))
				continue
			}
			logger.Error("failed to create demo user", slog.Any("error", err))
			os.Exit(1)
		}
		if _, err := dbConn.ExecContext(ctx,
			`UPDATE users SET wallet_balance = $1 WHERE id = $2`, *demoBalance, user.ID); err != nil {
			logger.Error("failed to fund demo wallet", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("demo user created", slog.String("email", user.Email), slog.Int("id", user.ID))
	}

	roomID := "DEMO-ROOM-1"
	roomPassword := "demo-pass"
	tournaments := []*models.Tournament{
		{
			Name:       "[DEMO] Friday Night Firefight",
			Game:       "Free Fire",
			EntryFee:   500,
			PrizePool:  20_000,
			MaxPlayers: 48,
			Status:     models.StatusUpcoming,
			StartTime:  time.Now().Add(48 * time.Hour),
		},
		{
			Name:         "[DEMO] Midweek Scrims",
			Game:         "BGMI",
			EntryFee:     0,
			PrizePool:    5_000,
			MaxPlayers:   100,
			Status:       models.StatusUpcoming,
			StartTime:    time.Now().Add(24 * time.Hour),
			RoomID:       &roomID,
			RoomPassword: &roomPassword,
		},
	}
	for _, t := range tournaments {
		if err := tournamentRepo.Create(ctx, t); err != nil {
			if errors.Is(err, repositories.ErrTournamentNameConflict) {
				logger.Info("demo tournament already exists", slog.String("name", t.Name))
				continue
			}
			logger.Error("failed to create demo tournament", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("demo tournament created", slog.String("name", t.Name), slog.Int("id", t.ID))
	}

	logger.Info("seeding complete")
}
