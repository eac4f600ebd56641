// Package cache is a thin redis layer for read-heavy views: the
// tournament catalog and each user's joined-tournaments list. Values
// are JSON blobs with short TTLs; the database remains the source of
// truth and every write path invalidates the affected keys.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arenahq/arena/models"
	"github.com/redis/go-redis/v9"
)

const (
	catalogTTL       = 30 * time.Second
	tournamentTTL    = 30 * time.Second
	myTournamentsTTL = 5 * time.Minute
)

type Cache struct {
	client *redis.Client
}

func New(addr, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Cache{client: client}, nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) GetTournament(ctx context.Context, id int) (*models.Tournament, bool) {
	var t models.Tournament
	if !c.getJSON(ctx, fmt.Sprintf(KeyTournament, id), &t) {
		return nil, false
	}
	return &t, true
}

func (c *Cache) SetTournament(ctx context.Context, t *models.Tournament) {
	c.setJSON(ctx, fmt.Sprintf(KeyTournament, t.ID), t, tournamentTTL)
}

func (c *Cache) GetCatalog(ctx context.Context, status, game string) ([]models.Tournament, bool) {
	var list []models.Tournament
	if !c.getJSON(ctx, catalogKey(status, game), &list) {
		return nil, false
	}
	return list, true
}

func (c *Cache) SetCatalog(ctx context.Context, status, game string, list []models.Tournament) {
	c.setJSON(ctx, catalogKey(status, game), list, catalogTTL)
}

// InvalidateTournament drops the tournament's own key and every catalog
// key. Catalog keys are few and enumerable, so this avoids SCAN.
func (c *Cache) InvalidateTournament(ctx context.Context, id int) {
	keys := []string{fmt.Sprintf(KeyTournament, id)}
	statuses := []string{"all",
		string(models.StatusUpcoming), string(models.StatusLive),
		string(models.StatusCompleted), string(models.StatusCancelled),
	}
	for _, s := range statuses {
		keys = append(keys, catalogKey(s, "all"))
	}
	c.client.Del(ctx, keys...)
}

func (c *Cache) GetMyTournaments(ctx context.Context, userID int) ([]models.JoinedTournament, bool) {
	var list []models.JoinedTournament
	if !c.getJSON(ctx, fmt.Sprintf(KeyMyTournaments, userID), &list) {
		return nil, false
	}
	return list, true
}

func (c *Cache) SetMyTournaments(ctx context.Context, userID int, list []models.JoinedTournament) {
	c.setJSON(ctx, fmt.Sprintf(KeyMyTournaments, userID), list, myTournamentsTTL)
}

func (c *Cache) InvalidateMyTournaments(ctx context.Context, userID int) {
	c.client.Del(ctx, fmt.Sprintf(KeyMyTournaments, userID))
}

func catalogKey(status, game string) string {
	if status == "" {
		status = "all"
	}
	if game == "" {
		game = "all"
	}
	return fmt.Sprintf(KeyCatalog, status, game)
}

func (c *Cache) getJSON(ctx context.Context, key string, dst interface{}) bool {
	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		// redis.Nil is a miss; any other failure is treated the same
		// way and the caller falls through to the database.
		return false
	}
	return json.Unmarshal([]byte(data), dst) == nil
}

func (c *Cache) setJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.client.Set(ctx, key, data, ttl)
}
