package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/pirateclash/internal/model"
	"github.com/mcoot/pirateclash/internal/storage"
)

// sessionScanBatch is the COUNT hint for session sweeps
const sessionScanBatch = 100

// ErrTooManyConflicts is returned when an optimistic transaction keeps losing races
var ErrTooManyConflicts = errors.New("redis transaction retries exhausted")

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// watch runs fn in a WATCH/MULTI transaction, retrying when a watched key changes
func (s *Storage) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	retries := max(1, s.cfg.MaxTxRetries)
	for i := 0; i < retries; i++ {
		err := s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return ErrTooManyConflicts
}

// getter is satisfied by both *redis.Client and *redis.Tx
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getJSON[T any](ctx context.Context, c getter, key string, notFound error) (*T, error) {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound
		}
		return nil, err
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	// Apply TTL only for guest players
	var ttl time.Duration
	if player.IsGuest {
		ttl = s.cfg.GuestPlayerTTL
	}
	return s.client.Set(ctx, playerKey(player.ID), data, ttl).Err()
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	return getJSON[model.Player](ctx, s.client, playerKey(id), model.ErrPlayerNotFound)
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	return s.client.Del(ctx, playerKey(id)).Err()
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	data, err := json.Marshal(rp)
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, registeredPlayerKey(rp.PlayerID), data, 0)
	pipe.Set(ctx, usernameIndexKey(rp.Username), string(rp.PlayerID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	return getJSON[model.RegisteredPlayer](ctx, s.client, registeredPlayerKey(playerID), model.ErrPlayerNotFound)
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	// Look up player ID from username index
	playerIDStr, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	return s.GetRegisteredPlayer(ctx, model.PlayerID(playerIDStr))
}

// Session operations

// SaveSession stores the session with a TTL of its lifetime, so Redis drops
// it on its own once it expires.
func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	ttl := session.Lifetime()
	if ttl <= 0 {
		return s.client.Del(ctx, sessionKey(session.Token)).Err()
	}
	return s.client.Set(ctx, sessionKey(session.Token), data, ttl).Err()
}

func (s *Storage) GetSession(ctx context.Context, token string) (*model.Session, error) {
	return getJSON[model.Session](ctx, s.client, sessionKey(token), model.ErrSessionNotFound)
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	return s.client.Del(ctx, sessionKey(token)).Err()
}

// DeleteExpiredSessions sweeps sessions whose ExpiresAt has passed but whose
// key TTL has not fired yet, e.g. when the application clock runs ahead.
func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	removed := 0
	iter := s.client.Scan(ctx, 0, sessionKeyPattern(), sessionScanBatch).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		session, err := getJSON[model.Session](ctx, s.client, key, model.ErrSessionNotFound)
		if errors.Is(err, model.ErrSessionNotFound) {
			continue // expired between SCAN and GET
		}
		if err != nil {
			return removed, err
		}
		if !session.ExpiredAt(now) {
			continue
		}
		n, err := s.client.Del(ctx, key).Result()
		if err != nil {
			return removed, err
		}
		removed += int(n)
	}
	return removed, iter.Err()
}

// Profile operations

func (s *Storage) CreateProfile(ctx context.Context, profile *model.PlayerProfile) (*model.PlayerProfile, bool, error) {
	data, err := json.Marshal(profile)
	if err != nil {
		return nil, false, err
	}

	created, err := s.client.SetNX(ctx, profileKey(profile.PlayerID), data, 0).Result()
	if err != nil {
		return nil, false, err
	}
	if !created {
		existing, err := s.GetProfile(ctx, profile.PlayerID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	if err := s.client.SAdd(ctx, profilesIndexKey(), string(profile.PlayerID)).Err(); err != nil {
		return nil, false, err
	}
	p := *profile
	return &p, true, nil
}

func (s *Storage) GetProfile(ctx context.Context, id model.PlayerID) (*model.PlayerProfile, error) {
	return getJSON[model.PlayerProfile](ctx, s.client, profileKey(id), model.ErrProfileNotFound)
}

func (s *Storage) UpdateUsername(ctx context.Context, id model.PlayerID, username string, at time.Time) (*model.PlayerProfile, error) {
	pKey := profileKey(id)
	eKey := leaderboardEntryKey(id)

	var updated *model.PlayerProfile
	err := s.watch(ctx, func(tx *redis.Tx) error {
		profile, err := getJSON[model.PlayerProfile](ctx, tx, pKey, model.ErrProfileNotFound)
		if err != nil {
			return err
		}
		entry, err := getJSON[model.LeaderboardEntry](ctx, tx, eKey, model.ErrLeaderboardEntryNotFound)
		if err != nil && !errors.Is(err, model.ErrLeaderboardEntryNotFound) {
			return err
		}

		profile.Username = username
		profile.UpdatedAt = at
		profileData, err := json.Marshal(profile)
		if err != nil {
			return err
		}

		var entryData []byte
		if entry != nil {
			entry.Username = username
			entry.UpdatedAt = at
			if entryData, err = json.Marshal(entry); err != nil {
				return err
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, pKey, profileData, 0)
			if entryData != nil {
				pipe.Set(ctx, eKey, entryData, 0)
			}
			return nil
		})
		if err == nil {
			updated = profile
		}
		return err
	}, pKey, eKey)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Storage) ListProfiles(ctx context.Context) ([]*model.PlayerProfile, error) {
	ids, err := s.client.SMembers(ctx, profilesIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.PlayerProfile{}, nil
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = profileKey(model.PlayerID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	profiles := make([]*model.PlayerProfile, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue // Profile key missing
		}
		str, ok := v.(string)
		if !ok {
			continue
		}
		var p model.PlayerProfile
		if err := json.Unmarshal([]byte(str), &p); err != nil {
			return nil, err
		}
		profiles = append(profiles, &p)
	}
	return profiles, nil
}

// Match operations

func (s *Storage) RecordMatch(ctx context.Context, record *model.MatchRecord, apply storage.ApplyFunc) (*model.PlayerProfile, error) {
	pKey := profileKey(record.PlayerID)

	recordData, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	var updated *model.PlayerProfile
	err = s.watch(ctx, func(tx *redis.Tx) error {
		profile, err := getJSON[model.PlayerProfile](ctx, tx, pKey, model.ErrProfileNotFound)
		if err != nil {
			return err
		}

		apply(profile)
		entry := model.LeaderboardEntryFromProfile(profile, record.PlayedAt)

		profileData, err := json.Marshal(profile)
		if err != nil {
			return err
		}
		entryData, err := json.Marshal(entry)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, pKey, profileData, 0)
			pipe.LPush(ctx, matchesKey(record.PlayerID), recordData)
			queueLeaderboardEntry(ctx, pipe, entry, entryData)
			return nil
		})
		if err == nil {
			updated = profile
		}
		return err
	}, pKey)
	if err != nil {
		return nil, fmt.Errorf("record match %s: %w", record.ID, err)
	}
	return updated, nil
}

func (s *Storage) GetRecentMatches(ctx context.Context, id model.PlayerID, limit int) ([]*model.MatchRecord, error) {
	if limit <= 0 {
		return []*model.MatchRecord{}, nil
	}

	values, err := s.client.LRange(ctx, matchesKey(id), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	records := make([]*model.MatchRecord, 0, len(values))
	for _, v := range values {
		var r model.MatchRecord
		if err := json.Unmarshal([]byte(v), &r); err != nil {
			return nil, err
		}
		records = append(records, &r)
	}
	return records, nil
}

// Leaderboard operations

func (s *Storage) SaveLeaderboardEntry(ctx context.Context, entry *model.LeaderboardEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	queueLeaderboardEntry(ctx, pipe, entry, data)
	_, err = pipe.Exec(ctx)
	return err
}

// queueLeaderboardEntry writes the entry and its ZSET score, which is the
// best streak alone; GetTopLeaderboard relies on member order for ties.
func queueLeaderboardEntry(ctx context.Context, pipe redis.Pipeliner, entry *model.LeaderboardEntry, data []byte) {
	pipe.Set(ctx, leaderboardEntryKey(entry.PlayerID), data, 0)
	pipe.ZAdd(ctx, leaderboardIndexKey(), redis.Z{
		Score:  float64(entry.BestStreak),
		Member: string(entry.PlayerID),
	})
}

func (s *Storage) GetLeaderboardEntry(ctx context.Context, id model.PlayerID) (*model.LeaderboardEntry, error) {
	return getJSON[model.LeaderboardEntry](ctx, s.client, leaderboardEntryKey(id), model.ErrLeaderboardEntryNotFound)
}

// GetTopLeaderboard reads the ZSET in reverse score order; equal scores come
// back in reverse lexicographic member order, which matches RanksAbove.
func (s *Storage) GetTopLeaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	if limit <= 0 {
		return []*model.LeaderboardEntry{}, nil
	}

	ids, err := s.client.ZRevRange(ctx, leaderboardIndexKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.LeaderboardEntry{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = leaderboardEntryKey(model.PlayerID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*model.LeaderboardEntry, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue // Entry key missing
		}
		var e model.LeaderboardEntry
		if err := json.Unmarshal([]byte(str), &e); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, nil
}

// RepairLeaderboardEntry watches the profile key, so a RecordMatch landing
// mid-repair aborts the transaction and the retry sees the new stats.
func (s *Storage) RepairLeaderboardEntry(ctx context.Context, id model.PlayerID) (bool, error) {
	pKey := profileKey(id)
	eKey := leaderboardEntryKey(id)

	var repaired bool
	err := s.watch(ctx, func(tx *redis.Tx) error {
		repaired = false
		profile, err := getJSON[model.PlayerProfile](ctx, tx, pKey, model.ErrProfileNotFound)
		if err != nil {
			return err
		}
		if profile.MatchesPlayed() == 0 {
			return nil
		}

		entry, err := getJSON[model.LeaderboardEntry](ctx, tx, eKey, model.ErrLeaderboardEntryNotFound)
		if err != nil && !errors.Is(err, model.ErrLeaderboardEntryNotFound) {
			return err
		}
		if entry != nil && entry.MatchesProfile(profile) {
			return nil
		}

		fresh := model.LeaderboardEntryFromProfile(profile, profile.UpdatedAt)
		data, err := json.Marshal(fresh)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			queueLeaderboardEntry(ctx, pipe, fresh, data)
			return nil
		})
		if err == nil {
			repaired = true
		}
		return err
	}, pKey, eKey)
	if err != nil {
		return false, err
	}
	return repaired, nil
}
