package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/pirateclash/internal/model"
	"github.com/mcoot/pirateclash/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players           map[model.PlayerID]*model.Player
	registeredPlayers map[model.PlayerID]*model.RegisteredPlayer
	usernameIndex     map[string]model.PlayerID
	sessions          map[string]*model.Session
	profiles          map[model.PlayerID]*model.PlayerProfile
	matches           map[model.PlayerID][]*model.MatchRecord // oldest first
	leaderboard       map[model.PlayerID]*model.LeaderboardEntry
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:           make(map[model.PlayerID]*model.Player),
		registeredPlayers: make(map[model.PlayerID]*model.RegisteredPlayer),
		usernameIndex:     make(map[string]model.PlayerID),
		sessions:          make(map[string]*model.Session),
		profiles:          make(map[model.PlayerID]*model.PlayerProfile),
		matches:           make(map[model.PlayerID][]*model.MatchRecord),
		leaderboard:       make(map[model.PlayerID]*model.LeaderboardEntry),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[player.ID] = player
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return player, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, id)
	return nil
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registeredPlayers[rp.PlayerID] = rp
	s.usernameIndex[rp.Username] = rp.PlayerID
	return nil
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rp, ok := s.registeredPlayers[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return rp, nil
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	playerID, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	rp, ok := s.registeredPlayers[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return rp, nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *session
	s.sessions[session.Token] = &stored
	return nil
}

func (s *Storage) GetSession(ctx context.Context, token string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[token]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	sess := *session
	return &sess, nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, session := range s.sessions {
		if session.ExpiredAt(now) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed, nil
}

// Profile operations
// Profiles are copied on the way in and out so callers never share them.

func (s *Storage) CreateProfile(ctx context.Context, profile *model.PlayerProfile) (*model.PlayerProfile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.profiles[profile.PlayerID]; ok {
		p := *existing
		return &p, false, nil
	}
	stored := *profile
	s.profiles[profile.PlayerID] = &stored
	p := stored
	return &p, true, nil
}

func (s *Storage) GetProfile(ctx context.Context, id model.PlayerID) (*model.PlayerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[id]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	p := *profile
	return &p, nil
}

func (s *Storage) UpdateUsername(ctx context.Context, id model.PlayerID, username string, at time.Time) (*model.PlayerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[id]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	profile.Username = username
	profile.UpdatedAt = at
	if entry, ok := s.leaderboard[id]; ok {
		entry.Username = username
		entry.UpdatedAt = at
	}
	p := *profile
	return &p, nil
}

func (s *Storage) ListProfiles(ctx context.Context) ([]*model.PlayerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*model.PlayerProfile, 0, len(s.profiles))
	for _, profile := range s.profiles {
		p := *profile
		result = append(result, &p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PlayerID < result[j].PlayerID
	})
	return result, nil
}

// Match operations

func (s *Storage) RecordMatch(ctx context.Context, record *model.MatchRecord, apply storage.ApplyFunc) (*model.PlayerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[record.PlayerID]
	if !ok {
		return nil, model.ErrProfileNotFound
	}

	updated := *profile
	apply(&updated)
	s.profiles[record.PlayerID] = &updated

	stored := *record
	s.matches[record.PlayerID] = append(s.matches[record.PlayerID], &stored)
	s.leaderboard[record.PlayerID] = model.LeaderboardEntryFromProfile(&updated, record.PlayedAt)

	p := updated
	return &p, nil
}

func (s *Storage) GetRecentMatches(ctx context.Context, id model.PlayerID, limit int) ([]*model.MatchRecord, error) {
	if limit <= 0 {
		return []*model.MatchRecord{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.matches[id]
	result := make([]*model.MatchRecord, 0, min(limit, len(history)))
	for i := len(history) - 1; i >= 0 && len(result) < limit; i-- {
		r := *history[i]
		result = append(result, &r)
	}
	return result, nil
}

// Leaderboard operations

func (s *Storage) SaveLeaderboardEntry(ctx context.Context, entry *model.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := *entry
	s.leaderboard[entry.PlayerID] = &e
	return nil
}

func (s *Storage) GetLeaderboardEntry(ctx context.Context, id model.PlayerID) (*model.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.leaderboard[id]
	if !ok {
		return nil, model.ErrLeaderboardEntryNotFound
	}
	e := *entry
	return &e, nil
}

func (s *Storage) GetTopLeaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*model.LeaderboardEntry, 0, len(s.leaderboard))
	for _, entry := range s.leaderboard {
		e := *entry
		result = append(result, &e)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].RanksAbove(result[j])
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Storage) RepairLeaderboardEntry(ctx context.Context, id model.PlayerID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[id]
	if !ok {
		return false, model.ErrProfileNotFound
	}
	if profile.MatchesPlayed() == 0 {
		return false, nil
	}
	if entry, ok := s.leaderboard[id]; ok && entry.MatchesProfile(profile) {
		return false, nil
	}
	s.leaderboard[id] = model.LeaderboardEntryFromProfile(profile, profile.UpdatedAt)
	return true, nil
}
