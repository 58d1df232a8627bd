package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pirateclash/internal/model"
	"github.com/mcoot/pirateclash/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
	mini    *miniredis.Miniredis
	storage *Storage
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.GuestPlayerTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.Storage = s.storage
	s.Ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) TestGuestPlayerTTL() {
	guestPlayer := &model.Player{
		ID:      "guest-1",
		IsGuest: true,
	}
	registeredPlayer := &model.Player{
		ID:      "registered-1",
		IsGuest: false,
	}

	_ = s.storage.SavePlayer(s.Ctx, guestPlayer)
	_ = s.storage.SavePlayer(s.Ctx, registeredPlayer)

	// Check that guest has TTL and registered doesn't
	guestTTL := s.mini.TTL(playerKey(guestPlayer.ID))
	registeredTTL := s.mini.TTL(playerKey(registeredPlayer.ID))

	s.True(guestTTL > 0, "Guest player should have TTL")
	s.Equal(time.Duration(0), registeredTTL, "Registered player should not have TTL")
}

func (s *StorageSuite) TestSessionKeyExpiresWithSession() {
	session := &model.Session{
		Token:     "sess_a",
		PlayerID:  "guest-1",
		CreatedAt: storagetest.BaseTime,
		ExpiresAt: storagetest.BaseTime.Add(time.Hour),
	}
	s.Require().NoError(s.storage.SaveSession(s.Ctx, session))
	s.Equal(time.Hour, s.mini.TTL(sessionKey("sess_a")))

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.GetSession(s.Ctx, "sess_a")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestProfilesNeverExpire() {
	_, _, err := s.storage.CreateProfile(s.Ctx, &model.PlayerProfile{PlayerID: "guest-1", Username: "Pirate1"})
	s.Require().NoError(err)

	s.Equal(time.Duration(0), s.mini.TTL(profileKey("guest-1")))
	s.True(s.mini.Exists(profileKey("guest-1")))
}

func (s *StorageSuite) TestRecordMatchWritesIndexes() {
	_, _, err := s.storage.CreateProfile(s.Ctx, &model.PlayerProfile{PlayerID: "player-1", Username: "Pirate1"})
	s.Require().NoError(err)

	summary := model.MatchSummary{PlayerCharacter: "nami", OpponentCharacter: "ace", PlayerWon: true, RoundsWon: 2}
	rec := model.NewMatchRecord("m1", "player-1", summary, storagetest.BaseTime)
	_, err = s.storage.RecordMatch(s.Ctx, rec, func(p *model.PlayerProfile) {
		p.ApplyMatch(summary, storagetest.BaseTime)
	})
	s.Require().NoError(err)

	score, err := s.mini.ZScore(leaderboardIndexKey(), "player-1")
	s.Require().NoError(err)
	s.Equal(float64(1), score)

	items, err := s.mini.List(matchesKey("player-1"))
	s.Require().NoError(err)
	s.Len(items, 1)
}

func (s *StorageSuite) TestTopLeaderboardSkipsMissingEntries() {
	s.Require().NoError(s.storage.SaveLeaderboardEntry(s.Ctx, &model.LeaderboardEntry{PlayerID: "player-1", BestStreak: 3}))
	s.Require().NoError(s.storage.SaveLeaderboardEntry(s.Ctx, &model.LeaderboardEntry{PlayerID: "player-2", BestStreak: 1}))
	s.mini.Del(leaderboardEntryKey("player-1"))

	top, err := s.storage.GetTopLeaderboard(s.Ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(top, 1)
	s.Equal(model.PlayerID("player-2"), top[0].PlayerID)
}

func (s *StorageSuite) TestConnectionFailureSurfaces() {
	s.mini.Close()

	_, err := s.storage.GetProfile(s.Ctx, "player-1")
	s.Error(err)
	s.NotErrorIs(err, model.ErrProfileNotFound)
}
