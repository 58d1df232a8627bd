// Package storagetest provides a behavioural test suite shared by every
// storage backend.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pirateclash/internal/model"
	"github.com/mcoot/pirateclash/internal/storage"
)

// BaseTime is the reference timestamp used by the suite
var BaseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// Suite exercises the storage.Storage contract.
// Embed it in a backend suite and assign Storage and Ctx in SetupTest.
type Suite struct {
	suite.Suite
	Storage storage.Storage
	Ctx     context.Context
}

func (s *Suite) newProfile(id model.PlayerID, username string) *model.PlayerProfile {
	return &model.PlayerProfile{
		PlayerID:  id,
		Username:  username,
		CreatedAt: BaseTime,
		UpdatedAt: BaseTime,
	}
}

func (s *Suite) createProfile(id model.PlayerID, username string) *model.PlayerProfile {
	p, created, err := s.Storage.CreateProfile(s.Ctx, s.newProfile(id, username))
	s.Require().NoError(err)
	s.Require().True(created)
	return p
}

func (s *Suite) record(id model.PlayerID, n int, won bool) *model.PlayerProfile {
	at := BaseTime.Add(time.Duration(n) * time.Minute)
	summary := model.MatchSummary{
		PlayerCharacter:   "luffy",
		OpponentCharacter: "zoro",
		PlayerWon:         won,
		RoundsWon:         2,
		RoundsLost:        1,
	}
	if !won {
		summary.RoundsWon, summary.RoundsLost = 1, 2
	}
	rec := model.NewMatchRecord(fmt.Sprintf("match-%s-%d", id, n), id, summary, at)
	p, err := s.Storage.RecordMatch(s.Ctx, rec, func(profile *model.PlayerProfile) {
		profile.ApplyMatch(summary, at)
	})
	s.Require().NoError(err)
	return p
}

// Player tests

func (s *Suite) TestSaveAndGetPlayer() {
	player := &model.Player{
		ID:          "player-1",
		DisplayName: "Alice",
		IsGuest:     false,
		CreatedAt:   BaseTime,
	}

	err := s.Storage.SavePlayer(s.Ctx, player)
	s.Require().NoError(err)

	retrieved, err := s.Storage.GetPlayer(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(player.ID, retrieved.ID)
	s.Equal(player.DisplayName, retrieved.DisplayName)
	s.False(retrieved.IsGuest)
}

func (s *Suite) TestGetPlayerNotFound() {
	_, err := s.Storage.GetPlayer(s.Ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *Suite) TestDeletePlayer() {
	s.Require().NoError(s.Storage.SavePlayer(s.Ctx, &model.Player{ID: "player-1", DisplayName: "Alice", CreatedAt: BaseTime}))

	err := s.Storage.DeletePlayer(s.Ctx, "player-1")
	s.Require().NoError(err)

	_, err = s.Storage.GetPlayer(s.Ctx, "player-1")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Registered player tests

func (s *Suite) TestSaveAndGetRegisteredPlayer() {
	rp := &model.RegisteredPlayer{
		PlayerID:     "player-1",
		Username:     "alice",
		PasswordHash: "hash",
		CreatedAt:    BaseTime,
		UpdatedAt:    BaseTime,
	}
	s.Require().NoError(s.Storage.SaveRegisteredPlayer(s.Ctx, rp))

	retrieved, err := s.Storage.GetRegisteredPlayer(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal("alice", retrieved.Username)
	s.Equal("hash", retrieved.PasswordHash)

	byName, err := s.Storage.GetRegisteredPlayerByUsername(s.Ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-1"), byName.PlayerID)
}

func (s *Suite) TestGetRegisteredPlayerNotFound() {
	_, err := s.Storage.GetRegisteredPlayer(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrPlayerNotFound)

	_, err = s.Storage.GetRegisteredPlayerByUsername(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Session tests

func (s *Suite) newSession(token string, playerID model.PlayerID, lifetime time.Duration) *model.Session {
	return &model.Session{
		Token:     token,
		PlayerID:  playerID,
		CreatedAt: BaseTime,
		ExpiresAt: BaseTime.Add(lifetime),
	}
}

func (s *Suite) TestSaveAndGetSession() {
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, s.newSession("sess_a", "player-1", time.Hour)))

	session, err := s.Storage.GetSession(s.Ctx, "sess_a")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-1"), session.PlayerID)
	s.WithinDuration(BaseTime.Add(time.Hour), session.ExpiresAt, time.Second)
	s.False(session.ExpiredAt(BaseTime.Add(30 * time.Minute)))
}

func (s *Suite) TestGetSessionNotFound() {
	_, err := s.Storage.GetSession(s.Ctx, "sess_missing")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *Suite) TestDeleteSession() {
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, s.newSession("sess_a", "player-1", time.Hour)))

	s.Require().NoError(s.Storage.DeleteSession(s.Ctx, "sess_a"))
	s.Require().NoError(s.Storage.DeleteSession(s.Ctx, "sess_a"))

	_, err := s.Storage.GetSession(s.Ctx, "sess_a")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *Suite) TestDeleteExpiredSessions() {
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, s.newSession("sess_short", "player-1", time.Hour)))
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, s.newSession("sess_long", "player-2", 48*time.Hour)))

	removed, err := s.Storage.DeleteExpiredSessions(s.Ctx, BaseTime.Add(30*time.Minute))
	s.Require().NoError(err)
	s.Zero(removed)

	removed, err = s.Storage.DeleteExpiredSessions(s.Ctx, BaseTime.Add(2*time.Hour))
	s.Require().NoError(err)
	s.Equal(1, removed)

	_, err = s.Storage.GetSession(s.Ctx, "sess_short")
	s.ErrorIs(err, model.ErrSessionNotFound)
	_, err = s.Storage.GetSession(s.Ctx, "sess_long")
	s.NoError(err)
}

// Profile tests

func (s *Suite) TestCreateProfile() {
	p := s.createProfile("player-1", "Pirate42")
	s.Equal(model.PlayerID("player-1"), p.PlayerID)
	s.Equal("Pirate42", p.Username)
	s.Zero(p.TotalWins)

	retrieved, err := s.Storage.GetProfile(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal("Pirate42", retrieved.Username)
	s.WithinDuration(BaseTime, retrieved.CreatedAt, time.Second)
}

func (s *Suite) TestCreateProfileReturnsExisting() {
	s.createProfile("player-1", "Pirate42")

	p, created, err := s.Storage.CreateProfile(s.Ctx, s.newProfile("player-1", "Pirate7"))
	s.Require().NoError(err)
	s.False(created)
	s.Equal("Pirate42", p.Username)
}

func (s *Suite) TestCreateProfileConcurrent() {
	var wg sync.WaitGroup
	created := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, ok, err := s.Storage.CreateProfile(s.Ctx, s.newProfile("player-1", fmt.Sprintf("Pirate%d", i)))
			if err == nil {
				created <- ok
			}
		}(i)
	}
	wg.Wait()
	close(created)

	count := 0
	total := 0
	for ok := range created {
		total++
		if ok {
			count++
		}
	}
	s.Equal(8, total)
	s.Equal(1, count)
}

func (s *Suite) TestGetProfileNotFound() {
	_, err := s.Storage.GetProfile(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrProfileNotFound)
}

func (s *Suite) TestUpdateUsername() {
	s.createProfile("player-1", "Pirate42")
	s.record("player-1", 1, true)

	later := BaseTime.Add(time.Hour)
	p, err := s.Storage.UpdateUsername(s.Ctx, "player-1", "Captain", later)
	s.Require().NoError(err)
	s.Equal("Captain", p.Username)
	s.Equal(1, p.TotalWins)

	retrieved, err := s.Storage.GetProfile(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal("Captain", retrieved.Username)
	s.WithinDuration(later, retrieved.UpdatedAt, time.Second)

	entry, err := s.Storage.GetLeaderboardEntry(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal("Captain", entry.Username)
}

func (s *Suite) TestUpdateUsernameWithoutLeaderboardEntry() {
	s.createProfile("player-1", "Pirate42")

	_, err := s.Storage.UpdateUsername(s.Ctx, "player-1", "Captain", BaseTime)
	s.Require().NoError(err)

	_, err = s.Storage.GetLeaderboardEntry(s.Ctx, "player-1")
	s.ErrorIs(err, model.ErrLeaderboardEntryNotFound)
}

func (s *Suite) TestUpdateUsernameNotFound() {
	_, err := s.Storage.UpdateUsername(s.Ctx, "nobody", "Captain", BaseTime)
	s.ErrorIs(err, model.ErrProfileNotFound)
}

func (s *Suite) TestListProfiles() {
	s.createProfile("player-b", "B")
	s.createProfile("player-a", "A")

	profiles, err := s.Storage.ListProfiles(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(profiles, 2)
	s.Equal(model.PlayerID("player-a"), profiles[0].PlayerID)
	s.Equal(model.PlayerID("player-b"), profiles[1].PlayerID)
}

// Match tests

func (s *Suite) TestRecordMatch() {
	s.createProfile("player-1", "Pirate42")

	p := s.record("player-1", 1, true)
	s.Equal(1, p.TotalWins)
	s.Equal(1, p.CurrentStreak)
	s.Equal(1, p.BestStreak)
	s.Equal(model.CharacterID("luffy"), p.FavoriteCharacter)

	stored, err := s.Storage.GetProfile(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(1, stored.TotalWins)

	matches, err := s.Storage.GetRecentMatches(s.Ctx, "player-1", 10)
	s.Require().NoError(err)
	s.Require().Len(matches, 1)
	s.Equal("match-player-1-1", matches[0].ID)
	s.Equal(model.CharacterID("zoro"), matches[0].OpponentCharacter)
	s.True(matches[0].PlayerWon)
	s.Equal(2, matches[0].RoundsWon)
	s.Equal(1, matches[0].RoundsLost)

	entry, err := s.Storage.GetLeaderboardEntry(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal("Pirate42", entry.Username)
	s.Equal(1, entry.BestStreak)
	s.Equal(1, entry.TotalWins)
}

func (s *Suite) TestRecordMatchProfileNotFound() {
	rec := model.NewMatchRecord("m1", "nobody", model.MatchSummary{PlayerWon: true}, BaseTime)
	_, err := s.Storage.RecordMatch(s.Ctx, rec, func(*model.PlayerProfile) {})
	s.ErrorIs(err, model.ErrProfileNotFound)

	matches, err := s.Storage.GetRecentMatches(s.Ctx, "nobody", 10)
	s.Require().NoError(err)
	s.Empty(matches)
}

func (s *Suite) TestRecordMatchStreaks() {
	s.createProfile("player-1", "Pirate42")

	s.record("player-1", 1, true)
	s.record("player-1", 2, true)
	p := s.record("player-1", 3, false)
	s.Equal(0, p.CurrentStreak)
	s.Equal(2, p.BestStreak)
	s.Equal(1, p.TotalLosses)

	p = s.record("player-1", 4, true)
	s.Equal(1, p.CurrentStreak)
	s.Equal(2, p.BestStreak)

	entry, err := s.Storage.GetLeaderboardEntry(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(2, entry.BestStreak)
	s.Equal(3, entry.TotalWins)
}

func (s *Suite) TestRecordMatchConcurrent() {
	s.createProfile("player-1", "Pirate42")

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			summary := model.MatchSummary{PlayerCharacter: "luffy", OpponentCharacter: "zoro", PlayerWon: true, RoundsWon: 2}
			rec := model.NewMatchRecord(fmt.Sprintf("concurrent-%d", i), "player-1", summary, BaseTime)
			_, err := s.Storage.RecordMatch(s.Ctx, rec, func(p *model.PlayerProfile) {
				p.ApplyMatch(summary, BaseTime)
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	p, err := s.Storage.GetProfile(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(n, p.TotalWins)
	s.Equal(n, p.CurrentStreak)
	s.Equal(n, p.BestStreak)

	matches, err := s.Storage.GetRecentMatches(s.Ctx, "player-1", 2*n)
	s.Require().NoError(err)
	s.Len(matches, n)
}

func (s *Suite) TestGetRecentMatchesOrderAndLimit() {
	s.createProfile("player-1", "Pirate42")
	for i := 1; i <= 12; i++ {
		s.record("player-1", i, i%2 == 0)
	}

	matches, err := s.Storage.GetRecentMatches(s.Ctx, "player-1", model.RecentMatchesLimit)
	s.Require().NoError(err)
	s.Require().Len(matches, 10)
	s.Equal("match-player-1-12", matches[0].ID)
	s.Equal("match-player-1-3", matches[9].ID)
	for i := 1; i < len(matches); i++ {
		s.True(matches[i-1].PlayedAt.After(matches[i].PlayedAt))
	}
}

func (s *Suite) TestGetRecentMatchesKeepsInsertionOrderOnTies() {
	s.createProfile("player-1", "Pirate42")

	summary := model.MatchSummary{PlayerCharacter: "luffy", OpponentCharacter: "zoro", PlayerWon: true, RoundsWon: 2}
	// IDs sort opposite to insertion order
	for _, id := range []string{"match-c", "match-b", "match-a"} {
		rec := model.NewMatchRecord(id, "player-1", summary, BaseTime)
		_, err := s.Storage.RecordMatch(s.Ctx, rec, func(p *model.PlayerProfile) {
			p.ApplyMatch(summary, BaseTime)
		})
		s.Require().NoError(err)
	}

	matches, err := s.Storage.GetRecentMatches(s.Ctx, "player-1", 10)
	s.Require().NoError(err)
	s.Require().Len(matches, 3)
	s.Equal("match-a", matches[0].ID)
	s.Equal("match-b", matches[1].ID)
	s.Equal("match-c", matches[2].ID)
}

func (s *Suite) TestGetRecentMatchesNonPositiveLimit() {
	s.createProfile("player-1", "Pirate42")
	s.record("player-1", 1, true)

	for _, limit := range []int{0, -1} {
		matches, err := s.Storage.GetRecentMatches(s.Ctx, "player-1", limit)
		s.Require().NoError(err)
		s.Empty(matches)
	}
}

func (s *Suite) TestGetRecentMatchesIsolatedPerPlayer() {
	s.createProfile("player-1", "A")
	s.createProfile("player-2", "B")
	s.record("player-1", 1, true)

	matches, err := s.Storage.GetRecentMatches(s.Ctx, "player-2", 10)
	s.Require().NoError(err)
	s.Empty(matches)
}

// Leaderboard tests

func (s *Suite) TestSaveAndGetLeaderboardEntry() {
	entry := &model.LeaderboardEntry{PlayerID: "player-1", Username: "A", BestStreak: 4, TotalWins: 9, UpdatedAt: BaseTime}
	s.Require().NoError(s.Storage.SaveLeaderboardEntry(s.Ctx, entry))

	retrieved, err := s.Storage.GetLeaderboardEntry(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(4, retrieved.BestStreak)
	s.Equal(9, retrieved.TotalWins)

	entry.BestStreak = 5
	s.Require().NoError(s.Storage.SaveLeaderboardEntry(s.Ctx, entry))
	top, err := s.Storage.GetTopLeaderboard(s.Ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(top, 1)
	s.Equal(5, top[0].BestStreak)
}

func (s *Suite) TestGetLeaderboardEntryNotFound() {
	_, err := s.Storage.GetLeaderboardEntry(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrLeaderboardEntryNotFound)
}

func (s *Suite) TestGetTopLeaderboardOrderAndLimit() {
	for i := 0; i < 12; i++ {
		entry := &model.LeaderboardEntry{
			PlayerID:   model.PlayerID(fmt.Sprintf("player-%02d", i)),
			Username:   fmt.Sprintf("P%d", i),
			BestStreak: i % 6,
			TotalWins:  i,
			UpdatedAt:  BaseTime,
		}
		s.Require().NoError(s.Storage.SaveLeaderboardEntry(s.Ctx, entry))
	}

	top, err := s.Storage.GetTopLeaderboard(s.Ctx, model.LeaderboardSize)
	s.Require().NoError(err)
	s.Require().Len(top, 10)

	// streak 5: 11, 05; streak 4: 10, 04; ...
	s.Equal(model.PlayerID("player-11"), top[0].PlayerID)
	s.Equal(model.PlayerID("player-05"), top[1].PlayerID)
	s.Equal(model.PlayerID("player-10"), top[2].PlayerID)
	for i := 1; i < len(top); i++ {
		s.True(top[i-1].RanksAbove(top[i]), "entry %d out of order", i)
	}
}

func (s *Suite) TestGetTopLeaderboardEmpty() {
	top, err := s.Storage.GetTopLeaderboard(s.Ctx, model.LeaderboardSize)
	s.Require().NoError(err)
	s.Empty(top)
}

func (s *Suite) TestRepairLeaderboardEntryUsesLatestProfile() {
	s.createProfile("player-1", "Pirate42")
	s.record("player-1", 1, true)

	// A rebuild pass lists profiles, then a second win lands before it
	// writes. It must not regress the entry to the listed snapshot.
	listed, err := s.Storage.ListProfiles(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.record("player-1", 2, true)

	s.Require().NoError(s.Storage.SaveLeaderboardEntry(s.Ctx, model.LeaderboardEntryFromProfile(listed[0], BaseTime)))

	repaired, err := s.Storage.RepairLeaderboardEntry(s.Ctx, listed[0].PlayerID)
	s.Require().NoError(err)
	s.True(repaired)

	profile, err := s.Storage.GetProfile(s.Ctx, "player-1")
	s.Require().NoError(err)
	entry, err := s.Storage.GetLeaderboardEntry(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(2, entry.BestStreak)
	s.Equal(2, entry.TotalWins)
	s.True(entry.MatchesProfile(profile))

	top, err := s.Storage.GetTopLeaderboard(s.Ctx, model.LeaderboardSize)
	s.Require().NoError(err)
	s.Require().Len(top, 1)
	s.Equal(2, top[0].BestStreak)
}

func (s *Suite) TestRepairLeaderboardEntryNoopWhenInSync() {
	s.createProfile("player-1", "Pirate42")
	s.record("player-1", 1, true)

	repaired, err := s.Storage.RepairLeaderboardEntry(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.False(repaired)
}

func (s *Suite) TestRepairLeaderboardEntrySkipsProfilesWithoutMatches() {
	s.createProfile("player-1", "Pirate42")

	repaired, err := s.Storage.RepairLeaderboardEntry(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.False(repaired)

	_, err = s.Storage.GetLeaderboardEntry(s.Ctx, "player-1")
	s.ErrorIs(err, model.ErrLeaderboardEntryNotFound)
}

func (s *Suite) TestRepairLeaderboardEntryProfileNotFound() {
	_, err := s.Storage.RepairLeaderboardEntry(s.Ctx, "nobody")
	s.ErrorIs(err, model.ErrProfileNotFound)
}

func (s *Suite) TestRepairLeaderboardEntryConcurrentWithRecordMatch() {
	s.createProfile("player-1", "Pirate42")

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, 2*n)
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			summary := model.MatchSummary{PlayerCharacter: "luffy", OpponentCharacter: "zoro", PlayerWon: true, RoundsWon: 2}
			rec := model.NewMatchRecord(fmt.Sprintf("race-%d", i), "player-1", summary, BaseTime)
			_, err := s.Storage.RecordMatch(s.Ctx, rec, func(p *model.PlayerProfile) {
				p.ApplyMatch(summary, BaseTime)
			})
			errs <- err
		}(i)
		go func() {
			defer wg.Done()
			_, err := s.Storage.RepairLeaderboardEntry(s.Ctx, "player-1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	profile, err := s.Storage.GetProfile(s.Ctx, "player-1")
	s.Require().NoError(err)
	entry, err := s.Storage.GetLeaderboardEntry(s.Ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(n, entry.TotalWins)
	s.True(entry.MatchesProfile(profile))
}
