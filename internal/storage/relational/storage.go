// Package relational stores data in a SQL database through gorm.
package relational

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/mcoot/pirateclash/internal/model"
	"github.com/mcoot/pirateclash/internal/storage"
)

// Storage is a gorm-backed implementation of the storage interface
type Storage struct {
	db *gorm.DB
}

// Open connects to the configured database and migrates the schema
func Open(cfg Config) (*Storage, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == DriverSQLite {
		// sqlite serializes writers; a single connection avoids "database is locked"
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
	}

	return NewWithDB(db)
}

// NewWithDB creates a Storage on an existing connection, migrating the schema
func NewWithDB(db *gorm.DB) (*Storage, error) {
	err := db.AutoMigrate(
		&playerRow{},
		&registeredPlayerRow{},
		&sessionRow{},
		&profileRow{},
		&matchRow{},
		&leaderboardRow{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the underlying connection pool
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	return s.db.WithContext(ctx).Save(newPlayerRow(player)).Error
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var row playerRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", string(id)).Error; err != nil {
		return nil, notFound(err, model.ErrPlayerNotFound)
	}
	return row.toModel(), nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	return s.db.WithContext(ctx).Delete(&playerRow{}, "id = ?", string(id)).Error
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	return s.db.WithContext(ctx).Save(newRegisteredPlayerRow(rp)).Error
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	var row registeredPlayerRow
	if err := s.db.WithContext(ctx).First(&row, "player_id = ?", string(playerID)).Error; err != nil {
		return nil, notFound(err, model.ErrPlayerNotFound)
	}
	return row.toModel(), nil
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	var row registeredPlayerRow
	if err := s.db.WithContext(ctx).First(&row, "username = ?", username).Error; err != nil {
		return nil, notFound(err, model.ErrPlayerNotFound)
	}
	return row.toModel(), nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	return s.db.WithContext(ctx).Save(newSessionRow(session)).Error
}

func (s *Storage) GetSession(ctx context.Context, token string) (*model.Session, error) {
	var row sessionRow
	if err := s.db.WithContext(ctx).First(&row, "token = ?", token).Error; err != nil {
		return nil, notFound(err, model.ErrSessionNotFound)
	}
	return row.toModel(), nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Delete(&sessionRow{}, "token = ?", token).Error
}

func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	result := s.db.WithContext(ctx).Delete(&sessionRow{}, "expires_at < ?", now)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

// Profile operations

func (s *Storage) CreateProfile(ctx context.Context, profile *model.PlayerProfile) (*model.PlayerProfile, bool, error) {
	row := newProfileRow(profile)
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected == 1 {
		return row.toModel(), true, nil
	}

	existing, err := s.GetProfile(ctx, profile.PlayerID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (s *Storage) GetProfile(ctx context.Context, id model.PlayerID) (*model.PlayerProfile, error) {
	var row profileRow
	if err := s.db.WithContext(ctx).First(&row, "player_id = ?", string(id)).Error; err != nil {
		return nil, notFound(err, model.ErrProfileNotFound)
	}
	return row.toModel(), nil
}

func (s *Storage) UpdateUsername(ctx context.Context, id model.PlayerID, username string, at time.Time) (*model.PlayerProfile, error) {
	var updated *model.PlayerProfile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockProfile(tx, id)
		if err != nil {
			return err
		}

		row.Username = username
		row.UpdatedAt = at
		if err := tx.Save(row).Error; err != nil {
			return err
		}

		err = tx.Model(&leaderboardRow{}).
			Where("player_id = ?", string(id)).
			Updates(map[string]any{"username": username, "updated_at": at}).Error
		if err != nil {
			return err
		}

		updated = row.toModel()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Storage) ListProfiles(ctx context.Context) ([]*model.PlayerProfile, error) {
	var rows []profileRow
	if err := s.db.WithContext(ctx).Order("player_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	profiles := make([]*model.PlayerProfile, len(rows))
	for i := range rows {
		profiles[i] = rows[i].toModel()
	}
	return profiles, nil
}

// lockProfile loads a profile row with SELECT ... FOR UPDATE.
// The sqlite dialector drops the locking clause.
func lockProfile(tx *gorm.DB, id model.PlayerID) (*profileRow, error) {
	var row profileRow
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&row, "player_id = ?", string(id)).Error
	if err != nil {
		return nil, notFound(err, model.ErrProfileNotFound)
	}
	return &row, nil
}

// Match operations

func (s *Storage) RecordMatch(ctx context.Context, record *model.MatchRecord, apply storage.ApplyFunc) (*model.PlayerProfile, error) {
	var updated *model.PlayerProfile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockProfile(tx, record.PlayerID)
		if err != nil {
			return err
		}

		profile := row.toModel()
		apply(profile)

		if err := tx.Save(newProfileRow(profile)).Error; err != nil {
			return err
		}
		if err := tx.Create(newMatchRow(record)).Error; err != nil {
			return err
		}

		entry := newLeaderboardRow(model.LeaderboardEntryFromProfile(profile, record.PlayedAt))
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(entry).Error; err != nil {
			return err
		}

		updated = profile
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Storage) GetRecentMatches(ctx context.Context, id model.PlayerID, limit int) ([]*model.MatchRecord, error) {
	if limit <= 0 {
		return []*model.MatchRecord{}, nil
	}

	var rows []matchRow
	err := s.db.WithContext(ctx).
		Where("player_id = ?", string(id)).
		Order("seq DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	records := make([]*model.MatchRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].toModel()
	}
	return records, nil
}

// Leaderboard operations

func (s *Storage) SaveLeaderboardEntry(ctx context.Context, entry *model.LeaderboardEntry) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(newLeaderboardRow(entry)).Error
}

func (s *Storage) GetLeaderboardEntry(ctx context.Context, id model.PlayerID) (*model.LeaderboardEntry, error) {
	var row leaderboardRow
	if err := s.db.WithContext(ctx).First(&row, "player_id = ?", string(id)).Error; err != nil {
		return nil, notFound(err, model.ErrLeaderboardEntryNotFound)
	}
	return row.toModel(), nil
}

func (s *Storage) GetTopLeaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	if limit <= 0 {
		return []*model.LeaderboardEntry{}, nil
	}

	var rows []leaderboardRow
	err := s.db.WithContext(ctx).
		Order("best_streak DESC, player_id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]*model.LeaderboardEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].toModel()
	}
	return entries, nil
}

func (s *Storage) RepairLeaderboardEntry(ctx context.Context, id model.PlayerID) (bool, error) {
	var repaired bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockProfile(tx, id)
		if err != nil {
			return err
		}
		profile := row.toModel()
		if profile.MatchesPlayed() == 0 {
			return nil
		}

		var current leaderboardRow
		err = tx.First(&current, "player_id = ?", string(id)).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil && current.toModel().MatchesProfile(profile) {
			return nil
		}

		entry := newLeaderboardRow(model.LeaderboardEntryFromProfile(profile, profile.UpdatedAt))
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(entry).Error; err != nil {
			return err
		}
		repaired = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return repaired, nil
}
