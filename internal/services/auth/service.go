// Package auth creates player identities and issues the bearer sessions
// the API authenticates with. Sessions are kept in storage.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/pirateclash/internal/dependencies/clock"
	"github.com/mcoot/pirateclash/internal/model"
	"github.com/mcoot/pirateclash/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrUsernameExists     = errors.New("username already exists")
	ErrWeakPassword       = errors.New("password too short")
)

// Credential limits
const (
	MinUsernameLength = 3
	MaxUsernameLength = 32
	MinPasswordLength = 6
)

// DefaultGuestName is used when a guest signs in without a display name
const DefaultGuestName = "Guest"

// ID prefixes
const (
	playerIDPrefix = "p_"
	tokenPrefix    = "sess_"
)

// Session is a stored session joined with the player it authenticates
type Session struct {
	model.Session
	Player *model.Player
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 7 * 24 * time.Hour,
	}
}

// Service manages identities and their sessions
type Service struct {
	storage  storage.Storage
	clock    clock.Clock
	cfg      Config
	logger   *slog.Logger
	newToken func(prefix string) string
}

// New creates a new auth Service
func New(store storage.Storage, clk clock.Clock, cfg Config, logger *slog.Logger) *Service {
	if cfg.SessionDuration <= 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		storage:  store,
		clock:    clk,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "auth-service")),
		newToken: randomToken,
	}
}

// CreateGuestPlayer creates an anonymous identity and signs it in
func (s *Service) CreateGuestPlayer(ctx context.Context, displayName string) (*Session, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = DefaultGuestName
	}

	player := &model.Player{
		ID:          model.PlayerID(s.newToken(playerIDPrefix)),
		DisplayName: displayName,
		IsGuest:     true,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}

	s.logger.Info("guest player created", slog.String("player_id", string(player.ID)))
	return s.issue(ctx, player)
}

// RegisterPlayer creates a registered account and signs it in.
// The display name falls back to the username.
func (s *Service) RegisterPlayer(ctx context.Context, username, password, displayName string) (*Session, error) {
	username, err := checkCredentials(username, password)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = username
	}

	switch _, err := s.storage.GetRegisteredPlayerByUsername(ctx, username); {
	case err == nil:
		return nil, ErrUsernameExists
	case !errors.Is(err, model.ErrPlayerNotFound):
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	player := &model.Player{
		ID:          model.PlayerID(s.newToken(playerIDPrefix)),
		DisplayName: displayName,
		CreatedAt:   now,
	}
	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}
	err = s.storage.SaveRegisteredPlayer(ctx, &model.RegisteredPlayer{
		PlayerID:     player.ID,
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("player registered",
		slog.String("player_id", string(player.ID)),
		slog.String("username", username),
	)
	return s.issue(ctx, player)
}

// Login checks a username and password and opens a new session
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	rp, err := s.storage.GetRegisteredPlayerByUsername(ctx, username)
	if errors.Is(err, model.ErrPlayerNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(rp.PasswordHash), []byte(password)) != nil {
		s.logger.Warn("failed login", slog.String("username", username))
		return nil, ErrInvalidCredentials
	}

	player, err := s.storage.GetPlayer(ctx, rp.PlayerID)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, player)
}

// ValidateSession resolves a bearer token to its session and player.
// Expired sessions and sessions whose player is gone are deleted.
func (s *Service) ValidateSession(ctx context.Context, token string) (*Session, error) {
	stored, err := s.storage.GetSession(ctx, token)
	if errors.Is(err, model.ErrSessionNotFound) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, err
	}

	if stored.ExpiredAt(s.clock.Now()) {
		s.discard(ctx, token, "expired")
		return nil, ErrInvalidSession
	}

	player, err := s.storage.GetPlayer(ctx, stored.PlayerID)
	if errors.Is(err, model.ErrPlayerNotFound) {
		s.discard(ctx, token, "player gone")
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, err
	}

	return &Session{Session: *stored, Player: player}, nil
}

// InvalidateSession deletes a session. Unknown tokens are ignored.
func (s *Service) InvalidateSession(ctx context.Context, token string) error {
	return s.storage.DeleteSession(ctx, token)
}

// CleanExpiredSessions deletes sessions past their expiry and returns how
// many were removed
func (s *Service) CleanExpiredSessions(ctx context.Context) (int, error) {
	return s.storage.DeleteExpiredSessions(ctx, s.clock.Now())
}

func (s *Service) issue(ctx context.Context, player *model.Player) (*Session, error) {
	now := s.clock.Now()
	session := &Session{
		Session: model.Session{
			Token:     s.newToken(tokenPrefix),
			PlayerID:  player.ID,
			CreatedAt: now,
			ExpiresAt: now.Add(s.cfg.SessionDuration),
		},
		Player: player,
	}
	if err := s.storage.SaveSession(ctx, &session.Session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) discard(ctx context.Context, token, reason string) {
	if err := s.storage.DeleteSession(ctx, token); err != nil {
		s.logger.Warn("failed to delete session",
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
	}
}

// checkCredentials validates registration input and returns the trimmed username
func checkCredentials(username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return "", model.ErrInvalidUsername
	}
	if len(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	return username, nil
}

// randomToken returns prefix followed by 128 random bits, base64url encoded
func randomToken(prefix string) string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return prefix + base64.RawURLEncoding.EncodeToString(b)
}
