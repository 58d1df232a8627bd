package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/pirateclash/internal/api/handler"
	"github.com/mcoot/pirateclash/internal/api/middleware"
	"github.com/mcoot/pirateclash/internal/catalog"
	"github.com/mcoot/pirateclash/internal/services/auth"
	"github.com/mcoot/pirateclash/internal/services/battle"
	"github.com/mcoot/pirateclash/internal/services/profile"
	"github.com/mcoot/pirateclash/internal/stream"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger           *slog.Logger
	AuthService      *auth.Service
	ProfileService   *profile.Service
	BattleController *battle.Controller
	Catalog          *catalog.Catalog
	HubManager       *stream.HubManager
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.AuthService)
	profileHandler := handler.NewProfileHandler(cfg.ProfileService)
	characterHandler := handler.NewCharacterHandler(cfg.Catalog)
	battleHandler := handler.NewBattleHandler(cfg.BattleController, cfg.ProfileService, cfg.HubManager)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	optionalAuthMiddleware := middleware.OptionalAuth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Player routes (no auth required for creating players/logging in)
	api.HandleFunc("/players/guest", playerHandler.CreateGuest).Methods(http.MethodPost)
	api.HandleFunc("/players/register", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/players/login", playerHandler.Login).Methods(http.MethodPost)

	// Protected player routes
	playerProtected := api.PathPrefix("/players").Subrouter()
	playerProtected.Use(authMiddleware)
	playerProtected.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)
	playerProtected.HandleFunc("/logout", playerHandler.Logout).Methods(http.MethodPost)

	// Profile routes: queries answer anonymous callers with null/empty,
	// mutations require auth
	profiles := api.PathPrefix("/profile").Subrouter()
	profiles.Handle("", optionalAuthMiddleware(http.HandlerFunc(profileHandler.Get))).Methods(http.MethodGet)
	profiles.Handle("", authMiddleware(http.HandlerFunc(profileHandler.GetOrCreate))).Methods(http.MethodPost)
	profiles.Handle("/username", authMiddleware(http.HandlerFunc(profileHandler.UpdateUsername))).Methods(http.MethodPatch)
	profiles.Handle("/matches", optionalAuthMiddleware(http.HandlerFunc(profileHandler.RecentMatches))).Methods(http.MethodGet)
	profiles.Handle("/matches", authMiddleware(http.HandlerFunc(profileHandler.RecordMatch))).Methods(http.MethodPost)

	// Public catalog and leaderboard
	api.HandleFunc("/leaderboard", profileHandler.Leaderboard).Methods(http.MethodGet)
	api.HandleFunc("/characters", characterHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/characters/{id}", characterHandler.Get).Methods(http.MethodGet)

	// Battle routes (all require auth)
	battles := api.PathPrefix("/battle").Subrouter()
	battles.Use(authMiddleware)
	battles.HandleFunc("", battleHandler.Get).Methods(http.MethodGet)
	battles.HandleFunc("/select", battleHandler.Select).Methods(http.MethodPost)
	battles.HandleFunc("/move", battleHandler.Move).Methods(http.MethodPost)
	battles.HandleFunc("/end-round", battleHandler.EndRound).Methods(http.MethodPost)
	battles.HandleFunc("/play-again", battleHandler.PlayAgain).Methods(http.MethodPost)
	battles.HandleFunc("/menu", battleHandler.BackToMenu).Methods(http.MethodPost)
	battles.HandleFunc("/strategies", battleHandler.Strategies).Methods(http.MethodGet)
	battles.HandleFunc("/strategy", battleHandler.SetStrategy).Methods(http.MethodPost)
	battles.HandleFunc("/events", battleHandler.Events).Methods(http.MethodGet)
	battles.HandleFunc("/ws", battleHandler.WebSocket).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
