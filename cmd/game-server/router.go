package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	appgame "algonim-server/internal/app/game"
	"algonim-server/internal/app/match"
	"algonim-server/internal/app/public"
	"algonim-server/internal/app/wallet"
	"algonim-server/internal/config"
	"algonim-server/internal/logging"
	"algonim-server/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"
)

func newRouter(cfg config.ServerConfig, st *store.Store, matchSvc *match.Service, gameSvc *appgame.Service, walletSvc *wallet.Service, publicSvc *public.Service) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(apiLogMiddleware()).Get("/healthz", healthHandler(st))

	r.Route("/api", func(r chi.Router) {
		r.Use(apiLogMiddleware())
		r.Post("/find-match", findMatchHandler(cfg, matchSvc))
		r.Post("/poll-match", pollMatchHandler(matchSvc))
		r.Post("/cancel-search", cancelSearchHandler(matchSvc))
		r.Post("/make-move", makeMoveHandler(gameSvc))
		r.Get("/game-state", gameStateHandler(gameSvc))
		r.Post("/deposit-wager", depositWagerHandler(walletSvc))
		r.Post("/claim-winnings", claimWinningsHandler(walletSvc))
		r.Get("/leaderboard", leaderboardHandler(publicSvc))
		r.Get("/player-stats", playerStatsHandler(publicSvc))
		r.Get("/game-history", gameHistoryHandler(publicSvc))
	})

	return r
}

func apiLogMiddleware() func(http.Handler) http.Handler {
	return httplog.RequestLogger(
		slog.New(slog.NewJSONHandler(logging.Writer(), &slog.HandlerOptions{})),
		&httplog.Options{
			Level:  slog.LevelInfo,
			Schema: httplog.Schema{ResponseStatus: "status", ResponseDuration: "duration_ms"},
			LogExtraAttrs: func(req *http.Request, _ string, _ int) []slog.Attr {
				rc := chi.RouteContext(req.Context())
				route := req.URL.Path
				if rc != nil && rc.RoutePattern() != "" {
					route = rc.RoutePattern()
				}
				return []slog.Attr{
					slog.String("request_id", chimw.GetReqID(req.Context())),
					slog.String("method", req.Method),
					slog.String("route", route),
				}
			},
		},
	)
}

func healthHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "db": "down"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "db": "up"})
	}
}
