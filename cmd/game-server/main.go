package main

import (
	"context"
	"net/http"
	"time"

	appgame "algonim-server/internal/app/game"
	"algonim-server/internal/app/match"
	"algonim-server/internal/app/public"
	"algonim-server/internal/app/wallet"
	"algonim-server/internal/chain"
	"algonim-server/internal/config"
	"algonim-server/internal/logging"
	"algonim-server/internal/store"
	"algonim-server/internal/sweeper"

	"github.com/rs/zerolog/log"
)

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("load server config failed")
	}

	st, err := store.New(cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	if err := st.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}

	gateway := chain.NewClient(cfg.AlgodURL, cfg.AlgodToken)

	matchSvc := match.NewService(st, cfg.MatchRatingWindow)
	gameSvc := appgame.NewService(st)
	walletSvc := wallet.NewService(st, gateway, cfg.EscrowAddress, cfg.PayoutFeeMicroalgos)
	publicSvc := public.NewService(st)

	sw := sweeper.New(st, gameSvc, walletSvc, gateway, cfg.ReminderAfter, cfg.AbandonAfter, cfg.QueueTTL)
	if err := sw.Start(context.Background(), cfg.SweepInterval); err != nil {
		log.Fatal().Err(err).Msg("sweeper start failed")
	}
	defer sw.Stop()

	r := newRouter(cfg, st, matchSvc, gameSvc, walletSvc, publicSvc)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}
