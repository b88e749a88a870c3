// Package sweeper is the background janitor: it reminds idle turn
// owners, forfeits abandoned sessions and expires stale queue entries.
// It races the request handlers on the same rows by design; every
// mutation goes through the store's conditional writes, so a move
// landing mid-sweep can never be both applied and forfeited.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	appgame "algonim-server/internal/app/game"
	"algonim-server/internal/app/wallet"
	"algonim-server/internal/chain"
	"algonim-server/internal/store"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

type Sweeper struct {
	Store   *store.Store
	Games   *appgame.Service
	Wallet  *wallet.Service
	Gateway chain.Gateway

	ReminderAfter time.Duration
	AbandonAfter  time.Duration
	QueueTTL      time.Duration

	sched gocron.Scheduler
}

func New(st *store.Store, games *appgame.Service, w *wallet.Service, gw chain.Gateway, reminderAfter, abandonAfter, queueTTL time.Duration) *Sweeper {
	return &Sweeper{
		Store:         st,
		Games:         games,
		Wallet:        w,
		Gateway:       gw,
		ReminderAfter: reminderAfter,
		AbandonAfter:  abandonAfter,
		QueueTTL:      queueTTL,
	}
}

// Start runs Tick on a fixed interval until Stop.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			tickCtx, cancel := context.WithTimeout(ctx, interval)
			defer cancel()
			s.Tick(tickCtx)
		}),
	)
	if err != nil {
		return err
	}
	sched.Start()
	s.sched = sched
	log.Info().Dur("interval", interval).Msg("sweeper started")
	return nil
}

func (s *Sweeper) Stop() {
	if s.sched != nil {
		_ = s.sched.Shutdown()
	}
}

// Tick performs one sweep. Each step isolates per-item failures: one
// broken session must not starve the rest.
func (s *Sweeper) Tick(ctx context.Context) {
	now := time.Now()
	s.expireQueue(ctx, now)
	s.remindIdle(ctx, now)
	s.forfeitAbandoned(ctx, now)
}

func (s *Sweeper) expireQueue(ctx context.Context, now time.Time) {
	n, err := s.Store.DeleteExpiredQueueEntries(ctx, now.Add(-s.QueueTTL))
	if err != nil {
		log.Error().Err(err).Msg("sweep: expire queue failed")
		return
	}
	if n > 0 {
		log.Info().Int64("expired", n).Msg("sweep: stale queue entries dropped")
	}
}

func (s *Sweeper) remindIdle(ctx context.Context, now time.Time) {
	due, err := s.Store.ListReminderDue(ctx, now.Add(-s.ReminderAfter))
	if err != nil {
		log.Error().Err(err).Msg("sweep: list reminders failed")
		return
	}
	for _, sess := range due {
		if now.Sub(sess.LastMoveAt) > s.AbandonAfter {
			// About to be forfeited; no point nudging.
			continue
		}
		note := fmt.Sprintf("AlgoNim: your move in game %s", sess.ID)
		if _, err := s.Gateway.SendPayment(ctx, sess.TurnOwner, 0, note); err != nil {
			log.Error().Err(err).Str("game_id", sess.ID).Msg("sweep: reminder payment failed")
			continue
		}
		if err := s.Store.TouchReminder(ctx, sess.ID); err != nil {
			log.Error().Err(err).Str("game_id", sess.ID).Msg("sweep: touch reminder failed")
		}
	}
}

func (s *Sweeper) forfeitAbandoned(ctx context.Context, now time.Time) {
	stale, err := s.Store.ListAbandoned(ctx, now.Add(-s.AbandonAfter))
	if err != nil {
		log.Error().Err(err).Msg("sweep: list abandoned failed")
		return
	}
	for i := range stale {
		sess := stale[i]
		winner := sess.Opponent(sess.TurnOwner)
		loser := sess.TurnOwner
		err := s.Games.Conclude(ctx, &sess, winner, loser, store.EndReasonAbandoned)
		if errors.Is(err, appgame.ErrNotYourTurn) {
			// A move beat us to the session; it is no longer abandoned.
			log.Debug().Str("game_id", sess.ID).Msg("sweep: forfeit lost race to a move")
			continue
		}
		if err != nil {
			log.Error().Err(err).Str("game_id", sess.ID).Msg("sweep: forfeit failed")
			continue
		}
		log.Info().Str("game_id", sess.ID).Str("forfeited_by", loser).Msg("sweep: session forfeited")
		if _, err := s.Wallet.ClaimPayout(ctx, sess.ID, winner); err != nil {
			// Retryable: the winner can claim later.
			log.Error().Err(err).Str("game_id", sess.ID).Msg("sweep: settlement failed")
		}
	}
}
