package match

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"algonim-server/internal/game"
	"algonim-server/internal/store"

	"github.com/rs/zerolog/log"
)

// recentMatchWindow bounds how far back poll-match looks for a session
// created on the caller's behalf.
const recentMatchWindow = 10 * time.Minute

type Service struct {
	Store        *store.Store
	RatingWindow int
}

func NewService(st *store.Store, ratingWindow int) *Service {
	return &Service{Store: st, RatingWindow: ratingWindow}
}

// Enqueue pairs the caller with the oldest compatible waiter at the same
// wager tier, or parks a queue entry. The opponent claim is a conditional
// delete: when two searchers race for the same waiter, exactly one wins
// and the other retries once before parking.
func (s *Service) Enqueue(ctx context.Context, address string, wagerMicroalgos int64, rating int, mode string) (*Result, error) {
	player, err := s.Store.EnsurePlayer(ctx, address)
	if err != nil {
		return nil, err
	}
	if rating <= 0 {
		rating = player.Rating
	}
	if _, err := s.Store.GetQueueEntry(ctx, address); err == nil {
		return nil, ErrAlreadyQueued
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	for attempt := 0; attempt < 2; attempt++ {
		candidate, err := s.Store.FindCandidate(ctx, address, wagerMicroalgos, rating, s.RatingWindow)
		if errors.Is(err, store.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		claimed, err := s.Store.ClaimQueueEntry(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if !claimed {
			// Opponent raced away; search again once.
			continue
		}
		return s.createSession(ctx, candidate.Address, address, wagerMicroalgos)
	}

	err = s.Store.InsertQueueEntry(ctx, store.QueueEntry{
		Address:         address,
		WagerMicroalgos: wagerMicroalgos,
		Rating:          rating,
		Mode:            mode,
	})
	if errors.Is(err, store.ErrAlreadyQueued) {
		return nil, ErrAlreadyQueued
	}
	if err != nil {
		return nil, err
	}
	return &Result{Matched: false, WagerMicroalgos: wagerMicroalgos}, nil
}

func (s *Service) createSession(ctx context.Context, waiter, joiner string, wager int64) (*Result, error) {
	turnOwner := waiter
	if rand.Intn(2) == 1 {
		turnOwner = joiner
	}
	sess := store.GameSession{
		ID:              store.NewID(),
		Player1:         waiter,
		Player2:         joiner,
		WagerMicroalgos: wager,
		Piles:           game.NewPiles(),
		TurnOwner:       turnOwner,
		State:           store.StateAwaitingDeposits,
	}
	if err := s.Store.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	log.Info().
		Str("game_id", sess.ID).
		Str("player1", waiter).
		Str("player2", joiner).
		Int64("wager_microalgos", wager).
		Msg("session created")
	return &Result{
		Matched:         true,
		GameID:          sess.ID,
		Opponent:        waiter,
		YourTurn:        turnOwner == joiner,
		PotMicroalgos:   2 * wager,
		WagerMicroalgos: wager,
	}, nil
}

// Cancel drops the caller's queue entry. Idempotent.
func (s *Service) Cancel(ctx context.Context, address string) error {
	_, err := s.Store.DeleteQueueEntry(ctx, address)
	return err
}

// Poll reports whether the caller is still waiting or was paired into a
// recent session.
func (s *Service) Poll(ctx context.Context, address string) (*PollStatus, error) {
	entry, err := s.Store.GetQueueEntry(ctx, address)
	if err == nil {
		others, err := s.Store.CountWaitersAtWager(ctx, entry.WagerMicroalgos, address)
		if err != nil {
			return nil, err
		}
		return &PollStatus{
			Queued:          true,
			WaitSeconds:     int64(time.Since(entry.EnqueuedAt).Seconds()),
			OthersSearching: others,
		}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	sess, err := s.Store.GetRecentSessionForPlayer(ctx, address, time.Now().Add(-recentMatchWindow))
	if errors.Is(err, store.ErrNotFound) {
		return &PollStatus{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &PollStatus{
		Matched:       true,
		GameID:        sess.ID,
		Opponent:      sess.Opponent(address),
		YourTurn:      sess.TurnOwner == address,
		PotMicroalgos: 2 * sess.WagerMicroalgos,
	}, nil
}
