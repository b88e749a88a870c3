package game

import (
	"context"
	"errors"

	nim "algonim-server/internal/game"
	"algonim-server/internal/store"

	"github.com/rs/zerolog/log"
)

type Service struct {
	Store *store.Store
}

func NewService(st *store.Store) *Service {
	return &Service{Store: st}
}

// SubmitMove validates and applies one move. The write is conditional on
// the version and turn owner read here, so a concurrent move or forfeit
// on the same session makes exactly one of the writers win.
func (s *Service) SubmitMove(ctx context.Context, gameID, address string, row, count int) (*MoveResult, error) {
	sess, err := s.Store.GetSession(ctx, gameID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	switch sess.State {
	case store.StateAwaitingDeposits:
		return nil, ErrDepositsPending
	case store.StateConcluded:
		return nil, ErrGameNotFound
	}
	if sess.TurnOwner != address {
		return nil, ErrNotYourTurn
	}

	piles, over, err := nim.ApplyMove(sess.Piles, row, count)
	if err != nil {
		return nil, ErrInvalidMove
	}

	if over {
		// Misère rule: whoever takes the last stick loses.
		winner := sess.Opponent(address)
		if err := s.Conclude(ctx, sess, winner, address, store.EndReasonNormal); err != nil {
			return nil, err
		}
		return &MoveResult{
			GameOver:      true,
			Winner:        winner,
			Loser:         address,
			PotMicroalgos: 2 * sess.WagerMicroalgos,
			Piles:         piles,
		}, nil
	}

	next := sess.Opponent(address)
	ok, err := s.Store.ApplyMove(ctx, sess.ID, sess.Version, address, piles, next)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the conditional write: the session moved under us.
		return nil, ErrNotYourTurn
	}
	return &MoveResult{
		Piles:           piles,
		SticksRemaining: nim.Remaining(piles),
		NextTurn:        next,
	}, nil
}

// Conclude is the single conclusion path shared by the final move and
// the sweeper's forfeit. The session transition is a compare-and-set;
// only its winner writes history, applies ratings and removes the
// session, so each of those happens at most once per game.
func (s *Service) Conclude(ctx context.Context, sess *store.GameSession, winner, loser, reason string) error {
	won, err := s.Store.ConcludeSession(ctx, sess.ID, sess.Version, sess.TurnOwner)
	if err != nil {
		return err
	}
	if !won {
		return ErrNotYourTurn
	}

	inserted, err := s.Store.InsertHistory(ctx, store.HistoryRecord{
		GameID:          sess.ID,
		Winner:          winner,
		Loser:           loser,
		WagerMicroalgos: sess.WagerMicroalgos,
		EndReason:       reason,
	})
	if err != nil {
		return err
	}
	if inserted {
		if err := s.Store.ApplyResult(ctx, winner, loser); err != nil {
			return err
		}
	}
	if err := s.Store.DeleteSession(ctx, sess.ID); err != nil {
		return err
	}
	log.Info().
		Str("game_id", sess.ID).
		Str("winner", winner).
		Str("loser", loser).
		Str("end_reason", reason).
		Msg("session concluded")
	return nil
}

// State returns the polling view for one of the session's players. Once
// the session left the active set, the history record answers instead.
func (s *Service) State(ctx context.Context, gameID, address string) (*StateView, error) {
	sess, err := s.Store.GetSession(ctx, gameID)
	if errors.Is(err, store.ErrNotFound) {
		return s.concludedState(ctx, gameID, address)
	}
	if err != nil {
		return nil, err
	}
	if !sess.HasPlayer(address) {
		return nil, ErrGameNotFound
	}
	youDep, err := s.Store.HasDeposit(ctx, gameID, address)
	if err != nil {
		return nil, err
	}
	oppDep, err := s.Store.HasDeposit(ctx, gameID, sess.Opponent(address))
	if err != nil {
		return nil, err
	}
	return &StateView{
		GameID:          sess.ID,
		State:           string(sess.State),
		Piles:           sess.Piles,
		SticksRemaining: nim.Remaining(sess.Piles),
		YourTurn:        sess.TurnOwner == address && sess.State == store.StateInProgress,
		Opponent:        sess.Opponent(address),
		PotMicroalgos:   2 * sess.WagerMicroalgos,
		YouDeposited:    youDep,
		OppDeposited:    oppDep,
		LastMoveAt:      sess.LastMoveAt,
	}, nil
}

func (s *Service) concludedState(ctx context.Context, gameID, address string) (*StateView, error) {
	h, err := s.Store.GetHistory(ctx, gameID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	if address != h.Winner && address != h.Loser {
		return nil, ErrGameNotFound
	}
	opp := h.Winner
	if address == h.Winner {
		opp = h.Loser
	}
	return &StateView{
		GameID:        h.GameID,
		State:         string(store.StateConcluded),
		Opponent:      opp,
		PotMicroalgos: 2 * h.WagerMicroalgos,
		GameOver:      true,
		Winner:        h.Winner,
		Loser:         h.Loser,
	}, nil
}
