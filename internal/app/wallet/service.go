package wallet

import (
	"context"
	"errors"
	"fmt"

	"algonim-server/internal/chain"
	"algonim-server/internal/store"

	"github.com/rs/zerolog/log"
)

type Service struct {
	Store         *store.Store
	Gateway       chain.Gateway
	EscrowAddress string
	FeeMicroalgos int64
}

func NewService(st *store.Store, gw chain.Gateway, escrow string, fee int64) *Service {
	return &Service{Store: st, Gateway: gw, EscrowAddress: escrow, FeeMicroalgos: fee}
}

// RecordDeposit verifies a wager payment against the ledger and records
// it. The tx_id unique constraint makes a replayed confirmation a no-op
// instead of a double count. Reaching two distinct depositors starts the
// game; that transition is itself idempotent.
func (s *Service) RecordDeposit(ctx context.Context, gameID, player, txID string, amountMicroalgos int64) (*DepositResult, error) {
	sess, err := s.Store.GetSession(ctx, gameID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	if !sess.HasPlayer(player) {
		return nil, ErrNotAPlayer
	}

	tx, err := s.Gateway.LookupTransaction(ctx, txID)
	if errors.Is(err, chain.ErrTxNotFound) {
		return nil, ErrTxNotFound
	}
	if err != nil {
		return nil, err
	}
	if tx.Sender != player {
		return nil, ErrSenderMismatch
	}
	if tx.Receiver != s.EscrowAddress {
		return nil, ErrReceiverMismatch
	}
	if !chain.AmountsMatch(tx.AmountMicroalgos, amountMicroalgos) || !chain.AmountsMatch(tx.AmountMicroalgos, sess.WagerMicroalgos) {
		return nil, ErrAmountMismatch
	}

	inserted, err := s.Store.InsertDeposit(ctx, store.Deposit{
		TxID:             txID,
		GameID:           gameID,
		Player:           player,
		AmountMicroalgos: tx.AmountMicroalgos,
	})
	if err != nil {
		return nil, err
	}
	if !inserted {
		log.Debug().Str("tx_id", txID).Str("game_id", gameID).Msg("deposit replayed, ignoring")
	}

	n, err := s.Store.CountDepositors(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if n >= 2 {
		if _, err := s.Store.MarkInProgress(ctx, gameID); err != nil {
			return nil, err
		}
	}
	return &DepositResult{DepositsConfirmed: n, BothPlayersReady: n >= 2}, nil
}

// ClaimPayout settles the pot to the winner at most once. A recorded
// payout_tx_id is returned as-is on every later claim; otherwise a
// payment is issued and recorded behind a compare-and-set on the null
// field. Gateway failures leave the record payable for a retry.
func (s *Service) ClaimPayout(ctx context.Context, gameID, winner string) (*PayoutResult, error) {
	h, err := s.Store.GetHistory(ctx, gameID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotWinner
	}
	if err != nil {
		return nil, err
	}
	if h.Winner != winner {
		return nil, ErrNotWinner
	}

	amount := 2*h.WagerMicroalgos - s.FeeMicroalgos
	if h.PayoutTxID != nil {
		return &PayoutResult{TxID: *h.PayoutTxID, AmountMicroalgos: amount}, nil
	}

	note := fmt.Sprintf("AlgoNim winnings for game %s", gameID)
	txID, err := s.Gateway.SendPayment(ctx, winner, amount, note)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayoutFailed, err)
	}

	recorded, err := s.Store.SetPayoutTxID(ctx, gameID, txID)
	if err != nil {
		return nil, err
	}
	if !recorded {
		// A concurrent claim settled first; its id is authoritative.
		log.Warn().Str("game_id", gameID).Str("orphan_tx_id", txID).Msg("payout raced, issued transfer not recorded")
		h, err = s.Store.GetHistory(ctx, gameID)
		if err != nil {
			return nil, err
		}
		if h.PayoutTxID == nil {
			return nil, ErrPayoutFailed
		}
		return &PayoutResult{TxID: *h.PayoutTxID, AmountMicroalgos: amount}, nil
	}
	log.Info().Str("game_id", gameID).Str("tx_id", txID).Int64("amount_microalgos", amount).Msg("payout settled")
	return &PayoutResult{TxID: txID, AmountMicroalgos: amount}, nil
}
