package wallet

import "errors"

var (
	ErrGameNotFound     = errors.New("game_not_found")
	ErrNotAPlayer       = errors.New("not_a_player")
	ErrTxNotFound       = errors.New("transaction_not_found")
	ErrSenderMismatch   = errors.New("sender_mismatch")
	ErrReceiverMismatch = errors.New("receiver_mismatch")
	ErrAmountMismatch   = errors.New("amount_mismatch")
	ErrNotWinner        = errors.New("not_a_winner")
	ErrPayoutFailed     = errors.New("payout_failed")
)
