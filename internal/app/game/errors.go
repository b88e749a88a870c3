package game

import "errors"

var (
	ErrGameNotFound    = errors.New("game_not_found")
	ErrNotYourTurn     = errors.New("not_your_turn")
	ErrInvalidMove     = errors.New("invalid_move")
	ErrDepositsPending = errors.New("deposits_pending")
)
