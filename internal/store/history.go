package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// InsertHistory writes the single history record for a concluded game.
// The game_id primary key enforces at-most-once creation.
func (s *Store) InsertHistory(ctx context.Context, h HistoryRecord) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		INSERT INTO game_history (game_id, winner, loser, wager_microalgos, end_reason)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (game_id) DO NOTHING
	`, h.GameID, h.Winner, h.Loser, h.WagerMicroalgos, h.EndReason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) GetHistory(ctx context.Context, gameID string) (*HistoryRecord, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT game_id, winner, loser, wager_microalgos, end_reason, payout_tx_id, ended_at
		FROM game_history WHERE game_id = $1
	`, gameID)
	var h HistoryRecord
	if err := row.Scan(&h.GameID, &h.Winner, &h.Loser, &h.WagerMicroalgos, &h.EndReason, &h.PayoutTxID, &h.EndedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

// SetPayoutTxID records the settlement transfer id, only if none was
// recorded yet. Losing this compare-and-set means another claim already
// settled; callers must then surface the existing id.
func (s *Store) SetPayoutTxID(ctx context.Context, gameID, txID string) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE game_history SET payout_tx_id = $2 WHERE game_id = $1 AND payout_tx_id IS NULL
	`, gameID, txID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListHistoryForPlayer returns past concluded games involving the address,
// most recent first.
func (s *Store) ListHistoryForPlayer(ctx context.Context, address string, limit int) ([]HistoryRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT game_id, winner, loser, wager_microalgos, end_reason, payout_tx_id, ended_at
		FROM game_history
		WHERE winner = $1 OR loser = $1
		ORDER BY ended_at DESC
		LIMIT $2
	`, address, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []HistoryRecord{}
	for rows.Next() {
		var h HistoryRecord
		if err := rows.Scan(&h.GameID, &h.Winner, &h.Loser, &h.WagerMicroalgos, &h.EndReason, &h.PayoutTxID, &h.EndedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
