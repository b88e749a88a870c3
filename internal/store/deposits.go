package store

import "context"

// InsertDeposit records a verified wager deposit. The tx_id primary key
// makes replays a no-op; the return value reports whether this call was
// the one that inserted the row.
func (s *Store) InsertDeposit(ctx context.Context, d Deposit) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		INSERT INTO deposits (tx_id, game_id, player, amount_microalgos)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tx_id) DO NOTHING
	`, d.TxID, d.GameID, d.Player, d.AmountMicroalgos)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CountDepositors counts players with at least one confirmed deposit for
// the game. Distinct on player so two transactions from one impatient
// player do not start the game alone.
func (s *Store) CountDepositors(ctx context.Context, gameID string) (int, error) {
	row := s.Pool.QueryRow(ctx, `SELECT COUNT(DISTINCT player) FROM deposits WHERE game_id = $1`, gameID)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) HasDeposit(ctx context.Context, gameID, player string) (bool, error) {
	row := s.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM deposits WHERE game_id = $1 AND player = $2)`, gameID, player)
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}
