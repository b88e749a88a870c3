package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

const ratingFloor = 100

// EnsurePlayer creates the player row on first contact and returns it.
func (s *Store) EnsurePlayer(ctx context.Context, address string) (*Player, error) {
	_, err := s.Pool.Exec(ctx, `INSERT INTO players (address) VALUES ($1) ON CONFLICT (address) DO NOTHING`, address)
	if err != nil {
		return nil, err
	}
	return s.GetPlayer(ctx, address)
}

func (s *Store) GetPlayer(ctx context.Context, address string) (*Player, error) {
	row := s.Pool.QueryRow(ctx, `SELECT address, rating, wins, losses, created_at, updated_at FROM players WHERE address = $1`, address)
	var p Player
	if err := row.Scan(&p.Address, &p.Rating, &p.Wins, &p.Losses, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ApplyResult records a concluded game on both players' records. Callers
// must reach this only from the single conclusion path that won the
// session's conditional transition.
func (s *Store) ApplyResult(ctx context.Context, winner, loser string) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `INSERT INTO players (address) VALUES ($1), ($2) ON CONFLICT (address) DO NOTHING`, winner, loser); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE players SET rating = rating + 20, wins = wins + 1, updated_at = now() WHERE address = $1`, winner); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE players SET rating = GREATEST($2, rating - 15), losses = losses + 1, updated_at = now() WHERE address = $1`, loser, ratingFloor); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListLeaderboard returns the top players by rating among those with at
// least minGames concluded games.
func (s *Store) ListLeaderboard(ctx context.Context, minGames, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT address, rating, wins, losses
		FROM players
		WHERE wins + losses >= $1
		ORDER BY rating DESC, address ASC
		LIMIT $2
	`, minGames, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LeaderboardEntry{}
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Address, &e.Rating, &e.Wins, &e.Losses); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
