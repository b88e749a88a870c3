package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

const sessionColumns = `id, player1, player2, wager_microalgos, piles, turn_owner, state, version, created_at, last_move_at, last_reminder_at`

func scanSession(row pgx.Row) (*GameSession, error) {
	var g GameSession
	err := row.Scan(&g.ID, &g.Player1, &g.Player2, &g.WagerMicroalgos, &g.Piles,
		&g.TurnOwner, &g.State, &g.Version, &g.CreatedAt, &g.LastMoveAt, &g.LastReminderAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (s *Store) CreateSession(ctx context.Context, g GameSession) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO game_sessions (id, player1, player2, wager_microalgos, piles, turn_owner, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, g.ID, g.Player1, g.Player2, g.WagerMicroalgos, g.Piles, g.TurnOwner, g.State)
	return err
}

func (s *Store) GetSession(ctx context.Context, id string) (*GameSession, error) {
	return scanSession(s.Pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM game_sessions WHERE id = $1`, id))
}

// GetRecentSessionForPlayer finds a live session involving the address
// created after since. Used by poll-match to report a fresh pairing.
func (s *Store) GetRecentSessionForPlayer(ctx context.Context, address string, since time.Time) (*GameSession, error) {
	return scanSession(s.Pool.QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM game_sessions
		WHERE (player1 = $1 OR player2 = $1) AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT 1
	`, address, since))
}

// MarkInProgress flips awaiting_deposits to in_progress. Safe to call
// more than once: only the first call transitions.
func (s *Store) MarkInProgress(ctx context.Context, id string) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE game_sessions
		SET state = $2, version = version + 1, last_move_at = now()
		WHERE id = $1 AND state = $3
	`, id, StateInProgress, StateAwaitingDeposits)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ApplyMove commits a non-terminal move. The version/turn-owner guard is
// the arbiter between concurrent moves and the sweeper's forfeit: at
// most one writer per version wins.
func (s *Store) ApplyMove(ctx context.Context, id string, version int64, turnOwner string, piles []int32, nextTurn string) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE game_sessions
		SET piles = $4, turn_owner = $5, last_move_at = now(), version = version + 1
		WHERE id = $1 AND version = $2 AND turn_owner = $3 AND state = $6
	`, id, version, turnOwner, piles, nextTurn, StateInProgress)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ConcludeSession ends an in_progress session under the same guard as
// ApplyMove. Exactly one caller (final move or forfeit) wins; only that
// caller may write history and ratings.
func (s *Store) ConcludeSession(ctx context.Context, id string, version int64, turnOwner string) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE game_sessions
		SET state = $4, version = version + 1
		WHERE id = $1 AND version = $2 AND turn_owner = $3 AND state = $5
	`, id, version, turnOwner, StateConcluded, StateInProgress)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteSession removes a concluded session from the active set.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM game_sessions WHERE id = $1 AND state = $2`, id, StateConcluded)
	return err
}

// TouchReminder records that the turn owner was nudged. It does not bump
// the version: a reminder must never invalidate an in-flight move.
func (s *Store) TouchReminder(ctx context.Context, id string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE game_sessions SET last_reminder_at = now() WHERE id = $1 AND state = $2
	`, id, StateInProgress)
	return err
}

// ListReminderDue selects in_progress sessions idle past the threshold
// whose owner has not been reminded since their last move.
func (s *Store) ListReminderDue(ctx context.Context, before time.Time) ([]GameSession, error) {
	return s.listSessions(ctx, `
		SELECT `+sessionColumns+` FROM game_sessions
		WHERE state = $1 AND last_move_at < $2
		  AND (last_reminder_at IS NULL OR last_reminder_at < $2)
		ORDER BY last_move_at ASC
	`, StateInProgress, before)
}

// ListAbandoned selects in_progress sessions idle past the abandonment
// threshold.
func (s *Store) ListAbandoned(ctx context.Context, before time.Time) ([]GameSession, error) {
	return s.listSessions(ctx, `
		SELECT `+sessionColumns+` FROM game_sessions
		WHERE state = $1 AND last_move_at < $2
		ORDER BY last_move_at ASC
	`, StateInProgress, before)
}

func (s *Store) listSessions(ctx context.Context, q string, args ...any) ([]GameSession, error) {
	rows, err := s.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []GameSession{}
	for rows.Next() {
		var g GameSession
		if err := rows.Scan(&g.ID, &g.Player1, &g.Player2, &g.WagerMicroalgos, &g.Piles,
			&g.TurnOwner, &g.State, &g.Version, &g.CreatedAt, &g.LastMoveAt, &g.LastReminderAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
