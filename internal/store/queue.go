package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

var ErrAlreadyQueued = errors.New("already_queued")

func (s *Store) InsertQueueEntry(ctx context.Context, e QueueEntry) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO queue_entries (address, wager_microalgos, rating, mode, enqueued_at)
		VALUES ($1, $2, $3, $4, now())
	`, e.Address, e.WagerMicroalgos, e.Rating, e.Mode)
	if isUniqueViolation(err) {
		return ErrAlreadyQueued
	}
	return err
}

func (s *Store) GetQueueEntry(ctx context.Context, address string) (*QueueEntry, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT address, wager_microalgos, rating, mode, enqueued_at
		FROM queue_entries WHERE address = $1
	`, address)
	var e QueueEntry
	if err := row.Scan(&e.Address, &e.WagerMicroalgos, &e.Rating, &e.Mode, &e.EnqueuedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// DeleteQueueEntry removes the entry if present; reports whether a row
// was actually deleted.
func (s *Store) DeleteQueueEntry(ctx context.Context, address string) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM queue_entries WHERE address = $1`, address)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// FindCandidate returns the oldest compatible waiter: same wager, rating
// within the window, not the searcher itself.
func (s *Store) FindCandidate(ctx context.Context, address string, wager int64, rating, window int) (*QueueEntry, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT address, wager_microalgos, rating, mode, enqueued_at
		FROM queue_entries
		WHERE wager_microalgos = $1
		  AND address <> $2
		  AND ABS(rating - $3) <= $4
		ORDER BY enqueued_at ASC
		LIMIT 1
	`, wager, address, rating, window)
	var e QueueEntry
	if err := row.Scan(&e.Address, &e.WagerMicroalgos, &e.Rating, &e.Mode, &e.EnqueuedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// ClaimQueueEntry atomically removes a candidate discovered by
// FindCandidate. The enqueued_at guard ensures a re-enqueued entry under
// the same address is not claimed by a stale search.
func (s *Store) ClaimQueueEntry(ctx context.Context, e *QueueEntry) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		DELETE FROM queue_entries
		WHERE address = $1 AND wager_microalgos = $2 AND enqueued_at = $3
	`, e.Address, e.WagerMicroalgos, e.EnqueuedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CountWaitersAtWager counts other players searching at the same tier.
func (s *Store) CountWaitersAtWager(ctx context.Context, wager int64, exclude string) (int, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT COUNT(1) FROM queue_entries WHERE wager_microalgos = $1 AND address <> $2
	`, wager, exclude)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteExpiredQueueEntries drops entries whose waiters gave up long ago.
func (s *Store) DeleteExpiredQueueEntries(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM queue_entries WHERE enqueued_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
