package game

import (
	"context"
	"errors"
	"testing"

	"algonim-server/internal/store"
	"algonim-server/internal/testutil"
)

const testWager = int64(10000)

func newTestSession(t *testing.T, svc *Service, piles []int32, state store.SessionState, turnOwner string) *store.GameSession {
	t.Helper()
	ctx := context.Background()
	for _, addr := range []string{"ALICE", "BOB"} {
		if _, err := svc.Store.EnsurePlayer(ctx, addr); err != nil {
			t.Fatalf("ensure player %s: %v", addr, err)
		}
	}
	sess := store.GameSession{
		ID:              store.NewID(),
		Player1:         "ALICE",
		Player2:         "BOB",
		WagerMicroalgos: testWager,
		Piles:           piles,
		TurnOwner:       turnOwner,
		State:           state,
	}
	if err := svc.Store.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}
	got, err := svc.Store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	return got
}

func TestSubmitMoveBeforeDeposits(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	svc := NewService(st)
	sess := newTestSession(t, svc, []int32{1, 3, 5, 7}, store.StateAwaitingDeposits, "ALICE")

	if _, err := svc.SubmitMove(context.Background(), sess.ID, "ALICE", 0, 1); !errors.Is(err, ErrDepositsPending) {
		t.Fatalf("expected deposits_pending, got %v", err)
	}
}

func TestSubmitMoveOutOfTurn(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	svc := NewService(st)
	sess := newTestSession(t, svc, []int32{1, 3, 5, 7}, store.StateInProgress, "ALICE")

	if _, err := svc.SubmitMove(context.Background(), sess.ID, "BOB", 0, 1); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected not_your_turn, got %v", err)
	}
}

func TestSubmitMoveRejectsBadMoves(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	svc := NewService(st)
	sess := newTestSession(t, svc, []int32{1, 3, 5, 7}, store.StateInProgress, "ALICE")
	ctx := context.Background()

	cases := []struct {
		name       string
		row, count int
	}{
		{"row out of range", 4, 1},
		{"negative row", -1, 1},
		{"zero count", 0, 0},
		{"overdraw", 0, 2},
	}
	for _, tc := range cases {
		if _, err := svc.SubmitMove(ctx, sess.ID, "ALICE", tc.row, tc.count); !errors.Is(err, ErrInvalidMove) {
			t.Fatalf("%s: expected invalid_move, got %v", tc.name, err)
		}
	}
	// Rejections must not consume the turn.
	got, err := st.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.TurnOwner != "ALICE" || got.Version != sess.Version {
		t.Fatalf("session changed by rejected moves: %+v", got)
	}
}

func TestSubmitMoveClearsRowAndPassesTurn(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	svc := NewService(st)
	sess := newTestSession(t, svc, []int32{1, 3, 5, 7}, store.StateInProgress, "ALICE")
	ctx := context.Background()

	res, err := svc.SubmitMove(ctx, sess.ID, "ALICE", 3, 7)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if res.GameOver {
		t.Fatal("nine sticks left, game must not be over")
	}
	want := []int32{1, 3, 5, 0}
	for i, n := range want {
		if res.Piles[i] != n {
			t.Fatalf("piles = %v, want %v", res.Piles, want)
		}
	}
	if res.SticksRemaining != 9 {
		t.Fatalf("sticksRemaining = %d, want 9", res.SticksRemaining)
	}
	if res.NextTurn != "BOB" {
		t.Fatalf("next turn = %q, want BOB", res.NextTurn)
	}
	got, err := st.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.TurnOwner != "BOB" || got.Version != sess.Version+1 {
		t.Fatalf("session not advanced: turn=%s version=%d", got.TurnOwner, got.Version)
	}
}

func TestFinalStickLosesTheGame(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	svc := NewService(st)
	sess := newTestSession(t, svc, []int32{0, 0, 0, 1}, store.StateInProgress, "ALICE")
	ctx := context.Background()

	res, err := svc.SubmitMove(ctx, sess.ID, "ALICE", 3, 1)
	if err != nil {
		t.Fatalf("final move: %v", err)
	}
	if !res.GameOver {
		t.Fatal("expected game over")
	}
	if res.Winner != "BOB" || res.Loser != "ALICE" {
		t.Fatalf("taker of the last stick must lose: winner=%s loser=%s", res.Winner, res.Loser)
	}
	if res.PotMicroalgos != 2*testWager {
		t.Fatalf("pot = %d, want %d", res.PotMicroalgos, 2*testWager)
	}

	if _, err := st.GetSession(ctx, sess.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("session should be removed, got %v", err)
	}
	h, err := st.GetHistory(ctx, sess.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if h.Winner != "BOB" || h.EndReason != store.EndReasonNormal {
		t.Fatalf("history = %+v", h)
	}

	winner, err := st.GetPlayer(ctx, "BOB")
	if err != nil {
		t.Fatalf("winner: %v", err)
	}
	loser, err := st.GetPlayer(ctx, "ALICE")
	if err != nil {
		t.Fatalf("loser: %v", err)
	}
	if winner.Rating != 1220 || winner.Wins != 1 {
		t.Fatalf("winner rating=%d wins=%d, want 1220/1", winner.Rating, winner.Wins)
	}
	if loser.Rating != 1185 || loser.Losses != 1 {
		t.Fatalf("loser rating=%d losses=%d, want 1185/1", loser.Rating, loser.Losses)
	}

	// The session is gone, so a replayed final move reads as no game.
	if _, err := svc.SubmitMove(ctx, sess.ID, "ALICE", 3, 1); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected game_not_found on replay, got %v", err)
	}
}

func TestConcludeLosesToConcurrentMove(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	svc := NewService(st)
	sess := newTestSession(t, svc, []int32{1, 3, 5, 7}, store.StateInProgress, "ALICE")
	ctx := context.Background()

	// A move lands after the stale read, bumping the version.
	if _, err := svc.SubmitMove(ctx, sess.ID, "ALICE", 1, 1); err != nil {
		t.Fatalf("move: %v", err)
	}
	err := svc.Conclude(ctx, sess, "BOB", "ALICE", store.EndReasonAbandoned)
	if !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("stale conclude should lose the compare-and-set, got %v", err)
	}
	if _, err := st.GetHistory(ctx, sess.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("losing conclude must not write history, got %v", err)
	}
}

func TestRatingNeverDropsBelowFloor(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	for _, addr := range []string{"ALICE", "BOB"} {
		if _, err := st.EnsurePlayer(ctx, addr); err != nil {
			t.Fatalf("ensure: %v", err)
		}
	}
	if _, err := st.Pool.Exec(ctx, `UPDATE players SET rating = 105 WHERE address = 'BOB'`); err != nil {
		t.Fatalf("set rating: %v", err)
	}
	if err := st.ApplyResult(ctx, "ALICE", "BOB"); err != nil {
		t.Fatalf("apply result: %v", err)
	}
	loser, err := st.GetPlayer(ctx, "BOB")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loser.Rating != 100 {
		t.Fatalf("rating = %d, want floor 100", loser.Rating)
	}
}

func TestStateHidesGameFromStrangers(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	svc := NewService(st)
	sess := newTestSession(t, svc, []int32{1, 3, 5, 7}, store.StateInProgress, "ALICE")

	if _, err := svc.State(context.Background(), sess.ID, "MALLORY"); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected game_not_found for outsider, got %v", err)
	}
}

func TestStateAnswersFromHistoryAfterConclusion(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	svc := NewService(st)
	sess := newTestSession(t, svc, []int32{0, 0, 0, 1}, store.StateInProgress, "ALICE")
	ctx := context.Background()

	if _, err := svc.SubmitMove(ctx, sess.ID, "ALICE", 3, 1); err != nil {
		t.Fatalf("final move: %v", err)
	}
	view, err := svc.State(ctx, sess.ID, "ALICE")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if !view.GameOver || view.Winner != "BOB" || view.Loser != "ALICE" {
		t.Fatalf("view = %+v", view)
	}
	if view.Opponent != "BOB" {
		t.Fatalf("opponent = %q, want BOB", view.Opponent)
	}
}
