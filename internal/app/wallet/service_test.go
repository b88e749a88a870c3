package wallet

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"algonim-server/internal/chain"
	"algonim-server/internal/store"
	"algonim-server/internal/testutil"
)

const (
	escrowAddr = "ESCROW"
	testWager  = int64(10000)
	testFee    = int64(1000)
)

// fakeGateway serves canned lookups and counts issued payments.
type fakeGateway struct {
	txs      map[string]*chain.PaymentTx
	sent     []string
	sendErr  error
	nextTxID int
}

func (f *fakeGateway) LookupTransaction(_ context.Context, txID string) (*chain.PaymentTx, error) {
	tx, ok := f.txs[txID]
	if !ok {
		return nil, chain.ErrTxNotFound
	}
	return tx, nil
}

func (f *fakeGateway) AccountBalance(context.Context, string) (int64, error) {
	return 0, nil
}

func (f *fakeGateway) SendPayment(_ context.Context, to string, amount int64, _ string) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.nextTxID++
	id := fmt.Sprintf("PAYOUT%d", f.nextTxID)
	f.sent = append(f.sent, fmt.Sprintf("%s:%d:%s", to, amount, id))
	return id, nil
}

func (f *fakeGateway) addPayment(txID, sender string, amount int64) {
	if f.txs == nil {
		f.txs = map[string]*chain.PaymentTx{}
	}
	f.txs[txID] = &chain.PaymentTx{
		TxID:             txID,
		Sender:           sender,
		Receiver:         escrowAddr,
		AmountMicroalgos: amount,
	}
}

func newTestWallet(t *testing.T) (*Service, *fakeGateway, func()) {
	st, cleanup := testutil.OpenTestStore(t)
	gw := &fakeGateway{}
	return NewService(st, gw, escrowAddr, testFee), gw, cleanup
}

func seedSession(t *testing.T, st *store.Store) *store.GameSession {
	t.Helper()
	ctx := context.Background()
	for _, addr := range []string{"ALICE", "BOB"} {
		if _, err := st.EnsurePlayer(ctx, addr); err != nil {
			t.Fatalf("ensure %s: %v", addr, err)
		}
	}
	sess := store.GameSession{
		ID:              store.NewID(),
		Player1:         "ALICE",
		Player2:         "BOB",
		WagerMicroalgos: testWager,
		Piles:           []int32{1, 3, 5, 7},
		TurnOwner:       "ALICE",
		State:           store.StateAwaitingDeposits,
	}
	if err := st.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return &sess
}

func TestRecordDepositVerifiesAgainstLedger(t *testing.T) {
	svc, gw, cleanup := newTestWallet(t)
	defer cleanup()
	sess := seedSession(t, svc.Store)
	ctx := context.Background()

	gw.addPayment("TX_SENDER", "MALLORY", testWager)
	gw.addPayment("TX_SHORT", "ALICE", testWager-5000)
	gw.txs["TX_WRONG_RCV"] = &chain.PaymentTx{TxID: "TX_WRONG_RCV", Sender: "ALICE", Receiver: "ELSEWHERE", AmountMicroalgos: testWager}

	cases := []struct {
		name string
		txID string
		want error
	}{
		{"unknown tx", "TX_MISSING", ErrTxNotFound},
		{"wrong sender", "TX_SENDER", ErrSenderMismatch},
		{"wrong receiver", "TX_WRONG_RCV", ErrReceiverMismatch},
		{"short amount", "TX_SHORT", ErrAmountMismatch},
	}
	for _, tc := range cases {
		if _, err := svc.RecordDeposit(ctx, sess.ID, "ALICE", tc.txID, testWager); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
	if _, err := svc.RecordDeposit(ctx, sess.ID, "MALLORY", "TX_MISSING", testWager); !errors.Is(err, ErrNotAPlayer) {
		t.Fatalf("outsider deposit: got %v, want not_a_player", err)
	}
	if _, err := svc.RecordDeposit(ctx, "NOPE", "ALICE", "TX_MISSING", testWager); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("unknown game: got %v, want game_not_found", err)
	}
}

func TestRecordDepositWithinEpsilon(t *testing.T) {
	svc, gw, cleanup := newTestWallet(t)
	defer cleanup()
	sess := seedSession(t, svc.Store)

	gw.addPayment("TX_NEAR", "ALICE", testWager+chain.AmountEpsilonMicroalgos)
	res, err := svc.RecordDeposit(context.Background(), sess.ID, "ALICE", "TX_NEAR", testWager)
	if err != nil {
		t.Fatalf("near-exact amount should verify: %v", err)
	}
	if res.DepositsConfirmed != 1 || res.BothPlayersReady {
		t.Fatalf("result = %+v", res)
	}
}

func TestRecordDepositReplayDoesNotDoubleCount(t *testing.T) {
	svc, gw, cleanup := newTestWallet(t)
	defer cleanup()
	sess := seedSession(t, svc.Store)
	ctx := context.Background()

	gw.addPayment("TX_A", "ALICE", testWager)
	for i := 0; i < 2; i++ {
		res, err := svc.RecordDeposit(ctx, sess.ID, "ALICE", "TX_A", testWager)
		if err != nil {
			t.Fatalf("deposit %d: %v", i, err)
		}
		if res.DepositsConfirmed != 1 {
			t.Fatalf("deposit %d: confirmed = %d, want 1", i, res.DepositsConfirmed)
		}
		if res.BothPlayersReady {
			t.Fatalf("deposit %d: one player cannot make both ready", i)
		}
	}
	got, err := svc.Store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if got.State != store.StateAwaitingDeposits {
		t.Fatalf("state = %q, want awaiting_deposits", got.State)
	}
}

func TestSecondDepositorStartsTheGame(t *testing.T) {
	svc, gw, cleanup := newTestWallet(t)
	defer cleanup()
	sess := seedSession(t, svc.Store)
	ctx := context.Background()

	gw.addPayment("TX_A", "ALICE", testWager)
	gw.addPayment("TX_B", "BOB", testWager)
	if _, err := svc.RecordDeposit(ctx, sess.ID, "ALICE", "TX_A", testWager); err != nil {
		t.Fatalf("first deposit: %v", err)
	}
	res, err := svc.RecordDeposit(ctx, sess.ID, "BOB", "TX_B", testWager)
	if err != nil {
		t.Fatalf("second deposit: %v", err)
	}
	if !res.BothPlayersReady {
		t.Fatal("expected both players ready")
	}
	got, err := svc.Store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if got.State != store.StateInProgress {
		t.Fatalf("state = %q, want in_progress", got.State)
	}
}

func seedHistory(t *testing.T, st *store.Store, gameID string) {
	t.Helper()
	inserted, err := st.InsertHistory(context.Background(), store.HistoryRecord{
		GameID:          gameID,
		Winner:          "ALICE",
		Loser:           "BOB",
		WagerMicroalgos: testWager,
		EndReason:       store.EndReasonNormal,
	})
	if err != nil || !inserted {
		t.Fatalf("seed history: inserted=%v err=%v", inserted, err)
	}
}

func TestClaimPayoutIssuesOnceAndReplaysTxID(t *testing.T) {
	svc, gw, cleanup := newTestWallet(t)
	defer cleanup()
	gameID := store.NewID()
	seedHistory(t, svc.Store, gameID)
	ctx := context.Background()

	first, err := svc.ClaimPayout(ctx, gameID, "ALICE")
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	wantAmount := 2*testWager - testFee
	if first.AmountMicroalgos != wantAmount {
		t.Fatalf("amount = %d, want %d", first.AmountMicroalgos, wantAmount)
	}
	second, err := svc.ClaimPayout(ctx, gameID, "ALICE")
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if second.TxID != first.TxID {
		t.Fatalf("replayed claim returned %q, want %q", second.TxID, first.TxID)
	}
	if len(gw.sent) != 1 {
		t.Fatalf("payments issued = %d, want exactly 1", len(gw.sent))
	}
}

func TestClaimPayoutRejectsNonWinner(t *testing.T) {
	svc, _, cleanup := newTestWallet(t)
	defer cleanup()
	gameID := store.NewID()
	seedHistory(t, svc.Store, gameID)
	ctx := context.Background()

	if _, err := svc.ClaimPayout(ctx, gameID, "BOB"); !errors.Is(err, ErrNotWinner) {
		t.Fatalf("loser claim: got %v, want not_winner", err)
	}
	if _, err := svc.ClaimPayout(ctx, store.NewID(), "ALICE"); !errors.Is(err, ErrNotWinner) {
		t.Fatalf("unknown game claim: got %v, want not_winner", err)
	}
}

func TestClaimPayoutGatewayFailureIsRetryable(t *testing.T) {
	svc, gw, cleanup := newTestWallet(t)
	defer cleanup()
	gameID := store.NewID()
	seedHistory(t, svc.Store, gameID)
	ctx := context.Background()

	gw.sendErr = errors.New("ledger down")
	if _, err := svc.ClaimPayout(ctx, gameID, "ALICE"); !errors.Is(err, ErrPayoutFailed) {
		t.Fatalf("got %v, want payout_failed", err)
	}

	// Nothing was recorded, so the retry issues the payment.
	gw.sendErr = nil
	res, err := svc.ClaimPayout(ctx, gameID, "ALICE")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if res.TxID == "" || len(gw.sent) != 1 {
		t.Fatalf("retry result %+v, sent %d", res, len(gw.sent))
	}
}
