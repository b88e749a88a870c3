package wallet

// DepositResult reports the session's deposit standing after recording.
type DepositResult struct {
	DepositsConfirmed int
	BothPlayersReady  bool
}

// PayoutResult carries the settlement transfer. Repeated claims return
// the same TxID.
type PayoutResult struct {
	TxID             string
	AmountMicroalgos int64
}
