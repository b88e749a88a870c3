package match

// Result reports the outcome of an enqueue: either an immediate pairing
// or a parked queue entry.
type Result struct {
	Matched         bool
	GameID          string
	Opponent        string
	YourTurn        bool
	PotMicroalgos   int64
	WagerMicroalgos int64
}

// PollStatus reports where a polling client stands.
type PollStatus struct {
	Queued          bool
	WaitSeconds     int64
	OthersSearching int

	Matched       bool
	GameID        string
	Opponent      string
	YourTurn      bool
	PotMicroalgos int64
}
