package game

import "time"

// MoveResult describes an applied move; terminal fields are set only
// when GameOver is true.
type MoveResult struct {
	GameOver        bool
	Winner          string
	Loser           string
	PotMicroalgos   int64
	Piles           []int32
	SticksRemaining int32
	NextTurn        string
}

// StateView is the polling client's view of a session.
type StateView struct {
	GameID          string
	State           string
	Piles           []int32
	SticksRemaining int32
	YourTurn        bool
	Opponent        string
	PotMicroalgos   int64
	YouDeposited    bool
	OppDeposited    bool
	LastMoveAt      time.Time

	GameOver bool
	Winner   string
	Loser    string
}
