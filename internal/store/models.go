package store

import "time"

type SessionState string

const (
	StateAwaitingDeposits SessionState = "awaiting_deposits"
	StateInProgress       SessionState = "in_progress"
	StateConcluded        SessionState = "concluded"
)

const (
	EndReasonNormal    = "normal"
	EndReasonAbandoned = "abandoned"
)

type Player struct {
	Address   string
	Rating    int
	Wins      int
	Losses    int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type QueueEntry struct {
	Address         string
	WagerMicroalgos int64
	Rating          int
	Mode            string
	EnqueuedAt      time.Time
}

type GameSession struct {
	ID              string
	Player1         string
	Player2         string
	WagerMicroalgos int64
	Piles           []int32
	TurnOwner       string
	State           SessionState
	Version         int64
	CreatedAt       time.Time
	LastMoveAt      time.Time
	LastReminderAt  *time.Time
}

// Opponent returns the other player of the pair, or "" if addr is neither.
func (s *GameSession) Opponent(addr string) string {
	switch addr {
	case s.Player1:
		return s.Player2
	case s.Player2:
		return s.Player1
	}
	return ""
}

func (s *GameSession) HasPlayer(addr string) bool {
	return addr == s.Player1 || addr == s.Player2
}

type Deposit struct {
	TxID             string
	GameID           string
	Player           string
	AmountMicroalgos int64
	ConfirmedAt      time.Time
}

type HistoryRecord struct {
	GameID          string
	Winner          string
	Loser           string
	WagerMicroalgos int64
	EndReason       string
	PayoutTxID      *string
	EndedAt         time.Time
}

type LeaderboardEntry struct {
	Address string
	Rating  int
	Wins    int
	Losses  int
}
