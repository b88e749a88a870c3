package public

import "time"

type LeaderboardItem struct {
	Rank    int     `json:"rank"`
	Address string  `json:"address"`
	Rating  int     `json:"rating"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	WinRate float64 `json:"winRate"`
}

type PlayerStats struct {
	Address string  `json:"address"`
	Rating  int     `json:"rating"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	WinRate float64 `json:"winRate"`
}

type HistoryItem struct {
	GameID     string    `json:"gameId"`
	Opponent   string    `json:"opponent"`
	Won        bool      `json:"won"`
	Wager      float64   `json:"wager"`
	EndReason  string    `json:"endReason"`
	PayoutTxID string    `json:"payoutTxId,omitempty"`
	EndedAt    time.Time `json:"endedAt"`
}
