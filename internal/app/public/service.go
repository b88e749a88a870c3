package public

import (
	"context"

	"algonim-server/internal/chain"
	"algonim-server/internal/store"
)

// leaderboardMinGames excludes players without a meaningful record.
const leaderboardMinGames = 5

type Service struct {
	store *store.Store
}

func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardItem, error) {
	items, err := s.store.ListLeaderboard(ctx, leaderboardMinGames, limit)
	if err != nil {
		return nil, err
	}
	out := make([]LeaderboardItem, 0, len(items))
	for i, it := range items {
		out = append(out, LeaderboardItem{
			Rank:    i + 1,
			Address: it.Address,
			Rating:  it.Rating,
			Wins:    it.Wins,
			Losses:  it.Losses,
			WinRate: winRate(it.Wins, it.Losses),
		})
	}
	return out, nil
}

func (s *Service) PlayerStats(ctx context.Context, address string) (*PlayerStats, error) {
	p, err := s.store.GetPlayer(ctx, address)
	if err != nil {
		return nil, err
	}
	return &PlayerStats{
		Address: p.Address,
		Rating:  p.Rating,
		Wins:    p.Wins,
		Losses:  p.Losses,
		WinRate: winRate(p.Wins, p.Losses),
	}, nil
}

func (s *Service) GameHistory(ctx context.Context, address string, limit int) ([]HistoryItem, error) {
	records, err := s.store.ListHistoryForPlayer(ctx, address, limit)
	if err != nil {
		return nil, err
	}
	out := make([]HistoryItem, 0, len(records))
	for _, h := range records {
		item := HistoryItem{
			GameID:    h.GameID,
			Won:       h.Winner == address,
			Wager:     chain.MicroToAlgo(h.WagerMicroalgos),
			EndReason: h.EndReason,
			EndedAt:   h.EndedAt,
		}
		if item.Won {
			item.Opponent = h.Loser
		} else {
			item.Opponent = h.Winner
		}
		if h.PayoutTxID != nil {
			item.PayoutTxID = *h.PayoutTxID
		}
		out = append(out, item)
	}
	return out, nil
}

func winRate(wins, losses int) float64 {
	total := wins + losses
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}
