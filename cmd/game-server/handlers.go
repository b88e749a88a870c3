package main

import (
	"errors"
	"net/http"

	appgame "algonim-server/internal/app/game"
	"algonim-server/internal/app/match"
	"algonim-server/internal/app/public"
	"algonim-server/internal/app/wallet"
	"algonim-server/internal/chain"
	"algonim-server/internal/config"
	"algonim-server/internal/store"

	"github.com/rs/zerolog/log"
)

func findMatchHandler(cfg config.ServerConfig, svc *match.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Address string  `json:"address"`
			Wager   float64 `json:"wager"`
			Rating  int     `json:"rating"`
			Mode    string  `json:"mode"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		if !validAddress(body.Address) {
			writeHTTPError(w, http.StatusBadRequest, "invalid_address", "address must be a 58-character Algorand address")
			return
		}
		wager := chain.AlgoToMicro(body.Wager)
		if wager < cfg.WagerMinMicroalgos || wager > cfg.WagerMaxMicroalgos {
			writeHTTPError(w, http.StatusBadRequest, "invalid_wager", "wager outside the allowed band")
			return
		}
		if body.Mode == "" {
			body.Mode = "casual"
		}
		res, err := svc.Enqueue(r.Context(), body.Address, wager, body.Rating, body.Mode)
		if errors.Is(err, match.ErrAlreadyQueued) {
			writeHTTPError(w, http.StatusConflict, "already_queued", "address already has a search in progress")
			return
		}
		if err != nil {
			internalError(w, err, "find-match")
			return
		}
		if !res.Matched {
			writeJSON(w, map[string]any{"matched": false, "waiting": true})
			return
		}
		writeJSON(w, map[string]any{
			"matched":  true,
			"gameId":   res.GameID,
			"opponent": res.Opponent,
			"yourTurn": res.YourTurn,
			"pot":      chain.MicroToAlgo(res.PotMicroalgos),
		})
	}
}

func pollMatchHandler(svc *match.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Address string `json:"address"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		st, err := svc.Poll(r.Context(), body.Address)
		if err != nil {
			internalError(w, err, "poll-match")
			return
		}
		if st.Queued {
			writeJSON(w, map[string]any{
				"matched":         false,
				"waiting":         true,
				"waitSeconds":     st.WaitSeconds,
				"othersSearching": st.OthersSearching,
			})
			return
		}
		if st.Matched {
			writeJSON(w, map[string]any{
				"matched":  true,
				"gameId":   st.GameID,
				"opponent": st.Opponent,
				"yourTurn": st.YourTurn,
				"pot":      chain.MicroToAlgo(st.PotMicroalgos),
			})
			return
		}
		writeJSON(w, map[string]any{"matched": false, "waiting": false})
	}
}

func cancelSearchHandler(svc *match.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Address string `json:"address"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		if err := svc.Cancel(r.Context(), body.Address); err != nil {
			internalError(w, err, "cancel-search")
			return
		}
		writeJSON(w, map[string]any{"success": true})
	}
}

func makeMoveHandler(svc *appgame.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			GameID  string `json:"gameId"`
			Address string `json:"address"`
			Move    struct {
				Row   int `json:"row"`
				Count int `json:"count"`
			} `json:"move"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		res, err := svc.SubmitMove(r.Context(), body.GameID, body.Address, body.Move.Row, body.Move.Count)
		switch {
		case errors.Is(err, appgame.ErrGameNotFound):
			writeHTTPError(w, http.StatusNotFound, "game_not_found", "no active game with that id")
			return
		case errors.Is(err, appgame.ErrNotYourTurn):
			writeHTTPError(w, http.StatusBadRequest, "not_your_turn", "it is not your turn to move")
			return
		case errors.Is(err, appgame.ErrDepositsPending):
			writeHTTPError(w, http.StatusBadRequest, "deposits_pending", "both wagers must be deposited before play starts")
			return
		case errors.Is(err, appgame.ErrInvalidMove):
			writeHTTPError(w, http.StatusBadRequest, "invalid_move", "row or count out of range")
			return
		case err != nil:
			internalError(w, err, "make-move")
			return
		}
		if res.GameOver {
			writeJSON(w, map[string]any{
				"gameOver": true,
				"winner":   res.Winner,
				"loser":    res.Loser,
				"pot":      chain.MicroToAlgo(res.PotMicroalgos),
			})
			return
		}
		writeJSON(w, map[string]any{
			"success":         true,
			"newState":        res.Piles,
			"sticksRemaining": res.SticksRemaining,
		})
	}
}

func gameStateHandler(svc *appgame.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := r.URL.Query().Get("gameId")
		address := r.URL.Query().Get("address")
		view, err := svc.State(r.Context(), gameID, address)
		if errors.Is(err, appgame.ErrGameNotFound) {
			writeHTTPError(w, http.StatusNotFound, "game_not_found", "no game with that id for this address")
			return
		}
		if err != nil {
			internalError(w, err, "game-state")
			return
		}
		out := map[string]any{
			"gameId":          view.GameID,
			"state":           view.State,
			"piles":           view.Piles,
			"sticksRemaining": view.SticksRemaining,
			"yourTurn":        view.YourTurn,
			"opponent":        view.Opponent,
			"pot":             chain.MicroToAlgo(view.PotMicroalgos),
			"youDeposited":    view.YouDeposited,
			"oppDeposited":    view.OppDeposited,
		}
		if view.GameOver {
			out["gameOver"] = true
			out["winner"] = view.Winner
			out["loser"] = view.Loser
		}
		writeJSON(w, out)
	}
}

func depositWagerHandler(svc *wallet.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Address string  `json:"address"`
			GameID  string  `json:"gameId"`
			TxID    string  `json:"txId"`
			Amount  float64 `json:"amount"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		if body.TxID == "" || body.GameID == "" {
			writeHTTPError(w, http.StatusBadRequest, "invalid_request", "gameId and txId are required")
			return
		}
		res, err := svc.RecordDeposit(r.Context(), body.GameID, body.Address, body.TxID, chain.AlgoToMicro(body.Amount))
		switch {
		case errors.Is(err, wallet.ErrGameNotFound):
			writeHTTPError(w, http.StatusNotFound, "game_not_found", "no active game with that id")
			return
		case errors.Is(err, wallet.ErrTxNotFound):
			writeHTTPError(w, http.StatusNotFound, "transaction_not_found", "transaction not found on the ledger")
			return
		case errors.Is(err, wallet.ErrNotAPlayer):
			writeHTTPError(w, http.StatusBadRequest, "not_a_player", "address is not part of this game")
			return
		case errors.Is(err, wallet.ErrSenderMismatch):
			writeHTTPError(w, http.StatusBadRequest, "sender_mismatch", "transaction sender does not match the depositing player")
			return
		case errors.Is(err, wallet.ErrReceiverMismatch):
			writeHTTPError(w, http.StatusBadRequest, "receiver_mismatch", "transaction receiver is not the escrow account")
			return
		case errors.Is(err, wallet.ErrAmountMismatch):
			writeHTTPError(w, http.StatusBadRequest, "amount_mismatch", "transaction amount does not match the wager")
			return
		case err != nil:
			internalError(w, err, "deposit-wager")
			return
		}
		writeJSON(w, map[string]any{
			"success":          true,
			"bothPlayersReady": res.BothPlayersReady,
		})
	}
}

func claimWinningsHandler(svc *wallet.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			GameID        string `json:"gameId"`
			WinnerAddress string `json:"winnerAddress"`
		}
		if !decodeJSON(w, r, &body) {
			return
		}
		res, err := svc.ClaimPayout(r.Context(), body.GameID, body.WinnerAddress)
		switch {
		case errors.Is(err, wallet.ErrNotWinner):
			writeHTTPError(w, http.StatusNotFound, "not_a_winner", "no winnings recorded for this address and game")
			return
		case errors.Is(err, wallet.ErrPayoutFailed):
			writeHTTPError(w, http.StatusInternalServerError, "payout_failed", "payout could not be issued, retry later")
			return
		case err != nil:
			internalError(w, err, "claim-winnings")
			return
		}
		writeJSON(w, map[string]any{
			"success": true,
			"txId":    res.TxID,
			"amount":  chain.MicroToAlgo(res.AmountMicroalgos),
		})
	}
}

func leaderboardHandler(svc *public.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseLimit(r, 20, 100)
		items, err := svc.Leaderboard(r.Context(), limit)
		if err != nil {
			internalError(w, err, "leaderboard")
			return
		}
		writeJSON(w, map[string]any{"leaderboard": items})
	}
}

func playerStatsHandler(svc *public.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address := r.URL.Query().Get("address")
		stats, err := svc.PlayerStats(r.Context(), address)
		if errors.Is(err, store.ErrNotFound) {
			writeHTTPError(w, http.StatusNotFound, "player_not_found", "no record for that address")
			return
		}
		if err != nil {
			internalError(w, err, "player-stats")
			return
		}
		writeJSON(w, stats)
	}
}

func gameHistoryHandler(svc *public.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address := r.URL.Query().Get("address")
		limit := parseLimit(r, 20, 100)
		items, err := svc.GameHistory(r.Context(), address, limit)
		if err != nil {
			internalError(w, err, "game-history")
			return
		}
		writeJSON(w, map[string]any{"games": items})
	}
}

func internalError(w http.ResponseWriter, err error, op string) {
	log.Error().Err(err).Str("op", op).Msg("handler error")
	writeHTTPError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
