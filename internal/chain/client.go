// Package chain talks to the Algorand-style value-transfer network:
// read-only transaction/account queries plus payment issuance. The
// network is an unreliable external dependency, so every call is
// timeout-bounded and failures surface as retryable errors.
package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"algonim-server/internal/store"

	"github.com/rs/zerolog/log"
)

var (
	ErrTxNotFound  = errors.New("tx_not_found")
	ErrUnavailable = errors.New("ledger_unavailable")
)

// PaymentTx is the subset of a ledger transaction the service verifies.
type PaymentTx struct {
	TxID             string
	Sender           string
	Receiver         string
	AmountMicroalgos int64
	Note             string
}

// Gateway is the seam services depend on; Client is the HTTP
// implementation, tests substitute fakes.
type Gateway interface {
	LookupTransaction(ctx context.Context, txID string) (*PaymentTx, error)
	AccountBalance(ctx context.Context, address string) (int64, error)
	SendPayment(ctx context.Context, to string, amountMicroalgos int64, note string) (string, error)
}

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client

	// StubSigner fabricates payment transaction ids instead of signing
	// and broadcasting. Production requires a real signing integration;
	// until then every issued id carries a STUB prefix.
	StubSigner bool
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTP:       &http.Client{Timeout: 10 * time.Second},
		StubSigner: true,
	}
}

func (c *Client) LookupTransaction(ctx context.Context, txID string) (*PaymentTx, error) {
	var body struct {
		Transaction struct {
			ID       string `json:"id"`
			Sender   string `json:"sender"`
			Note     string `json:"note"`
			Payment  struct {
				Receiver string `json:"receiver"`
				Amount   int64  `json:"amount"`
			} `json:"payment-transaction"`
		} `json:"transaction"`
	}
	if err := c.getJSON(ctx, "/v2/transactions/"+txID, &body); err != nil {
		return nil, err
	}
	return &PaymentTx{
		TxID:             body.Transaction.ID,
		Sender:           body.Transaction.Sender,
		Receiver:         body.Transaction.Payment.Receiver,
		AmountMicroalgos: body.Transaction.Payment.Amount,
		Note:             body.Transaction.Note,
	}, nil
}

func (c *Client) AccountBalance(ctx context.Context, address string) (int64, error) {
	var body struct {
		Amount int64 `json:"amount"`
	}
	if err := c.getJSON(ctx, "/v2/accounts/"+address, &body); err != nil {
		return 0, err
	}
	return body.Amount, nil
}

// SendPayment issues a transfer from the escrow account and returns the
// transaction id.
// TODO: integrate a real signer for the escrow key; the stub only
// fabricates an id so settlement can be exercised end to end.
func (c *Client) SendPayment(ctx context.Context, to string, amountMicroalgos int64, note string) (string, error) {
	if !c.StubSigner {
		return "", errors.New("payment signing not implemented")
	}
	txID := "STUB" + store.NewID()
	log.Warn().
		Str("to", to).
		Int64("amount_microalgos", amountMicroalgos).
		Str("note", note).
		Str("tx_id", txID).
		Msg("stub payment issued, no funds moved")
	return txID, nil
}

// getJSON performs a GET with one retry on transport errors and 5xx,
// the way flaky chain endpoints tend to recover.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	url := c.BaseURL + path
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(200 * time.Millisecond):
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		if c.Token != "" {
			req.Header.Set("X-Algo-API-Token", c.Token)
		}
		resp, err := c.HTTP.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			return ErrTxNotFound
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
			continue
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
		}
		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}
