package settlement

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var verifierLogger = log.With().Str("logger_name", "settlement::verifier").Logger()

// StakeVerifier answers the one question the core asks the external
// ledger: does the proof reference a confirmed payment of the claimed
// amount from the claimed player?
type StakeVerifier interface {
	VerifyStake(ctx context.Context, player string, amount uint64, proof string) (bool, error)
}

// LedgerClient verifies stake proofs against the ledger API. This is the
// only operation in the core that blocks on external I/O.
type LedgerClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewLedgerClient(baseURL string) *LedgerClient {
	return &LedgerClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type verifyStakeRequest struct {
	Player string `json:"playerIdentity"`
	Amount uint64 `json:"amount"`
	Proof  string `json:"transactionRef"`
}

type verifyStakeResponse struct {
	Confirmed bool   `json:"confirmed"`
	Player    string `json:"playerIdentity"`
	Amount    uint64 `json:"amount"`
}

// VerifyStake posts the proof to the ledger and confirms that the ledger
// attributes it to the claimed player and amount. A confirmation for a
// different player or amount does not count.
func (l *LedgerClient) VerifyStake(ctx context.Context, player string, amount uint64, proof string) (bool, error) {
	payload, err := jsoniter.Marshal(verifyStakeRequest{
		Player: player,
		Amount: amount,
		Proof:  proof,
	})
	if err != nil {
		return false, errors.Wrap(err, "Unable to marshal stake verification request")
	}

	url := fmt.Sprintf("%s/internal/verify-stake", l.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return false, errors.Wrap(err, "Unable to build stake verification request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return false, errors.Wrap(err, "Stake verification call failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		verifierLogger.Error().Msgf("Ledger returned %d for stake proof [%s]", resp.StatusCode, proof)
		return false, fmt.Errorf("Ledger returned status %d", resp.StatusCode)
	}

	var body verifyStakeResponse
	if err := jsoniter.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, errors.Wrap(err, "Unable to parse ledger response")
	}

	if !body.Confirmed {
		return false, nil
	}
	if body.Player != player || body.Amount != amount {
		verifierLogger.Warn().
			Str("player", player).
			Msgf("Stake proof [%s] confirmed for %s/%d, claimed %s/%d", proof, body.Player, body.Amount, player, amount)
		return false, nil
	}
	return true, nil
}
