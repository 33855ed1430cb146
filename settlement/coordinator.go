package settlement

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"voyager.com/solitaire/util"
)

var coordinatorLogger = log.With().Str("logger_name", "settlement::coordinator").Logger()

// PayoutPath identifies which settlement rule applies to a finished
// session.
type PayoutPath int32

const (
	// PayoutPath_NONE pays nothing (lose, incomplete, plain abandon).
	PayoutPath_NONE PayoutPath = iota
	// PayoutPath_WIN pays the stake times the win multiplier.
	PayoutPath_WIN
	// PayoutPath_COMPLETION refunds part of the stake on a completed but
	// not won session, when the policy enables it.
	PayoutPath_COMPLETION
	// PayoutPath_TIMEOUT_ABANDON refunds the stake minus the abandonment
	// penalty when the inactivity timer abandons the session.
	PayoutPath_TIMEOUT_ABANDON
)

// Coordinator gates session activation behind stake verification and
// guarantees at-most-one reward record per session.
type Coordinator struct {
	verifier StakeVerifier
	store    RewardStore
	policy   PayoutPolicy
}

func NewCoordinator(verifier StakeVerifier, store RewardStore, policy PayoutPolicy) *Coordinator {
	return &Coordinator{
		verifier: verifier,
		store:    store,
		policy:   policy,
	}
}

func (c *Coordinator) Policy() PayoutPolicy {
	return c.policy
}

// VerifyStake checks the proof with the external ledger. It must succeed
// before a session is activated; a failure aborts creation entirely.
func (c *Coordinator) VerifyStake(ctx context.Context, player string, amount uint64, proof string) (bool, error) {
	verified, err := c.verifier.VerifyStake(ctx, player, amount, proof)
	if err != nil {
		util.Metrics.StakeVerifyFailed()
		return false, errors.Wrap(err, "Stake verification failed")
	}
	if !verified {
		util.Metrics.StakeVerifyFailed()
	}
	return verified, nil
}

// PayoutAmount computes the reward for a stake along the given path.
func (c *Coordinator) PayoutAmount(path PayoutPath, stakeAmount uint64) uint64 {
	switch path {
	case PayoutPath_WIN:
		return uint64(float64(stakeAmount) * c.policy.WinMultiplier)
	case PayoutPath_COMPLETION:
		return uint64(float64(stakeAmount) * c.policy.CompletionRefundFactor)
	case PayoutPath_TIMEOUT_ABANDON:
		return uint64(float64(stakeAmount) * c.policy.AbandonRefundFactor)
	}
	return 0
}

// IssueReward creates the reward record for a session. The store's
// atomic check-and-create guarantees that a second attempt for the same
// session returns ErrRewardExists, no matter how the attempts interleave.
func (c *Coordinator) IssueReward(ctx context.Context, sessionID string, player string, path PayoutPath, stakeAmount uint64) (*RewardRecord, error) {
	amount := c.PayoutAmount(path, stakeAmount)
	if amount == 0 {
		return nil, nil
	}

	record := &RewardRecord{
		SessionID: sessionID,
		Player:    player,
		Amount:    amount,
		Status:    RewardStatus_PENDING,
		CreatedAt: time.Now().UTC(),
	}
	err := c.store.Create(ctx, record)
	if err == ErrRewardExists {
		coordinatorLogger.Warn().
			Str("sessionID", sessionID).
			Msg("Duplicate reward creation attempt rejected")
		return nil, err
	}
	if err != nil {
		return nil, errors.Wrap(err, "Unable to create reward record")
	}
	util.Metrics.RewardIssued()
	coordinatorLogger.Info().
		Str("sessionID", sessionID).
		Str("player", player).
		Uint64("amount", amount).
		Msg("Reward record created")
	return record, nil
}

// Reward loads the reward record for a session, nil when none exists.
func (c *Coordinator) Reward(ctx context.Context, sessionID string) (*RewardRecord, error) {
	return c.store.Load(ctx, sessionID)
}
