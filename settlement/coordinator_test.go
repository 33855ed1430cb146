package settlement

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	verified bool
	err      error
}

func (s *stubVerifier) VerifyStake(ctx context.Context, player string, amount uint64, proof string) (bool, error) {
	return s.verified, s.err
}

func TestPayoutAmount(t *testing.T) {
	policy := PayoutPolicy{
		WinMultiplier:          2.0,
		CompletionRefundFactor: 0.5,
		AbandonRefundFactor:    0.9,
	}
	c := NewCoordinator(&stubVerifier{verified: true}, NewMemoryRewardStore(), policy)

	testCases := []struct {
		path     PayoutPath
		stake    uint64
		expected uint64
	}{
		{PayoutPath_WIN, 100, 200},
		{PayoutPath_COMPLETION, 100, 50},
		{PayoutPath_TIMEOUT_ABANDON, 100, 90},
		{PayoutPath_NONE, 100, 0},
		{PayoutPath_WIN, 0, 0},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, c.PayoutAmount(tc.path, tc.stake),
			"path %d stake %d", tc.path, tc.stake)
	}
}

func TestIssueRewardOnce(t *testing.T) {
	c := NewCoordinator(&stubVerifier{verified: true}, NewMemoryRewardStore(), DefaultPayoutPolicy())

	reward, err := c.IssueReward(context.Background(), "session-1", "player-1", PayoutPath_WIN, 100)
	require.NoError(t, err)
	require.NotNil(t, reward)
	assert.Equal(t, uint64(200), reward.Amount)
	assert.Equal(t, RewardStatus_PENDING, reward.Status)

	_, err = c.IssueReward(context.Background(), "session-1", "player-1", PayoutPath_WIN, 100)
	assert.Equal(t, ErrRewardExists, err)
}

func TestIssueRewardZeroAmountCreatesNothing(t *testing.T) {
	store := NewMemoryRewardStore()
	c := NewCoordinator(&stubVerifier{verified: true}, store, DefaultPayoutPolicy())

	reward, err := c.IssueReward(context.Background(), "session-1", "player-1", PayoutPath_NONE, 100)
	require.NoError(t, err)
	assert.Nil(t, reward)

	loaded, err := store.Load(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestConcurrentRewardCreation(t *testing.T) {
	store := NewMemoryRewardStore()

	const callers = 50
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs[n] = store.Create(context.Background(), &RewardRecord{
				SessionID: "session-1",
				Player:    "player-1",
				Amount:    200,
			})
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
		} else {
			assert.Equal(t, ErrRewardExists, err)
		}
	}
	assert.Equal(t, 1, created, "exactly one creation should succeed")
}

func TestVerifyStakeDelegates(t *testing.T) {
	c := NewCoordinator(&stubVerifier{verified: true}, NewMemoryRewardStore(), DefaultPayoutPolicy())
	verified, err := c.VerifyStake(context.Background(), "player-1", 100, "tx-abc")
	require.NoError(t, err)
	assert.True(t, verified)

	c2 := NewCoordinator(&stubVerifier{verified: false}, NewMemoryRewardStore(), DefaultPayoutPolicy())
	verified, err = c2.VerifyStake(context.Background(), "player-1", 100, "tx-abc")
	require.NoError(t, err)
	assert.False(t, verified)
}
