package settlement

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParsePayoutPolicy(t *testing.T) {
	dir := t.TempDir()
	policyFile := filepath.Join(dir, "payout.yaml")
	content := []byte(`
winMultiplier: 3.0
completionRefundFactor: 0.5
abandonAfterSec: 3600
abandonRefundFactor: 0.9
`)
	require.NoError(t, ioutil.WriteFile(policyFile, content, 0644))

	policy, err := ParsePayoutPolicy(policyFile)
	require.NoError(t, err)

	expected := PayoutPolicy{
		WinMultiplier:          3.0,
		CompletionRefundFactor: 0.5,
		AbandonAfterSec:        3600,
		AbandonRefundFactor:    0.9,
	}
	if !cmp.Equal(policy, expected) {
		t.Errorf("parsed policy %+v, expected %+v", policy, expected)
	}
}

func TestParsePayoutPolicyDefaults(t *testing.T) {
	dir := t.TempDir()
	policyFile := filepath.Join(dir, "payout.yaml")
	// Fields left out keep their defaults.
	require.NoError(t, ioutil.WriteFile(policyFile, []byte("winMultiplier: 2.5\n"), 0644))

	policy, err := ParsePayoutPolicy(policyFile)
	require.NoError(t, err)
	require.Equal(t, 2.5, policy.WinMultiplier)
	require.Equal(t, float64(0), policy.CompletionRefundFactor)
	require.Equal(t, uint32(86400), policy.AbandonAfterSec)
}

func TestParsePayoutPolicyMissingFile(t *testing.T) {
	_, err := ParsePayoutPolicy("no-such-file.yaml")
	require.Error(t, err)
}
