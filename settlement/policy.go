package settlement

import (
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// PayoutPolicy controls how completed sessions settle.
//
// WinMultiplier applies to the stake on a won session. The refund factors
// default to zero (win is the only paying path); operators can enable the
// partial payouts with a policy file.
type PayoutPolicy struct {
	WinMultiplier          float64 `yaml:"winMultiplier"`
	CompletionRefundFactor float64 `yaml:"completionRefundFactor"`
	AbandonAfterSec        uint32  `yaml:"abandonAfterSec"`
	AbandonRefundFactor    float64 `yaml:"abandonRefundFactor"`
}

func DefaultPayoutPolicy() PayoutPolicy {
	return PayoutPolicy{
		WinMultiplier:          2.0,
		CompletionRefundFactor: 0,
		AbandonAfterSec:        86400,
		AbandonRefundFactor:    0,
	}
}

func ParsePayoutPolicy(policyFile string) (PayoutPolicy, error) {
	bytes, err := ioutil.ReadFile(policyFile)
	if err != nil {
		return PayoutPolicy{}, errors.Wrap(err, fmt.Sprintf("Error reading payout policy file [%s]", policyFile))
	}

	policy := DefaultPayoutPolicy()
	err = yaml.Unmarshal(bytes, &policy)
	if err != nil {
		return PayoutPolicy{}, errors.Wrap(err, fmt.Sprintf("Error parsing payout policy YAML file [%s]", policyFile))
	}

	return policy, nil
}
