package settlement

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRewardExists is returned by reward stores when a record already
// exists for the session. At-most-once creation per session id is a
// correctness invariant of settlement.
var ErrRewardExists = errors.New("reward record already exists for session")

type RewardStatus int32

const (
	RewardStatus_PENDING RewardStatus = iota
	RewardStatus_CONFIRMED
	RewardStatus_FAILED
)

func (s RewardStatus) String() string {
	switch s {
	case RewardStatus_PENDING:
		return "pending"
	case RewardStatus_CONFIRMED:
		return "confirmed"
	case RewardStatus_FAILED:
		return "failed"
	}
	return "unknown"
}

// RewardRecord is uniquely keyed by session id.
type RewardRecord struct {
	SessionID string       `json:"sessionId" db:"session_id"`
	Player    string       `json:"playerIdentity" db:"player_identity"`
	Amount    uint64       `json:"amount" db:"amount"`
	Status    RewardStatus `json:"status" db:"status"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
}

// RewardStore creates and loads reward records. Create must be a single
// atomic check-and-create: two concurrent calls for the same session id
// result in exactly one record and one ErrRewardExists.
type RewardStore interface {
	Create(ctx context.Context, record *RewardRecord) error
	Load(ctx context.Context, sessionID string) (*RewardRecord, error)
}

// MemoryRewardStore keeps reward records in process memory. The mutex
// makes the exists-check and the insert one atomic step.
type MemoryRewardStore struct {
	mu      sync.Mutex
	records map[string]*RewardRecord
}

func NewMemoryRewardStore() *MemoryRewardStore {
	return &MemoryRewardStore{
		records: make(map[string]*RewardRecord),
	}
}

func (m *MemoryRewardStore) Create(ctx context.Context, record *RewardRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[record.SessionID]; exists {
		return ErrRewardExists
	}
	saved := *record
	m.records[record.SessionID] = &saved
	return nil
}

func (m *MemoryRewardStore) Load(ctx context.Context, sessionID string) (*RewardRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, exists := m.records[sessionID]
	if !exists {
		return nil, nil
	}
	loaded := *record
	return &loaded, nil
}
