package game

import (
	"fmt"
	"strings"
	"time"

	"voyager.com/solitaire/klondike"
)

type SessionStatus int32

const (
	SessionStatus_PENDING SessionStatus = iota
	SessionStatus_ACTIVE
	SessionStatus_COMPLETED
	SessionStatus_ABANDONED
)

func (s SessionStatus) String() string {
	switch s {
	case SessionStatus_PENDING:
		return "pending"
	case SessionStatus_ACTIVE:
		return "active"
	case SessionStatus_COMPLETED:
		return "completed"
	case SessionStatus_ABANDONED:
		return "abandoned"
	}
	return "unknown"
}

// Terminal reports whether the status can never change again.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatus_COMPLETED || s == SessionStatus_ABANDONED
}

// Statuses travel as strings on the wire and in persisted snapshots.
func (s SessionStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *SessionStatus) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(data), `"`) {
	case "pending":
		*s = SessionStatus_PENDING
	case "active":
		*s = SessionStatus_ACTIVE
	case "completed":
		*s = SessionStatus_COMPLETED
	case "abandoned":
		*s = SessionStatus_ABANDONED
	default:
		return fmt.Errorf("unknown session status %s", string(data))
	}
	return nil
}

type Result int32

const (
	Result_INCOMPLETE Result = iota
	Result_WIN
	Result_LOSE
)

func (r Result) String() string {
	switch r {
	case Result_WIN:
		return "win"
	case Result_LOSE:
		return "lose"
	case Result_INCOMPLETE:
		return "incomplete"
	}
	return "unknown"
}

func (r Result) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

func (r *Result) UnmarshalJSON(data []byte) error {
	parsed, ok := ParseResult(strings.Trim(string(data), `"`))
	if !ok {
		return fmt.Errorf("unknown result %s", string(data))
	}
	*r = parsed
	return nil
}

// ParseResult maps the wire representation of a result to its enum value.
func ParseResult(s string) (Result, bool) {
	switch s {
	case "win":
		return Result_WIN, true
	case "lose":
		return Result_LOSE, true
	case "incomplete":
		return Result_INCOMPLETE, true
	}
	return Result_INCOMPLETE, false
}

// Session is one staked solitaire game. It exclusively owns its board and
// move history; all mutation goes through the Manager, which serializes
// the mutating operations per session.
type Session struct {
	ID           string              `json:"id"`
	Code         string              `json:"code"`
	Player       string              `json:"playerIdentity"`
	StakeAmount  uint64              `json:"stakeAmount"`
	StakeProof   string              `json:"stakeProof"`
	Status       SessionStatus       `json:"status"`
	Result       Result              `json:"result"`
	Score        int64               `json:"score"`
	MoveCount    uint32              `json:"moveCount"`
	StartedAt    time.Time           `json:"startedAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
	CompletedAt  *time.Time          `json:"completedAt,omitempty"`
	RewardIssued bool                `json:"rewardIssued"`
	Board        *klondike.Board   `json:"board"`
	History      *klondike.History `json:"moveHistory"`
}

// Elapsed returns the play time used for scoring: start to completion for
// terminal sessions, start to now otherwise.
func (s *Session) Elapsed(now time.Time) time.Duration {
	if s.CompletedAt != nil {
		return s.CompletedAt.Sub(s.StartedAt)
	}
	return now.Sub(s.StartedAt)
}
