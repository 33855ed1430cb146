package game

import "fmt"

// SessionNotFoundError is returned when a session id or code does not
// resolve to a known session.
type SessionNotFoundError struct {
	SessionID string
}

func (e SessionNotFoundError) Error() string {
	return fmt.Sprintf("Session [%s] is not found", e.SessionID)
}

// SessionNotActiveError is returned when a mutating operation is attempted
// on a session that is not in the active state. The session is untouched.
type SessionNotActiveError struct {
	SessionID string
	Status    SessionStatus
}

func (e SessionNotActiveError) Error() string {
	return fmt.Sprintf("SESSION_NOT_ACTIVE: session [%s] is %s", e.SessionID, e.Status)
}

// StakeUnverifiedError blocks session creation when the stake proof cannot
// be verified against the external ledger. No session is persisted.
type StakeUnverifiedError struct {
	Player string
	Reason string
}

func (e StakeUnverifiedError) Error() string {
	return fmt.Sprintf("STAKE_UNVERIFIED: player [%s]: %s", e.Player, e.Reason)
}

// InvalidStakeError rejects session creation with a zero stake amount.
type InvalidStakeError struct {
	Amount uint64
}

func (e InvalidStakeError) Error() string {
	return fmt.Sprintf("Invalid stake amount [%d]", e.Amount)
}
