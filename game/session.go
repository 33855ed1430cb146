package game

import (
	"time"

	"github.com/google/uuid"

	"voyager.com/solitaire/klondike"
	"voyager.com/solitaire/util/random"
)

const sessionCodeLen = 6

// newSession deals a fresh board for a verified stake. The session enters
// the active state directly; a pending session is never visible to
// callers because stake verification happens before anything is created.
func newSession(player string, stakeAmount uint64, stakeProof string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:          uuid.New().String(),
		Code:        random.SessionCode(sessionCodeLen),
		Player:      player,
		StakeAmount: stakeAmount,
		StakeProof:  stakeProof,
		Status:      SessionStatus_ACTIVE,
		Result:      Result_INCOMPLETE,
		StartedAt:   now,
		UpdatedAt:   now,
		Board:       klondike.Deal(nil),
		History:     klondike.NewHistory(),
	}
}

// ensureActive guards every mutator. A session that is no longer active
// rejects the operation with no side effects, which makes the terminal
// transition first-call-wins for all callers.
func (s *Session) ensureActive() error {
	if s.Status != SessionStatus_ACTIVE {
		return SessionNotActiveError{SessionID: s.ID, Status: s.Status}
	}
	return nil
}

func (s *Session) recomputeScore(now time.Time) {
	s.Score = klondike.Score(s.Board, s.Elapsed(now), s.MoveCount)
}

// applyMove validates and executes one move. When the move empties the
// stock and waste into the foundations, the session completes with a win
// in the same operation. Caller must hold the session lock.
func (s *Session) applyMove(fromPileID string, fromIndex int, toPileID string) (*klondike.Move, error) {
	if err := s.ensureActive(); err != nil {
		return nil, err
	}
	move, err := s.Board.ApplyMove(fromPileID, fromIndex, toPileID)
	if err != nil {
		return nil, err
	}
	s.History.Record(move)
	s.MoveCount++
	now := time.Now().UTC()
	s.UpdatedAt = now
	s.recomputeScore(now)

	if klondike.IsWon(s.Board) {
		s.finalize(SessionStatus_COMPLETED, Result_WIN, now)
	}
	return move, nil
}

// draw performs the stock/waste cycle. Draws are not recorded in the
// undo history; only validated card moves are reversible.
func (s *Session) draw() (int, bool, error) {
	if err := s.ensureActive(); err != nil {
		return 0, false, err
	}
	drawn, recycled := s.Board.Draw()
	now := time.Now().UTC()
	s.UpdatedAt = now
	s.recomputeScore(now)
	return drawn, recycled, nil
}

// undoLastMove rewinds exactly one accepted move.
func (s *Session) undoLastMove() (*klondike.Move, error) {
	if err := s.ensureActive(); err != nil {
		return nil, err
	}
	move, err := s.History.Undo(s.Board)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	s.UpdatedAt = now
	s.recomputeScore(now)
	return move, nil
}

// complete finalizes an active session. The result is re-derived from the
// board: a board with all 52 cards on the foundations is a win no matter
// what the caller claims, and a caller cannot claim a win the board does
// not show. The score is recomputed server-side.
func (s *Session) complete(requested Result) error {
	if err := s.ensureActive(); err != nil {
		return err
	}
	result := requested
	if klondike.IsWon(s.Board) {
		result = Result_WIN
	} else if requested == Result_WIN {
		result = Result_LOSE
	}
	s.finalize(SessionStatus_COMPLETED, result, time.Now().UTC())
	return nil
}

// abandon terminates an active session with no win path.
func (s *Session) abandon() error {
	if err := s.ensureActive(); err != nil {
		return err
	}
	s.finalize(SessionStatus_ABANDONED, Result_INCOMPLETE, time.Now().UTC())
	return nil
}

func (s *Session) finalize(status SessionStatus, result Result, now time.Time) {
	s.Status = status
	s.Result = result
	s.UpdatedAt = now
	completedAt := now
	s.CompletedAt = &completedAt
	s.recomputeScore(now)
}
