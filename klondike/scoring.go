package klondike

import "time"

const (
	foundationCardPoints = 10
	timeBonusCeiling     = 1000
)

// Score derives the session score from pile state, elapsed play time and
// move count. It is a pure function; callers recompute it after every
// accepted move instead of tracking a drifting counter.
//
//	score = max(0, 10*foundationCards + max(0, 1000-elapsedSeconds) - moveCount)
func Score(b *Board, elapsed time.Duration, moveCount uint32) int64 {
	timeBonus := int64(timeBonusCeiling) - int64(elapsed/time.Second)
	if timeBonus < 0 {
		timeBonus = 0
	}
	score := int64(foundationCardPoints*b.FoundationCount()) + timeBonus - int64(moveCount)
	if score < 0 {
		score = 0
	}
	return score
}

// IsWon reports the win condition: all 52 cards on the foundations.
func IsWon(b *Board) bool {
	return b.FoundationCount() == DeckSize
}
