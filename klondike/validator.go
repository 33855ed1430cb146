package klondike

import "fmt"

// Rejection reasons returned by Validate.
const (
	ReasonNoSuchPile   = "NO_SUCH_PILE"
	ReasonNoSuchCard   = "NO_SUCH_CARD"
	ReasonFaceDown     = "FACE_DOWN"
	ReasonBadTarget    = "BAD_TARGET"
	ReasonBrokenRun    = "BROKEN_RUN"
	ReasonNeedsKing    = "NEEDS_KING"
	ReasonNeedsAce     = "NEEDS_ACE"
	ReasonNotTopCard   = "NOT_TOP_CARD"
	ReasonSameColor    = "SAME_COLOR"
	ReasonRankMismatch = "RANK_MISMATCH"
	ReasonSuitMismatch = "SUIT_MISMATCH"
)

// RuleError is returned when a proposed move violates the game rules.
// The board is never mutated when a RuleError is returned.
type RuleError struct {
	Reason string
	Msg    string
}

func (e RuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Msg)
}

func ruleErrorf(reason string, format string, args ...interface{}) RuleError {
	return RuleError{Reason: reason, Msg: fmt.Sprintf(format, args...)}
}

// tableauFits reports whether moved can be placed on top of target in a
// tableau: opposite color and rank exactly one less than the target.
func tableauFits(target *Card, moved *Card) error {
	if target.Suit.IsRed() == moved.Suit.IsRed() {
		return ruleErrorf(ReasonSameColor, "%s and %s are the same color", moved, target)
	}
	if target.Rank != moved.Rank+1 {
		return ruleErrorf(ReasonRankMismatch, "%s does not continue %s", moved, target)
	}
	return nil
}

// validRun reports whether cards is a face-up, strictly descending,
// alternating-color sequence. Reuses the tableau placement predicate for
// each consecutive pair.
func validRun(cards []*Card) bool {
	for i, card := range cards {
		if !card.FaceUp {
			return false
		}
		if i > 0 && tableauFits(cards[i-1], card) != nil {
			return false
		}
	}
	return true
}

// Validate is the pure move predicate: it decides whether moving the run
// starting at fromIndex in the source pile onto the target pile is legal.
// It never mutates the board.
func Validate(b *Board, fromPileID string, fromIndex int, toPileID string) error {
	from, ok := b.Pile(fromPileID)
	if !ok {
		return ruleErrorf(ReasonNoSuchPile, "unknown source pile [%s]", fromPileID)
	}
	to, ok := b.Pile(toPileID)
	if !ok {
		return ruleErrorf(ReasonNoSuchPile, "unknown target pile [%s]", toPileID)
	}
	if fromIndex < 0 || fromIndex >= from.Len() {
		return ruleErrorf(ReasonNoSuchCard, "no card at index %d of pile [%s]", fromIndex, fromPileID)
	}
	moved := from.Cards[fromIndex]
	if !moved.FaceUp {
		return ruleErrorf(ReasonFaceDown, "card at index %d of pile [%s] is face down", fromIndex, fromPileID)
	}

	switch to.Type {
	case Tableau:
		run := from.Cards[fromIndex:]
		if len(run) > 1 {
			// Only a tableau source may carry a run; from the waste or a
			// foundation just the top card is playable.
			if from.Type != Tableau {
				return ruleErrorf(ReasonNotTopCard, "only the top card of pile [%s] can move", fromPileID)
			}
			// Moving a multi-card run is only legal when the run is
			// already a valid descending alternating-color sequence.
			if !validRun(run) {
				return ruleErrorf(ReasonBrokenRun, "cards from index %d of pile [%s] do not form a valid run", fromIndex, fromPileID)
			}
		}
		if to.Empty() {
			if moved.Rank != King {
				return ruleErrorf(ReasonNeedsKing, "only a King can be placed on empty tableau [%s]", toPileID)
			}
			return nil
		}
		return tableauFits(to.Top(), moved)

	case Foundation:
		if fromIndex != from.Len()-1 {
			return ruleErrorf(ReasonNotTopCard, "only a single top card can move to a foundation")
		}
		if to.Empty() {
			if moved.Rank != Ace {
				return ruleErrorf(ReasonNeedsAce, "only an Ace can be placed on empty foundation [%s]", toPileID)
			}
			return nil
		}
		top := to.Top()
		if top.Suit != moved.Suit {
			return ruleErrorf(ReasonSuitMismatch, "%s does not match foundation suit %s", moved, top.Suit)
		}
		if moved.Rank != top.Rank+1 {
			return ruleErrorf(ReasonRankMismatch, "%s does not continue foundation top %s", moved, top)
		}
		return nil

	default:
		// Stock and waste are never move targets; stock to waste transfer
		// is the draw operation.
		return ruleErrorf(ReasonBadTarget, "cards cannot be moved onto pile [%s]", toPileID)
	}
}
