package klondike

import "errors"

// ErrNothingToUndo is returned when undo is requested with empty history.
var ErrNothingToUndo = errors.New("NOTHING_TO_UNDO")

// Move is a reversible delta recorded for every accepted move. It stores
// the moved run and the card that was flipped face-up as a consequence,
// rather than a whole-board snapshot, so undo is O(moved cards).
type Move struct {
	FromPileID  string  `json:"fromPileId"`
	FromIndex   int     `json:"fromIndex"`
	ToPileID    string  `json:"toPileId"`
	MovedCards  []*Card `json:"movedCards"`
	FlippedCard *Card   `json:"flippedCard,omitempty"`
	Seq         uint32  `json:"sequenceNumber"`
}

// ApplyMove validates and executes a move, returning the reversible Move
// record. On rejection the board is untouched and a RuleError is returned.
func (b *Board) ApplyMove(fromPileID string, fromIndex int, toPileID string) (*Move, error) {
	if err := Validate(b, fromPileID, fromIndex, toPileID); err != nil {
		return nil, err
	}

	from, _ := b.Pile(fromPileID)
	to, _ := b.Pile(toPileID)

	run := from.RemoveFrom(fromIndex)
	to.Append(run)

	move := &Move{
		FromPileID: fromPileID,
		FromIndex:  fromIndex,
		ToPileID:   toPileID,
		MovedCards: run,
	}

	// Turn up the tableau card exposed by the move, remembering it so
	// undo can turn it back down.
	if from.Type == Tableau && !from.Empty() && !from.Top().FaceUp {
		from.Top().FaceUp = true
		move.FlippedCard = from.Top()
	}
	return move, nil
}

// History is the per-session stack of reversible move deltas. It is
// append-only except for the pop performed by Undo.
type History struct {
	Moves []*Move `json:"moves"`
}

func NewHistory() *History {
	return &History{}
}

func (h *History) Len() int {
	return len(h.Moves)
}

// Record pushes an accepted move, stamping its sequence number.
func (h *History) Record(move *Move) {
	move.Seq = uint32(len(h.Moves) + 1)
	h.Moves = append(h.Moves, move)
}

// Undo pops the last move and applies its exact inverse to the board:
// the moved run returns from the target pile to the source pile, and a
// flipped card is turned face-down again. No renumbering or
// re-randomization occurs.
func (h *History) Undo(b *Board) (*Move, error) {
	if len(h.Moves) == 0 {
		return nil, ErrNothingToUndo
	}
	move := h.Moves[len(h.Moves)-1]
	h.Moves = h.Moves[:len(h.Moves)-1]

	from, _ := b.Pile(move.FromPileID)
	to, _ := b.Pile(move.ToPileID)

	// The flipped card, if any, is sitting on top of the source pile.
	// Resolve it positionally so undo also works on a board rebuilt
	// from a persisted snapshot.
	if move.FlippedCard != nil && !from.Empty() {
		from.Top().FaceUp = false
	}
	run := to.RemoveFrom(to.Len() - len(move.MovedCards))
	from.Append(run)
	return move, nil
}
