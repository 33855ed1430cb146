package klondike

type PileType int32

const (
	Tableau PileType = iota
	Foundation
	Stock
	Waste
)

func (t PileType) String() string {
	switch t {
	case Tableau:
		return "tableau"
	case Foundation:
		return "foundation"
	case Stock:
		return "stock"
	case Waste:
		return "waste"
	}
	return "unknown"
}

// Pile is an ordered card container. Index 0 is the bottom of the pile,
// the last index is the top.
type Pile struct {
	ID    string   `json:"id"`
	Type  PileType `json:"type"`
	Cards []*Card  `json:"cards"`
}

func (p *Pile) Len() int {
	return len(p.Cards)
}

func (p *Pile) Empty() bool {
	return len(p.Cards) == 0
}

// Top returns the topmost card, or nil when the pile is empty.
func (p *Pile) Top() *Card {
	if len(p.Cards) == 0 {
		return nil
	}
	return p.Cards[len(p.Cards)-1]
}

// RemoveFrom removes and returns the run of cards from index to the top
// of the pile. Together with Append these are the only two pile mutators;
// every higher-level move is expressed through them. The returned run is
// a copy so that move records do not alias the pile's backing array.
func (p *Pile) RemoveFrom(index int) []*Card {
	run := make([]*Card, len(p.Cards)-index)
	copy(run, p.Cards[index:])
	p.Cards = p.Cards[:index]
	return run
}

// Append pushes a run onto the top of the pile.
func (p *Pile) Append(cards []*Card) {
	p.Cards = append(p.Cards, cards...)
}

func (p *Pile) String() string {
	return p.ID + " " + CardsToString(p.Cards)
}
