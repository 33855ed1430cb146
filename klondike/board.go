package klondike

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"voyager.com/solitaire/util/random"
)

const (
	NumTableaus    = 7
	NumFoundations = 4
	DeckSize       = 52

	// DrawCount is the number of cards turned from stock to waste per draw.
	DrawCount = 3
)

const (
	StockPileID = "stock"
	WastePileID = "waste"
)

func TableauPileID(i int) string {
	return fmt.Sprintf("tableau-%d", i)
}

func FoundationPileID(i int) string {
	return fmt.Sprintf("foundation-%d", i)
}

// Board holds the piles of one solitaire game. The union of all pile
// contents is always a permutation of the 52-card deck.
type Board struct {
	Tableaus    [NumTableaus]*Pile
	Foundations [NumFoundations]*Pile
	Stock       *Pile
	Waste       *Pile

	pilesByID map[string]*Pile
}

func newEmptyBoard() *Board {
	b := &Board{
		pilesByID: make(map[string]*Pile),
	}
	for i := 0; i < NumTableaus; i++ {
		b.Tableaus[i] = &Pile{ID: TableauPileID(i), Type: Tableau}
		b.pilesByID[b.Tableaus[i].ID] = b.Tableaus[i]
	}
	for i := 0; i < NumFoundations; i++ {
		b.Foundations[i] = &Pile{ID: FoundationPileID(i), Type: Foundation}
		b.pilesByID[b.Foundations[i].ID] = b.Foundations[i]
	}
	b.Stock = &Pile{ID: StockPileID, Type: Stock}
	b.Waste = &Pile{ID: WastePileID, Type: Waste}
	b.pilesByID[StockPileID] = b.Stock
	b.pilesByID[WastePileID] = b.Waste
	return b
}

// Pile looks up a pile by its id.
func (b *Board) Pile(id string) (*Pile, bool) {
	p, ok := b.pilesByID[id]
	return p, ok
}

// Piles returns all piles in a stable order.
func (b *Board) Piles() []*Pile {
	piles := make([]*Pile, 0, NumTableaus+NumFoundations+2)
	for _, p := range b.Tableaus {
		piles = append(piles, p)
	}
	for _, p := range b.Foundations {
		piles = append(piles, p)
	}
	piles = append(piles, b.Stock, b.Waste)
	return piles
}

func newShuffledDeck(source rand.Source) []*Card {
	cards := make([]*Card, 0, DeckSize)
	for _, suit := range []Suit{Hearts, Diamonds, Clubs, Spades} {
		for rank := Ace; rank <= King; rank++ {
			cards = append(cards, &Card{
				ID:   uuid.New().String(),
				Suit: suit,
				Rank: rank,
			})
		}
	}
	if source == nil {
		source = rand.NewSource(random.NewSeed())
	}
	randGen := rand.New(source)
	randGen.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards
}

// Deal produces a freshly shuffled board: tableau pile i receives i+1
// cards with only the last one face-up, the remaining 24 cards form the
// face-down stock. Foundations and waste start empty. Pass a nil source
// for a crypto-seeded shuffle; tests inject a fixed seed.
func Deal(source rand.Source) *Board {
	b := newEmptyBoard()
	deck := newShuffledDeck(source)

	next := 0
	for i := 0; i < NumTableaus; i++ {
		for j := 0; j <= i; j++ {
			card := deck[next]
			next++
			card.FaceUp = j == i
			b.Tableaus[i].Append([]*Card{card})
		}
	}
	for ; next < len(deck); next++ {
		deck[next].FaceUp = false
		b.Stock.Append([]*Card{deck[next]})
	}
	return b
}

// Draw turns up to DrawCount cards from stock to waste, face-up and in
// order. When the stock is empty the entire waste is recycled: moved back
// to stock, reversed and turned face-down. One full recycle per call.
// Returns the number of cards turned up and whether a recycle happened.
func (b *Board) Draw() (int, bool) {
	if b.Stock.Empty() {
		if b.Waste.Empty() {
			return 0, false
		}
		recycled := b.Waste.RemoveFrom(0)
		for i, j := 0, len(recycled)-1; i < j; i, j = i+1, j-1 {
			recycled[i], recycled[j] = recycled[j], recycled[i]
		}
		for _, card := range recycled {
			card.FaceUp = false
		}
		b.Stock.Append(recycled)
		return 0, true
	}

	n := DrawCount
	if b.Stock.Len() < n {
		n = b.Stock.Len()
	}
	drawn := b.Stock.RemoveFrom(b.Stock.Len() - n)
	for _, card := range drawn {
		card.FaceUp = true
	}
	b.Waste.Append(drawn)
	return n, false
}

// FoundationCount returns the total number of cards across the four
// foundation piles.
func (b *Board) FoundationCount() int {
	count := 0
	for _, p := range b.Foundations {
		count += p.Len()
	}
	return count
}

// CardCount returns the total number of cards across all piles.
func (b *Board) CardCount() int {
	count := 0
	for _, p := range b.Piles() {
		count += p.Len()
	}
	return count
}

// Snapshot is the serialized board representation: a structural mapping
// from pile id to its ordered card list.
type Snapshot map[string][]*Card

func (b *Board) Snapshot() Snapshot {
	snap := make(Snapshot, NumTableaus+NumFoundations+2)
	for _, p := range b.Piles() {
		snap[p.ID] = p.Cards
	}
	return snap
}

// BoardFromSnapshot rebuilds a board from its serialized representation.
func BoardFromSnapshot(snap Snapshot) (*Board, error) {
	b := newEmptyBoard()
	for id, cards := range snap {
		pile, ok := b.Pile(id)
		if !ok {
			return nil, fmt.Errorf("unknown pile id [%s] in board snapshot", id)
		}
		pile.Cards = cards
	}
	return b, nil
}

func (b *Board) MarshalJSON() ([]byte, error) {
	return jsoniter.Marshal(b.Snapshot())
}

func (b *Board) UnmarshalJSON(data []byte) error {
	var snap Snapshot
	if err := jsoniter.Unmarshal(data, &snap); err != nil {
		return err
	}
	rebuilt, err := BoardFromSnapshot(snap)
	if err != nil {
		return err
	}
	*b = *rebuilt
	return nil
}

func (b *Board) PrettyPrint() string {
	out := ""
	for _, p := range b.Piles() {
		out += p.String() + "\n"
	}
	return out
}
