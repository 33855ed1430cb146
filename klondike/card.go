package klondike

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Suit int32

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

type Rank int32

const (
	Ace  Rank = 1
	King Rank = 13
)

var (
	strRanks = "xA23456789TJQK"
	suitChar = map[Suit]byte{
		Hearts:   'h',
		Diamonds: 'd',
		Clubs:    'c',
		Spades:   's',
	}
	charSuit = map[byte]Suit{
		'h': Hearts,
		'd': Diamonds,
		'c': Clubs,
		's': Spades,
	}
	prettySuits = map[Suit]string{
		Spades:   "♠",
		Hearts:   "❤",
		Diamonds: "♦",
		Clubs:    "♣",
	}
	charRankToRank = map[uint8]Rank{}
)

func init() {
	for i := 1; i <= 13; i++ {
		charRankToRank[strRanks[i]] = Rank(i)
	}
}

// IsRed reports the card color. Hearts and diamonds are red,
// clubs and spades are black.
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

func (s Suit) String() string {
	return string(suitChar[s])
}

func (r Rank) String() string {
	if r < 1 || r > 13 {
		return "x"
	}
	return string(strRanks[r])
}

// Card is a single playing card. Suit and Rank never change after the
// deal; FaceUp is the only mutable field and is toggled as a side effect
// of moves and draws.
type Card struct {
	ID     string `json:"id"`
	Suit   Suit   `json:"suit"`
	Rank   Rank   `json:"rank"`
	FaceUp bool   `json:"faceUp"`
}

// NewCard parses a two-character card string like "Ah" or "Ts".
func NewCard(s string) *Card {
	rank, ok := charRankToRank[s[0]]
	if !ok {
		panic(fmt.Sprintf("invalid card rank in [%s]", s))
	}
	suit, ok := charSuit[s[1]]
	if !ok {
		panic(fmt.Sprintf("invalid card suit in [%s]", s))
	}
	return &Card{
		ID:   uuid.New().String(),
		Suit: suit,
		Rank: rank,
	}
}

func (c *Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// Pretty renders the card with a unicode suit symbol for logs.
func (c *Card) Pretty() string {
	return c.Rank.String() + prettySuits[c.Suit]
}

func CardsToString(cards []*Card) string {
	var b strings.Builder
	b.Grow(32)
	fmt.Fprintf(&b, "[")
	for _, c := range cards {
		if c.FaceUp {
			fmt.Fprintf(&b, " %s ", c.Pretty())
		} else {
			fmt.Fprintf(&b, " ## ")
		}
	}
	fmt.Fprintf(&b, "]")
	return b.String()
}
