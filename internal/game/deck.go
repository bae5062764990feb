package game

const (
	ImposterCount  = 3
	NumberCopies   = 3
	MaxNumberValue = 6

	// размер колоды одной масти
	DeckSize = 1 + ImposterCount + NumberCopies*MaxNumberValue
)

// NewDeck возвращает полную колоду масти в фиксированном порядке:
// сайлоп, три самозванца, затем по три копии чисел 1..6.
// Колода не тасуется - это делает пересдача
func NewDeck(suit Suit) []Card {
	deck := make([]Card, 0, DeckSize)
	deck = append(deck, Card{Suit: suit, Kind: KindSylop})
	for i := 0; i < ImposterCount; i++ {
		deck = append(deck, Card{Suit: suit, Kind: KindImposter})
	}
	for v := 1; v <= MaxNumberValue; v++ {
		for i := 0; i < NumberCopies; i++ {
			deck = append(deck, Card{Suit: suit, Kind: KindNumber, Value: v})
		}
	}
	return deck
}
