package game

// Player - место за столом
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	Tokens      int `json:"tokens"`
	SpentTokens int `json:"spent_tokens"` // потрачено в текущей раздаче

	BloodCards []*DealtCard `json:"blood_cards"`
	SandCards  []*DealtCard `json:"sand_cards"`

	// выбывание окончательно, флаг никогда не сбрасывается
	IsEliminated bool `json:"is_eliminated"`

	Turn        *Turn        `json:"turn,omitempty"`
	HandResults []HandResult `json:"hand_results,omitempty"`
}

func newPlayer(id, name string, tokens int) *Player {
	return &Player{
		ID:     id,
		Name:   name,
		Tokens: tokens,
	}
}

// Cards возвращает карты руки указанной масти
func (p *Player) Cards(suit Suit) []*DealtCard {
	if suit == SuitBlood {
		return p.BloodCards
	}
	return p.SandCards
}

func (p *Player) setCards(suit Suit, cards []*DealtCard) {
	if suit == SuitBlood {
		p.BloodCards = cards
	} else {
		p.SandCards = cards
	}
}

// Hand возвращает все карты руки: сначала кровь, затем песок
func (p *Player) Hand() []*DealtCard {
	out := make([]*DealtCard, 0, len(p.BloodCards)+len(p.SandCards))
	out = append(out, p.BloodCards...)
	return append(out, p.SandCards...)
}

// owns проверяет, что карта лежит в слоте своей масти
func (p *Player) owns(card *DealtCard) bool {
	if card == nil {
		return false
	}
	return indexOfCard(p.Cards(card.Suit()), card) >= 0
}

// AvailableTokens - сколько жетонов ещё можно потратить в этой раздаче
func (p *Player) AvailableTokens() int {
	return p.Tokens - p.SpentTokens
}

func (p *Player) CanDraw() bool {
	return p.SpentTokens < p.Tokens
}

func indexOfCard(cards []*DealtCard, card *DealtCard) int {
	for i, c := range cards {
		if c == card {
			return i
		}
	}
	return -1
}

func removeCard(cards []*DealtCard, i int) []*DealtCard {
	out := make([]*DealtCard, 0, len(cards)-1)
	out = append(out, cards[:i]...)
	return append(out, cards[i+1:]...)
}
