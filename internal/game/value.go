package game

import "fmt"

// ResolveValue вычисляет значение вскрытой карты.
//
// Сайлоп принимает значение парной карты, которая сама считается без пары,
// поэтому два сайлопа дают 0 с обеих сторон. Самозванец требует ровно
// одного выбранного значения кубика
func ResolveValue(card, paired *DealtCard) (int, error) {
	if card == nil {
		return 0, fmt.Errorf("%w: resolve nil card", ErrInvalidState)
	}

	switch card.Card.Kind {
	case KindNumber:
		return card.Card.Value, nil
	case KindImposter:
		if len(card.DieRolls) != 1 {
			return 0, fmt.Errorf("%w: imposter %s has %d die values, want 1", ErrInvalidState, card.Card.Suit, len(card.DieRolls))
		}
		return card.DieRolls[0], nil
	case KindSylop:
		if paired == nil {
			return 0, nil
		}
		return ResolveValue(paired, nil)
	default:
		return 0, fmt.Errorf("%w: card kind %q", ErrUnknownTag, card.Card.Kind)
	}
}
