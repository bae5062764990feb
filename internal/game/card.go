package game

import (
	"fmt"
	"strconv"
)

// масть карты: колоды и сбросы ведутся отдельно для каждой масти
type Suit string

const (
	SuitBlood Suit = "blood"
	SuitSand  Suit = "sand"
)

// Suits перечисляет масти в порядке отображения
var Suits = [2]Suit{SuitBlood, SuitSand}

func (s Suit) Valid() bool {
	return s == SuitBlood || s == SuitSand
}

func (s *Suit) UnmarshalText(b []byte) error {
	v := Suit(b)
	if !v.Valid() {
		return fmt.Errorf("%w: suit %q", ErrUnknownTag, string(b))
	}
	*s = v
	return nil
}

type CardKind string

const (
	KindSylop    CardKind = "sylop"
	KindImposter CardKind = "imposter"
	KindNumber   CardKind = "number"
)

func (k *CardKind) UnmarshalText(b []byte) error {
	switch v := CardKind(b); v {
	case KindSylop, KindImposter, KindNumber:
		*k = v
		return nil
	default:
		return fmt.Errorf("%w: card kind %q", ErrUnknownTag, string(b))
	}
}

// Card - карта колоды. Value имеет смысл только для KindNumber
type Card struct {
	Suit  Suit     `json:"suit"`
	Kind  CardKind `json:"kind"`
	Value int      `json:"value"`
}

func (c Card) String() string {
	switch c.Kind {
	case KindSylop:
		return string(c.Suit) + " sylop"
	case KindImposter:
		return string(c.Suit) + " imposter"
	default:
		return string(c.Suit) + " " + strconv.Itoa(c.Value)
	}
}

// откуда карта попала в руку
type CardSource string

const (
	SourceDealt        CardSource = "dealt"
	SourceBloodDeck    CardSource = "blood_deck"
	SourceBloodDiscard CardSource = "blood_discard"
	SourceSandDeck     CardSource = "sand_deck"
	SourceSandDiscard  CardSource = "sand_discard"
)

// DrawSources - источники, из которых можно тянуть карту
var DrawSources = [4]CardSource{SourceBloodDeck, SourceBloodDiscard, SourceSandDeck, SourceSandDiscard}

func (s *CardSource) UnmarshalText(b []byte) error {
	switch v := CardSource(b); v {
	case SourceDealt, SourceBloodDeck, SourceBloodDiscard, SourceSandDeck, SourceSandDiscard:
		*s = v
		return nil
	default:
		return fmt.Errorf("%w: card source %q", ErrUnknownTag, string(b))
	}
}

// pile возвращает масть стопки и признак сброса для источника добора
func (s CardSource) pile() (suit Suit, discard bool, err error) {
	switch s {
	case SourceBloodDeck:
		return SuitBlood, false, nil
	case SourceBloodDiscard:
		return SuitBlood, true, nil
	case SourceSandDeck:
		return SuitSand, false, nil
	case SourceSandDiscard:
		return SuitSand, true, nil
	case SourceDealt:
		return "", false, fmt.Errorf("%q is not a draw source", s)
	default:
		return "", false, fmt.Errorf("%w: card source %q", ErrUnknownTag, string(s))
	}
}

// DealtCard - карта на руке игрока или в сбросе.
// DieRolls заполняется только для самозванца во время вскрытия:
// сначала два кандидата, после выбора - одно значение
type DealtCard struct {
	Card     Card       `json:"card"`
	DieRolls []int      `json:"die_rolls,omitempty"`
	Source   CardSource `json:"source"`
}

func (d *DealtCard) Suit() Suit {
	return d.Card.Suit
}

func (d *DealtCard) IsImposter() bool {
	return d.Card.Kind == KindImposter
}

// NeedsDieChoice сообщает, что самозванцу ещё не выбрано значение кубика
func (d *DealtCard) NeedsDieChoice() bool {
	return d.IsImposter() && len(d.DieRolls) != 1
}

func (d *DealtCard) String() string {
	if d.IsImposter() && len(d.DieRolls) == 1 {
		return fmt.Sprintf("%s (%d)", d.Card, d.DieRolls[0])
	}
	return d.Card.String()
}
