package domain

import (
	"fmt"
	"time"
)

// Deck names one independent content type being drilled.
type Deck string

const (
	Vocabulary  Deck = "vocabulary"
	Declension  Deck = "declension"
	Sentences   Deck = "sentences"
	Conjugation Deck = "conjugation"
	Aspect      Deck = "aspect"
)

// Direction is a practice orientation. Scheduling state is kept fully separate
// per direction.
type Direction string

const (
	DirectionDefault      Direction = "default"
	DirectionRecognition  Direction = "recognition"
	DirectionProduction   Direction = "production"
	DirectionImperfective Direction = "imperfective"
	DirectionPerfective   Direction = "perfective"
)

// Directions returns the practice directions a deck supports, in display order.
func (d Deck) Directions() []Direction {
	switch d {
	case Vocabulary, Sentences:
		return []Direction{DirectionRecognition, DirectionProduction}
	case Aspect:
		return []Direction{DirectionImperfective, DirectionPerfective}
	case Declension, Conjugation:
		return []Direction{DirectionDefault}
	default:
		return nil
	}
}

// Supports reports whether dir is a valid direction for the deck.
func (d Deck) Supports(dir Direction) bool {
	for _, candidate := range d.Directions() {
		if candidate == dir {
			return true
		}
	}
	return false
}

// AllDecks lists every deck in dashboard order.
var AllDecks = []Deck{Vocabulary, Declension, Sentences, Conjugation, Aspect}

// ParseDeck validates a deck name.
func ParseDeck(s string) (Deck, error) {
	for _, d := range AllDecks {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDeck, s)
}

// Key identifies one review store: a deck and one of its directions.
type Key struct {
	Deck      Deck      `json:"deck"`
	Direction Direction `json:"direction"`
}

func (k Key) String() string {
	return string(k.Deck) + "/" + string(k.Direction)
}

// ParseKey validates a deck/direction pair.
func ParseKey(deck, direction string) (Key, error) {
	d, err := ParseDeck(deck)
	if err != nil {
		return Key{}, err
	}
	if !d.Supports(Direction(direction)) {
		return Key{}, fmt.Errorf("%w: %q for deck %s", ErrUnknownDirection, direction, d)
	}
	return Key{Deck: d, Direction: Direction(direction)}, nil
}

// AllKeys lists every deck/direction pair.
func AllKeys() []Key {
	var keys []Key
	for _, d := range AllDecks {
		for _, dir := range d.Directions() {
			keys = append(keys, Key{Deck: d, Direction: dir})
		}
	}
	return keys
}

// Day is a civil calendar date formatted as YYYY-MM-DD.
type Day string

const dayLayout = "2006-01-02"

// DayOf returns the calendar date of t in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.Local
	}
	return Day(t.In(loc).Format(dayLayout))
}
