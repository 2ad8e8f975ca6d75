package deck

import (
	"planningpoker/internal/models"
)

// Card values per deck. Every deck ends with the "unsure" and "break" cards.
var (
	fibonacciDeck = []string{"0", "1", "2", "3", "5", "8", "13", "21", "34", "55", "89", "?", "☕"}
	powersOf2Deck = []string{"0", "1", "2", "4", "8", "16", "32", "64", "?", "☕"}
	tshirtDeck    = []string{"XS", "S", "M", "L", "XL", "?", "☕"}
)

// Values returns the legal vote values for a deck type.
// The returned slice must not be modified by callers.
func Values(deckType models.DeckType) []string {
	switch deckType {
	case models.DeckTypeFibonacci:
		return fibonacciDeck
	case models.DeckTypePowersOf2:
		return powersOf2Deck
	case models.DeckTypeTShirt:
		return tshirtDeck
	default:
		return nil
	}
}

// IsValidType reports whether the deck type is one of the known decks
func IsValidType(deckType models.DeckType) bool {
	return Values(deckType) != nil
}

// Contains reports whether value is a legal vote for the deck type
func Contains(deckType models.DeckType, value string) bool {
	for _, v := range Values(deckType) {
		if v == value {
			return true
		}
	}
	return false
}
