package domain

import "slices"

// ShuffledDeck returns a uniformly random permutation of ids.
func ShuffledDeck(ids []string, rng Rand) []string {
	deck := slices.Clone(ids)
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

// Replenish appends a freshly shuffled copy of ids to the tail of deck when
// the deck can no longer supply dealSize distinct cards. Existing cards keep
// their order and nothing is removed.
func Replenish(deck, ids []string, dealSize int, rng Rand) []string {
	if len(deck) >= dealSize && distinct(deck) >= dealSize {
		return deck
	}
	return slices.Concat(deck, ShuffledDeck(ids, rng))
}

// Deal takes the first n distinct identifiers from the front of deck.
// Duplicates passed over stay in the remainder, in order, for a later turn.
func Deal(deck []string, n int) (dealt, rest []string, err error) {
	dealt = make([]string, 0, n)
	rest = make([]string, 0, len(deck))
	for i, id := range deck {
		if len(dealt) == n {
			rest = append(rest, deck[i:]...)
			break
		}
		if slices.Contains(dealt, id) {
			rest = append(rest, id)
			continue
		}
		dealt = append(dealt, id)
	}
	if len(dealt) < n {
		return nil, nil, ErrDeckExhausted
	}
	return dealt, rest, nil
}

// InjectFront places id at the top of deck so it is dealt next.
func InjectFront(deck []string, id string) []string {
	return slices.Insert(slices.Clone(deck), 0, id)
}

func distinct(ids []string) int {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return len(seen)
}
