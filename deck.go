package main

import (
	"crypto/rand"
	"errors"
)

// Deck is the pool of song cards for one game. A trackId lives in
// exactly one of remaining or used; discard holds the subset of used
// that was drawn and then misplaced, so those songs never come back.
type Deck struct {
	PlaylistID string

	remaining []TrackCard
	used      map[string]TrackCard
	discard   map[string]bool
}

// newDeck copies and shuffles the supplied cards.
func newDeck(playlistID string, cards []TrackCard) *Deck {
	pool := make([]TrackCard, len(cards))
	copy(pool, cards)

	// Fisher-Yates shuffle using crypto/rand
	for i := len(pool) - 1; i > 0; i-- {
		var b [1]byte
		if _, err := rand.Read(b[:]); err != nil {
			continue
		}
		j := int(b[0]) % (i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}

	return &Deck{
		PlaylistID: playlistID,
		remaining:  pool,
		used:       make(map[string]TrackCard),
		discard:    make(map[string]bool),
	}
}

func (d *Deck) Remaining() int {
	return len(d.remaining)
}

// Draw moves one card from the shuffled pool into the used set. The
// pool is already uniformly shuffled, so popping the tail is a uniform
// draw.
func (d *Deck) Draw() (TrackCard, error) {
	if len(d.remaining) == 0 {
		return TrackCard{}, errors.New("deck exhausted")
	}

	card := d.remaining[len(d.remaining)-1]
	d.remaining = d.remaining[:len(d.remaining)-1]
	d.used[card.TrackID] = card

	return card, nil
}

// Discard marks a drawn card as misplaced. It must already be in the
// used set.
func (d *Deck) Discard(trackID string) error {
	if _, ok := d.used[trackID]; !ok {
		return errors.New("discarding track " + trackID + " that was never drawn")
	}
	d.discard[trackID] = true
	return nil
}

// check verifies the deck invariants: used and remaining are disjoint,
// and every discarded track was drawn.
func (d *Deck) check() error {
	for _, card := range d.remaining {
		if _, ok := d.used[card.TrackID]; ok {
			return errors.New("track " + card.TrackID + " is both remaining and used")
		}
	}
	for trackID := range d.discard {
		if _, ok := d.used[trackID]; !ok {
			return errors.New("track " + trackID + " discarded without being used")
		}
	}
	return nil
}
