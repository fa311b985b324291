package main

// TiePolicy governs how equal-dated cards are judged.
type TiePolicy string

const (
	// TieStrict rejects a placement next to an equal-dated card unless
	// the submitted index is the only date-consistent slot.
	TieStrict TiePolicy = "strict"
	// TieLenient accepts any index that keeps the timeline
	// non-decreasing; equal-dated cards may land on either side.
	TieLenient TiePolicy = "lenient"
)

func validTiePolicy(p TiePolicy) bool {
	return p == TieStrict || p == TieLenient
}

// Timeline is one player's cards, kept ascending by release date.
type Timeline []TrackCard

// validIndices returns every insertion index that keeps the timeline
// non-decreasing for the given date.
func (t Timeline) validIndices(d ReleaseDate) []int {
	valid := make([]int, 0, 2)
	for i := 0; i <= len(t); i++ {
		if i > 0 && t[i-1].Release.Compare(d) > 0 {
			continue
		}
		if i < len(t) && d.Compare(t[i].Release) > 0 {
			continue
		}
		valid = append(valid, i)
	}
	return valid
}

// Evaluate reports whether inserting card at index preserves
// chronological order under the given tie policy. index must be
// within 0..len(t).
func (t Timeline) Evaluate(card TrackCard, index int, policy TiePolicy) bool {
	valid := t.validIndices(card.Release)

	ok := false
	for _, i := range valid {
		if i == index {
			ok = true
			break
		}
	}
	if !ok {
		return false
	}

	if policy != TieStrict {
		return true
	}

	// Strict mode: an equal-dated neighbor only passes when the
	// submitted index is the unique date-consistent slot.
	equalNeighbor := (index > 0 && t[index-1].Release.Compare(card.Release) == 0) ||
		(index < len(t) && t[index].Release.Compare(card.Release) == 0)
	if equalNeighbor && len(valid) > 1 {
		return false
	}
	return true
}

// insert returns a new timeline with card placed at index.
func (t Timeline) insert(card TrackCard, index int) Timeline {
	out := make(Timeline, 0, len(t)+1)
	out = append(out, t[:index]...)
	out = append(out, card)
	out = append(out, t[index:]...)
	return out
}

// sorted reports whether the timeline is non-decreasing by release
// date.
func (t Timeline) sorted() bool {
	for i := 1; i < len(t); i++ {
		if t[i-1].Release.Compare(t[i].Release) > 0 {
			return false
		}
	}
	return true
}
