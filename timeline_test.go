package main

import (
	"testing"
)

func testCard(id, released string) TrackCard {
	return TrackCard{
		TrackID: id,
		URI:     "tuneline:test:" + id,
		Name:    "Track " + id,
		Artist:  "Artist " + id,
		Release: mustRelease(released),
	}
}

func testTimeline(released ...string) Timeline {
	t := make(Timeline, 0, len(released))
	for i, r := range released {
		t = append(t, testCard(string(rune('a'+i)), r))
	}
	return t
}

func TestEvaluatePlacement(t *testing.T) {
	tests := []struct {
		name     string
		timeline Timeline
		card     string
		index    int
		policy   TiePolicy
		want     bool
	}{
		{"empty timeline", Timeline{}, "1994", 0, TieLenient, true},
		{"empty timeline strict", Timeline{}, "1994", 0, TieStrict, true},
		{"before earliest", testTimeline("1987", "1994"), "1980", 0, TieLenient, true},
		{"before earliest wrong slot", testTimeline("1987", "1994"), "1980", 1, TieLenient, false},
		{"between", testTimeline("1987", "1994"), "1990", 1, TieLenient, true},
		{"between wrong slot", testTimeline("1987", "1994"), "1990", 2, TieLenient, false},
		{"after latest", testTimeline("1987", "1994"), "2001", 2, TieLenient, true},
		{"after latest wrong slot", testTimeline("1987", "1994"), "2001", 0, TieLenient, false},
		{"strict without ties", testTimeline("1987", "1994"), "1990", 1, TieStrict, true},

		// Equal-dated neighbors: lenient takes either side, strict
		// rejects the ambiguity.
		{"tie left side lenient", testTimeline("1990", "1994"), "1994", 1, TieLenient, true},
		{"tie right side lenient", testTimeline("1990", "1994"), "1994", 2, TieLenient, true},
		{"tie left side strict", testTimeline("1990", "1994"), "1994", 1, TieStrict, false},
		{"tie right side strict", testTimeline("1990", "1994"), "1994", 2, TieStrict, false},
		{"between equal neighbors lenient", testTimeline("1994", "1994"), "1994", 1, TieLenient, true},
		{"between equal neighbors strict", testTimeline("1994", "1994"), "1994", 1, TieStrict, false},
		{"tie at year precision", testTimeline("1994-06-21"), "1994", 0, TieStrict, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.timeline.Evaluate(testCard("x", tc.card), tc.index, tc.policy)
			if got != tc.want {
				t.Errorf("Evaluate(%s at %d, %s) = %t, want %t", tc.card, tc.index, tc.policy, got, tc.want)
			}
		})
	}
}

func TestEvaluateOutOfRangeIndexIsNeverCorrect(t *testing.T) {
	timeline := testTimeline("1987", "1994")

	for _, index := range []int{-1, 3, 10} {
		if timeline.Evaluate(testCard("x", "2001"), index, TieLenient) {
			t.Errorf("Evaluate accepted out-of-range index %d", index)
		}
	}
}

func TestInsertKeepsTimelineSorted(t *testing.T) {
	timeline := Timeline{}

	for _, step := range []struct {
		released string
		index    int
	}{
		{"1994", 0},
		{"1987", 0},
		{"2001", 2},
		{"1990", 1},
	} {
		card := testCard(step.released, step.released)
		if !timeline.Evaluate(card, step.index, TieLenient) {
			t.Fatalf("placement of %s at %d unexpectedly incorrect", step.released, step.index)
		}
		timeline = timeline.insert(card, step.index)

		if !timeline.sorted() {
			t.Fatalf("timeline unsorted after inserting %s at %d", step.released, step.index)
		}
	}

	if len(timeline) != 4 {
		t.Errorf("timeline length = %d, want 4", len(timeline))
	}
}

func TestValidIndicesAroundTies(t *testing.T) {
	timeline := testTimeline("1990", "1994", "1994", "2001")

	got := timeline.validIndices(mustRelease("1994"))
	want := []int{1, 2, 3}

	if len(got) != len(want) {
		t.Fatalf("validIndices = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("validIndices = %v, want %v", got, want)
		}
	}
}
