package main

import (
	"fmt"
	"strconv"
	"strings"
)

// DatePrecision states how much of a release date is known.
type DatePrecision string

const (
	PrecisionYear  DatePrecision = "year"
	PrecisionMonth DatePrecision = "month"
	PrecisionDay   DatePrecision = "day"
)

// ReleaseDate is a possibly-partial release date. Month and Day are
// only meaningful up to Precision.
type ReleaseDate struct {
	Year      int           `json:"year"`
	Month     int           `json:"month,omitempty"`
	Day       int           `json:"day,omitempty"`
	Precision DatePrecision `json:"precision"`
}

func (d ReleaseDate) String() string {
	switch d.Precision {
	case PrecisionDay:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	case PrecisionMonth:
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	default:
		return fmt.Sprintf("%04d", d.Year)
	}
}

func (d ReleaseDate) depth() int {
	switch d.Precision {
	case PrecisionDay:
		return 3
	case PrecisionMonth:
		return 2
	default:
		return 1
	}
}

// Compare orders two release dates at the coarser of their two
// precisions, so "1994" and "1994-06-21" compare equal. Returns
// -1, 0, or 1.
func (d ReleaseDate) Compare(other ReleaseDate) int {
	depth := d.depth()
	if o := other.depth(); o < depth {
		depth = o
	}

	pairs := [3][2]int{
		{d.Year, other.Year},
		{d.Month, other.Month},
		{d.Day, other.Day},
	}

	for i := 0; i < depth; i++ {
		switch {
		case pairs[i][0] < pairs[i][1]:
			return -1
		case pairs[i][0] > pairs[i][1]:
			return 1
		}
	}
	return 0
}

// parseRelease reads "2006", "2006-01", or "2006-01-02" and infers
// precision from how many parts are present.
func parseRelease(s string) (ReleaseDate, error) {
	parts := strings.Split(s, "-")
	if len(parts) < 1 || len(parts) > 3 {
		return ReleaseDate{}, fmt.Errorf("invalid release date %q", s)
	}

	fields := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return ReleaseDate{}, fmt.Errorf("invalid release date %q: %w", s, err)
		}
		fields[i] = n
	}

	date := ReleaseDate{Year: fields[0], Precision: PrecisionYear}
	if len(fields) > 1 {
		if fields[1] < 1 || fields[1] > 12 {
			return ReleaseDate{}, fmt.Errorf("invalid release month in %q", s)
		}
		date.Month = fields[1]
		date.Precision = PrecisionMonth
	}
	if len(fields) > 2 {
		if fields[2] < 1 || fields[2] > 31 {
			return ReleaseDate{}, fmt.Errorf("invalid release day in %q", s)
		}
		date.Day = fields[2]
		date.Precision = PrecisionDay
	}

	return date, nil
}

// TrackCard is one playable song card. Immutable once materialized.
type TrackCard struct {
	TrackID string      `json:"trackId"`
	URI     string      `json:"uri"`
	Name    string      `json:"name,omitempty"`
	Artist  string      `json:"artist,omitempty"`
	Album   string      `json:"album,omitempty"`
	Cover   string      `json:"cover,omitempty"`
	Release ReleaseDate `json:"release"`
}

// TrackSource supplies the cards for a chosen playlist. The built-in
// catalog implements it; a music-provider bridge can too.
type TrackSource interface {
	Playlist(id string) ([]TrackCard, error)
}
