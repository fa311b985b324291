package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Catalog is the built-in TrackSource: named playlists resolved
// entirely in memory. A catalog file can replace or extend the demo
// playlists so real provider exports can be played.
type Catalog struct {
	playlists map[string][]TrackCard
}

func (c *Catalog) Playlist(id string) ([]TrackCard, error) {
	cards, ok := c.playlists[strings.ToLower(id)]
	if !ok {
		return nil, gameErrorf(ErrInvalidState, "unknown playlist %q", id)
	}

	out := make([]TrackCard, len(cards))
	copy(out, cards)
	return out, nil
}

// PlaylistIDs lists the available playlists, sorted for stable output.
func (c *Catalog) PlaylistIDs() []string {
	ids := make([]string, 0, len(c.playlists))
	for id := range c.playlists {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// catalogFile is the on-disk JSON shape: playlist id -> entries with a
// string release date ("1994", "1994-06", or "1994-06-21").
type catalogFile struct {
	Playlists map[string][]catalogEntry `json:"playlists"`
}

type catalogEntry struct {
	TrackID  string `json:"trackId"`
	URI      string `json:"uri"`
	Name     string `json:"name"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Cover    string `json:"cover"`
	Released string `json:"released"`
}

func newCatalog() *Catalog {
	return &Catalog{playlists: demoPlaylists()}
}

// loadCatalog merges a catalog file over the built-in playlists.
func loadCatalog(path string) (*Catalog, error) {
	c := newCatalog()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}

	for id, entries := range file.Playlists {
		cards := make([]TrackCard, 0, len(entries))
		seen := make(map[string]bool, len(entries))

		for _, entry := range entries {
			if entry.TrackID == "" || entry.URI == "" {
				return nil, fmt.Errorf("catalog %s: playlist %q has an entry without trackId or uri", path, id)
			}
			if seen[entry.TrackID] {
				return nil, fmt.Errorf("catalog %s: playlist %q repeats track %q", path, id, entry.TrackID)
			}
			seen[entry.TrackID] = true

			release, err := parseRelease(entry.Released)
			if err != nil {
				return nil, fmt.Errorf("catalog %s: playlist %q track %q: %w", path, id, entry.TrackID, err)
			}

			cards = append(cards, TrackCard{
				TrackID: entry.TrackID,
				URI:     entry.URI,
				Name:    entry.Name,
				Artist:  entry.Artist,
				Album:   entry.Album,
				Cover:   entry.Cover,
				Release: release,
			})
		}

		c.playlists[strings.ToLower(id)] = cards
	}

	return c, nil
}

func mustRelease(s string) ReleaseDate {
	d, err := parseRelease(s)
	if err != nil {
		panic("bad built-in release date: " + s)
	}
	return d
}

func demoTrack(id, name, artist, released string) TrackCard {
	return TrackCard{
		TrackID: id,
		URI:     "tuneline:demo:" + id,
		Name:    name,
		Artist:  artist,
		Release: mustRelease(released),
	}
}

// demoPlaylists keeps the binary playable with no provider attached.
func demoPlaylists() map[string][]TrackCard {
	return map[string][]TrackCard{
		"classics": {
			demoTrack("cl-01", "Johnny B. Goode", "Chuck Berry", "1958"),
			demoTrack("cl-02", "Respect", "Aretha Franklin", "1967"),
			demoTrack("cl-03", "Superstition", "Stevie Wonder", "1972"),
			demoTrack("cl-04", "Bohemian Rhapsody", "Queen", "1975"),
			demoTrack("cl-05", "Billie Jean", "Michael Jackson", "1983"),
			demoTrack("cl-06", "Like a Prayer", "Madonna", "1989"),
			demoTrack("cl-07", "Smells Like Teen Spirit", "Nirvana", "1991"),
			demoTrack("cl-08", "Wonderwall", "Oasis", "1995"),
			demoTrack("cl-09", "Hey Ya!", "OutKast", "2003"),
			demoTrack("cl-10", "Rolling in the Deep", "Adele", "2010"),
		},
		"nineties": {
			demoTrack("nn-01", "Losing My Religion", "R.E.M.", "1991"),
			demoTrack("nn-02", "Creep", "Radiohead", "1992"),
			demoTrack("nn-03", "Loser", "Beck", "1993"),
			demoTrack("nn-04", "Sabotage", "Beastie Boys", "1994"),
			demoTrack("nn-05", "Gangsta's Paradise", "Coolio", "1995"),
			demoTrack("nn-06", "Firestarter", "The Prodigy", "1996"),
			demoTrack("nn-07", "Bitter Sweet Symphony", "The Verve", "1997"),
			demoTrack("nn-08", "Iris", "Goo Goo Dolls", "1998"),
			demoTrack("nn-09", "My Name Is", "Eminem", "1999"),
		},
		"party": {
			demoTrack("pt-01", "Dancing Queen", "ABBA", "1976"),
			demoTrack("pt-02", "Le Freak", "Chic", "1978"),
			demoTrack("pt-03", "Take On Me", "a-ha", "1985"),
			demoTrack("pt-04", "Pump Up the Jam", "Technotronic", "1989"),
			demoTrack("pt-05", "Around the World", "Daft Punk", "1997"),
			demoTrack("pt-06", "Crazy in Love", "Beyoncé", "2003"),
			demoTrack("pt-07", "I Gotta Feeling", "The Black Eyed Peas", "2009"),
			demoTrack("pt-08", "Get Lucky", "Daft Punk", "2013"),
			demoTrack("pt-09", "Uptown Funk", "Mark Ronson", "2014"),
			demoTrack("pt-10", "Blinding Lights", "The Weeknd", "2019"),
		},
	}
}
