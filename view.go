package main

// roomView is the read-only projection sent as room:init/room:state
// and returned by the snapshot endpoint. It is safe to show everyone:
// an unresolved turn exposes its song as playback info only.
type roomView struct {
	Code          string       `json:"code"`
	Status        RoomStatus   `json:"status"`
	HostID        string       `json:"hostId"`
	TiePolicy     TiePolicy    `json:"tiePolicy"`
	TargetPoints  int          `json:"targetPoints"`
	WinnerID      *string      `json:"winnerId"`
	DeckRemaining int          `json:"deckRemaining"`
	Players       []playerView `json:"players"`
	Turn          *turnView    `json:"turn"`
}

type playerView struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Seat     int         `json:"seat"`
	Score    int         `json:"score"`
	Timeline []TrackCard `json:"timeline"`
}

type turnView struct {
	TurnID          int       `json:"turnId"`
	CurrentPlayerID string    `json:"currentPlayerId"`
	Phase           TurnPhase `json:"phase"`
	Song            *songView `json:"song,omitempty"`
}

// Snapshot projects the room for (re)connecting clients.
func (r *Room) Snapshot() roomView {
	view := roomView{
		Code:          r.Code,
		Status:        r.Status,
		HostID:        r.HostID,
		TiePolicy:     r.TiePolicy,
		TargetPoints:  r.TargetPoints,
		Players:       make([]playerView, 0, len(r.Players)),
	}

	if r.WinnerID != "" {
		winner := r.WinnerID
		view.WinnerID = &winner
	}
	if r.Deck != nil {
		view.DeckRemaining = r.Deck.Remaining()
	}

	for _, p := range r.Players {
		timeline := make([]TrackCard, len(p.Timeline))
		copy(timeline, p.Timeline)
		view.Players = append(view.Players, playerView{
			ID:       p.ID,
			Name:     p.Name,
			Seat:     p.Seat,
			Score:    p.Score(),
			Timeline: timeline,
		})
	}

	if r.Turn != nil {
		tv := &turnView{
			TurnID:          r.Turn.ID,
			CurrentPlayerID: r.Turn.PlayerID,
			Phase:           r.Turn.Phase,
		}
		if r.Turn.Drawn != nil && r.Turn.Phase != PhaseResult {
			tv.Song = &songView{
				TrackID: r.Turn.Drawn.TrackID,
				URI:     r.Turn.Drawn.URI,
			}
		}
		view.Turn = tv
	}

	return view
}
