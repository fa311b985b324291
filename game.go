package main

import (
	"time"
)

// RoomStatus is the room lifecycle state. lobby -> playing cycles with
// result while turns run, then finished; finished is terminal.
type RoomStatus string

const (
	RoomLobby    RoomStatus = "lobby"
	RoomPlaying  RoomStatus = "playing"
	RoomResult   RoomStatus = "result"
	RoomFinished RoomStatus = "finished"
)

// TurnPhase is the per-turn state. playing until playback is
// confirmed, placing until the card lands, then result.
type TurnPhase string

const (
	PhasePlaying TurnPhase = "playing"
	PhasePlacing TurnPhase = "placing"
	PhaseResult  TurnPhase = "result"
)

const defaultTargetPoints = 10

// Player is one seated participant. The host is recorded on the Room
// but never seated. Score is the timeline length: one point per
// correctly placed card.
type Player struct {
	ID       string
	Name     string
	Seat     int
	Timeline Timeline
}

func (p *Player) Score() int {
	return len(p.Timeline)
}

// Turn is one draw-place-result cycle. IDs increase per room so stale
// or replayed submissions are distinguishable.
type Turn struct {
	ID       int
	PlayerID string
	Phase    TurnPhase
	Drawn    *TrackCard

	resolution *TurnResult
}

// TurnResult records how a placement resolved. It doubles as the
// turn:result payload and as the dedup record for retried
// submissions.
type TurnResult struct {
	TurnID      int       `json:"turnId"`
	PlayerID    string    `json:"playerId"`
	Correct     bool      `json:"correct"`
	NewScore    int       `json:"newScore"`
	FinalIndex  int       `json:"finalIndex"` // -1 when incorrect
	PlacedTrack TrackCard `json:"placedTrack"`

	targetIndex int
}

// Room is the authoritative state for one game session. Methods never
// lock and never touch the network; the hub serializes all calls and
// ships the returned events.
type Room struct {
	Code         string
	HostID       string
	Status       RoomStatus
	TiePolicy    TiePolicy
	TargetPoints int
	WinnerID     string
	Players      []*Player
	Deck         *Deck
	Turn         *Turn

	turnSeq    int
	turnIdx    int
	lastResult *TurnResult
	createdAt  time.Time
}

// event is one outbound message produced by a command. An empty `to`
// broadcasts to every connection in the room; otherwise it targets the
// connection bound to that participant id.
type event struct {
	name string
	data any
	to   string
}

func broadcastEvent(name string, data any) event {
	return event{name: name, data: data}
}

func directEvent(to, name string, data any) event {
	return event{name: name, data: data, to: to}
}

// Wire event names, both directions.
const (
	evJoin        = "join"
	evStart       = "start"
	evTurnDraw    = "turn:draw"
	evTurnPlaying = "turn:playing"
	evTurnGuess   = "turn:guess"
	evTurnNext    = "turn:next"

	evRoomInit    = "room:init"
	evRoomState   = "room:state"
	evTurnBegin   = "turn:begin"
	evTurnPlay    = "turn:play"
	evTurnPlacing = "turn:placing"
	evTurnResult  = "turn:result"
	evGameFinish  = "game:finish"
	evGameError   = "game:error"
)

type turnBeginPayload struct {
	TurnID          int    `json:"turnId"`
	CurrentPlayerID string `json:"currentPlayerId"`
}

// songView is the pre-reveal projection of a drawn card: enough to
// trigger playback, nothing that gives away the answer.
type songView struct {
	TrackID string `json:"trackId"`
	URI     string `json:"uri"`
}

type turnPlayPayload struct {
	TurnID   int      `json:"turnId"`
	PlayerID string   `json:"playerId"`
	Song     songView `json:"song"`
}

type turnPlacingPayload struct {
	TurnID int `json:"turnId"`
}

type gameFinishPayload struct {
	WinnerID *string `json:"winnerId"`
}

type gameErrorPayload struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func newRoom(code, hostID string, targetPoints int) *Room {
	if targetPoints < 1 {
		targetPoints = defaultTargetPoints
	}
	return &Room{
		Code:         code,
		HostID:       hostID,
		Status:       RoomLobby,
		TiePolicy:    TieLenient,
		TargetPoints: targetPoints,
		createdAt:    time.Now(),
	}
}

func (r *Room) playerByID(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Join seats a new player, or reattaches an existing one under the
// same id with seat, score, and timeline intact. A hostID identifies
// the host connection, which is never seated.
func (r *Room) Join(playerID, name, hostID string) ([]event, error) {
	if hostID != "" {
		if hostID != r.HostID {
			return nil, gameErrorf(ErrUnauthorized, "host id does not match room %s", r.Code)
		}
		return []event{broadcastEvent(evRoomState, r.Snapshot())}, nil
	}

	if playerID == "" {
		return nil, gameErrorf(ErrInvalidState, "join requires a player id")
	}

	if existing := r.playerByID(playerID); existing != nil {
		// Reconnect: keep seat, score, and timeline.
		if name != "" {
			existing.Name = name
		}
		return []event{broadcastEvent(evRoomState, r.Snapshot())}, nil
	}

	if r.Status != RoomLobby {
		return nil, gameErrorf(ErrInvalidState, "room %s already started", r.Code)
	}

	r.Players = append(r.Players, &Player{
		ID:   playerID,
		Name: name,
		Seat: len(r.Players),
	})

	return []event{broadcastEvent(evRoomState, r.Snapshot())}, nil
}

// Start captures the game settings, builds the shuffled deck from the
// track source, and begins the first turn.
func (r *Room) Start(hostID, playlistID string, policy TiePolicy, targetPoints int, source TrackSource) ([]event, error) {
	if r.Status != RoomLobby {
		return nil, gameErrorf(ErrInvalidState, "room %s is not in the lobby", r.Code)
	}
	if hostID != r.HostID {
		return nil, gameErrorf(ErrUnauthorized, "only the host may start the game")
	}
	if len(r.Players) < 2 {
		return nil, gameErrorf(ErrNotEnoughPlayers, "need at least 2 players, have %d", len(r.Players))
	}

	if policy == "" {
		policy = TieLenient
	}
	if !validTiePolicy(policy) {
		return nil, gameErrorf(ErrInvalidState, "unknown tie policy %q", policy)
	}

	cards, err := source.Playlist(playlistID)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, gameErrorf(ErrInvalidState, "playlist %q is empty", playlistID)
	}

	r.TiePolicy = policy
	if targetPoints > 0 {
		r.TargetPoints = targetPoints
	}
	r.Deck = newDeck(playlistID, cards)
	r.Status = RoomPlaying
	r.turnIdx = 0

	begin := r.beginTurn()

	return []event{
		broadcastEvent(evRoomState, r.Snapshot()),
		begin,
	}, nil
}

// beginTurn instantiates a fresh Turn for the player at the current
// seat index.
func (r *Room) beginTurn() event {
	r.turnSeq++
	current := r.Players[r.turnIdx]
	r.Turn = &Turn{
		ID:       r.turnSeq,
		PlayerID: current.ID,
		Phase:    PhasePlaying,
	}

	return broadcastEvent(evTurnBegin, turnBeginPayload{
		TurnID:          r.Turn.ID,
		CurrentPlayerID: current.ID,
	})
}

// Draw pulls the turn's song from the deck. A repeat draw for the same
// turn re-sends the already-drawn card to the caller only, with no
// deck mutation.
func (r *Room) Draw(playerID string) ([]event, error) {
	if r.Status == RoomFinished {
		return nil, gameErrorf(ErrInvalidState, "room %s is finished", r.Code)
	}
	if r.Turn == nil {
		return nil, gameErrorf(ErrInvalidState, "no active turn in room %s", r.Code)
	}
	if playerID != r.Turn.PlayerID {
		return nil, gameErrorf(ErrNotYourTurn, "it is not your turn to draw")
	}
	if r.Turn.Phase == PhaseResult {
		return nil, gameErrorf(ErrWrongPhase, "turn %d is already resolved", r.Turn.ID)
	}

	if r.Turn.Drawn != nil {
		return []event{directEvent(playerID, evTurnPlay, r.turnPlay())}, nil
	}

	card, err := r.Deck.Draw()
	if err != nil {
		return nil, gameErrorf(ErrInternal, "draw failed: %v", err)
	}
	if err := r.Deck.check(); err != nil {
		return nil, gameErrorf(ErrInternal, "deck invariant violated: %v", err)
	}
	r.Turn.Drawn = &card

	return []event{broadcastEvent(evTurnPlay, r.turnPlay())}, nil
}

func (r *Room) turnPlay() turnPlayPayload {
	return turnPlayPayload{
		TurnID:   r.Turn.ID,
		PlayerID: r.Turn.PlayerID,
		Song: songView{
			TrackID: r.Turn.Drawn.TrackID,
			URI:     r.Turn.Drawn.URI,
		},
	}
}

// ConfirmPlayback moves the turn into the placing phase once the
// music-provider side reports playback has started. The host or the
// current player may confirm.
func (r *Room) ConfirmPlayback(actorID string, turnID int) ([]event, error) {
	if r.Turn == nil {
		return nil, gameErrorf(ErrInvalidState, "no active turn in room %s", r.Code)
	}
	if turnID != r.Turn.ID {
		return nil, gameErrorf(ErrDuplicateAction, "turn %d is not the active turn", turnID)
	}
	if actorID != r.HostID && actorID != r.Turn.PlayerID {
		return nil, gameErrorf(ErrNotYourTurn, "only the host or current player may confirm playback")
	}

	switch r.Turn.Phase {
	case PhasePlacing:
		return nil, gameErrorf(ErrDuplicateAction, "playback for turn %d already confirmed", turnID)
	case PhaseResult:
		return nil, gameErrorf(ErrWrongPhase, "turn %d is already resolved", turnID)
	}
	if r.Turn.Drawn == nil {
		return nil, gameErrorf(ErrWrongPhase, "no card drawn for turn %d", turnID)
	}

	r.Turn.Phase = PhasePlacing

	return []event{broadcastEvent(evTurnPlacing, turnPlacingPayload{TurnID: r.Turn.ID})}, nil
}

// Place evaluates the current player's submitted insertion index,
// mutates timeline and deck accordingly, and resolves the turn. A
// retry that matches an already-recorded resolution returns that
// resolution again without side effects.
func (r *Room) Place(playerID string, turnID, targetIndex int) (*TurnResult, []event, error) {
	if replay := r.replayedResult(playerID, turnID, targetIndex); replay != nil {
		return replay, nil, nil
	}

	if r.Turn == nil {
		return nil, nil, gameErrorf(ErrInvalidState, "no active turn in room %s", r.Code)
	}
	if turnID != r.Turn.ID {
		if turnID < r.Turn.ID {
			return nil, nil, gameErrorf(ErrDuplicateAction, "turn %d is already over", turnID)
		}
		return nil, nil, gameErrorf(ErrInvalidState, "unknown turn %d", turnID)
	}
	if playerID != r.Turn.PlayerID {
		return nil, nil, gameErrorf(ErrNotYourTurn, "it is not your turn to place")
	}

	switch r.Turn.Phase {
	case PhasePlaying:
		return nil, nil, gameErrorf(ErrWrongPhase, "playback has not been confirmed for turn %d", turnID)
	case PhaseResult:
		return nil, nil, gameErrorf(ErrDuplicateAction, "turn %d already has a different placement", turnID)
	}

	player := r.playerByID(playerID)
	if player == nil {
		return nil, nil, gameErrorf(ErrInternal, "current player %s is not seated", playerID)
	}
	if targetIndex < 0 || targetIndex > len(player.Timeline) {
		return nil, nil, gameErrorf(ErrInvalidState, "index %d outside 0..%d", targetIndex, len(player.Timeline))
	}

	card := *r.Turn.Drawn
	correct := player.Timeline.Evaluate(card, targetIndex, r.TiePolicy)

	finalIndex := -1
	if correct {
		player.Timeline = player.Timeline.insert(card, targetIndex)
		finalIndex = targetIndex
	} else if err := r.Deck.Discard(card.TrackID); err != nil {
		return nil, nil, gameErrorf(ErrInternal, "discard failed: %v", err)
	}

	if err := r.Deck.check(); err != nil {
		return nil, nil, gameErrorf(ErrInternal, "deck invariant violated: %v", err)
	}

	result := &TurnResult{
		TurnID:      r.Turn.ID,
		PlayerID:    playerID,
		Correct:     correct,
		NewScore:    player.Score(),
		FinalIndex:  finalIndex,
		PlacedTrack: card,
		targetIndex: targetIndex,
	}

	r.Turn.Phase = PhaseResult
	r.Turn.resolution = result
	r.lastResult = result
	r.Status = RoomResult

	events := []event{broadcastEvent(evTurnResult, result)}

	if player.Score() >= r.TargetPoints {
		events = append(events, r.finish(player.ID))
	}

	return result, events, nil
}

// replayedResult matches a placement submission against the recorded
// resolution of a finished turn, so network retries are answered
// instead of reapplied.
func (r *Room) replayedResult(playerID string, turnID, targetIndex int) *TurnResult {
	res := r.lastResult
	if res == nil {
		return nil
	}
	if res.TurnID == turnID && res.PlayerID == playerID && res.targetIndex == targetIndex {
		return res
	}
	return nil
}

// NextTurn advances to the next seat, or ends the game when the deck
// is exhausted. Host-triggered, valid only from the result phase.
func (r *Room) NextTurn(actorID string) ([]event, error) {
	if actorID != r.HostID {
		return nil, gameErrorf(ErrUnauthorized, "only the host may advance the turn")
	}
	if r.Status != RoomResult {
		return nil, gameErrorf(ErrInvalidState, "room %s is not between turns", r.Code)
	}

	if r.Deck.Remaining() == 0 {
		return []event{r.finish(r.bestScorer())}, nil
	}

	r.turnIdx = (r.turnIdx + 1) % len(r.Players)
	r.Status = RoomPlaying

	return []event{r.beginTurn()}, nil
}

// finish ends the game. winnerID may be empty when the deck ran out
// with the lead shared.
func (r *Room) finish(winnerID string) event {
	r.Status = RoomFinished
	r.WinnerID = winnerID
	r.Turn = nil

	var winner *string
	if winnerID != "" {
		winner = &winnerID
	}
	return broadcastEvent(evGameFinish, gameFinishPayload{WinnerID: winner})
}

// bestScorer returns the player id with the unique highest score, or
// "" on a shared lead.
func (r *Room) bestScorer() string {
	best, bestScore, tied := "", -1, false
	for _, p := range r.Players {
		switch score := p.Score(); {
		case score > bestScore:
			best, bestScore, tied = p.ID, score, false
		case score == bestScore:
			tied = true
		}
	}
	if tied {
		return ""
	}
	return best
}
