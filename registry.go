package main

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// roomCodeChars omits ambiguous characters (0/O, 1/I/L) so codes stay
// easy to read off a screen and type on a phone.
const (
	roomCodeChars = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	roomCodeLen   = 6
)

// RoomRegistry holds a hub per room code, so each code is its own
// isolated session with its own serialized command stream.
type RoomRegistry struct {
	mu     sync.Mutex
	rooms  map[string]*Hub
	source TrackSource
}

func newRoomRegistry(source TrackSource) *RoomRegistry {
	return &RoomRegistry{
		rooms:  make(map[string]*Hub),
		source: source,
	}
}

// CreateRoom generates a fresh code and hostId and starts the room's
// hub loop. The room begins in the lobby.
func (rr *RoomRegistry) CreateRoom(cfg *Config, targetPoints int) (*Hub, string) {
	hostID := uuid.NewString()

	rr.mu.Lock()
	defer rr.mu.Unlock()

	code := rr.newRoomCodeLocked()
	hub := newHub(code, hostID, targetPoints, rr.source)
	rr.rooms[code] = hub
	go hub.run(cfg)

	logf(cfg, "ROOMS: Created room %s", code)

	return hub, hostID
}

// Lookup finds a room by code, case-insensitively.
func (rr *RoomRegistry) Lookup(code string) (*Hub, bool) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	hub, ok := rr.rooms[strings.ToUpper(code)]
	return hub, ok
}

// newRoomCodeLocked generates a crypto-random room code and ensures it
// doesn't collide with live rooms.
func (rr *RoomRegistry) newRoomCodeLocked() string {
	for {
		buf := make([]byte, roomCodeLen)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, roomCodeLen)
		for i := range out {
			out[i] = roomCodeChars[int(buf[i])%len(roomCodeChars)]
		}
		code := string(out)

		if _, exists := rr.rooms[code]; !exists {
			return code
		}
	}
}

// startReaper periodically evicts idle rooms, and finished rooms once
// their grace period is over.
func (rr *RoomRegistry) startReaper(cfg *Config) {
	if cfg.sessionTimeout <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(cfg.sessionTimeout / 2)
		for range ticker.C {
			for _, code := range rr.sweep(time.Now(), cfg.sessionTimeout, cfg.finishedGrace) {
				logf(cfg, "ROOMS: Reaped room %s", code)
			}
		}
	}()
}

// sweep removes expired rooms and returns their codes.
func (rr *RoomRegistry) sweep(now time.Time, idle, finishedGrace time.Duration) []string {
	idleCutoff := now.Add(-idle)
	graceCutoff := now.Add(-finishedGrace)

	rr.mu.Lock()
	defer rr.mu.Unlock()

	var reaped []string
	for code, hub := range rr.rooms {
		hub.mu.RLock()
		lastActive := hub.lastActive
		finishedAt := hub.finishedAt
		hub.mu.RUnlock()

		expired := lastActive.Before(idleCutoff) ||
			(!finishedAt.IsZero() && finishedAt.Before(graceCutoff))
		if !expired {
			continue
		}

		delete(rr.rooms, code)
		go hub.closeAll()
		reaped = append(reaped, code)
	}

	return reaped
}
