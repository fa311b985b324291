package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

type createRoomResponse struct {
	Code   string `json:"code"`
	HostID string `json:"hostId"`
}

type placeRequest struct {
	PlayerID    string `json:"playerId"`
	TurnID      int    `json:"turnId"`
	TargetIndex int    `json:"targetIndex"`
}

type errorResponse struct {
	Error gameErrorPayload `json:"error"`
}

func writeJSON(cfg *Config, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	securityHeaders(cfg, w)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeGameError(cfg *Config, w http.ResponseWriter, err error) {
	writeJSON(cfg, w, httpStatus(err), errorResponse{Error: gameErrorPayload{
		Code:    errCode(err),
		Message: errMessage(err),
	}})
}

// serveCreateRoom creates a room in the lobby state and hands back its
// code and the generated host identity.
func serveCreateRoom(cfg *Config, rooms *RoomRegistry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		points := cfg.targetPoints
		if raw := r.URL.Query().Get("points"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				writeGameError(cfg, w, gameErrorf(ErrInvalidState, "invalid points %q", raw))
				return
			}
			points = parsed
		}

		hub, hostID := rooms.CreateRoom(cfg, points)

		writeJSON(cfg, w, http.StatusCreated, createRoomResponse{
			Code:   hub.code,
			HostID: hostID,
		})
	}
}

// serveRoomState returns the same snapshot a connecting websocket
// receives as room:init.
func serveRoomState(cfg *Config, rooms *RoomRegistry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		hub, ok := rooms.Lookup(ps.ByName("code"))
		if !ok {
			writeGameError(cfg, w, gameErrorf(ErrRoomNotFound, "no room %s", ps.ByName("code")))
			return
		}

		writeJSON(cfg, w, http.StatusOK, hub.SnapshotView())
	}
}

// servePlace is the companion synchronous placement path. Retrying the
// same {playerId, turnId, targetIndex} after a network hiccup returns
// the recorded outcome instead of failing or double-applying.
func servePlace(cfg *Config, rooms *RoomRegistry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		startTime := time.Now()

		hub, ok := rooms.Lookup(ps.ByName("code"))
		if !ok {
			writeGameError(cfg, w, gameErrorf(ErrRoomNotFound, "no room %s", ps.ByName("code")))
			return
		}

		var req placeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeGameError(cfg, w, gameErrorf(ErrInvalidState, "malformed placement body"))
			return
		}

		result, err := hub.PlaceAction(cfg, req.PlayerID, req.TurnID, req.TargetIndex)
		if err != nil {
			writeGameError(cfg, w, err)
			return
		}

		writeJSON(cfg, w, http.StatusOK, result)

		logf(cfg, "SERVE: Placement for %s/%d (%s) in %s",
			hub.code,
			req.TurnID,
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// serveRoomQR generates a PNG QR code for the room's join URL, so
// players join by pointing a phone camera at the host's screen.
func serveRoomQR(cfg *Config, rooms *RoomRegistry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if _, ok := rooms.Lookup(ps.ByName("code")); !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		// We are at /room/:code/qr; strip the trailing "/qr" to get
		// the join URL.
		path := strings.TrimSuffix(r.URL.Path, "/qr")

		url := scheme + "://" + r.Host + path

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

// registerRoomRoutes sets up the whole session surface:
//   - /api/create-room        → new lobby; returns {code, hostId}
//   - /room/:code/ws          → websocket command/event stream
//   - /room/:code/state       → JSON snapshot
//   - /room/:code/place       → synchronous placement action
//   - /room/:code/qr          → PNG QR code of the room's join URL
func registerRoomRoutes(cfg *Config, rooms *RoomRegistry, mux *httprouter.Router) {
	mux.GET(cfg.prefix+"/api/create-room", serveCreateRoom(cfg, rooms))
	mux.GET(cfg.prefix+"/room/:code/ws", serveRoomWS(cfg, rooms))
	mux.GET(cfg.prefix+"/room/:code/state", serveRoomState(cfg, rooms))
	mux.POST(cfg.prefix+"/room/:code/place", servePlace(cfg, rooms))
	mux.GET(cfg.prefix+"/room/:code/qr", serveRoomQR(cfg, rooms))
}
