package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func postPlace(t *testing.T, url string, req placeRequest) *http.Response {
	t.Helper()

	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func decodeGameError(t *testing.T, resp *http.Response) gameErrorPayload {
	t.Helper()

	var payload errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error response: %v", err)
	}

	return payload.Error
}

func TestCreateRoomEndpoint(t *testing.T) {
	ts, rooms := newGameServer(t, newCatalog())

	code, hostID := createTestRoom(t, ts, 7)

	if len(code) != roomCodeLen {
		t.Errorf("code %q length = %d, want %d", code, len(code), roomCodeLen)
	}
	if _, err := uuid.Parse(hostID); err != nil {
		t.Errorf("hostId %q is not a uuid: %v", hostID, err)
	}

	hub, ok := rooms.Lookup(code)
	if !ok {
		t.Fatalf("created room %s not registered", code)
	}

	view := hub.SnapshotView()
	if view.Status != RoomLobby || view.TargetPoints != 7 {
		t.Errorf("snapshot = %+v", view)
	}
}

func TestCreateRoomRejectsBadPoints(t *testing.T) {
	ts, _ := newGameServer(t, newCatalog())

	for _, raw := range []string{"0", "-3", "ten"} {
		resp, err := http.Get(ts.URL + "/api/create-room?points=" + raw)
		if err != nil {
			t.Fatalf("get: %v", err)
		}

		if resp.StatusCode != http.StatusConflict {
			t.Errorf("points=%s: status = %d, want %d", raw, resp.StatusCode, http.StatusConflict)
		}
		if code := decodeGameError(t, resp).Code; code != ErrInvalidState {
			t.Errorf("points=%s: error code = %s, want %s", raw, code, ErrInvalidState)
		}
		resp.Body.Close()
	}
}

func TestRoomStateEndpoint(t *testing.T) {
	ts, _ := newGameServer(t, newCatalog())

	code, hostID := createTestRoom(t, ts, 10)

	resp, err := http.Get(ts.URL + "/room/" + code + "/state")
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var view roomView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if view.Code != code || view.HostID != hostID || view.Status != RoomLobby {
		t.Errorf("state = %+v", view)
	}

	missing, err := http.Get(ts.URL + "/room/NOSUCH/state")
	if err != nil {
		t.Fatalf("get missing state: %v", err)
	}
	defer missing.Body.Close()

	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("missing room status = %d, want %d", missing.StatusCode, http.StatusNotFound)
	}
	if code := decodeGameError(t, missing).Code; code != ErrRoomNotFound {
		t.Errorf("missing room error code = %s, want %s", code, ErrRoomNotFound)
	}
}

// placingRoom drives a fresh room to the placing phase of turn 1 with
// the given card about to be judged.
func placingRoom(t *testing.T, ts *httptest.Server, rooms *RoomRegistry, card TrackCard) string {
	t.Helper()

	code, hostID := createTestRoom(t, ts, 10)

	hub, ok := rooms.Lookup(code)
	if !ok {
		t.Fatalf("room %s not registered", code)
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()

	mustJoin(t, hub.room, "a", "Ann")
	mustJoin(t, hub.room, "b", "Ben")
	if _, err := hub.room.Start(hostID, "test", TieLenient, 10, hub.source); err != nil {
		t.Fatalf("start: %v", err)
	}
	hub.room.Deck = deckDrawnInOrder(card)
	if _, err := hub.room.Draw("a"); err != nil {
		t.Fatalf("draw: %v", err)
	}
	if _, err := hub.room.ConfirmPlayback("a", 1); err != nil {
		t.Fatalf("confirm playback: %v", err)
	}

	return code
}

func TestPlaceEndpointIsIdempotent(t *testing.T) {
	ts, rooms := newGameServer(t, fixedSource{testCard("t1994", "1994")})

	code := placingRoom(t, ts, rooms, testCard("t1994", "1994"))
	url := ts.URL + "/room/" + code + "/place"

	resp := postPlace(t, url, placeRequest{PlayerID: "a", TurnID: 1, TargetIndex: 0})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var first TurnResult
	if err := json.NewDecoder(resp.Body).Decode(&first); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if !first.Correct || first.NewScore != 1 || first.FinalIndex != 0 {
		t.Fatalf("result = %+v", first)
	}

	// The identical retry replays the recorded result.
	retry := postPlace(t, url, placeRequest{PlayerID: "a", TurnID: 1, TargetIndex: 0})
	if retry.StatusCode != http.StatusOK {
		t.Fatalf("retry status = %d, want %d", retry.StatusCode, http.StatusOK)
	}

	var second TurnResult
	if err := json.NewDecoder(retry.Body).Decode(&second); err != nil {
		t.Fatalf("decode retry result: %v", err)
	}
	if second != first {
		t.Errorf("retry result = %+v, want %+v", second, first)
	}

	// A different index for the same resolved turn is a conflict.
	conflict := postPlace(t, url, placeRequest{PlayerID: "a", TurnID: 1, TargetIndex: 1})
	if conflict.StatusCode != http.StatusConflict {
		t.Errorf("conflicting retry status = %d, want %d", conflict.StatusCode, http.StatusConflict)
	}
	if code := decodeGameError(t, conflict).Code; code != ErrDuplicateAction {
		t.Errorf("conflicting retry error code = %s, want %s", code, ErrDuplicateAction)
	}
}

func TestPlaceEndpointRejectsWrongPlayer(t *testing.T) {
	ts, rooms := newGameServer(t, fixedSource{testCard("t1994", "1994")})

	code := placingRoom(t, ts, rooms, testCard("t1994", "1994"))
	url := ts.URL + "/room/" + code + "/place"

	resp := postPlace(t, url, placeRequest{PlayerID: "b", TurnID: 1, TargetIndex: 0})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}
	if code := decodeGameError(t, resp).Code; code != ErrNotYourTurn {
		t.Errorf("error code = %s, want %s", code, ErrNotYourTurn)
	}
}

func TestRoomQREndpoint(t *testing.T) {
	ts, _ := newGameServer(t, newCatalog())

	code, _ := createTestRoom(t, ts, 10)

	resp, err := http.Get(ts.URL + "/room/" + code + "/qr")
	if err != nil {
		t.Fatalf("get qr: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %s, want image/png", ct)
	}
}
