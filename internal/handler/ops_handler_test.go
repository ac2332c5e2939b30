package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tcpchat/internal/app/proto"
)

func getJSON(t *testing.T, h http.Handler, path string, out any) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s: status %d, want %d", path, rec.Code, http.StatusOK)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("GET %s: decode body: %v", path, err)
	}
	return rec
}

func TestHealthz(t *testing.T) {
	srv := startTestServer(t)
	h := Router(srv.deps)

	var body struct {
		Code    int               `json:"code"`
		Message string            `json:"message"`
		Data    map[string]string `json:"data"`
	}
	getJSON(t, h, "/healthz", &body)

	if body.Code != 0 || body.Message != "success" {
		t.Fatalf("health body code=%d message=%q, want success", body.Code, body.Message)
	}
	if body.Data["status"] != "ok" {
		t.Fatalf("health status %q, want ok", body.Data["status"])
	}
}

func TestStatsReflectRegistries(t *testing.T) {
	srv := startTestServer(t)
	h := Router(srv.deps)

	var empty struct {
		Data StatsPayload `json:"data"`
	}
	getJSON(t, h, "/api/stats", &empty)
	if empty.Data.UserCount != 0 || empty.Data.RoomCount != 0 {
		t.Fatalf("fresh server stats %+v, want zero users and rooms", empty.Data)
	}

	alice := connect(t, srv.addr, "alice")
	send(t, alice, proto.ClientMessage{Kind: proto.ClientCreateRoom, Room: "lobby"})
	recv(t, alice, proto.ServerNotice)

	// The session subscribes shortly after the welcome; poll the stats until
	// the subscriber shows up.
	deadline := time.Now().Add(readWait)
	for {
		var body struct {
			Data StatsPayload `json:"data"`
		}
		getJSON(t, h, "/api/stats", &body)

		if body.Data.UserCount == 1 && body.Data.Users[0] == "alice" &&
			body.Data.RoomCount == 1 && body.Data.Rooms[0] == "lobby" &&
			body.Data.Subscribers == 1 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("stats never converged: %+v", body.Data)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStatsRouteRejectsUnknownPath(t *testing.T) {
	srv := startTestServer(t)
	h := Router(srv.deps)

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET /api/nope: status %d, want %d", rec.Code, http.StatusNotFound)
	}
}
