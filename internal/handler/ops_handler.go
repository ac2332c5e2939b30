/*
Package handler provides the transport surfaces of the server.

This file defines the ops API handlers and their dependency container.
*/
package handler

import (
	"net/http"

	"tcpchat/internal/app/chat"
	"tcpchat/internal/configs"
	"tcpchat/internal/pkg/resp"
)

// OpsDeps bundles what the ops handlers need to observe the running server.
type OpsDeps struct {
	Config      *configs.AppConfig
	Users       *chat.UserRegistry
	Rooms       *chat.RoomRegistry
	Broadcaster *chat.Broadcaster
}

// StatsPayload is the response body of the stats endpoint.
type StatsPayload struct {
	UserCount   int      `json:"user_count"`
	Users       []string `json:"users"`
	RoomCount   int      `json:"room_count"`
	Rooms       []string `json:"rooms"`
	Subscribers int      `json:"subscribers"`
}

// HandleStats reports the connected users and live rooms. The counts come
// from the registries themselves via reply-channel queries, so they are
// consistent snapshots of each actor's state.
func HandleStats(deps *OpsDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users := deps.Users.Names()
		rooms := deps.Rooms.Names()

		payload := StatsPayload{
			UserCount:   len(users),
			Users:       users,
			RoomCount:   len(rooms),
			Rooms:       rooms,
			Subscribers: deps.Broadcaster.Subscribers(),
		}

		resp.RespondSuccess(w, r, payload)
	}
}
