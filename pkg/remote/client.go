package remote

import (
	"sync/atomic"

	"github.com/gorilla/websocket"
)

var clientIDs atomic.Uint64

type client struct {
	id   uint64
	conn *websocket.Conn

	// send is closed by the hub when the client is dropped.
	send chan []byte

	// gone is set under the hub lock once the client is dropped; a dropped
	// client is never registered again.
	gone bool
}

func newClient(conn *websocket.Conn, buffer int) *client {
	return &client{
		id:   clientIDs.Add(1),
		conn: conn,
		send: make(chan []byte, buffer),
	}
}
