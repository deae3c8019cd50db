package client

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"

	"notesapp/socket"
)

// Subscribe streams the caller's note events to fn until ctx is done or
// the server closes the stream.
func (a *API) Subscribe(ctx context.Context, token string, fn func(socket.Event)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, a.EventsURL(token), nil)
	if err != nil {
		return fmt.Errorf("dial note events: %w", err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		var ev socket.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read note event: %w", err)
		}
		fn(ev)
	}
}
