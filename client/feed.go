package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/smartmark/smartmark"
)

const heartbeatInterval = 30 * time.Second

type listenRequest struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
}

// Subscribe opens the realtime socket and streams change events for the
// signed-in user. The server scopes the stream to the token's session,
// so ownerID must name that same user. The channel closes when ctx is
// cancelled or the connection drops; there is no automatic reconnect.
func (c *Client) Subscribe(ctx context.Context, ownerID string) (<-chan smartmark.Event, error) {
	token := c.Token()
	if token == "" {
		return nil, fmt.Errorf("not signed in")
	}

	if ownerID != "" {
		session, err := c.GetCurrentSession(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve session: %v", err)
		}
		if session == nil || session.User.ID != ownerID {
			return nil, fmt.Errorf("subscription owner %s does not match the signed-in user", ownerID)
		}
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, c.realtimeURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect realtime socket: %v", err)
	}

	err = ws.WriteJSON(listenRequest{Type: "listen", Token: token})
	if err != nil {
		ws.Close()
		return nil, fmt.Errorf("failed to start listening: %v", err)
	}

	events := make(chan smartmark.Event)

	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				ws.Close()
				return
			case <-ticker.C:
				err := ws.WriteJSON(listenRequest{Type: "h"})
				if err != nil {
					ws.Close()
					return
				}
			}
		}
	}()

	go func() {
		defer close(events)
		defer ws.Close()
		for {
			var event smartmark.Event
			err := ws.ReadJSON(&event)
			if err != nil {
				return
			}
			select {
			case events <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

func (c *Client) realtimeURL() string {
	url := c.baseURL + "/realtime"
	if strings.HasPrefix(url, "https://") {
		return "wss://" + strings.TrimPrefix(url, "https://")
	}
	return "ws://" + strings.TrimPrefix(url, "http://")
}
