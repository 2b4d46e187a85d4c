package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/smartmark/smartmark"
)

func newTestServer(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/session", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-u1" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid token"})
			return
		}
		json.NewEncoder(w).Encode(smartmark.Session{
			User: smartmark.SessionUser{ID: "u1", Email: "one@example.com"},
		})
	})
	mux.HandleFunc("/api/v1/bookmarks", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-u1" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid token"})
			return
		}
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode([]smartmark.Bookmark{
				{ID: "b1", Title: "Site A", URL: "https://a.test", Owner: "u1"},
			})
		case http.MethodPost:
			var req smartmark.CreateBookmarkRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": "title must not be empty"})
				return
			}
			json.NewEncoder(w).Encode(smartmark.Bookmark{ID: "b2", Title: req.Title, URL: req.URL, Owner: "u1"})
		}
	})
	mux.HandleFunc("/api/v1/signout", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, New(server.URL)
}

func TestSetTokenResolvesSession(t *testing.T) {
	_, c := newTestServer(t)

	var got *smartmark.Session
	c.SubscribeToAuthChanges(func(session *smartmark.Session) {
		got = session
	})

	session, err := c.SetToken(context.Background(), "tok-u1")
	if err != nil {
		t.Fatalf("set token failed: %v", err)
	}
	if session.User.ID != "u1" {
		t.Fatalf("unexpected session user: %+v", session.User)
	}
	if got == nil || got.User.ID != "u1" {
		t.Fatalf("auth subscriber not notified, got %+v", got)
	}
}

func TestSetTokenRejected(t *testing.T) {
	_, c := newTestServer(t)

	_, err := c.SetToken(context.Background(), "bogus")
	if err == nil {
		t.Fatalf("expected rejection")
	}
	if c.Token() != "" {
		t.Fatalf("token should be cleared after rejection")
	}
}

func TestGetCurrentSessionAnonymous(t *testing.T) {
	_, c := newTestServer(t)

	session, err := c.GetCurrentSession(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session != nil {
		t.Fatalf("expected nil session, got %+v", session)
	}
}

func TestListBookmarks(t *testing.T) {
	_, c := newTestServer(t)

	if _, err := c.SetToken(context.Background(), "tok-u1"); err != nil {
		t.Fatalf("set token failed: %v", err)
	}

	bookmarks, err := c.ListBookmarks(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(bookmarks) != 1 || bookmarks[0].ID != "b1" {
		t.Fatalf("unexpected bookmarks: %+v", bookmarks)
	}
}

func TestSignOutNotifiesSubscribers(t *testing.T) {
	_, c := newTestServer(t)

	if _, err := c.SetToken(context.Background(), "tok-u1"); err != nil {
		t.Fatalf("set token failed: %v", err)
	}

	notified := false
	c.SubscribeToAuthChanges(func(session *smartmark.Session) {
		if session == nil {
			notified = true
		}
	})

	if err := c.SignOut(context.Background()); err != nil {
		t.Fatalf("sign out failed: %v", err)
	}
	if c.Token() != "" {
		t.Fatalf("token not cleared")
	}
	if !notified {
		t.Fatalf("auth subscriber not notified of sign out")
	}

	session, err := c.GetCurrentSession(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session != nil {
		t.Fatalf("expected anonymous session after sign out")
	}
}

func TestSubscribeRejectsForeignOwner(t *testing.T) {
	_, c := newTestServer(t)

	if _, err := c.SetToken(context.Background(), "tok-u1"); err != nil {
		t.Fatalf("set token failed: %v", err)
	}

	_, err := c.Subscribe(context.Background(), "u2")
	if err == nil {
		t.Fatalf("expected owner mismatch error")
	}
}

func TestSubscribeStreamsEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/session", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(smartmark.Session{
			User: smartmark.SessionUser{ID: "u1", Email: "one@example.com"},
		})
	})
	mux.HandleFunc("/realtime", func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer ws.Close()

		var req listenRequest
		if err := ws.ReadJSON(&req); err != nil {
			t.Errorf("read listen failed: %v", err)
			return
		}
		if req.Type != "listen" || req.Token != "tok-u1" {
			t.Errorf("unexpected listen request: %+v", req)
			return
		}

		b := smartmark.Bookmark{ID: "b1", Title: "Site A", URL: "https://a.test", Owner: "u1"}
		ws.WriteJSON(smartmark.Event{Type: smartmark.EventTypeInsert, Owner: "u1", New: &b})
		time.Sleep(50 * time.Millisecond)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL)
	if _, err := c.SetToken(context.Background(), "tok-u1"); err != nil {
		t.Fatalf("set token failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := c.Subscribe(ctx, "u1")
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	select {
	case event := <-events:
		if event.Type != smartmark.EventTypeInsert || event.New == nil || event.New.ID != "b1" {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no event received")
	}
}
