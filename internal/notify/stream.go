package notify

import (
	"net/http"

	"golang.org/x/net/websocket"

	"github.com/vxplore/Clinik-pe-sub000/internal/tenancy"
	"github.com/vxplore/Clinik-pe-sub000/pkg/logging"
)

// StreamMessage is a frame sent over the notification socket.
type StreamMessage struct {
	Type          string         `json:"type"`
	Notification  *Notification  `json:"notification,omitempty"`
	Notifications []Notification `json:"notifications,omitempty"`
	Text          string         `json:"text,omitempty"`
}

type inboundFrame struct {
	Type string `json:"type"`
}

// Stream pushes a session's notifications to the browser over a WebSocket.
// The first frame is the recent history; each later Push arrives as its own
// frame. Clients may send {"type":"ping"}.
type Stream struct {
	feed   *Feed
	logger *logging.Logger
}

func NewStream(feed *Feed, logger *logging.Logger) *Stream {
	if logger == nil {
		logger = logging.Default()
	}
	return &Stream{feed: feed, logger: logger}
}

// ServeHTTP upgrades the request. The session id must already be in the
// request context.
func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := tenancy.SessionIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	websocket.Handler(func(conn *websocket.Conn) {
		s.serveWS(conn, r, sessionID)
	}).ServeHTTP(w, r)
}

func (s *Stream) serveWS(conn *websocket.Conn, r *http.Request, sessionID string) {
	ctx := r.Context()

	sub, err := s.feed.Subscribe(ctx, sessionID)
	if err != nil {
		s.logger.Error("notify: stream subscribe failed", "session_id", sessionID, "error", err)
		_ = websocket.JSON.Send(conn, StreamMessage{Type: "error", Text: "notifications unavailable"})
		return
	}
	defer sub.Close()

	history, err := s.feed.Recent(ctx, sessionID, 0)
	if err != nil {
		s.logger.Warn("notify: stream history failed", "session_id", sessionID, "error", err)
		history = nil
	}
	if history == nil {
		history = []Notification{}
	}
	if err := websocket.JSON.Send(conn, StreamMessage{Type: "history", Notifications: history}); err != nil {
		return
	}

	pings := make(chan struct{}, 1)
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			var frame inboundFrame
			if err := websocket.JSON.Receive(conn, &frame); err != nil {
				s.logger.Debug("notify: stream closed", "session_id", sessionID, "error", err)
				return
			}
			if frame.Type == "ping" {
				select {
				case pings <- struct{}{}:
				default:
				}
			}
		}
	}()

	s.logger.Info("notify: stream opened", "session_id", sessionID)
	for {
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case <-pings:
			if err := websocket.JSON.Send(conn, StreamMessage{Type: "pong"}); err != nil {
				return
			}
		case n, ok := <-sub.C:
			if !ok {
				return
			}
			if err := websocket.JSON.Send(conn, StreamMessage{Type: "notification", Notification: &n}); err != nil {
				return
			}
		}
	}
}
