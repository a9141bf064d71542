package httpapi

import (
	"context"
	"net/http"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// handleEvents upgrades to a websocket and streams workspace change events
// until the client disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, workspaceID string) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.WithError(err).Debug("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	events, cancel := s.engine.Subscribe()
	defer cancel()

	ctx := r.Context()
	// Reads are discarded; closure surfaces through ctx cancellation.
	ctx = conn.CloseRead(ctx)

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev, ok := <-events:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if ev.WorkspaceID != "" && ev.WorkspaceID != workspaceID {
				continue
			}
			if err := s.writeEvent(ctx, conn, ev); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeEvent(ctx context.Context, conn *websocket.Conn, ev any) error {
	return wsjson.Write(ctx, conn, ev)
}
