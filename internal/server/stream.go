package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/fretsense/fretsense/internal/observe"
)

// handleStream upgrades the connection to WebSocket and pushes the current
// snapshot as a JSON text message on every stream tick until the client
// disconnects or the server shuts down.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		observe.Logger(r.Context()).Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream aborted")

	// The stream ends when either the client goes away (request context)
	// or the server is shutting down (base context).
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(s.baseCtx, cancel)
	defer stop()

	log := observe.Logger(ctx)
	log.Info("snapshot stream opened", "remote", r.RemoteAddr)

	ticker := time.NewTicker(s.cfg.StreamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "server closing")
			log.Info("snapshot stream closed", "remote", r.RemoteAddr)
			return
		case <-ticker.C:
		}

		data, err := json.Marshal(s.ctrl.Snapshot())
		if err != nil {
			log.Error("snapshot marshal failed", "error", err)
			conn.Close(websocket.StatusInternalError, "marshal failed")
			return
		}
		if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Info("snapshot stream ended", "remote", r.RemoteAddr, "error", err)
			}
			return
		}
	}
}
