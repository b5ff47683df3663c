package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/OliveiraNt/infralens/internal/domain"
	"github.com/OliveiraNt/infralens/internal/utils"
	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 5 * time.Second

var wsUpgrader = websocket.Upgrader{
	// TODO: restrict origins once the server has a configurable allow list.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsStatus struct {
	Health   domain.Health           `json:"health"`
	Snapshot *domain.ClusterSnapshot `json:"snapshot,omitempty"`
}

// wsClusterStatus upgrades to WebSocket and pushes the cluster summary and
// health after every published refresh. The first frame is sent right away.
func (s *Server) wsClusterStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.Logger.Error("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	updates, unsubscribe := s.engine.Subscribe()
	defer unsubscribe()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				utils.Logger.Debug("websocket client disconnected", "err", err)
				return
			}
		}
	}()

	if err := s.pushStatus(conn); err != nil {
		utils.Logger.Info("websocket write failed, stopping stream", "err", err)
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if err := s.pushStatus(conn); err != nil {
				utils.Logger.Info("websocket write failed, stopping stream", "err", err)
				return
			}
		}
	}
}

func (s *Server) pushStatus(conn *websocket.Conn) error {
	msg := wsStatus{Health: s.engine.GetHealth()}
	if snap, err := s.engine.GetClusterSnapshot(); err == nil {
		msg.Snapshot = &snap
	}
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
