package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/OliveiraNt/infralens/internal/config"
	"github.com/OliveiraNt/infralens/internal/domain"
	"github.com/OliveiraNt/infralens/internal/utils"
	"github.com/invopop/ctxi18n/i18n"
)

type clusterInfo struct {
	Name        string                  `json:"name"`
	Brokers     []string                `json:"brokers"`
	AuthType    string                  `json:"auth_type"`
	Certificate *config.CertificateInfo `json:"certificate,omitempty"`
}

type indexResponse struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Cluster   *clusterInfo      `json:"cluster,omitempty"`
	Endpoints map[string]string `json:"endpoints"`
}

type healthResponse struct {
	domain.Health
	Message string `json:"message"`
}

var endpoints = map[string]string{
	"GET /api/cluster-status":            "cluster summary of the last snapshot",
	"GET /api/topics":                    "non-internal topics",
	"GET /api/topics/{topicName}":        "one topic",
	"GET /api/consumer-groups":           "non-internal consumer groups with lag",
	"GET /api/consumer-groups/{groupID}": "one consumer group",
	"GET /api/health":                    "engine health",
	"POST /api/refresh":                  "request a refresh",
	"POST /api/connect":                  "connect to the cluster",
	"POST /api/disconnect":               "stop refreshing",
	"GET /api/ws":                        "cluster summary pushed on every refresh",
	"GET /metrics":                       "Prometheus metrics",
}

func (s *Server) apiIndex(w http.ResponseWriter, _ *http.Request) {
	resp := indexResponse{Service: "infralens", Version: s.version, Endpoints: endpoints}
	if s.cluster != nil {
		c := s.cluster()
		info := &clusterInfo{Name: c.Name, Brokers: c.Brokers, AuthType: c.GetAuthType()}
		if c.HasCertificate() {
			cert, err := c.GetCertificateInfo()
			if err != nil {
				utils.Logger.Warn("get certificate info failed", "cluster", c.Name, "err", err)
			}
			info.Certificate = cert
		}
		resp.Cluster = info
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) apiClusterStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.GetClusterSnapshot()
	if err != nil {
		s.writeReadError(w, r, err, "")
		return
	}
	utils.Logger.Debug("api cluster status", "cluster", snap.ClusterID, "topics", snap.TopicCount)
	s.writeSnapshot(w, snap.CapturedAt, snap)
}

func (s *Server) apiHealth(w http.ResponseWriter, r *http.Request) {
	h := s.engine.GetHealth()
	key := "health." + string(h.Status)
	if !h.HasSnapshot && h.Status != domain.StatusDisconnected {
		key = "health.no_snapshot"
	}

	status := http.StatusOK
	if h.Status == domain.StatusDisconnected {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Health: h, Message: i18n.T(r.Context(), key)})
}

func (s *Server) apiRefresh(w http.ResponseWriter, r *http.Request) {
	if state := s.engine.GetHealth().State; state != domain.StateConnected {
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:   domain.ErrDisconnected.Error(),
			Message: i18n.T(r.Context(), "connection.disconnected"),
			Health:  domain.StatusDisconnected,
		})
		return
	}
	s.engine.TriggerRefresh()
	writeJSON(w, http.StatusAccepted, messageResponse{Message: i18n.T(r.Context(), "refresh.accepted")})
}

const connectTimeout = 30 * time.Second

func (s *Server) apiConnect(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), connectTimeout)
	defer cancel()

	if err := s.engine.Connect(ctx); err != nil {
		utils.Logger.Error("api connect failed", "err", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error:   err.Error(),
			Message: i18n.T(r.Context(), "connection.failed"),
			Health:  domain.StatusDisconnected,
		})
		return
	}
	utils.Logger.Info("engine connected via api")
	writeJSON(w, http.StatusOK, messageResponse{
		Message: i18n.T(r.Context(), "connection.connected"),
		State:   domain.StateConnected,
	})
}

func (s *Server) apiDisconnect(w http.ResponseWriter, r *http.Request) {
	s.engine.Disconnect()
	utils.Logger.Info("engine disconnected via api")
	writeJSON(w, http.StatusOK, messageResponse{
		Message: i18n.T(r.Context(), "connection.disconnected"),
		State:   domain.StateDisconnected,
	})
}
