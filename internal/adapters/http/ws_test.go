package httpserver

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/OliveiraNt/infralens/internal/application"
	"github.com/OliveiraNt/infralens/internal/domain"
	"github.com/OliveiraNt/infralens/internal/testutil"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialStatus(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readStatus(t *testing.T, conn *websocket.Conn) wsStatus {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var msg wsStatus
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWS_PushesOnRefresh(t *testing.T) {
	client := testClient()
	e := buildEngine(t, client)
	conn := dialStatus(t, New(e))

	first := readStatus(t, conn)
	require.Equal(t, domain.StatusHealthy, first.Health.Status)
	require.NotNil(t, first.Snapshot)
	require.Equal(t, "test-cluster", first.Snapshot.ClusterID)

	client.Update(func(f *testutil.FakeBrokerClient) {
		f.Cluster.ClusterID = "renamed"
	})
	require.NoError(t, e.Refresh(context.Background()))

	next := readStatus(t, conn)
	require.NotNil(t, next.Snapshot)
	require.Equal(t, "renamed", next.Snapshot.ClusterID)
	require.Equal(t, domain.StatusHealthy, next.Health.Status)
}

func TestWS_NoSnapshotYet(t *testing.T) {
	e := application.NewEngine(testClient(), testEngineConfig())
	conn := dialStatus(t, New(e))

	msg := readStatus(t, conn)
	require.Nil(t, msg.Snapshot)
	require.Equal(t, domain.StatusDisconnected, msg.Health.Status)
}
