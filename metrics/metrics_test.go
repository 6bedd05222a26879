package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func freeAddr(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	return addr
}

func TestStartExporter_Disabled(t *testing.T) {
	require.NoError(t, StartExporter(context.Background(), Config{Enabled: false}))
}

func TestStartExporter_ServesCollectors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr := freeAddr(t)
	require.NoError(t, StartExporter(ctx, Config{Enabled: true, ListenAddr: addr}))

	PaymentsReceived.Inc()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return false
		}
		body = string(data)

		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	require.Contains(t, body, "cashu_lnd_payments_received_total")
	require.Contains(t, body, "cashu_lnd_pending_payments")
}
