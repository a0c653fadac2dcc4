package http

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minh-le0205/tour-rest-api/internal/config"
	"github.com/minh-le0205/tour-rest-api/internal/logging"
)

func TestServer_ServeAndShutdown(t *testing.T) {
	var logs bytes.Buffer
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	srv := NewServer(config.ServerConfig{
		Port:            "0",
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: time.Second,
	}, handler, logging.NewLoggerWithWriter(&logs, true))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	assert.Contains(t, logs.String(), "starting server")
	assert.Contains(t, logs.String(), "server stopped")
}

func TestServer_RunFailsOnBadAddress(t *testing.T) {
	srv := NewServer(config.ServerConfig{Port: "not-a-port"}, http.NotFoundHandler(),
		logging.NewLoggerWithWriter(&bytes.Buffer{}, true))

	err := srv.Run(context.Background())
	assert.Error(t, err)
}
