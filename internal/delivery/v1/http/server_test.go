package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/DRSN-tech/medical-ann/internal/cfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerLifecycle(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteText(w, http.StatusOK, "pong")
	})
	srv := NewServer(handler, &cfg.HTTPConfig{Port: "0", ReadTimeout: time.Second, WriteTimeout: time.Second})

	addr, err := srv.Listen()
	require.NoError(t, err)

	runErr := make(chan error, 1)
	go func() { runErr <- srv.Run() }()

	_, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	resp, err := http.Get("http://127.0.0.1:" + port + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))

	select {
	case err := <-runErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServerListenBusyPort(t *testing.T) {
	first := NewServer(http.NotFoundHandler(), &cfg.HTTPConfig{Port: "0"})
	addr, err := first.Listen()
	require.NoError(t, err)
	t.Cleanup(func() { first.Stop(context.Background()) })

	_, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	second := NewServer(http.NotFoundHandler(), &cfg.HTTPConfig{Port: port})
	_, err = second.Listen()
	assert.Error(t, err)
}
