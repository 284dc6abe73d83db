package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeharson/mushroom-classification/ml"
)

func TestServerServeAndStop(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := NewServer(DefaultServerConfig(), Deps{
		Service: ml.NewService(ml.MustDefaultCatalog(), ml.NewAdapter(), nil),
	})
	done := make(chan error, 1)
	go func() { done <- server.Serve(listener) }()

	resp, err := http.Get(fmt.Sprintf("http://%s/api/health", listener.Addr()))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, server.Stop(context.Background()))
	assert.NoError(t, <-done)
}

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", NewServer(cfg, Deps{}).Addr())
}
