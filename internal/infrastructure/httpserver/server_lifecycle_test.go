package httpserver_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	saas_http "github.com/deathnote2501/consultant-ia-generative/internal/infrastructure/httpserver"
	tmocks "github.com/deathnote2501/consultant-ia-generative/test/mocks"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newLifecycleServer(cfg *saas_http.ServerConfig) *saas_http.Server {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return saas_http.NewServer(cfg, logger, saas_http.ServerDeps{
		TokenValidator: &tmocks.TokenValidatorMock{},
		Users:          tmocks.NewMemoryUserRepository(),
	})
}

func TestServerConfigAddr(t *testing.T) {
	require.Equal(t, "127.0.0.1:8080", (&saas_http.ServerConfig{Host: "127.0.0.1", Port: "8080"}).Addr())
	require.Equal(t, "[::1]:443", (&saas_http.ServerConfig{Host: "::1", Port: "443"}).Addr())
}

func TestRun_DrainsOnCancel(t *testing.T) {
	srv := newLifecycleServer(&saas_http.ServerConfig{Host: "127.0.0.1", Port: "0", ReadTimeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, time.Second) }()

	require.Eventually(t, func() bool { return srv.Echo().ListenerAddr() != nil }, 2*time.Second, 10*time.Millisecond)
	resp, err := http.Get("http://" + srv.Echo().ListenerAddr().String() + "/ping")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}

func TestRun_ReturnsListenError(t *testing.T) {
	srv := newLifecycleServer(&saas_http.ServerConfig{Host: "127.0.0.1", Port: "not-a-port"})

	done := make(chan error, 1)
	go func() { done <- srv.Run(context.Background(), time.Second) }()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("expected listen error")
	}
}
