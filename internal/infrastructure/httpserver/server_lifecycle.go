package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const defaultShutdownTimeout = 10 * time.Second

// Addr is the listen address built from Host and Port.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c *ServerConfig) tlsEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// Run serves until ctx is done, then drains in-flight requests for at most
// shutdownTimeout. A listener failure is returned as soon as it happens.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	s.LogMetricsInitialization()

	hs := &http.Server{
		Addr:         s.config.Addr(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		if s.config.tlsEnabled() {
			s.echo.TLSServer.ReadTimeout = hs.ReadTimeout
			s.echo.TLSServer.WriteTimeout = hs.WriteTimeout
			s.echo.TLSServer.IdleTimeout = hs.IdleTimeout
			s.logger.WithField("addr", hs.Addr).Info("serving course api over https")
			serveErr <- s.echo.StartTLS(hs.Addr, s.config.TLSCertFile, s.config.TLSKeyFile)
			return
		}
		s.logger.WithField("addr", hs.Addr).Warn("serving course api over plain http; tls certificates not configured")
		serveErr <- s.echo.StartServer(hs)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("draining in-flight requests")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-shutdownCtx.Done():
		return shutdownCtx.Err()
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) Echo() *echo.Echo {
	return s.echo
}
