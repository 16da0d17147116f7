package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	logx "eopbot/pkg/logx"
)

const shutdownTimeout = 5 * time.Second

// NewEngine returns a gin engine with the relay's middleware. Unknown routes
// answer 404 with {"ok":false}.
func NewEngine(log logx.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(RequestID(), Logger(log), Recovery(log))
	r.NoRoute(func(c *gin.Context) { Fail(c, http.StatusNotFound) })
	r.NoMethod(func(c *gin.Context) { Fail(c, http.StatusNotFound) })
	return r
}

// Server is one HTTP source listener. Listen binds, Serve blocks until the
// context is cancelled.
type Server struct {
	name string
	addr string
	srv  *http.Server
	ln   net.Listener
	log  logx.Logger
}

func NewServer(name, addr string, h http.Handler, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Server{
		name: name,
		addr: addr,
		srv: &http.Server{
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

func (s *Server) Name() string { return s.name }

func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("%s: listen %s: %w", s.name, s.addr, err)
	}
	s.ln = ln
	return nil
}

// Close releases a bound listener that was never served.
func (s *Server) Close() error {
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

// Addr reports the bound address, nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		return fmt.Errorf("%s: serve before listen", s.name)
	}
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(s.ln) }()
	s.log.Info("http listener started", logx.String("addr", s.ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s: serve: %w", s.name, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("http shutdown", logx.Err(err))
	}
	s.log.Info("http listener stopped")
	return nil
}
