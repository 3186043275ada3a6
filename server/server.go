package server

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ServerShutdownTimeout is the default time to wait before closing
// connections on shutdown.
const ServerShutdownTimeout = 60 * time.Second

// Server is a incomplete component that implements a basic HTTP server.
type Server struct {
	*http.Server
	name   string
	logger *logrus.Logger
}

// New creates a new HTTP server configured with the passed name, address and
// http.Handler. Server errors and lifecycle messages are written to logger.
func New(name, addr string, handler http.Handler, logger *logrus.Logger) *Server {
	return &Server{
		Server: newHTTPServer(addr, handler, logger),
		name:   name,
		logger: logger,
	}
}

// newHTTPServer creates a new http.Server with the TCP address and handler.
func newHTTPServer(addr string, handler http.Handler, logger *logrus.Logger) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		WriteTimeout:      15 * time.Second,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       15 * time.Second,
		ErrorLog:          log.New(logger.WriterLevel(logrus.ErrorLevel), "", 0),
	}
}

// ListenAndServe listens on the TCP network address srv.Addr and then calls
// Serve to handle requests on incoming connections.
func (srv *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return errors.Wrapf(err, "error listening on %s", srv.Addr)
	}

	return srv.Serve(ln)
}

// Serve serves HTTP on the given listener until the server is shut down.
// After a shutdown it returns http.ErrServerClosed.
func (srv *Server) Serve(ln net.Listener) error {
	srv.logger.WithField("name", srv.name).Infof("Serving HTTP on %s ...", ln.Addr())

	err := srv.Server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return errors.Wrap(err, "unexpected error")
}

// Shutdown gracefully shuts down the server without interrupting any active
// connections.
func (srv *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), ServerShutdownTimeout)
	defer cancel() // release resources if Shutdown ends before the timeout
	return srv.Server.Shutdown(ctx)
}
