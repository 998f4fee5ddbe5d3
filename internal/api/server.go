// Package api serves the contact book over HTTP.
//
// Handlers validate requests, delegate to a contacts.Repository and translate
// repository errors into JSON payloads carrying an "error" field. Successful
// mutations answer with a "message" field; reads return the data itself.
//
// The server never signals its own process. POST /shutdown acknowledges the
// request and closes the channel returned by Done; the owner of the Server is
// expected to call Stop, which drains in-flight requests.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"contactbook/internal/data/contacts"
	"contactbook/internal/logger"
)

// DefaultAddress is used when Options.Addr is empty.
const DefaultAddress = "127.0.0.1:5000"

// Options configures the HTTP server.
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

func (o *Options) applyDefaults() {
	if o.Addr == "" {
		o.Addr = DefaultAddress
	}
	if o.ReadTimeout == 0 {
		o.ReadTimeout = 10 * time.Second
	}
	if o.WriteTimeout == 0 {
		o.WriteTimeout = 30 * time.Second
	}
	if o.IdleTimeout == 0 {
		o.IdleTimeout = 60 * time.Second
	}
	if o.ShutdownTimeout == 0 {
		o.ShutdownTimeout = 5 * time.Second
	}
	if o.MaxBodyBytes == 0 {
		o.MaxBodyBytes = 8 << 20
	}
}

// Server hosts the contacts API.
type Server struct {
	http    *http.Server
	repo    contacts.Repository
	logger  logger.Logger
	opts    Options
	handler http.Handler

	mu       sync.Mutex
	listener net.Listener

	done     chan struct{}
	doneOnce sync.Once

	serveErr chan error
}

// NewServer constructs a server backed by repo. It does not listen until Start is called.
func NewServer(repo contacts.Repository, log logger.Logger, opts Options) *Server {
	if repo == nil {
		panic("api.NewServer: repository is nil")
	}
	if log == nil {
		log = logger.NewStandardLogger()
	}
	opts.applyDefaults()

	s := &Server{
		repo:     repo,
		logger:   log.With(logger.String("component", "api")),
		opts:     opts,
		done:     make(chan struct{}),
		serveErr: make(chan error, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /contacts", s.handleList)
	mux.HandleFunc("POST /contacts", s.handleAdd)
	mux.HandleFunc("PUT /contacts/{name}", s.handleUpdate)
	mux.HandleFunc("DELETE /contacts/{name}", s.handleDelete)
	mux.HandleFunc("GET /export", s.handleExport)
	mux.HandleFunc("POST /import", s.handleImport)
	mux.HandleFunc("POST /messages", s.handleOperatorMessage)
	mux.HandleFunc("POST /shutdown", s.handleShutdown)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	s.handler = s.withMiddleware(mux)
	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
	}
	return s
}

// Handler exposes the routed handler, including middleware.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the listener and serves in a background goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		s.logger.Info("listening on %s", ln.Addr())
		err := s.http.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("serve failed: %v", err)
			s.serveErr <- err
		}
		close(s.serveErr)
	}()
	return nil
}

// Addr returns the bound address once Start succeeded, the configured one otherwise.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.opts.Addr
}

// Done is closed when a client requests shutdown through the API.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Failed delivers the error that stopped serving unexpectedly. It is closed
// without a value after a normal Stop.
func (s *Server) Failed() <-chan error {
	return s.serveErr
}

// Stop gracefully shuts down the server, waiting up to the shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	if s.opts.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ShutdownTimeout)
		defer cancel()
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) requestShutdown() {
	s.doneOnce.Do(func() { close(s.done) })
}
