// Package ui is the HTTP surface users set spending ceilings through. It
// does no bidding logic of its own: an accepted request becomes a
// MaxBidSet event on the log and the bidding engine takes it from there.
package ui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/snipelabs/sniper/internal/auction"
	"github.com/snipelabs/sniper/internal/event"
	"github.com/snipelabs/sniper/internal/eventlog"
	"github.com/snipelabs/sniper/internal/persistence"
)

// ServiceName names the UI worker in logs.
const ServiceName = "ui"

// Banner is served on GET /.
const Banner = "Hello, World!"

const (
	pollDelay       = 100 * time.Millisecond
	shutdownTimeout = 5 * time.Second
)

// Server runs the HTTP UI as a loop service: the async server lives in
// its own goroutines, while RunIteration polls their terminal result so
// the supervisor sees failures like any other worker's.
type Server struct {
	persistence persistence.Persistence
	writer      eventlog.Writer
	logger      *slog.Logger
	validate    *validator.Validate

	httpServer *http.Server
	startOnce  sync.Once
	stopServer context.CancelFunc
	errCh      chan error
	terminated bool
}

// NewServer creates the UI server bound to addr.
func NewServer(addr string, p persistence.Persistence, writer eventlog.Writer, logger *slog.Logger) *Server {
	s := &Server{
		persistence: p,
		writer:      writer,
		logger:      logger,
		validate:    validator.New(),
		errCh:       make(chan error, 1),
	}

	router := chi.NewRouter()
	router.Get("/", s.handleRoot)
	router.Post("/bid/", s.handleBid)

	s.httpServer = &http.Server{Addr: addr, Handler: router}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// RunIteration implements service.LoopService. It starts the server on
// first call and then parks briefly, surfacing any terminal server error.
func (s *Server) RunIteration(ctx context.Context) error {
	s.startOnce.Do(s.start)

	select {
	case err := <-s.errCh:
		s.terminated = true
		return err
	case <-time.After(pollDelay):
		return nil
	case <-ctx.Done():
		return nil
	}
}

// Cleanup implements service.Cleaner: the worker exiting shuts the HTTP
// server down gracefully and waits for it to finish.
func (s *Server) Cleanup() {
	if s.stopServer == nil || s.terminated {
		return
	}
	s.stopServer()
	if err := <-s.errCh; err != nil {
		s.logger.Error("ui shutdown failed", "error", err)
	}
}

func (s *Server) start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopServer = cancel

	g := new(errgroup.Group)
	g.Go(func() error {
		s.logger.Info("ui listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			cancel()
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		return s.httpServer.Shutdown(shutdownCtx)
	})

	go func() {
		s.errCh <- g.Wait()
	}()
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	fmt.Fprint(w, Banner)
}

type bidRequest struct {
	Item  string          `json:"item" validate:"required"`
	Price *auction.Amount `json:"price" validate:"required"`
}

func (s *Server) handleBid(w http.ResponseWriter, r *http.Request) {
	var req bidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.fail(w, err)
		return
	}

	_, err := eventlog.Append(r.Context(), s.persistence, s.writer,
		event.MaxBidSet(req.Item, *req.Price))
	if err != nil {
		s.fail(w, err)
		return
	}

	s.logger.Info("max bid set", "item", req.Item, "price", *req.Price)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.logger.Error("bid request rejected", "error", err)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprintf(w, "Something went wrong: %v", err)
}
