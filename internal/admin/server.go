// Package admin serves the HTTP side of the exchange: health, statistics,
// the last top of book and a websocket feed of top-of-book updates.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/yanun0323/logs"

	"market/internal/engine"
	"market/internal/model"
	"market/internal/obs"
)

const (
	requestTimeout  = 3 * time.Second
	shutdownTimeout = 5 * time.Second
)

// TopSource returns the last broadcast top of book.
type TopSource interface {
	Top() (engine.Top, bool)
}

// StatsSource returns the live book counters.
type StatsSource interface {
	Stats() model.BookStats
}

// Options configures the admin server.
type Options struct {
	Addr        string
	Symbol      string
	RunID       string
	CORSOrigins []string
}

// Server is the admin HTTP server.
type Server struct {
	opts    Options
	top     TopSource
	stats   StatsSource
	metrics *obs.Metrics
	feed    *Feed
	handler http.Handler
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	Symbol         string          `json:"symbol"`
	RunID          string          `json:"runId"`
	Book           model.BookStats `json:"book"`
	OrderToTrade   *float64        `json:"orderToTrade"`
	VolumePerTrade *float64        `json:"volumePerTrade"`
	Metrics        obs.Snapshot    `json:"metrics"`
}

// BookResponse is the body of GET /book.
type BookResponse struct {
	Symbol string           `json:"symbol"`
	Bid    model.OrderEntry `json:"bid"`
	Ask    model.OrderEntry `json:"ask"`
	Mid    model.Price      `json:"mid"`
	Spread model.Price      `json:"spread"`
	Time   time.Time        `json:"time"`
}

// New builds the router.
func New(opts Options, top TopSource, stats StatsSource, metrics *obs.Metrics) *Server {
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})

	s := &Server{
		opts:    opts,
		top:     top,
		stats:   stats,
		metrics: metrics,
		feed:    NewFeed(opts.Symbol, metrics, c.OriginAllowed),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Get("/healthz", s.handleHealth)
		r.Get("/stats", s.handleStats)
		r.Get("/book", s.handleBook)
	})
	r.Handle("/ws", s.feed)

	s.handler = c.Handler(r)
	return s
}

// Handler returns the CORS wrapped router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Feed returns the websocket fan-out, to be subscribed to the publisher.
func (s *Server) Feed() *Feed {
	return s.feed
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: requestTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logs.Infof("admin: listening on %s", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.feed.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.feed.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"symbol": s.opts.Symbol,
		"runId":  s.opts.RunID,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.stats.Stats()
	resp := StatsResponse{
		Symbol:  s.opts.Symbol,
		RunID:   s.opts.RunID,
		Book:    stats,
		Metrics: s.metrics.Snapshot(),
	}
	if v, ok := stats.OrderToTradeRatio(); ok {
		resp.OrderToTrade = &v
	}
	if v, ok := stats.VolumePerTrade(); ok {
		resp.VolumePerTrade = &v
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	top, ok := s.top.Top()
	if !ok {
		writeProblem(w, r, http.StatusServiceUnavailable, "no snapshot", "no top of book has been published yet")
		return
	}
	respondJSON(w, http.StatusOK, BookResponse{
		Symbol: s.opts.Symbol,
		Bid:    top.Bid,
		Ask:    top.Ask,
		Mid:    top.Mid(),
		Spread: top.Spread(),
		Time:   top.Time,
	})
}

func respondJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

func writeProblem(w http.ResponseWriter, r *http.Request, code int, title, detail string) {
	reqID := middleware.GetReqID(r.Context())
	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("X-Request-ID", reqID)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"title":      title,
		"status":     code,
		"detail":     detail,
		"instance":   r.URL.Path,
		"request_id": reqID,
	})
}
