package api

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/typerush/go-typerush/internal/config"
	"github.com/typerush/go-typerush/internal/server"
)

// Server is the HTTP front of the game: a websocket upgrade endpoint, a
// health check and the stats route registered on the shared mux.
type Server struct {
	log            zerolog.Logger
	gs             *server.GameServer
	mux            *http.Server
	allowedOrigins []string
}

func NewServer(mux *http.ServeMux, logger zerolog.Logger, gs *server.GameServer, cfg *config.Config) *Server {
	s := &Server{
		log:            logger,
		gs:             gs,
		allowedOrigins: cfg.AllowedOrigins,
	}

	mux.HandleFunc("GET /ws", s.serveWs)
	mux.HandleFunc("GET /healthz", s.health)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	s.mux = &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	return s
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.mux.Addr).Msg("starting server")
	return s.mux.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down server")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("error upgrading connection")
		return
	}

	client := server.NewClient(uuid.NewString(), conn, s.gs, s.log)

	s.gs.RegisterClient(client)
	go client.Write()
	go client.Read()
}
