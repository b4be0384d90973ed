package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/typerush/go-typerush/internal/api"
	"github.com/typerush/go-typerush/internal/config"
	"github.com/typerush/go-typerush/internal/game"
	"github.com/typerush/go-typerush/internal/server"
	"github.com/typerush/go-typerush/internal/stats"
	"github.com/typerush/go-typerush/internal/words"
)

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	wordsDir       string
	gameConfig     string
	devMode        bool
	allowedOrigins stringSliceFlag
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	flag.StringVar(&addr, "addr", envOr("TYPERUSH_ADDR", "localhost:8000"), "server address")
	flag.StringVar(&wordsDir, "words-dir", envOr("TYPERUSH_WORDS_DIR", "data/words"), "directory containing word-list files")
	flag.StringVar(&gameConfig, "game-config", envOr("TYPERUSH_GAME_CONFIG", ""), "optional YAML game configuration file")
	flag.BoolVar(&devMode, "dev", os.Getenv("TYPERUSH_ENV") == "development", "human-readable debug logging")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	logger := newLogger(devMode)

	cfg, err := config.NewConfig(addr, wordsDir, gameConfig, allowedOrigins)
	if err != nil {
		logger.Fatal().Err(err).Msg("config")
	}

	pool := words.NewPool(cfg.WordsDir, cfg.Languages, logger)
	g := game.New(pool, cfg.MaxPlayers, logger)

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	gameServer, err := server.NewGameServer(logger, g, statsUpdater, clockwork.NewRealClock(), cfg.GracePeriod)
	if err != nil {
		logger.Fatal().Err(err).Msg("new game server")
	}

	srv := api.NewServer(mux, logger, gameServer, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Info().Str("signal", sig.String()).Msg("received signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server")
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatal().Err(err).Msg("HTTP server shutdown")
	}

	gameServer.Shutdown()
	logger.Info().Msg("shutdown complete")
}

func newLogger(dev bool) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	return logger
}
