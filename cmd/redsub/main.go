// Command redsub subscribes to Redis channels and patterns and logs every
// message it receives.
//
//	redsub -addr 127.0.0.1:6379 -pattern 'news.*' alerts builds
//
// Publishing the exit payload ("exit" by default) to a channel drops that
// subscription; redsub returns once nothing is left. An interrupt
// unsubscribes from everything.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mixer/redutil/conn"
	"github.com/mixer/redutil/pubsub"
)

// drainTimeout bounds how long an interrupted session may take to
// acknowledge its final unsubscribes before the connection is closed.
const drainTimeout = 5 * time.Second

func initLogger(app string, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).Level(level).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

func main() {
	configPath := flag.String("config", "", "path to a redsub TOML config")
	addr := flag.String("addr", "", "redis host:port (overrides the config)")
	patterns := flag.String("pattern", "", "comma separated patterns to subscribe to")
	level := flag.String("level", "", "log level (overrides the config)")
	flag.Parse()

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "redsub: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Conn.Address = *addr
	}
	if *level != "" {
		parsed, err := zerolog.ParseLevel(*level)
		if err != nil {
			fmt.Fprintf(os.Stderr, "redsub: %v\n", err)
			os.Exit(2)
		}
		cfg.LogLevel = parsed
	}
	for _, p := range strings.Split(*patterns, ",") {
		if p = strings.TrimSpace(p); p != "" {
			cfg.Patterns = append(cfg.Patterns, p)
		}
	}
	cfg.Channels = append(cfg.Channels, flag.Args()...)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	logger := initLogger("redsub", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := subscribe(ctx, logger, cfg); err != nil {
		logger.Error().Err(err).Msg("redsub stopped")
		os.Exit(1)
	}
}

// subscribe runs sessions until one drains on its own or ctx is cancelled.
// Lost connections are redialed according to the config's reconnect policy.
func subscribe(ctx context.Context, logger zerolog.Logger, cfg Config) error {
	policy := cfg.Policy()
	handler := newSubscriber(logger, cfg)
	handler.policy = policy
	session := pubsub.NewTextSession(handler).SetLogger(logger)

	for {
		err := runOnce(ctx, session, handler, cfg)
		if err == nil || ctx.Err() != nil {
			return nil
		}

		var lost *pubsub.ConnectionLostError
		if !cfg.Reconnect || !errors.As(err, &lost) {
			return err
		}

		delay := policy.Next()
		logger.Warn().Err(err).Dur("delay", delay).Msg("connection lost, reconnecting")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil
		}
	}
}

func runOnce(ctx context.Context, session *pubsub.Session[string], handler *subscriber, cfg Config) error {
	cnx, err := conn.Dial(cfg.Conn)
	if err != nil {
		return &pubsub.ConnectionLostError{Err: err}
	}
	defer cnx.Close()

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-done:
			return
		case <-ctx.Done():
		}

		unsubscribeAll(session, handler.log)

		select {
		case <-done:
		case <-time.After(drainTimeout):
			cnx.Close()
		}
	}()

	return handler.run(session, cnx)
}

// unsubscribeAll removes every channel and pattern so that a running
// session drains. A session that ended in between is not an error.
func unsubscribeAll(session *pubsub.Session[string], logger zerolog.Logger) {
	for _, unsubscribe := range []func(...string) error{session.Unsubscribe, session.PUnsubscribe} {
		if err := unsubscribe(); err != nil && !errors.Is(err, pubsub.ErrNotConnected) {
			logger.Warn().Err(err).Msg("unsubscribe on shutdown failed")
		}
	}
}
