package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/offline/internal/config"
	"github.com/zeusync/offline/internal/core/controller"
	"github.com/zeusync/offline/internal/core/events/bus"
	"github.com/zeusync/offline/internal/core/observability/log"
	"github.com/zeusync/offline/internal/injector"
	"github.com/zeusync/offline/internal/offline"
	"github.com/zeusync/offline/internal/session"
)

const shutdownTimeout = 5 * time.Second

var errPrepare = errors.New("session preparation failed")

func main() {
	path := flag.String("config", "offline.yaml", "path to the YAML or TOML config file")
	flag.Parse()

	if err := run(*path); err != nil {
		fmt.Fprintln(os.Stderr, "offline:", err)
		os.Exit(1)
	}
}

func run(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := injector.InitializeApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer func() { _ = app.Log.Sync() }()
	logger := app.Log.With(log.Tag("cli"))

	keys, err := cfg.ControllerKeys()
	if err != nil {
		return err
	}
	if err = app.Binding.Bind(controller.NewStatic(keys...)); err != nil {
		return err
	}

	if err = app.Offline.Init(ctx); err != nil {
		return err
	}
	unsubscribe := traceSessionEvents(app.Events, logger)

	s, err := startSession(app, logger)
	if err != nil {
		unsubscribe()
		_ = app.Offline.Dispose()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.Offline.Wait()
		st := s.State()
		if st.Status == session.StatusError {
			return fmt.Errorf("%w: %s", errPrepare, st.Message)
		}
		logger.Info("Session ready, press Ctrl+C to leave", log.String("session", s.ID()))
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	runErr := g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	unsubscribe()
	closeErr := errors.Join(app.Directory.Close(shutdownCtx), app.Offline.Dispose())
	logger.Info("Shut down")
	return errors.Join(runErr, closeErr)
}

// startSession attaches the progress logger before the directory starts preparation.
func startSession(app *injector.App, logger log.Log) (*offline.Session, error) {
	s := app.Offline.Create(app.Config.Session)
	s.OnStateChanged(func(st session.State) {
		logger.Info(st.String(), log.String("session", s.ID()))
	})
	if err := app.Directory.Add(s); err != nil {
		return nil, err
	}
	return s, nil
}

func traceSessionEvents(events bus.EventBus, logger log.Log) func() {
	topics := []string{
		bus.TopicPlayerJoined,
		bus.TopicPlayerLeft,
		bus.TopicEntityRegistered,
		bus.TopicEntityUnregistered,
		bus.TopicAuthorityTransferred,
	}
	var subs []bus.Subscription
	for _, topic := range topics {
		sub, err := events.Subscribe(topic, func(e bus.Event) error {
			logger.Debug("Session event", log.String("topic", e.Type()), log.String("source", e.Source()))
			return nil
		})
		if err != nil {
			logger.Warn("Cannot trace session events", log.String("topic", topic), log.Error(err))
			continue
		}
		subs = append(subs, sub)
	}
	return func() {
		for _, sub := range subs {
			_ = events.Unsubscribe(sub)
		}
	}
}
