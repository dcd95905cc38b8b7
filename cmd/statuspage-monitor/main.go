package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"statuspage-monitor/pkg/config"
	"statuspage-monitor/pkg/fetch"
	"statuspage-monitor/pkg/monitor"
	"statuspage-monitor/pkg/server"
	"statuspage-monitor/pkg/types"
)

// Options contains command-line configuration options for the monitor.
type Options struct {
	ConfigPath string
	LogLevel   string
	Replay     bool
}

// NewOptions parses command-line flags and returns a new Options instance.
func NewOptions() *Options {
	opts := &Options{}

	flag.StringVar(&opts.ConfigPath, "config-path", "", "Path to monitor config file")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.Replay, "replay", false, "Fetch each target once, print its current state, and exit")
	flag.Parse()

	return opts
}

// Validate checks that all required options are provided and valid.
func (o *Options) Validate() error {
	if o.ConfigPath == "" {
		return errors.New("config path is required (use --config-path flag)")
	}

	if _, err := os.Stat(o.ConfigPath); os.IsNotExist(err) {
		return errors.New("config file does not exist: " + o.ConfigPath)
	}

	if _, err := logrus.ParseLevel(o.LogLevel); err != nil {
		return errors.New("invalid log level: " + o.LogLevel)
	}

	return nil
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	opts := NewOptions()

	if err := opts.Validate(); err != nil {
		log.WithField("error", err).Fatal("Invalid command-line options")
	}

	level, _ := logrus.ParseLevel(opts.LogLevel)
	log.SetLevel(level)

	if opts.Replay {
		if err := runReplay(opts.ConfigPath, os.Stdout); err != nil {
			log.WithField("error", err).Fatal("Replay failed")
		}
		return
	}

	manager, err := config.NewManager(opts.ConfigPath, log)
	if err != nil {
		log.WithFields(logrus.Fields{
			"config_path": opts.ConfigPath,
			"error":       err,
		}).Fatal("Failed to load config")
	}
	defer manager.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received interrupt signal, shutting down...")
		cancel()
	}()

	store := server.NewStore()
	hub := server.NewHub()
	sink := monitor.MultiSink{monitor.NewLogSink(log), server.NewStreamSink(hub)}

	var srv *server.Server
	if addr := manager.Get().ListenAddr; addr != "" {
		srv = server.NewServer(store, hub, log)
		go func() {
			if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithField("error", err).Error("Status server stopped unexpectedly")
			}
		}()
	}

	reloadChan := make(chan struct{}, 1)
	manager.OnUpdate(func(*types.MonitorConfig) {
		select {
		case reloadChan <- struct{}{}:
		default:
		}
	})

	runMonitors(ctx, manager, reloadChan, store, sink, log)

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			log.WithField("error", err).Error("Failed to stop status server cleanly")
		}
	}
}

// runMonitors runs the supervisor until ctx is cancelled, restarting the
// monitor set whenever the config manager reports an update.
func runMonitors(ctx context.Context, manager *config.Manager, reloadChan chan struct{}, store *server.Store, sink monitor.Sink, log *logrus.Logger) {
	if err := manager.Watch(ctx); err != nil {
		log.WithField("error", err).Error("Config watching unavailable, continuing without hot reload")
	}

	doer := fetch.NewHTTPDoer()
	supervisor := monitor.NewSupervisor(log, sink)

	for {
		cfg := manager.Get()
		intervals, err := cfg.Intervals()
		if err != nil {
			// config was validated at load time
			log.WithField("error", err).Fatal("Invalid intervals in config")
		}

		generationCtx, generationCancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			supervisor.Run(generationCtx, supervisor.BuildMonitors(cfg.Targets, intervals, doer, store))
			close(done)
		}()

		select {
		case <-ctx.Done():
			generationCancel()
			<-done
			return
		case <-reloadChan:
			log.Info("Config updated, restarting monitors")
			generationCancel()
			<-done
		}
	}
}
