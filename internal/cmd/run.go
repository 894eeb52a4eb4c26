package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aduadu321/wooting-aim/analog"
	"github.com/aduadu321/wooting-aim/gamestate"
	"github.com/aduadu321/wooting-aim/internal/config"
	"github.com/aduadu321/wooting-aim/internal/log"
	"github.com/aduadu321/wooting-aim/internal/procwatch"
	"github.com/aduadu321/wooting-aim/internal/server/gsi"
	"github.com/aduadu321/wooting-aim/internal/stats"
	"github.com/aduadu321/wooting-aim/internal/tuner"
	"github.com/aduadu321/wooting-aim/wooting"
	"github.com/aduadu321/wooting-aim/wooting/hidraw"
)

const (
	watchPollInterval = 2 * time.Second
	watchStartGrace   = 3 * time.Second
	serverStopTimeout = 3 * time.Second
	demoCycle         = 3 * time.Second
)

// Run is the main command: sample the keys, classify movement and
// (with --adaptive) retune the keyboard in real time.
type Run struct {
	Adaptive bool `help:"Enable adaptive tuning and keyboard writes" env:"WOOTING_AIM_ADAPTIVE"`
	Watch    bool `help:"Wait for the game process, then enable adaptive tuning"`
	Demo     bool `help:"Cycle the D key between two depths every 3s for feel-testing"`

	TuningFile  string `help:"Tuning file path (.cfg key=value; .json/.yaml/.toml also load)" default:"wooting-aim.cfg" type:"path"`
	StatsFile   string `help:"Counter-strafe CSV path" default:"wooting-aim-stats.csv" type:"path"`
	Profile     int    `help:"Keyboard profile slot (0-3)" default:"0"`
	GameProcess string `help:"Process name watched in --watch mode" default:"cs2"`
}

// Run is called by kong.
func (r *Run) Run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return r.run(ctx, logger)
}

func (r *Run) run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.Load(r.TuningFile, logger)
	if err != nil {
		return err
	}

	cache := &gamestate.Cache{}

	// Teardown is funnelled through one idempotent routine so a signal
	// racing a normal return can never double-release anything.
	var td teardown
	defer td.run(logger)

	if cfg.GSIEnabled {
		if path, err := gsi.WriteGameConfig(cfg.GSIPort); err != nil {
			logger.Warn("game config write failed", "error", err)
		} else if path != "" {
			logger.Info("game config in place", "path", path)
		} else {
			logger.Warn("game cfg directory not found; create the state-integration file manually",
				"uri", fmt.Sprintf("http://127.0.0.1:%d", cfg.GSIPort))
		}

		srv := gsi.New(gsi.DefaultServerConfig(cfg.GSIPort), cache, logger)
		srvErr := make(chan error, 1)
		go func() { srvErr <- srv.ListenAndServe() }()
		select {
		case err := <-srvErr:
			// Bind failure: run without game state.
			logger.Warn("game-state server unavailable", "error", err)
		case <-srv.Ready():
			td.server = srv
			td.serverErr = srvErr
		}
	}

	if r.Watch {
		logger.Info("waiting for game process", "process", r.GameProcess)
		for !procwatch.Running(r.GameProcess) {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(watchPollInterval):
			}
		}
		logger.Info("game detected, enabling adaptive mode")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(watchStartGrace):
		}
	}

	adaptive := r.Adaptive || r.Watch

	var dev *wooting.Device
	if adaptive || r.Demo {
		transport, err := hidraw.Open(logger)
		if err != nil {
			return fmt.Errorf("open keyboard: %w", err)
		}
		dev = wooting.NewDevice(transport, logger)
		dev.TraceFrames(log.NewFrameLogger(logger))
		td.device = dev

		if err := dev.Handshake(); err != nil {
			logger.Warn("handshake failed", "error", err)
		}
		if err := dev.ActivateProfile(r.Profile); err != nil {
			logger.Warn("profile activation failed", "error", err)
		}
	}

	policy := tuner.NewPolicy(cfg)
	if adaptive {
		td.restore = func() {
			normal := policy.Normal()
			restoreDepths(dev, r.Profile, normal, logger)
		}
	}

	if r.Demo {
		return r.demo(ctx, dev, logger)
	}

	reader, err := analog.OpenEvdev(logger)
	if err != nil {
		return fmt.Errorf("open analog input: %w", err)
	}
	td.reader = reader

	if cfg.StatsEnabled && adaptive {
		log, err := stats.Open(r.StatsFile)
		if err != nil {
			logger.Warn("stats disabled", "error", err)
		} else {
			td.stats = log
			logger.Info("stats logging", "path", r.StatsFile)
		}
	}

	var writer *tuner.Writer
	if adaptive {
		interval := time.Duration(cfg.WriteIntervalMS * float64(time.Millisecond))
		writer = tuner.NewWriter(dev, r.Profile, interval, policy.Normal(), logger)
		logger.Info("adaptive mode enabled",
			"ap", fmt.Sprintf("%.1f->%.1f", cfg.APNormal, cfg.APAggro),
			"rt", fmt.Sprintf("%.1f->%.1f", cfg.RTNormal, cfg.RTAggro),
			"poll_rate_hz", cfg.PollRateHz)
	} else {
		logger.Info("read-only mode; use --adaptive or --watch for tuning")
	}

	lc := tuner.LoopConfig{
		Config: cfg,
		Reader: reader,
		Writer: writer,
		Cache:  cache,
		Stats:  td.stats,
	}
	if r.Watch {
		lc.WatchProcess = r.GameProcess
		lc.ProcessRunning = procwatch.Running
	}

	return tuner.NewLoop(lc, logger).Run(ctx)
}

// demo alternates the D key between a hair trigger and nearly full
// travel so the depth change can be felt under a resting finger.
func (r *Run) demo(ctx context.Context, dev *wooting.Device, logger *slog.Logger) error {
	logger.Info("demo mode: D key alternates between 0.1mm and 3.8mm every 3s")

	aggro := false
	ticker := time.NewTicker(demoCycle)
	defer ticker.Stop()

	for {
		aggro = !aggro
		ap, rt := float32(3.8), float32(1.0)
		if aggro {
			ap, rt = 0.1, 0.1
		}
		keys := []wooting.KeySetting{{Pos: wooting.KeyD, MM: ap}}
		if err := dev.WriteActuation(r.Profile, keys, false); err != nil {
			logger.Warn("demo write failed", "error", err)
		}
		keys[0].MM = rt
		if err := dev.WriteRapidTrigger(r.Profile, keys, false); err != nil {
			logger.Warn("demo write failed", "error", err)
		}
		logger.Info("demo depths", "ap_mm", ap, "rt_mm", rt)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// restoreDepths pushes the relaxed depths for all four keys, used on
// the way out so the keyboard is left in its normal state.
func restoreDepths(dev *wooting.Device, profile int, normal tuner.Targets, logger *slog.Logger) {
	if dev == nil {
		return
	}
	w := tuner.NewWriter(dev, profile, 0, tuner.Targets{}, logger)
	w.SetTarget(normal)
	w.Flush(time.Now())
	logger.Info("keyboard restored to normal depths")
}

// teardown releases every resource exactly once, in dependency order:
// restore depths first (needs the device), then the ingest server,
// stats, device and analog reader.
type teardown struct {
	once sync.Once

	restore   func()
	server    *gsi.Server
	serverErr chan error
	stats     *stats.Log
	device    *wooting.Device
	reader    analog.Reader
}

func (t *teardown) run(logger *slog.Logger) {
	t.once.Do(func() {
		if t.restore != nil {
			t.restore()
		}
		if t.server != nil {
			_ = t.server.Close()
			select {
			case <-t.serverErr:
			case <-time.After(serverStopTimeout):
				logger.Warn("game-state server did not stop in time")
			}
		}
		if err := t.stats.Close(); err != nil {
			logger.Warn("stats close failed", "error", err)
		}
		if t.device != nil {
			if err := t.device.Close(); err != nil {
				logger.Warn("device close failed", "error", err)
			}
		}
		if t.reader != nil {
			if err := t.reader.Close(); err != nil {
				logger.Warn("analog reader close failed", "error", err)
			}
		}
	})
}
