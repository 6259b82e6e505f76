package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/orrery/orrery/internal/audio"
	"github.com/orrery/orrery/internal/config"
	"github.com/orrery/orrery/internal/core/event"
	coresys "github.com/orrery/orrery/internal/core/system"
	"github.com/orrery/orrery/internal/data"
	"github.com/orrery/orrery/internal/gameplay"
	"github.com/orrery/orrery/internal/input"
	"github.com/orrery/orrery/internal/inspect"
	"github.com/orrery/orrery/internal/model"
	"github.com/orrery/orrery/internal/persist"
	"github.com/orrery/orrery/internal/scripting"
	"github.com/orrery/orrery/internal/system"
	"github.com/orrery/orrery/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(sceneName string, kind data.Kind) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m               orrery  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m     scene graph · rigid-body physics      \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mscene:\033[0m %s \033[90m(%s)\033[0m\n\n", sceneName, kind)
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main loop ─────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/orrery.toml"
	if p := os.Getenv("ORRERY_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Load the scene description
	desc, err := data.LoadScene(cfg.Scene.Path)
	if err != nil {
		return fmt.Errorf("scene: %w", err)
	}
	printBanner(desc.Name, desc.Kind)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. Lua tuning hooks (optional; missing hooks fall back to config)
	var engine *scripting.Engine
	if cfg.Scene.ScriptsDir != "" {
		engine, err = scripting.NewEngine(cfg.Scene.ScriptsDir, log)
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer engine.Close()
		printOK("Lua hooks loaded")
	}

	// 5. Scene session
	printSection("Scene")
	bus := event.NewBus()
	opts := sessionOptions(cfg)
	if engine != nil && engine.HasHook("bumper_score") {
		opts.BumperScore = engine.BumperScore
	}
	session, err := world.Build(desc, model.GLTFLoader{}, bus, opts, log)
	if err != nil {
		return fmt.Errorf("build scene: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Error("scene teardown", zap.Error(err))
		}
	}()
	printStat("Entities", session.Table.Len())
	printStat("Models", session.Models.Count())
	printStat("Bodies", session.Physics.Len())
	if session.Fleet != nil {
		printStat("Ships", session.Fleet.Len())
	}
	fmt.Println()

	// 6. Optional match ledger (empty DSN = no ledger)
	var ledger *system.PersistSystem
	if cfg.Database.DSN != "" {
		printSection("Match ledger")
		dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(dbCtx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		version, err := persist.RunMigrations(dbCtx, db.Pool)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printStat("Schema version", int(version))

		repo := persist.NewMatchRepo(db)
		matchID, err := repo.Start(dbCtx, desc.Name, desc.Kind.String(), desc.Fingerprint)
		if err != nil {
			return fmt.Errorf("start match: %w", err)
		}
		flushEvery := 60 // ~1s of frames
		if cfg.Window.TickRate > 0 {
			flushEvery = int(time.Second / cfg.Window.TickRate)
		}
		ledger = system.NewPersistSystem(bus, repo, matchID, system.EntityNames(session.Table), log, flushEvery)
		log.Info("match started", zap.String("match", matchID.String()))
		fmt.Println()
	}

	// 7. Audio cue worker (NopSink when headless or the device fails)
	var sink audio.Sink = audio.NopSink{}
	if cfg.Audio.Enabled && !cfg.Window.Headless {
		beepSink, err := audio.NewBeepSink(cfg.Audio.Cues, log)
		if err != nil {
			log.Warn("audio disabled", zap.Error(err))
		} else {
			defer beepSink.Close()
			sink = beepSink
		}
	}
	worker := audio.NewWorker(sink, max(cfg.Audio.QueueSize, 1), log)
	system.BindAudioCues(bus, worker, cfg.Audio.Cues)

	// 8. Input
	state := &input.State{}
	var poller input.Poller
	switch {
	case cfg.Scene.ReplayPath != "":
		replay, err := input.LoadReplay(cfg.Scene.ReplayPath)
		if err != nil {
			return fmt.Errorf("replay: %w", err)
		}
		poller = replay
	case cfg.Window.Headless:
		poller = &input.ReplayPoller{QuitAt: cfg.Window.MaxTicks}
	default:
		poller = input.NewEbitenPoller()
	}

	// 9. Register systems (runner sorts by phase)
	runner := coresys.NewRunner()
	inputSys := system.NewInputSystem(poller, state, log)
	sceneSys := system.NewSceneSystem(session)
	runner.Register(inputSys)
	runner.Register(system.NewEventDispatchSystem(bus))
	if session.Fleet != nil {
		runner.Register(system.NewShipSystem(session.Fleet, state, windSource(cfg.Wind, engine)))
	}
	if session.Pinball != nil {
		runner.Register(system.NewPinballControlSystem(session.Pinball, state))
		runner.Register(system.NewPinballRulesSystem(session.Pinball, session.Physics.World()))
	}
	runner.Register(system.NewPhysicsSystem(session, log))
	runner.Register(sceneSys)
	if ledger != nil {
		runner.Register(ledger)
	}

	// 10. Background workers
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return worker.Run(gctx) })
	if cfg.Inspector.BindAddress != "" {
		hub := inspect.NewHub(cfg.Inspector.WriteTimeout, log)
		runner.Register(system.NewInspectSystem(hub, session, cfg.Inspector.PushInterval, log))
		srv := inspect.NewServer(cfg.Inspector, hub, log)
		g.Go(func() error { return srv.Run(gctx) })
		printOK("Inspector on " + cfg.Inspector.BindAddress)
	}

	// 11. Frame loop on the main goroutine; ebiten needs it
	printReady("Running")
	fmt.Println()
	if cfg.Window.Headless {
		runHeadless(gctx, runner, inputSys, cfg.Window, log)
	} else {
		ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
		ebiten.SetWindowTitle(cfg.Window.Title)
		ebiten.SetWindowClosingHandled(true)
		err := ebiten.RunGame(&game{
			ctx:     gctx,
			runner:  runner,
			input:   inputSys,
			scene:   sceneSys,
			session: session,
			width:   cfg.Window.Width,
			height:  cfg.Window.Height,
		})
		if err != nil && !errors.Is(err, ebiten.Termination) {
			stop()
			g.Wait()
			return fmt.Errorf("window: %w", err)
		}
	}

	// 12. Shutdown: stop workers before deferred scene teardown
	log.Info("shutting down", zap.Uint64("frames", runner.Frames()))
	stop()
	worker.Close()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("background worker", zap.Error(err))
	}
	if ledger != nil {
		if err := ledger.Finish(); err != nil {
			log.Error("close match", zap.Error(err))
		}
	}
	return nil
}

// runHeadless drives the runner from a ticker until the context ends, a quit
// is polled, or the frame limit is reached.
func runHeadless(ctx context.Context, runner *coresys.Runner, in *system.InputSystem, cfg config.WindowConfig, log *zap.Logger) {
	ticker := time.NewTicker(cfg.TickRate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return
		case <-ticker.C:
			runner.Tick(cfg.TickRate)
			if in.Quit() {
				return
			}
			if cfg.MaxTicks > 0 && runner.Frames() >= uint64(cfg.MaxTicks) {
				log.Info("frame limit reached", zap.Int("max_ticks", cfg.MaxTicks))
				return
			}
		}
	}
}

// windSource prefers the wind_direction hook and falls back to the configured
// veering wind.
func windSource(cfg config.WindConfig, engine *scripting.Engine) gameplay.WindSource {
	veer := gameplay.VeeringWind{Direction: cfg.Direction, VeerRate: cfg.VeerRate}
	if cfg.Script && engine != nil && engine.HasHook("wind_direction") {
		return scripting.Wind{Engine: engine, Fallback: veer}
	}
	return veer
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
