// inputbench runs a Lua script against the same Dinput/Dcancel functions the
// patch gives the game, so input sequences can be tried on the desktop.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edaniels/golog"
	"go.viam.com/utils"

	"gmpatch/internal/config"
	"gmpatch/internal/hotkey"
	"gmpatch/internal/input"
	"gmpatch/internal/logging"
	"gmpatch/internal/osutils"
	"gmpatch/internal/tray"
)

var (
	version    = "0.1.0"
	configPath = flag.String("config", "", "Configuration file (default: per-user config)")
	scriptPath = flag.String("script", "", "Lua script to run (default: bench.script from config)")
	dryRun     = flag.Bool("dry-run", false, "Log key events instead of sending them")
	noTray     = flag.Bool("no-tray", false, "Run the script once and exit when its input is sent")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	showVer    = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("inputbench version %s\n", version)
		return
	}

	logger := logging.New("bench", *debug)

	cfgMgr, err := loadConfig(*configPath, logger)
	if err != nil {
		logger.Warnf("Config: using defaults: %v", err)
	}
	cfg := cfgMgr.Get()
	if *scriptPath != "" {
		cfg.Bench.Script = *scriptPath
	}

	injector := &switchInjector{real: input.NewInjector(), dry: &logInjector{logger: logger}}
	injector.dryRun.Store(*dryRun)
	if !*dryRun && !osutils.IsAdmin() {
		logger.Warn("Bench: not elevated, windows of elevated processes will ignore the input")
	}

	b, err := newBench(cfg.Bench, injector, logger)
	if err != nil {
		logger.Fatalf("Bench: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	keys := hotkey.NewManager(logger)
	bindKeys(keys, cfg.Bench.EscapeHotkey, b.cancel, logger)
	cfgMgr.RegisterChangeCallback(func() {
		logger.Infow("Config: reloaded", "path", cfgMgr.Path())
		bindKeys(keys, cfgMgr.Get().Bench.EscapeHotkey, b.cancel, logger)
	})
	if err := keys.Start(); err != nil {
		logger.Warnf("Hotkey: kill switch unavailable: %v", err)
	}

	if *noTray || !cfg.Bench.ShowTray {
		b.runScript(ctx)
		b.waitIdle(ctx)
	} else {
		runTray(ctx, b, injector, cfgMgr, logger)
	}

	keys.Stop()
	b.close()
}

func runTray(ctx context.Context, b *bench, injector *switchInjector, cfgMgr *config.Manager, logger golog.Logger) {
	t := tray.New("gmpatch bench", "Input bench", nil)
	t.AddMenuItem("Run script", func() { utils.PanicCapturingGo(func() { b.runScript(ctx) }) })
	t.AddMenuItem("Cancel queued input", b.cancel)
	t.AddCheckItem("Dry run", injector.dryRun.Load(), func(on bool) {
		injector.dryRun.Store(on)
		logger.Infow("Bench: dry run", "enabled", on)
	})
	t.AddSeparator()
	t.AddMenuItem("Reload config", func() {
		if err := cfgMgr.Load(); err != nil {
			logger.Warnf("Config: reload failed: %v", err)
		}
	})
	t.AddMenuItem("Quit", t.Stop)

	utils.PanicCapturingGo(func() {
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.Ready():
		}
		b.runScript(ctx)
		for utils.SelectContextOrWait(ctx, 500*time.Millisecond) {
			t.SetStatus(b.status())
		}
		t.Stop()
	})

	t.Run()
}

func loadConfig(path string, logger golog.Logger) (*config.Manager, error) {
	var cfgMgr *config.Manager
	if path != "" {
		cfgMgr = config.NewManagerAt(path, logger)
	} else {
		var err error
		if cfgMgr, err = config.NewManager(logger); err != nil {
			return config.NewManagerAt(config.FileName, logger), err
		}
	}
	return cfgMgr, cfgMgr.Load()
}

// logInjector stands in for SendInput in dry runs.
type logInjector struct {
	logger golog.Logger
}

func (l *logInjector) SendKey(scanCode uint16, release bool) error {
	l.logger.Infow("Bench: key", "scan", fmt.Sprintf("0x%02X", scanCode), "release", release,
		"window", osutils.ForegroundWindowTitle())
	return nil
}
