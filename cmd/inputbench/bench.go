package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"gmpatch/internal/bridge"
	"gmpatch/internal/config"
	"gmpatch/internal/engine"
	"gmpatch/internal/hotkey"
	"gmpatch/internal/input"
	"gmpatch/internal/luahost"
)

// bench wires a Lua host to a dispatcher through the same registration hook
// the patch installs in the game.
type bench struct {
	cfg        config.BenchConfig
	host       *luahost.Host
	dispatcher *input.Dispatcher
	logger     golog.Logger
}

func newBench(cfg config.BenchConfig, injector input.Injector, logger golog.Logger, opts ...input.Option) (*bench, error) {
	d := input.NewDispatcher(injector, logger, opts...)
	host := luahost.New(logger)
	hook := &engine.RegistrationHook{
		Original:  host.OpenLibs,
		Engine:    host,
		Worker:    d,
		Functions: bridge.New(d, logger).Functions(),
		Logger:    logger,
	}
	if err := hook.Register(0); err != nil {
		host.Close()
		d.Stop()
		return nil, errors.Wrap(err, "registering bench functions")
	}
	return &bench{cfg: cfg, host: host, dispatcher: d, logger: logger}, nil
}

func (b *bench) runScript(ctx context.Context) {
	b.logger.Infow("Bench: running script", "path", b.cfg.Script)
	if err := b.host.DoFile(ctx, b.cfg.Script); err != nil {
		b.logger.Errorw("Bench: script failed", "path", b.cfg.Script, "error", err)
	}
}

func (b *bench) cancel() {
	b.logger.Info("Bench: cancelling queued input")
	b.dispatcher.Cancel()
}

// waitIdle returns once nothing is queued and the worker is waiting, or when
// ctx ends.
func (b *bench) waitIdle(ctx context.Context) {
	for utils.SelectContextOrWait(ctx, 20*time.Millisecond) {
		if b.dispatcher.Pending() == 0 && b.dispatcher.State() == input.StateWaiting {
			return
		}
	}
}

func (b *bench) status() string {
	s := b.dispatcher.Stats()
	return fmt.Sprintf("%s, %d queued, %d sent, %d cancelled",
		b.dispatcher.State(), b.dispatcher.Pending(), s.Dispatched, s.Discarded)
}

func (b *bench) close() {
	b.dispatcher.Stop()
	b.host.Close()
	b.logger.Infow("Bench: done", "stats", b.dispatcher.Stats())
}

// switchInjector sends through real, or through dry while dry runs are on.
type switchInjector struct {
	dryRun atomic.Bool
	real   input.Injector
	dry    input.Injector
}

func (s *switchInjector) SendKey(scanCode uint16, release bool) error {
	if s.dryRun.Load() {
		return s.dry.SendKey(scanCode, release)
	}
	return s.real.SendKey(scanCode, release)
}

// bindKeys replaces every hotkey with the kill switch combo.
func bindKeys(keys *hotkey.Manager, combo string, onKill func(), logger golog.Logger) {
	keys.Clear()
	if _, err := keys.Register(combo, onKill); err != nil {
		logger.Warnf("Hotkey: %v", err)
	}
}
