package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gopkg.in/natefinch/lumberjack.v2"

	"brandchain/config"
	"brandchain/core/identifier"
	"brandchain/native/brand"
	"brandchain/native/common"
	"brandchain/native/currency"
	"brandchain/native/loyalty"
	"brandchain/native/membership"
	"brandchain/observability"
	"brandchain/observability/logging"
	"brandchain/observability/metrics"
	"brandchain/state"
	"brandchain/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	var logOut io.Writer
	if cfg.LogPath != "" {
		logOut = &lumberjack.Logger{
			Filename:   cfg.LogPath,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			MaxAge:     cfg.LogMaxAgeDays,
			Compress:   true,
		}
	}
	logger := logging.Setup("sweeperd", cfg.Environment, logOut)

	db, err := openDatabase(cfg)
	if err != nil {
		panic(fmt.Sprintf("failed to open database: %v", err))
	}
	defer db.Close()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(cfg.MetricsAddress, mux); err != nil {
			logger.Error("Metrics server stopped", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mgr := state.NewManager(db)
	bank := currency.NewMemoryLedger(nil)
	ids := identifier.New(rand.Reader)
	depositRate := new(big.Int).SetUint64(cfg.DepositPerByte)
	pauses := newPauseSet(cfg.PausedModules)

	interval := time.Duration(cfg.SweepIntervalSeconds) * time.Second
	logger.Info("Sweeper started",
		slog.String("backend", cfg.Backend),
		slog.String("data_dir", cfg.DataDir),
		slog.Duration("interval", interval),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Sweeper shutting down")
			return
		case <-ticker.C:
			runSweep(mgr, bank, ids, depositRate, pauses, logger)
		}
	}
}

// pauseSet is a static pause view built from configuration.
type pauseSet map[string]struct{}

func newPauseSet(modules []string) pauseSet {
	set := make(pauseSet, len(modules))
	for _, module := range modules {
		set[module] = struct{}{}
	}
	return set
}

func (p pauseSet) IsPaused(module string) bool {
	_, ok := p[module]
	return ok
}

func runSweep(mgr *state.Manager, bank interface {
	currency.Ledger
	state.Snapshotter
}, ids membership.IDSource, depositRate *big.Int, pauses common.PauseView, logger *slog.Logger) {
	start := time.Now()
	returned := 0
	err := mgr.Apply(bank, func(tx *state.Transaction) error {
		registry := brand.NewRegistry(tx)
		registry.SetPauses(pauses)
		credits := loyalty.NewEngine(tx, registry, bank)
		credits.SetPauses(pauses)
		market := membership.NewEngine(tx, registry, bank, credits, ids)
		market.SetEmitter(observability.NewMeteredEmitter(nil))
		market.SetDepositPerByte(depositRate)
		market.SetPauses(pauses)

		n, sweepErr := market.SweepExpired()
		returned = n
		return sweepErr
	})
	elapsed := time.Since(start)
	metrics.Sweeper().ObserveTick(returned, elapsed.Seconds(), err)
	observability.ModuleMetrics().Observe("membership", "sweep_expired", elapsed, err)
	if err != nil {
		logger.Error("Sweep pass failed", slog.Any("error", err))
		return
	}
	metrics.Sweeper().SetLastTick(time.Now().Unix())
	if returned > 0 {
		logger.Info("Returned overdue assets", slog.Int("count", returned))
	}
}

func openDatabase(cfg *config.Config) (storage.Database, error) {
	switch cfg.Backend {
	case config.BackendLevelDB:
		return storage.NewLevelDB(cfg.DataDir)
	case config.BackendBolt:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, err
		}
		return storage.NewBoltDB(filepath.Join(cfg.DataDir, "brandchain.db"))
	case config.BackendMemory:
		return storage.NewMemDB(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
