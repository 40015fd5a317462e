// Command bridge runs the real-time telemetry bridge: it decodes unit
// position reports off a UDP socket, filters and renders them as
// situational-awareness XML, and fans the result out to WebSocket clients
// subscribed to the "UNITS" topic.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "go.uber.org/automaxprocs"

	"github.com/daxtonb/jtac-bridge/internal/assembly"
	"github.com/daxtonb/jtac-bridge/internal/config"
	"github.com/daxtonb/jtac-bridge/internal/hub"
	"github.com/daxtonb/jtac-bridge/internal/ingest"
	"github.com/daxtonb/jtac-bridge/internal/metrics"
	"github.com/daxtonb/jtac-bridge/internal/telemetry"
)

func main() {
	var (
		coalitionFlag uint
		unitTypeFlag  uint
	)
	flag.UintVar(&coalitionFlag, "coalition-flag", 7, "bitmask of coalitions to forward (1=NEUTRAL 2=REDFOR 4=BLUFOR)")
	flag.UintVar(&unitTypeFlag, "unit-type-flag", 7, "bitmask of unit types to forward (1=GROUND 2=AIR 4=SEA)")
	flag.Parse()

	bootstrapLogger := telemetry.NewLogger(telemetry.LoggerConfig{Level: "info", Format: "json"})

	cfg, err := config.Load(&bootstrapLogger)
	if err != nil {
		bootstrapLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := telemetry.NewLogger(telemetry.LoggerConfig{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger.Info().Int("gomaxprocs", runtime.GOMAXPROCS(0)).Msg("starting jtac-bridge")
	cfg.LogFields(logger)

	userCfg := config.UserConfig{
		CoalitionFlag: uint8(coalitionFlag),
		UnitTypeFlag:  uint8(unitTypeFlag),
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	sampler, err := metrics.NewSystemSampler(m, cfg.MetricsInterval)
	if err != nil {
		logger.Warn().Err(err).Msg("system sampler unavailable, continuing without process metrics")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := hub.New(cfg.Addr, logger, m, cfg.BusCapacity,
		hub.WithMaxClients(cfg.MaxClients),
		hub.WithClientQueueSize(cfg.ClientQueueSize),
		hub.WithClientRateLimit(cfg.ClientBurst, cfg.ClientRatePerSec),
		hub.WithMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
	)

	pipeline := assembly.New(userCfg, h, logger, m)
	listener := ingest.New(cfg.DatagramAddr, logger, ingest.WithRateLimit(cfg.IngestBurst, cfg.IngestRatePerSec))

	go func() {
		if err := listener.Listen(ctx, pipeline.Handle); err != nil {
			logger.Error().Err(err).Msg("datagram listener exited")
			cancel()
		}
	}()

	if sampler != nil {
		go sampler.Run(ctx)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		logger.Info().Msg("shutdown signal received")
		cancel()
	}()

	if err := h.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("hub exited with error")
		os.Exit(1)
	}

	logger.Info().Msg("jtac-bridge stopped")
}
