// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/luxfi/log"
	"github.com/luxfi/nftgateway"
	"github.com/luxfi/nftgateway/backend"
	"github.com/luxfi/nftgateway/bridge"
	"github.com/luxfi/nftgateway/config"
	"github.com/luxfi/nftgateway/guard"
	"github.com/luxfi/nftgateway/ledger"
	"github.com/luxfi/nftgateway/metrics"
	"github.com/luxfi/nftgateway/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var errInvalidRelayInterval = errors.New("relay interval must be positive")

var logLevels = map[string]slog.Level{
	"trace": log.LevelTrace,
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
	"crit":  log.LevelCrit,
}

func newLogger(level string) (log.Logger, error) {
	lvl, ok := logLevels[level]
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", level)
	}
	return log.NewLoggerFromHandler(log.NewTerminalHandlerWithLevel(os.Stdout, lvl, false)), nil
}

// node is one in-memory gateway deployment together with both ends of its
// messenger channel and a counterpart on the remote end.
type node struct {
	gateway      *bridge.Gateway
	ledger       *ledger.Memory
	remoteLedger *ledger.Memory
	local        *backend.Messenger
	remote       *backend.Messenger
	registry     *prometheus.Registry
}

func newNode(ctx context.Context, cfg *config.Config, logger log.Logger) (*node, error) {
	promRegistry := prometheus.NewRegistry()

	local := backend.NewMessenger(&backend.Config{
		Address:       cfg.GetMessengerAddress(),
		ChainID:       cfg.GetChainID(),
		RemoteChainID: cfg.GetRemoteChainID(),
		FeePerGas:     cfg.GetFeePerGas(),
		MaxGasLimit:   cfg.MaxGasLimit,
		Log:           logger,
	})
	remote := backend.NewMessenger(&backend.Config{
		Address:       cfg.GetRemoteMessengerAddress(),
		ChainID:       cfg.GetRemoteChainID(),
		RemoteChainID: cfg.GetChainID(),
		FeePerGas:     cfg.GetFeePerGas(),
		MaxGasLimit:   cfg.MaxGasLimit,
		Log:           logger,
	})

	l := ledger.NewMemory()
	gw, err := bridge.New(&bridge.GatewayConfig{
		Address:     cfg.GetGatewayAddress(),
		Counterpart: cfg.GetCounterpartAddress(),
		Messenger:   local,
		Registry:    registry.New(cfg.GetOwnerAddress()),
		Ledger:      l,
		Metrics:     metrics.NewGatewayMetrics(promRegistry),
		Log:         logger,
	})
	if err != nil {
		return nil, err
	}
	l.RegisterReceiver(cfg.GetGatewayAddress(), gw)
	local.RegisterReceiver(cfg.GetGatewayAddress(), gw)

	remoteLedger := ledger.NewMemory()
	remote.RegisterReceiver(cfg.GetCounterpartAddress(), &counterpart{
		auth: guard.Authorizer{
			Messenger:   cfg.GetRemoteMessengerAddress(),
			Counterpart: cfg.GetGatewayAddress(),
		},
		messenger: remote,
		ledger:    remoteLedger,
		log:       logger,
	})

	owner := nftgateway.Call{Caller: cfg.GetOwnerAddress()}
	for localToken, remoteToken := range cfg.GetTokenMappings() {
		if err := gw.UpdateTokenMapping(ctx, owner, localToken, remoteToken); err != nil {
			return nil, fmt.Errorf("failed to seed token mapping for %s: %w", localToken, err)
		}
	}

	return &node{
		gateway:      gw,
		ledger:       l,
		remoteLedger: remoteLedger,
		local:        local,
		remote:       remote,
		registry:     promRegistry,
	}, nil
}

// relay moves queued messages across the channel in both directions until
// ctx is done. Failed deliveries stay queued and are retried on the next tick.
func (n *node) relay(ctx context.Context, interval time.Duration, logger log.Logger) error {
	if interval <= 0 {
		return fmt.Errorf("%w: %s", errInvalidRelayInterval, interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, pair := range [][2]*backend.Messenger{{n.local, n.remote}, {n.remote, n.local}} {
				relayed, err := backend.Relay(ctx, pair[0], pair[1])
				if err != nil {
					logger.Warn(
						"relay stalled",
						log.Stringer("from", pair[0].ChainID()),
						log.Stringer("to", pair[1].ChainID()),
						log.Int("relayed", relayed),
						log.Err(err),
					)
				}
			}
		}
	}
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an in-memory gateway",
		Long: `Start an in-memory gateway wired to a messenger pair and serve its metrics.

The remote end of the channel is a counterpart that mints relayed deposits on
its own ledger. serve exposes no deposit or withdrawal endpoint, so until
messages are queued by an embedding program the relay loop stays idle and the
process only serves /metrics and /health.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			interval, err := cmd.Flags().GetDuration("relay-interval")
			if err != nil {
				return err
			}
			if interval <= 0 {
				return fmt.Errorf("%w: %s", errInvalidRelayInterval, interval)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			n, err := newNode(ctx, &cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to create gateway: %w", err)
			}
			logger.Info(
				"gateway initialized",
				log.Stringer("gateway", n.gateway.Address()),
				log.Stringer("counterpart", n.gateway.Counterpart()),
				log.Stringer("chainID", cfg.GetChainID()),
			)

			srv := metrics.NewServer(cfg.MetricsPort, n.registry, logger)
			errGroup, ctx := errgroup.WithContext(ctx)
			errGroup.Go(func() error {
				logger.Info("Starting metrics server", log.Uint64("port", uint64(cfg.MetricsPort)))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			errGroup.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			errGroup.Go(func() error {
				return n.relay(ctx, interval, logger)
			})

			err = errGroup.Wait()
			logger.Info("gateway stopped")
			return err
		},
	}

	cmd.Flags().String(config.ConfigFileKey, "", "Specifies the gateway config file")
	cmd.Flags().Duration("relay-interval", time.Second, "How often queued messages are relayed")
	return cmd
}
