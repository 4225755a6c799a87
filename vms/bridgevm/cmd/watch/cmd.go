// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package watch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/log"
	"github.com/luxfi/metric"

	"github.com/luxfi/ethbridge/vms/bridgevm/config"
	"github.com/luxfi/ethbridge/vms/bridgevm/ethevents"
	"github.com/luxfi/ethbridge/vms/bridgevm/metrics"
	"github.com/luxfi/ethbridge/vms/bridgevm/oracle"
)

var errOracleDisabled = errors.New("the config doesn't poll an Ethereum node")

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "watch",
		Short: "Runs the Ethereum event oracle and prints every confirmed event",
		RunE:  runFunc,
	}
	AddFlags(c.Flags())
	return c
}

func runFunc(c *cobra.Command, args []string) error {
	cfg, err := ParseFlags(c.Flags(), args)
	if err != nil {
		return err
	}
	if !cfg.Ethereum.Mode.PollsNode() {
		return fmt.Errorf("%w: mode is %q", errOracleDisabled, cfg.Ethereum.Mode)
	}

	ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, log.Root(), cfg)
}

func run(ctx context.Context, logger log.Logger, cfg *config.Config) error {
	client, err := oracle.Dial(ctx, cfg.Ethereum.OracleRPCEndpoint)
	if err != nil {
		return err
	}
	defer client.Close()

	m, err := metrics.New(metric.NewRegistry())
	if err != nil {
		return err
	}

	sender, receiver := oracle.NewChannel[ethevents.Event]()
	o := oracle.New(logger, client, sender, oracle.Config{
		MinConfirmations:   cfg.Ethereum.MinConfirmations,
		PollInterval:       cfg.Ethereum.PollInterval,
		BridgeContract:     cfg.Ethereum.BridgeContract,
		GovernanceContract: cfg.Ethereum.GovernanceContract,
	}, m)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return o.Run(ctx)
	})
	g.Go(func() error {
		defer receiver.Close()

		encoder := json.NewEncoder(os.Stdout)
		for {
			event, err := receiver.Recv(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			if err := encoder.Encode(event); err != nil {
				return err
			}
		}
	})
	return g.Wait()
}
