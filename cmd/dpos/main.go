// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/dpos/api"
	"github.com/vechain/dpos/builtin/staker"
	"github.com/vechain/dpos/log"
	"github.com/vechain/dpos/metrics"
	"github.com/vechain/dpos/session"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "dpos")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "dpos",
		Usage:     "Delegated proof-of-stake ledger node",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			genesisFlag,
			dataDirFlag,
			inMemoryFlag,
			cacheFlag,
			scriptFlag,
			apiAddrFlag,
			apiCorsFlag,
			enableAPILogsFlag,
			pprofFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			sessionPeriodFlag,
			verbosityFlag,
			verbosityStakerFlag,
			jsonLogsFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:  "dump",
				Usage: "Print the stashes, delegations and bounds of the ledger",
				Flags: []cli.Flag{
					genesisFlag,
					dataDirFlag,
					inMemoryFlag,
					cacheFlag,
					verbosityFlag,
					jsonLogsFlag,
				},
				Action: dumpAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	initLogger(ctx)
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	gene, err := selectGenesis(ctx)
	if err != nil {
		return err
	}
	db, instanceDir, err := openDB(ctx, gene)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing database..."); db.Close() }()

	stk, ledger, err := buildLedgers(ctx, gene, db)
	if err != nil {
		return err
	}
	defer stk.Close()

	events := make(chan *staker.Event, 16)
	sub := stk.SubscribeEvents(events)
	defer sub.Unsubscribe()
	go logEvents(events, sub.Err())

	driver := session.NewDriver(stk)
	if err := driver.Init(); err != nil {
		return errors.WithMessage(err, "init session")
	}

	if path := ctx.String(scriptFlag.Name); path != "" {
		script, err := LoadScript(path)
		if err != nil {
			return err
		}
		results := newReplayer(stk, ledger, driver).Replay(script)
		logger.Info("script replayed", "steps", len(results), "failed", countFailed(results))
	}

	apiAddr := ctx.String(apiAddrFlag.Name)
	metricsOn := ctx.Bool(enableMetricsFlag.Name)
	printStartupMessage(instanceDir, driver, apiAddr)
	if apiAddr == "" && !metricsOn {
		return nil
	}

	exitCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(exitCtx)
	if apiAddr != "" {
		handler, closeSubs := api.New(stk, driver, api.Options{
			AllowedOrigins:  ctx.String(apiCorsFlag.Name),
			PprofOn:         ctx.Bool(pprofFlag.Name),
			EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
			EnableMetrics:   metricsOn,
		})
		g.Go(func() error {
			<-gctx.Done()
			closeSubs()
			return nil
		})
		serve(gctx, g, "API", apiAddr, handler)
	}
	if metricsOn {
		serve(gctx, g, "metrics", ctx.String(metricsAddrFlag.Name), metrics.HTTPHandler())
	}
	if period := ctx.Duration(sessionPeriodFlag.Name); period > 0 {
		g.Go(func() error {
			driver.Run(gctx, period)
			return nil
		})
	}

	err = g.Wait()
	if commitErr := stk.Commit(); commitErr != nil {
		logger.Warn("failed to commit on exit", "error", commitErr)
	}
	return err
}

func logEvents(ch <-chan *staker.Event, errCh <-chan error) {
	for {
		select {
		case ev := <-ch:
			logger.Debug("staker event", "event", ev)
		case <-errCh:
			return
		}
	}
}

func countFailed(results []StepResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
