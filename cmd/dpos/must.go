// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/elastic/gosigar"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/dpos/builtin/collateral"
	"github.com/vechain/dpos/builtin/staker"
	"github.com/vechain/dpos/genesis"
	"github.com/vechain/dpos/kv"
	"github.com/vechain/dpos/log"
	"github.com/vechain/dpos/lvldb"
	"github.com/vechain/dpos/session"
	"github.com/vechain/dpos/state"
)

func newLogHandler(w io.Writer, lvl slog.Level, jsonLogs bool) slog.Handler {
	if jsonLogs {
		return log.NewJSONHandler(w, lvl)
	}
	useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
	return log.NewTerminalHandler(w, lvl, useColor)
}

func initLogger(ctx *cli.Context) {
	jsonLogs := ctx.Bool(jsonLogsFlag.Name)
	lvl := log.FromLegacyLevel(int(ctx.Uint64(verbosityFlag.Name)))
	log.SetDefault(log.NewLogger(newLogHandler(os.Stderr, lvl, jsonLogs)))

	stakerLvl := lvl
	if ctx.IsSet(verbosityStakerFlag.Name) {
		stakerLvl = log.FromLegacyLevel(int(ctx.Uint64(verbosityStakerFlag.Name)))
	}
	staker.SetLogger(log.NewLogger(newLogHandler(os.Stderr, stakerLvl, jsonLogs)).With("pkg", "staker"))
}

func selectGenesis(ctx *cli.Context) (*genesis.Genesis, error) {
	path := ctx.String(genesisFlag.Name)
	if path == "" {
		logger.Info("using dev genesis")
		return genesis.Dev(), nil
	}
	gene, err := genesis.Load(path)
	if err != nil {
		return nil, errors.WithMessage(err, "load genesis")
	}
	return gene, nil
}

// openDB opens the database of the genesis instance, in memory if requested.
func openDB(ctx *cli.Context, gene *genesis.Genesis) (*lvldb.LevelDB, string, error) {
	if ctx.Bool(inMemoryFlag.Name) {
		db, err := lvldb.NewMem()
		return db, "Memory", err
	}

	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return nil, "", errors.Errorf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name)
	}
	id, err := gene.ID()
	if err != nil {
		return nil, "", err
	}
	instanceDir := filepath.Join(dataDir, fmt.Sprintf("instance-%x", id.Bytes()[24:]))
	if err := os.MkdirAll(instanceDir, 0o700); err != nil {
		return nil, "", errors.Wrapf(err, "create data dir [%v]", instanceDir)
	}

	cacheMB := normalizeCacheSize(ctx.Int(cacheFlag.Name))
	logger.Debug("cache size(MB)", "size", cacheMB)

	dir := filepath.Join(instanceDir, "main.db")
	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              cacheMB / 2,
		OpenFilesCacheCapacity: 500,
	})
	if err != nil {
		return nil, "", errors.Wrapf(err, "open database [%v]", dir)
	}
	return db, instanceDir, nil
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 16 {
		sizeMB = 16
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		logger.Warn("failed to get total mem:", "err", err)
	} else {
		// limit to 1/2 os physical ram
		limitMB := int(mem.Total / 1024 / 1024 / 2)
		if sizeMB > limitMB {
			sizeMB = limitMB
			logger.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

// stateCacheEntries sizes the committed read cache from the other half of the budget.
func stateCacheEntries(sizeMB int) int {
	return normalizeCacheSize(sizeMB) / 2 * 1024
}

// stateBucket holds contract storage, leaving the rest of the key space to other stores.
const stateBucket = kv.Bucket("s.")

func buildLedgers(ctx *cli.Context, gene *genesis.Genesis, db kv.Store) (*staker.Staker, *collateral.Ledger, error) {
	st := state.NewWithCacheSize(stateBucket.NewStore(db), stateCacheEntries(ctx.Int(cacheFlag.Name)))
	stk, ledger, err := gene.Build(st)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "build genesis")
	}
	return stk, ledger, nil
}

// serve runs an http server in g until ctx is done.
func serve(ctx context.Context, g *errgroup.Group, name, addr string, handler http.Handler) {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
	}
	g.Go(func() error {
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return errors.Wrapf(err, "listen %s addr [%v]", name, addr)
		}
		logger.Info("server started", "name", name, "url", "http://"+listener.Addr().String()+"/")
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrapf(err, "serve %s", name)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("stopping server...", "name", name)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

func printStartupMessage(instanceDir string, driver *session.Driver, apiAddr string) {
	apiURL := "disabled"
	if apiAddr != "" {
		apiURL = "http://" + apiAddr + "/"
	}
	index, validators := driver.Current()
	fmt.Printf(`Starting dpos %v
    Instance dir   [ %v ]
    Session        [ %v ]
    Validators     [ %v ]
    API portal     [ %v ]
`,
		fullVersion(),
		instanceDir,
		index,
		len(validators),
		apiURL,
	)
}
