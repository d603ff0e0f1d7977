package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/xeptore/reactordj/audio"
	"github.com/xeptore/reactordj/catalog"
	"github.com/xeptore/reactordj/config"
	"github.com/xeptore/reactordj/console"
	"github.com/xeptore/reactordj/log"
	"github.com/xeptore/reactordj/player"
)

// consoleTarget lets the console reload the catalog of the session it
// drives.
type consoleTarget struct {
	*player.Session
	app *app
}

func (t *consoleTarget) Reload(ctx context.Context) error {
	if err := t.app.reload(ctx, t.Session); nil != err {
		return checkLoadError(ctx, err)
	}
	return nil
}

func runPlay(cliCtx *cli.Context) error {
	ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rl, err := console.NewReadline(cliCtx.String(flagHistoryFile))
	if nil != err {
		return fmt.Errorf("failed to initialize console: %v", err)
	}
	defer rl.Close()

	a, err := newApp(cliCtx, rl.Stderr())
	if nil != err {
		return err
	}
	defer a.cache.Stop()
	logger := a.logger.With().Str("module", "play").Logger()

	fmt.Fprintln(rl.Stdout(), "Loading catalog...")
	c, err := a.tracker.Load(ctx)
	if nil != err {
		if err := checkLoadError(ctx, err); errors.Is(err, context.Canceled) {
			return err
		}
		reportError(rl.Stderr(), cliCtx.String(flagErrorFormat), err)
		fmt.Fprintln(rl.Stdout(), "Catalog is unavailable. Type reload to try again.")
		c = catalog.New(nil)
	}

	events := make(chan player.Event, config.SessionEventBuffer)
	probe := audio.NewProbe(a.cfg.ProbeTimeout, events, &a.cache.Probes, a.cfg.ProbeCacheTTL, a.logger)
	announcer := console.NewAnnouncer(rl.Stdout())
	session := player.New(c, probe, events, a.playerOptions(announcer.Announce), a.logger)
	defer func() {
		if err := session.Close(); nil != err {
			logger.Error().Func(log.Flaw(err)).Msg("Failed to close session")
		}
	}()
	logger.Debug().Str("session_id", session.ID()).Msg("Session started")

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	wg, wgCtx := errgroup.WithContext(runCtx)
	wg.Go(func() error {
		if err := session.Run(wgCtx); nil != err && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	wg.Go(func() error {
		defer stop()
		return console.Run(wgCtx, rl, &consoleTarget{Session: session, app: a}, logger)
	})
	wg.Go(func() error {
		<-wgCtx.Done()
		return rl.Close()
	})

	if err := wg.Wait(); nil != err {
		if errors.Is(ctx.Err(), context.Canceled) {
			return context.Canceled
		}
		return err
	}
	return nil
}
