package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/xeptore/reactordj/audio"
	"github.com/xeptore/reactordj/catalog"
	"github.com/xeptore/reactordj/config"
	"github.com/xeptore/reactordj/ctxutil"
	"github.com/xeptore/reactordj/httpapi"
	"github.com/xeptore/reactordj/log"
	"github.com/xeptore/reactordj/player"
)

func runServe(cliCtx *cli.Context) error {
	ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(cliCtx, os.Stderr)
	if nil != err {
		return err
	}
	defer a.cache.Stop()
	logger := a.logger.With().Str("module", "serve").Logger()

	addr := a.cfg.ListenAddr
	if v := cliCtx.String(flagListenAddr); v != "" {
		addr = v
	}

	hub := httpapi.NewHub(a.logger)
	events := make(chan player.Event, config.SessionEventBuffer)
	probe := audio.NewProbe(a.cfg.ProbeTimeout, events, &a.cache.Probes, a.cfg.ProbeCacheTTL, a.logger)
	session := player.New(catalog.New(nil), probe, events, a.playerOptions(hub.Broadcast), a.logger)
	defer func() {
		if err := session.Close(); nil != err {
			logger.Error().Func(log.Flaw(err)).Msg("Failed to close session")
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(httpapi.Options{
		Controller:    session,
		CatalogStatus: a.tracker.Status,
		Reload:        func(ctx context.Context) error { return a.reload(ctx, session) },
		Hub:           hub,
	}, a.logger)

	// Requests in flight keep their context for a grace period after a
	// shutdown signal.
	srvCtx, srvCancel := ctxutil.WithDelayedTimeout(ctx, config.ShutdownGracePeriod)
	defer srvCancel()
	srv := &http.Server{ //nolint:exhaustruct
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return srvCtx },
	}

	wg, wgCtx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		c, err := a.tracker.Load(wgCtx)
		if nil != err {
			if err := checkLoadError(wgCtx, err); errors.Is(err, context.Canceled) {
				return nil
			}
			logger.Error().Func(log.Flaw(err)).Msg("Catalog load failed")
			return nil
		}
		session.Replace(c)
		return nil
	})
	wg.Go(func() error {
		if err := session.Run(wgCtx); nil != err && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	wg.Go(func() error {
		logger.Info().Str("addr", addr).Str("session_id", session.ID()).Msg("Serving playback session")
		if err := srv.ListenAndServe(); nil != err && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve http: %v", err)
		}
		return nil
	})
	wg.Go(func() error {
		<-wgCtx.Done()
		logger.Debug().Msg("Shutting down http server")
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownGracePeriod)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); nil != err {
			logger.Warn().Err(err).Msg("Http server did not shut down cleanly")
		}
		return nil
	})

	if err := wg.Wait(); nil != err {
		return err
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return context.Canceled
	}
	return nil
}
