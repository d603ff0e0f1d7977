package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"github.com/xeptore/reactordj/catalog"
)

func runCatalog(cliCtx *cli.Context) error {
	ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(cliCtx, os.Stderr)
	if nil != err {
		return err
	}
	defer a.cache.Stop()

	lc := catalog.NewLifecycle()
	a.logger.Debug().Str("url", a.loader.URL()).Str("state", lc.Status().State.String()).Msg("Loading catalog")
	res := <-catalog.LoadAsync(ctx, lc, a.source)
	if err := res.Err(); nil != err {
		if err := checkLoadError(ctx, err); errors.Is(err, context.Canceled) {
			return err
		}
		reportError(os.Stderr, cliCtx.String(flagErrorFormat), err)
		return errReported
	}

	c := res.Unwrap()
	entries := c.Filter(cliCtx.String(flagFilter))
	if cliCtx.Bool(flagJSON) {
		tracks := lo.Map(entries, func(e catalog.Entry, _ int) catalog.Track { return e.Track })
		out, err := json.MarshalIndent(tracks, "", "  ")
		if nil != err {
			return fmt.Errorf("failed to marshal tracks: %v", err)
		}
		_, err = fmt.Fprintln(os.Stdout, string(out))
		return err
	}

	for _, e := range entries {
		if _, err := fmt.Fprintf(os.Stdout, "%3d. %s - %s\n", e.Index+1, e.Track.Title, e.Track.CreatorName); nil != err {
			return err
		}
	}
	a.logger.Info().Int("tracks", c.Len()).Int("shown", len(entries)).Msg("Catalog listed")
	return nil
}
