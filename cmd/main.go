package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/reactordj/cache"
	"github.com/xeptore/reactordj/catalog"
	"github.com/xeptore/reactordj/config"
	"github.com/xeptore/reactordj/constant"
	"github.com/xeptore/reactordj/errutil"
	"github.com/xeptore/reactordj/log"
	"github.com/xeptore/reactordj/player"
)

const (
	flagConfigFilePath = "config"
	flagErrorFormat    = "error-format"
	flagFilter         = "filter"
	flagJSON           = "json"
	flagHistoryFile    = "history"
	flagListenAddr     = "listen"
)

const (
	errorFormatText = "text"
	errorFormatYAML = "yaml"
)

// errReported marks a failure that was already written out for the user.
var errReported = errors.New("error was reported")

func main() {
	logger := log.NewPretty(os.Stderr).Level(zerolog.TraceLevel)
	if err := godotenv.Load(); nil != err {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn().Msg(".env file was not found")
		} else {
			logger.Fatal().Err(err).Msg("Failed to load .env file")
		}
	}

	configFlag := &cli.StringFlag{ //nolint:exhaustruct
		Name:     flagConfigFilePath,
		Aliases:  []string{"c"},
		Usage:    "Config file path. The CONFIG environment variable may hold the config instead",
		Required: false,
	}
	errorFormatFlag := &cli.StringFlag{ //nolint:exhaustruct
		Name:  flagErrorFormat,
		Usage: "How to print catalog load failures: text or yaml",
		Value: errorFormatText,
	}

	//nolint:exhaustruct
	app := &cli.App{
		Name:     "reactordj",
		Version:  constant.Version,
		Compiled: constant.CompileTime,
		Suggest:  true,
		Usage:    "Browse and play the published projects catalog",
		Commands: []*cli.Command{
			//nolint:exhaustruct
			{
				Name:    "catalog",
				Aliases: []string{"ls"},
				Usage:   "Fetch the catalog and print its playable tracks",
				Action:  runCatalog,
				Flags: []cli.Flag{
					configFlag,
					errorFormatFlag,
					//nolint:exhaustruct
					&cli.StringFlag{
						Name:    flagFilter,
						Aliases: []string{"f"},
						Usage:   "Only print tracks whose title or creator contains this text",
					},
					//nolint:exhaustruct
					&cli.BoolFlag{
						Name:  flagJSON,
						Usage: "Print tracks as JSON",
					},
				},
			},
			//nolint:exhaustruct
			{
				Name:    "play",
				Aliases: []string{"p"},
				Usage:   "Start an interactive playback session",
				Action:  runPlay,
				Flags: []cli.Flag{
					configFlag,
					errorFormatFlag,
					//nolint:exhaustruct
					&cli.StringFlag{
						Name:  flagHistoryFile,
						Usage: "Command history file",
					},
				},
			},
			//nolint:exhaustruct
			{
				Name:    "serve",
				Aliases: []string{"s"},
				Usage:   "Serve a playback session over HTTP and websocket",
				Action:  runServe,
				Flags: []cli.Flag{
					configFlag,
					//nolint:exhaustruct
					&cli.StringFlag{
						Name:    flagListenAddr,
						Aliases: []string{"l"},
						Usage:   "Listen address, overrides listen_addr of the config",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); nil != err {
		switch {
		case errors.Is(err, context.Canceled):
			logger.Trace().Msg("Application was canceled")
			return
		case errors.Is(err, errReported):
			os.Exit(1)
		}
		if flawErr := new(flaw.Flaw); errors.As(err, &flawErr) {
			logger.Fatal().Func(log.Flaw(err)).Msg("Application exited with flaw")
			return
		}
		logger.Fatal().Err(err).Msg("Application exited with error")
	}
}

// app holds what every command builds from the config.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	cache   *cache.Cache
	loader  *catalog.Loader
	source  *cache.CatalogSource
	tracker *catalog.Tracker
}

func newApp(cliCtx *cli.Context, logOut io.Writer) (*app, error) {
	logger := log.NewPretty(logOut).Level(zerolog.InfoLevel)
	cfgEnv := os.Getenv("CONFIG")
	cfgFilePath := cliCtx.String(flagConfigFilePath)

	var cfg *config.Config
	switch {
	case cfgFilePath != "" && cfgEnv != "":
		return nil, errors.New("config file path and config environment variable are both set. specify only one")
	case cfgFilePath == "" && cfgEnv == "":
		return nil, errors.New("config file path and config environment variable are both empty. specify one")
	case cfgFilePath != "":
		logger.Debug().Str("config_file_path", cfgFilePath).Msg("Loading config from file")
		c, err := config.FromFile(cfgFilePath)
		if nil != err {
			return nil, fmt.Errorf("failed to load config file: %v", err)
		}
		cfg = c
	default:
		logger.Debug().Msg("Loading config from environment variable")
		c, err := config.FromString(cfgEnv)
		if nil != err {
			return nil, fmt.Errorf("failed to load config from environment variable: %v", err)
		}
		cfg = c
	}

	if format := cliCtx.String(flagErrorFormat); format != "" && format != errorFormatText && format != errorFormatYAML {
		return nil, fmt.Errorf("unsupported error format %q", format)
	}

	logger = log.New(logOut, cfg.LogFormat, cfg.Level())
	c := cache.New()
	loader := catalog.NewLoader(cfg.CatalogURL, cfg.RequestTimeout, logger)
	source := cache.NewCatalogSource(loader, cfg.CatalogURL, cfg.CatalogCacheTTL, &c.Catalogs)
	return &app{
		cfg:     cfg,
		logger:  logger,
		cache:   c,
		loader:  loader,
		source:  source,
		tracker: catalog.NewTracker(source),
	}, nil
}

func (a *app) playerOptions(onChange func(player.Snapshot)) player.Options {
	return player.Options{
		Volume:      a.cfg.InitialVolume,
		AutoAdvance: a.cfg.AutoAdvance,
		OnChange:    onChange,
	}
}

// reload fetches a fresh catalog past the cache and hands it to s. On failure
// s keeps its current catalog.
func (a *app) reload(ctx context.Context, s *player.Session) error {
	a.source.Invalidate()
	c, err := a.tracker.Load(ctx)
	if nil != err {
		return err
	}
	s.Replace(c)
	return nil
}

// checkLoadError passes context errors through and rejects anything that is
// not a catalog failure.
func checkLoadError(ctx context.Context, err error) error {
	var (
		fetchErr  *catalog.FetchError
		decodeErr *catalog.DecodeError
	)
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return context.Canceled
	case errors.As(err, &fetchErr), errors.As(err, &decodeErr):
		return err
	case errutil.IsFlaw(err):
		return err
	default:
		panic(errutil.UnknownError(err))
	}
}

// reportError writes err for the user in the requested format.
func reportError(w io.Writer, format string, err error) {
	if format == errorFormatYAML {
		out, yamlErr := errutil.FlawToYAML(err)
		if nil == yamlErr {
			_, _ = w.Write(out)
			return
		}
	}
	_, _ = fmt.Fprintf(w, "error: %v\n", err)
}
