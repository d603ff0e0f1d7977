package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/reactordj/config"
	"github.com/xeptore/reactordj/errutil"
	"github.com/xeptore/reactordj/httputil"
	"github.com/xeptore/reactordj/log"
	"github.com/xeptore/reactordj/must"
)

// Source produces a catalog. Implementations perform at most one attempt per
// call.
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
}

type Loader struct {
	url     string
	timeout time.Duration
	client  *http.Client
	logger  zerolog.Logger
}

func NewLoader(url string, timeout time.Duration, logger zerolog.Logger) *Loader {
	return &Loader{
		url:     url,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout}, //nolint:exhaustruct
		logger:  logger.With().Str("module", "catalog").Logger(),
	}
}

func (l *Loader) URL() string {
	return l.url
}

// Load fetches the project list once and returns its playable tracks.
// Transport failures and non-2xx answers are *FetchError, malformed payloads
// are *DecodeError. Cancellation of ctx is returned as is.
func (l *Loader) Load(ctx context.Context) (c *Catalog, err error) {
	flawP := flaw.P{"url": l.url, "timeout": l.timeout.String()}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if nil != err {
		if errutil.IsContext(ctx) {
			return nil, ctx.Err()
		}
		flawP["err_debug_tree"] = errutil.Tree(err).FlawP()
		return nil, &FetchError{URL: l.url, StatusCode: 0, Err: flaw.From(fmt.Errorf("failed to create catalog request: %v", err)).Append(flawP)}
	}
	req.Header.Set("Accept", "application/json")

	l.logger.Debug().Str("url", l.url).Msg("Fetching catalog")
	startedAt := time.Now()
	resp, err := l.client.Do(req)
	if nil != err {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, context.Canceled
		}
		flawP["err_debug_tree"] = errutil.Tree(err).FlawP()
		return nil, &FetchError{URL: l.url, StatusCode: 0, Err: flaw.From(fmt.Errorf("failed to send catalog request: %v", err)).Append(flawP)}
	}
	defer func() {
		if closeErr := httputil.DrainAndClose(resp.Body); nil != closeErr {
			flawP["err_debug_tree"] = errutil.Tree(closeErr).FlawP()
			closeFlaw := flaw.From(fmt.Errorf("failed to close catalog response body: %v", closeErr)).Append(flawP)
			switch {
			case nil == err:
				l.logger.Warn().Func(log.Flaw(closeFlaw)).Msg("Catalog response body was not closed cleanly")
			case errutil.IsFlaw(err):
				l.logger.Debug().Func(log.Flaw(must.BeFlaw(err).Join(closeFlaw))).Msg("Catalog response body close failed after load error")
			}
		}
	}()
	flawP["response"] = errutil.HTTPResponseFlawPayload(resp)

	if code := resp.StatusCode; code < 200 || code > 299 {
		respBytes, err := httputil.ReadOptionalResponseBody(ctx, resp, config.MaxErrorBodyBytes)
		if nil != err && errutil.IsContext(ctx) {
			return nil, ctx.Err()
		}
		flawP["response_body"] = string(respBytes)
		return nil, &FetchError{URL: l.url, StatusCode: code, Err: flaw.From(fmt.Errorf("unexpected status code: %d", code)).Append(flawP)}
	}

	respBytes, err := httputil.ReadResponseBody(ctx, resp, config.MaxCatalogBytes)
	if nil != err {
		switch {
		case errors.Is(ctx.Err(), context.Canceled):
			return nil, context.Canceled
		case errors.Is(err, httputil.ErrEmptyBody):
			return nil, &DecodeError{URL: l.url, Err: flaw.From(err).Append(flawP)}
		case errors.Is(err, context.DeadlineExceeded):
			return nil, &FetchError{URL: l.url, StatusCode: 0, Err: flaw.From(fmt.Errorf("timed out reading catalog response: %w", err)).Append(flawP)}
		case errutil.IsFlaw(err):
			return nil, &FetchError{URL: l.url, StatusCode: 0, Err: must.BeFlaw(err).Append(flawP)}
		default:
			panic(errutil.UnknownError(err))
		}
	}

	tracks, err := Decode(respBytes)
	if nil != err {
		return nil, &DecodeError{URL: l.url, Err: must.BeFlaw(err).Append(flawP)}
	}

	l.logger.
		Info().
		Int("tracks", len(tracks)).
		Dur("elapsed", time.Since(startedAt)).
		Msg("Catalog loaded")
	return New(tracks), nil
}
