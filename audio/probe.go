package audio

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/reactordj/cache"
	"github.com/xeptore/reactordj/errutil"
	"github.com/xeptore/reactordj/httputil"
	"github.com/xeptore/reactordj/log"
	"github.com/xeptore/reactordj/mathutil"
	"github.com/xeptore/reactordj/player"
)

var ErrNotLoaded = errors.New("no audio source is loaded")

// AssetError reports an audio locator that did not answer like a playable
// asset.
type AssetError struct {
	URL         string
	StatusCode  int
	ContentType string
	Err         error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("audio asset %s is not playable: %v", e.URL, e.Err)
}

func (e *AssetError) Unwrap() error {
	return e.Err
}

// Probe is a player.Resource that checks audio locators over HTTP instead of
// decoding them. A play request is acknowledged once the locator answers with
// an audio payload. It never reports a track as ended.
type Probe struct {
	client *http.Client
	events chan<- player.Event
	cache  *cache.ProbeCache
	ttl    time.Duration
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	url        string
	volume     float64
	cancelLoad context.CancelFunc
	cancelPlay context.CancelFunc
	closed     bool
}

// NewProbe builds a probe reporting to events. Successful probes are kept in
// c for ttl; a nil c disables caching.
func NewProbe(timeout time.Duration, events chan<- player.Event, c *cache.ProbeCache, ttl time.Duration, logger zerolog.Logger) *Probe {
	ctx, cancel := context.WithCancel(context.Background())
	return &Probe{
		client:     &http.Client{Timeout: timeout}, //nolint:exhaustruct
		events:     events,
		cache:      c,
		ttl:        ttl,
		logger:     logger.With().Str("module", "audio").Logger(),
		ctx:        ctx,
		cancel:     cancel,
		wg:         sync.WaitGroup{},
		mu:         sync.Mutex{},
		url:        "",
		volume:     1,
		cancelLoad: nil,
		cancelPlay: nil,
		closed:     false,
	}
}

// Load points the probe at url and checks it in the background. Only a
// failure is reported, tagged with tag.
func (p *Probe) Load(tag player.Tag, url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.stopLocked()
	p.url = url

	ctx, cancel := context.WithCancel(p.ctx)
	p.cancelLoad = cancel
	p.spawn(func() {
		if _, err := p.probe(ctx, url); nil != err {
			p.fail(ctx, tag, err)
		}
	})
}

func (p *Probe) Play(tag player.Tag) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if nil != p.cancelPlay {
		p.cancelPlay()
	}

	ctx, cancel := context.WithCancel(p.ctx)
	p.cancelPlay = cancel
	url := p.url
	if url == "" {
		p.spawn(func() { p.fail(ctx, tag, ErrNotLoaded) })
		return
	}
	p.spawn(func() {
		asset, err := p.probe(ctx, url)
		if nil != err {
			p.fail(ctx, tag, err)
			return
		}
		p.logger.
			Debug().
			Str("track_id", tag.TrackID).
			Str("content_type", asset.ContentType).
			Int64("content_length", asset.ContentLength).
			Msg("Audio asset is playable")
		p.emit(ctx, player.Event{Tag: tag, Kind: player.EventStarted, Err: nil})
	})
}

func (p *Probe) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if nil != p.cancelPlay {
		p.cancelPlay()
		p.cancelPlay = nil
	}
}

func (p *Probe) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = mathutil.Clamp(v, 0, 1)
}

func (p *Probe) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *Probe) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.url = ""
}

// Close cancels every probe in flight and waits for them to return.
func (p *Probe) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.stopLocked()
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
	return nil
}

func (p *Probe) stopLocked() {
	if nil != p.cancelLoad {
		p.cancelLoad()
		p.cancelLoad = nil
	}
	if nil != p.cancelPlay {
		p.cancelPlay()
		p.cancelPlay = nil
	}
}

func (p *Probe) spawn(fn func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		fn()
	}()
}

func (p *Probe) fail(ctx context.Context, tag player.Tag, err error) {
	if errutil.IsContext(ctx) {
		return
	}
	p.logger.Debug().Func(log.Flaw(err)).Str("track_id", tag.TrackID).Uint64("request", tag.Request).Msg("Audio probe failed")
	p.emit(ctx, player.Event{Tag: tag, Kind: player.EventFailed, Err: err})
}

func (p *Probe) emit(ctx context.Context, ev player.Event) {
	select {
	case <-ctx.Done():
	case p.events <- ev:
	}
}

func (p *Probe) probe(ctx context.Context, url string) (*cache.Asset, error) {
	if nil != p.cache {
		if asset, ok := p.cache.Get(url); ok {
			return asset, nil
		}
	}

	resp, err := p.request(ctx, http.MethodHead, url)
	if nil != err {
		return nil, err
	}
	if code := resp.StatusCode; code == http.StatusMethodNotAllowed || code == http.StatusNotImplemented {
		p.logger.Trace().Str("url", url).Int("status", code).Msg("HEAD not allowed, probing with ranged GET")
		resp, err = p.request(ctx, http.MethodGet, url)
		if nil != err {
			return nil, err
		}
	}

	asset, err := inspect(url, resp)
	if nil != err {
		return nil, err
	}
	if nil != p.cache {
		p.cache.Set(url, asset, p.ttl)
	}
	return asset, nil
}

func (p *Probe) request(ctx context.Context, method, url string) (*http.Response, error) {
	flawP := flaw.P{"url": url, "method": method}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if nil != err {
		flawP["err_debug_tree"] = errutil.Tree(err).FlawP()
		return nil, &AssetError{URL: url, StatusCode: 0, ContentType: "", Err: flaw.From(fmt.Errorf("failed to create probe request: %v", err)).Append(flawP)}
	}
	if method == http.MethodGet {
		req.Header.Set("Range", "bytes=0-0")
	}

	resp, err := p.client.Do(req)
	if nil != err {
		if errutil.IsContext(ctx) {
			return nil, ctx.Err()
		}
		flawP["err_debug_tree"] = errutil.Tree(err).FlawP()
		return nil, &AssetError{URL: url, StatusCode: 0, ContentType: "", Err: flaw.From(fmt.Errorf("failed to send probe request: %v", err)).Append(flawP)}
	}
	if closeErr := httputil.DrainAndClose(resp.Body); nil != closeErr {
		p.logger.Trace().Err(closeErr).Str("url", url).Msg("Probe response body was not closed cleanly")
	}
	return resp, nil
}

func inspect(url string, resp *http.Response) (*cache.Asset, error) {
	contentType := resp.Header.Get("Content-Type")
	flawP := flaw.P{
		"url":          url,
		"status":       resp.StatusCode,
		"content_type": contentType,
		"response":     errutil.HTTPResponseFlawPayload(resp),
	}

	if code := resp.StatusCode; code < 200 || code > 299 {
		return nil, &AssetError{URL: url, StatusCode: code, ContentType: contentType, Err: flaw.From(fmt.Errorf("unexpected status code: %d", code)).Append(flawP)}
	}
	if !isAudio(contentType) {
		return nil, &AssetError{URL: url, StatusCode: resp.StatusCode, ContentType: contentType, Err: flaw.From(fmt.Errorf("unsupported content type: %q", contentType)).Append(flawP)}
	}
	return &cache.Asset{
		URL:           url,
		ContentType:   contentType,
		ContentLength: resp.ContentLength,
	}, nil
}

func isAudio(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if nil != err {
		return false
	}
	return strings.HasPrefix(mediaType, "audio/") || mediaType == "application/octet-stream"
}
