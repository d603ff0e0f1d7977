package audio_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/reactordj/audio"
	"github.com/xeptore/reactordj/cache"
	"github.com/xeptore/reactordj/player"
)

func newProbe(t *testing.T, c *cache.ProbeCache) (*audio.Probe, chan player.Event) {
	t.Helper()
	events := make(chan player.Event, 8)
	p := audio.NewProbe(time.Second, events, c, time.Minute, zerolog.Nop())
	t.Cleanup(func() { require.NoError(t, p.Close()) })
	return p, events
}

func receive(t *testing.T, events <-chan player.Event) player.Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		require.FailNow(t, "timed out waiting for probe event")
		return player.Event{} //nolint:exhaustruct
	}
}

func TestProbePlay(t *testing.T) {
	t.Parallel()

	t.Run("AudioAssetStarts", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodHead, r.Method)
			w.Header().Set("Content-Type", "audio/mpeg")
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(srv.Close)

		p, events := newProbe(t, nil)
		tag := player.Tag{TrackID: "t1", Load: 1, Request: 0}
		p.Load(tag, srv.URL+"/a.mp3")
		tag.Request = 1
		p.Play(tag)

		ev := receive(t, events)
		assert.Equal(t, player.EventStarted, ev.Kind)
		assert.Equal(t, tag, ev.Tag)
		require.NoError(t, ev.Err)
	})

	t.Run("FallsBackToRangedGet", func(t *testing.T) {
		t.Parallel()

		var ranged atomic.Bool
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			ranged.Store(r.Header.Get("Range") == "bytes=0-0")
			w.Header().Set("Content-Type", "audio/ogg; codecs=vorbis")
			w.WriteHeader(http.StatusPartialContent)
			_, _ = w.Write([]byte{0})
		}))
		t.Cleanup(srv.Close)

		p, events := newProbe(t, nil)
		p.Load(player.Tag{TrackID: "t1", Load: 1, Request: 0}, srv.URL)
		p.Play(player.Tag{TrackID: "t1", Load: 1, Request: 1})

		ev := receive(t, events)
		assert.Equal(t, player.EventStarted, ev.Kind)
		assert.True(t, ranged.Load())
	})

	t.Run("MissingAssetFails", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(srv.Close)

		p, events := newProbe(t, nil)
		p.Load(player.Tag{TrackID: "t1", Load: 1, Request: 0}, srv.URL)

		ev := receive(t, events)
		assert.Equal(t, player.EventFailed, ev.Kind)
		assert.Zero(t, ev.Tag.Request)

		var assetErr *audio.AssetError
		require.ErrorAs(t, ev.Err, &assetErr)
		assert.Equal(t, http.StatusNotFound, assetErr.StatusCode)
	})

	t.Run("NonAudioContentFails", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(srv.Close)

		p, events := newProbe(t, nil)
		p.Load(player.Tag{TrackID: "t1", Load: 1, Request: 0}, srv.URL)

		ev := receive(t, events)
		assert.Equal(t, player.EventFailed, ev.Kind)
		var assetErr *audio.AssetError
		require.ErrorAs(t, ev.Err, &assetErr)
		assert.Equal(t, "text/html; charset=utf-8", assetErr.ContentType)
	})

	t.Run("NothingLoadedFails", func(t *testing.T) {
		t.Parallel()

		p, events := newProbe(t, nil)
		p.Play(player.Tag{TrackID: "t1", Load: 1, Request: 1})

		ev := receive(t, events)
		assert.Equal(t, player.EventFailed, ev.Kind)
		require.ErrorIs(t, ev.Err, audio.ErrNotLoaded)
	})

	t.Run("CachedAssetSkipsNetwork", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		c := cache.New()
		t.Cleanup(c.Stop)
		asset := &cache.Asset{URL: srv.URL, ContentType: "audio/mpeg", ContentLength: 42}
		c.Probes.Set(srv.URL, asset, time.Minute)

		p, events := newProbe(t, &c.Probes)
		p.Load(player.Tag{TrackID: "t1", Load: 1, Request: 0}, srv.URL)
		p.Play(player.Tag{TrackID: "t1", Load: 1, Request: 1})

		ev := receive(t, events)
		assert.Equal(t, player.EventStarted, ev.Kind)
		assert.Zero(t, hits.Load())
	})
}

func TestProbePause(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	events := make(chan player.Event, 8)
	p := audio.NewProbe(time.Second, events, nil, 0, zerolog.Nop())
	p.Load(player.Tag{TrackID: "t1", Load: 1, Request: 0}, srv.URL)
	p.Play(player.Tag{TrackID: "t1", Load: 1, Request: 1})
	p.Pause()
	close(gate)
	require.NoError(t, p.Close())

	select {
	case ev := <-events:
		assert.Failf(t, "unexpected event", "%s for request %d", ev.Kind, ev.Tag.Request)
	default:
	}
}

func TestProbeVolume(t *testing.T) {
	t.Parallel()

	p, _ := newProbe(t, nil)
	assert.InDelta(t, 1.0, p.Volume(), 1e-9)
	p.SetVolume(0.3)
	assert.InDelta(t, 0.3, p.Volume(), 1e-9)
	p.SetVolume(7)
	assert.InDelta(t, 1.0, p.Volume(), 1e-9)
}

func TestProbeDrivesSession(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	events := make(chan player.Event, 8)
	p := audio.NewProbe(time.Second, events, nil, 0, zerolog.Nop())
	c := catalogOf(srv.URL)
	s := player.New(c, p, events, player.Options{Volume: 1}, zerolog.Nop()) //nolint:exhaustruct
	t.Cleanup(func() { require.NoError(t, s.Close()) })

	go func() { _ = s.Run(t.Context()) }()

	s.TogglePlay()
	require.Eventually(t, func() bool {
		return s.Snapshot().PlayState == player.StatePlaying
	}, 2*time.Second, 10*time.Millisecond)
}
