package player

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/xeptore/reactordj/catalog"
	"github.com/xeptore/reactordj/log"
	"github.com/xeptore/reactordj/mathutil"
)

type PlayState int

const (
	StateIdle PlayState = iota
	StatePaused
	StatePlaying
	StateErrored
)

func (s PlayState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

func (s PlayState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Options struct {
	Volume      float64
	AutoAdvance bool
	// OnChange receives a snapshot after every state change. It is called
	// outside the session lock and may issue commands.
	OnChange func(Snapshot)
}

// Session owns the catalog, the active track, play state, volume and filter,
// and keeps the resource in line with them. All indexes it accepts and
// reports refer to the unfiltered catalog unless stated otherwise.
type Session struct {
	id     string
	mu     sync.Mutex
	res    Resource
	events <-chan Event
	logger zerolog.Logger

	autoAdvance bool
	onChange    func(Snapshot)

	catalog *catalog.Catalog
	active  int
	state   PlayState
	pending bool
	volume  float64
	filter  string
	lastErr error

	load    uint64
	request uint64
	version uint64
	closed  bool
}

// New creates a session over c. When c is not empty the first track is
// loaded, paused.
func New(c *catalog.Catalog, res Resource, events <-chan Event, opts Options, logger zerolog.Logger) *Session {
	id := uuid.NewString()
	s := &Session{
		id:          id,
		mu:          sync.Mutex{},
		res:         res,
		events:      events,
		logger:      logger.With().Str("module", "player").Str("session_id", id).Logger(),
		autoAdvance: opts.AutoAdvance,
		onChange:    opts.OnChange,
		catalog:     nil,
		active:      0,
		state:       StateIdle,
		pending:     false,
		volume:      initialVolume(opts.Volume),
		filter:      "",
		lastErr:     nil,
		load:        0,
		request:     0,
		version:     0,
		closed:      false,
	}
	s.mu.Lock()
	s.resetLocked(c)
	s.mu.Unlock()
	return s
}

func initialVolume(v float64) float64 {
	if math.IsNaN(v) {
		return 1
	}
	return mathutil.Clamp(v, 0, 1)
}

func (s *Session) ID() string {
	return s.id
}

// Run consumes resource events until ctx ends or the event channel is
// closed.
func (s *Session) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-s.events:
			if !ok {
				return nil
			}
			s.HandleEvent(ev)
		}
	}
}

// SelectTrack activates the track at index i of the unfiltered catalog,
// clamping i into range. Playback continues on the new track if the session
// was playing or had a play request in flight.
func (s *Session) SelectTrack(i int) {
	s.mutate("select", func() bool { return s.selectLocked(i) })
}

// SelectVisible activates the track shown at position pos of the current
// filtered view. Positions outside the view are ignored.
func (s *Session) SelectVisible(pos int) {
	s.mutate("select_visible", func() bool {
		i, ok := s.catalog.Resolve(s.filter, pos)
		if !ok {
			s.logger.Debug().Int("position", pos).Str("filter", s.filter).Msg("Ignoring selection outside of filtered view")
			return false
		}
		return s.selectLocked(i)
	})
}

// Next moves to the following track of the unfiltered catalog, wrapping
// from the last track to the first.
func (s *Session) Next() {
	s.mutate("next", func() bool { return s.stepLocked(1) })
}

// Previous moves to the preceding track of the unfiltered catalog, wrapping
// from the first track to the last.
func (s *Session) Previous() {
	s.mutate("previous", func() bool { return s.stepLocked(-1) })
}

func (s *Session) TogglePlay() {
	s.mutate("toggle_play", func() bool {
		switch {
		case s.catalog.Len() == 0:
			return false
		case s.pending:
			s.res.Pause()
			s.pending = false
		case s.state == StatePlaying:
			s.res.Pause()
			s.state = StatePaused
		default:
			s.playLocked()
		}
		return true
	})
}

// SetVolume clamps v into [0, 1], applies it to the live resource and keeps
// it for tracks loaded later. NaN is ignored.
func (s *Session) SetVolume(v float64) {
	s.mutate("set_volume", func() bool {
		if s.catalog.Len() == 0 || math.IsNaN(v) {
			return false
		}
		s.volume = mathutil.Clamp(v, 0, 1)
		s.res.SetVolume(s.volume)
		return true
	})
}

// SetFilter changes the text the filtered view is derived from. The active
// track and the resource are left alone.
func (s *Session) SetFilter(text string) {
	s.mutate("set_filter", func() bool {
		if s.filter == text {
			return false
		}
		s.filter = text
		return true
	})
}

// Replace swaps in a freshly loaded catalog and resets playback to its first
// track. Volume and filter text are kept.
func (s *Session) Replace(c *catalog.Catalog) {
	s.mutate("replace", func() bool {
		s.resetLocked(c)
		return true
	})
}

// HandleEvent applies a resource outcome. Outcomes tagged for a load or a
// play request that is no longer current are discarded.
func (s *Session) HandleEvent(ev Event) {
	s.mutate("event", func() bool { return s.handleLocked(ev) })
}

// Close stops and releases the resource. Commands issued afterwards are
// ignored.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.pending = false
	s.res.Stop()
	s.logger.Debug().Msg("Session closed")
	return s.res.Close()
}

func (s *Session) mutate(op string, fn func() bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug().Str("op", op).Msg("Ignoring command on closed session")
		return
	}
	if !fn() {
		s.mu.Unlock()
		return
	}
	s.version++
	s.logger.Trace().Str("op", op).Func(s.logStateLocked).Msg("Session state changed")
	notify := s.onChange
	var snap Snapshot
	if nil != notify {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if nil != notify {
		notify(snap)
	}
}

func (s *Session) resetLocked(c *catalog.Catalog) {
	s.res.Stop()
	s.catalog = c
	s.active = 0
	s.pending = false
	s.lastErr = nil
	s.load++
	if c.Len() == 0 {
		s.state = StateIdle
		s.logger.Info().Msg("Session has no playable tracks")
		return
	}
	s.state = StatePaused
	s.engageLocked()
	s.logger.Info().Int("tracks", c.Len()).Msg("Session catalog ready")
}

func (s *Session) stepLocked(delta int) bool {
	n := s.catalog.Len()
	if n == 0 {
		return false
	}
	return s.selectLocked(mathutil.Wrap(s.active+delta, n))
}

func (s *Session) selectLocked(i int) bool {
	n := s.catalog.Len()
	if n == 0 {
		return false
	}
	resume := s.state == StatePlaying || s.pending

	s.res.Stop()
	s.active = mathutil.Clamp(i, 0, n-1)
	s.state = StatePaused
	s.pending = false
	s.lastErr = nil
	s.load++
	s.engageLocked()

	if resume {
		s.playLocked()
	}
	return true
}

func (s *Session) engageLocked() {
	t := s.catalog.At(s.active)
	s.res.Load(Tag{TrackID: t.ID, Load: s.load, Request: 0}, t.AudioURL)
	s.res.SetVolume(s.volume)
}

func (s *Session) playLocked() {
	s.request++
	s.pending = true
	s.res.Play(Tag{TrackID: s.catalog.At(s.active).ID, Load: s.load, Request: s.request})
}

func (s *Session) handleLocked(ev Event) bool {
	if s.catalog.Len() == 0 {
		s.logDiscarded(ev, "no active track")
		return false
	}
	active := s.catalog.At(s.active)
	if ev.Tag.Load != s.load || ev.Tag.TrackID != active.ID {
		s.logDiscarded(ev, "superseded load")
		return false
	}

	switch ev.Kind {
	case EventStarted:
		if !s.pending || ev.Tag.Request != s.request {
			s.logDiscarded(ev, "no matching play request")
			return false
		}
		s.pending = false
		s.state = StatePlaying
		s.lastErr = nil
		return true
	case EventFailed:
		if ev.Tag.Request != 0 && (!s.pending || ev.Tag.Request != s.request) {
			s.logDiscarded(ev, "no matching play request")
			return false
		}
		cause := ev.Err
		if nil == cause {
			cause = errors.New("resource reported failure without a reason")
		}
		s.pending = false
		s.state = StateErrored
		s.lastErr = &PlaybackError{TrackID: active.ID, AudioURL: active.AudioURL, Err: cause}
		s.logger.Warn().Func(log.Flaw(s.lastErr)).Str("track_id", active.ID).Msg("Playback failed")
		return true
	case EventEnded:
		if s.state != StatePlaying {
			s.logDiscarded(ev, "track is not playing")
			return false
		}
		if s.autoAdvance {
			return s.stepLocked(1)
		}
		s.state = StatePaused
		return true
	default:
		s.logDiscarded(ev, "unknown event kind")
		return false
	}
}

func (s *Session) logDiscarded(ev Event, reason string) {
	s.logger.
		Debug().
		Str("event", ev.Kind.String()).
		Str("track_id", ev.Tag.TrackID).
		Uint64("load", ev.Tag.Load).
		Uint64("request", ev.Tag.Request).
		Str("reason", reason).
		Msg("Discarding resource event")
}

func (s *Session) logStateLocked(e *zerolog.Event) {
	e.
		Int("active_index", s.activeIndexLocked()).
		Str("play_state", s.state.String()).
		Bool("pending", s.pending).
		Float64("volume", s.volume).
		Str("filter", s.filter).
		Uint64("version", s.version)
}

func (s *Session) activeIndexLocked() int {
	if s.catalog.Len() == 0 {
		return -1
	}
	return s.active
}
