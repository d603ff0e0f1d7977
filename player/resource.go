package player

import "fmt"

// Tag identifies the load, and for play acknowledgments the play request, an
// asynchronous resource outcome belongs to. Request is zero for outcomes that
// are not tied to a play request.
type Tag struct {
	TrackID string `json:"track_id"`
	Load    uint64 `json:"load"`
	Request uint64 `json:"request"`
}

type EventKind int

const (
	EventStarted EventKind = iota + 1
	EventFailed
	EventEnded
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventFailed:
		return "failed"
	case EventEnded:
		return "ended"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

type Event struct {
	Tag  Tag
	Kind EventKind
	Err  error
}

// Resource is the playable-media primitive a Session drives. Outcomes of Load
// and Play are reported asynchronously as Events on the channel the resource
// was built with; no method may block on, or send to, that channel while
// being called.
type Resource interface {
	// Load stops whatever is engaged and points the resource at url.
	Load(tag Tag, url string)
	// Play requests playback of the loaded source. The outcome is reported
	// as EventStarted or EventFailed carrying tag.
	Play(tag Tag)
	// Pause halts playback and drops interest in any pending Play.
	Pause()
	SetVolume(v float64)
	// Stop halts playback and releases the loaded source.
	Stop()
	Close() error
}
