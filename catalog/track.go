package catalog

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/reactordj/iterutil"
	"github.com/xeptore/reactordj/ptr"
)

type Track struct {
	ID                 string  `json:"id"`
	Title              string  `json:"title"`
	CreatorName        string  `json:"creator_name"`
	AudioURL           string  `json:"audio_url"`
	CoverImageURL      *string `json:"cover_image_url"`
	BackgroundImageURL *string `json:"background_image_url"`
	LikeCount          int     `json:"like_count"`
	Rating             float64 `json:"rating"`
}

func (t Track) FlawP() flaw.P {
	return flaw.P{
		"id":           t.ID,
		"title":        t.Title,
		"creator_name": t.CreatorName,
		"audio_url":    t.AudioURL,
	}
}

func (t Track) Log(e *zerolog.Event) {
	e.
		Str("track_id", t.ID).
		Str("title", t.Title).
		Str("creator_name", t.CreatorName).
		Str("audio_url", t.AudioURL).
		Str("cover_image_url", ptr.ValueOr(t.CoverImageURL, ""))
}

// Matches reports whether the title or the creator name contains text,
// ignoring case. Empty text matches every track.
func (t Track) Matches(text string) bool {
	if text == "" {
		return true
	}
	needle := strings.ToLower(text)
	return strings.Contains(strings.ToLower(t.Title), needle) ||
		strings.Contains(strings.ToLower(t.CreatorName), needle)
}

// Catalog is the ordered, read-only list of playable tracks of one load.
type Catalog struct {
	tracks []Track
}

func New(tracks []Track) *Catalog {
	return &Catalog{tracks: append([]Track(nil), tracks...)}
}

func (c *Catalog) Len() int {
	if nil == c {
		return 0
	}
	return len(c.tracks)
}

func (c *Catalog) At(i int) Track {
	return c.tracks[i]
}

func (c *Catalog) Tracks() []Track {
	if nil == c {
		return nil
	}
	return append([]Track(nil), c.tracks...)
}

// Entry is one row of a filtered view. Index always points into the
// unfiltered catalog.
type Entry struct {
	Index int   `json:"index"`
	Track Track `json:"track"`
}

// Filter derives the view of tracks matching text. It is the only mapping
// between view positions and catalog indexes.
func (c *Catalog) Filter(text string) []Entry {
	if nil == c {
		return nil
	}
	out := make([]Entry, 0, len(c.tracks))
	for i, t := range iterutil.Filter(c.tracks, func(t Track) bool { return t.Matches(text) }) {
		out = append(out, Entry{Index: i, Track: t})
	}
	return out
}

// Resolve maps a position in the view derived from text to its catalog index.
func (c *Catalog) Resolve(text string, pos int) (int, bool) {
	view := c.Filter(text)
	if pos < 0 || pos >= len(view) {
		return 0, false
	}
	return view[pos].Index, true
}
