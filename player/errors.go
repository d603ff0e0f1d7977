package player

import "fmt"

// PlaybackError reports that the resource rejected or failed the track it
// was loaded with.
type PlaybackError struct {
	TrackID  string
	AudioURL string
	Err      error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("playback of track %s failed: %v", e.TrackID, e.Err)
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}
