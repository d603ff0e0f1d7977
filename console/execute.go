package console

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/xeptore/reactordj/player"
)

// ErrQuit is returned by Execute when the user asked to leave.
var ErrQuit = errors.New("quit requested")

// Controller is the part of a playback session the console drives.
type Controller interface {
	SelectTrack(i int)
	SelectVisible(pos int)
	Next()
	Previous()
	TogglePlay()
	SetVolume(v float64)
	SetFilter(text string)
	Snapshot() player.Snapshot
}

type Target interface {
	Controller
	// Reload fetches the catalog again and hands it to the session.
	Reload(ctx context.Context) error
}

// Execute applies cmd to t. Only views the user asked for are written to w;
// state changes are reported through the session's change callback, see
// Announcer.
func Execute(ctx context.Context, t Target, cmd Command, w io.Writer) error {
	switch cmd.Kind {
	case KindList:
		return RenderList(w, t.Snapshot())
	case KindSelect:
		t.SelectTrack(cmd.Index)
	case KindPick:
		snap := t.Snapshot()
		if cmd.Index < 0 || cmd.Index >= len(snap.FilteredView) {
			return fmt.Errorf("%w: filtered list has %d tracks", ErrInvalidArgument, len(snap.FilteredView))
		}
		t.SelectVisible(cmd.Index)
	case KindNext:
		t.Next()
	case KindPrevious:
		t.Previous()
	case KindToggle:
		t.TogglePlay()
	case KindVolume:
		t.SetVolume(cmd.Volume)
	case KindFilter:
		t.SetFilter(cmd.Text)
		return RenderList(w, t.Snapshot())
	case KindStatus:
		return RenderStatus(w, t.Snapshot())
	case KindReload:
		return t.Reload(ctx)
	case KindHelp:
		return RenderHelp(w)
	case KindQuit:
		return ErrQuit
	default:
		return fmt.Errorf("%w: kind %d", ErrUnknownCommand, cmd.Kind)
	}
	return nil
}
