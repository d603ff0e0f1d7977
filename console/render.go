package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"

	"github.com/xeptore/reactordj/catalog"
	"github.com/xeptore/reactordj/player"
)

// RenderList writes the filtered view, numbered by position, with the
// catalog number of each track and a marker on the active one.
func RenderList(w io.Writer, snap player.Snapshot) error {
	if len(snap.Tracks) == 0 {
		_, err := fmt.Fprintln(w, "No playable tracks.")
		return err
	}
	if len(snap.FilteredView) == 0 {
		_, err := fmt.Fprintf(w, "No tracks match %q.\n", snap.FilterText)
		return err
	}
	lines := lo.Map(snap.FilteredView, func(e catalog.Entry, pos int) string {
		marker := lo.Ternary(e.Index == snap.ActiveIndex, ">", " ")
		return fmt.Sprintf("%s %3d. [#%d] %s - %s", marker, pos+1, e.Index+1, e.Track.Title, e.Track.CreatorName)
	})
	if snap.FilterText != "" {
		lines = append(lines, fmt.Sprintf("  (%d of %d tracks match %q)", len(snap.FilteredView), len(snap.Tracks), snap.FilterText))
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

// RenderStatus writes a one-line summary of the session.
func RenderStatus(w io.Writer, snap player.Snapshot) error {
	_, err := fmt.Fprintln(w, Status(snap))
	return err
}

func Status(snap player.Snapshot) string {
	if nil == snap.Active {
		return "[idle] nothing to play"
	}
	state := snap.PlayState.String()
	if snap.Pending {
		state = "starting"
	}
	line := fmt.Sprintf(
		"[%s] #%d %s - %s  vol %d%%",
		state,
		snap.ActiveIndex+1,
		snap.Active.Title,
		snap.Active.CreatorName,
		int(snap.Volume*100+0.5),
	)
	if snap.ErrorMessage != "" {
		line += "  error: " + snap.ErrorMessage
	}
	return line
}

func RenderHelp(w io.Writer) error {
	usages := lo.Map(commands, func(s definition, _ int) string {
		aliases := lo.Ternary(len(s.names) > 1, " (aliases: "+strings.Join(s.names[1:], ", ")+")", "")
		return "  " + s.usage + aliases
	})
	_, err := fmt.Fprintln(w, "Commands:\n"+strings.Join(usages, "\n"))
	return err
}
