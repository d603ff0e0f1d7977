package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/xeptore/reactordj/log"
	"github.com/xeptore/reactordj/player"
)

const Prompt = "reactordj> "

// NewReadline builds the line editor with completion of command names.
func NewReadline(historyFile string) (*readline.Instance, error) {
	items := lo.Map(names(), func(n string, _ int) readline.PrefixCompleterInterface { return readline.PcItem(n) })
	return readline.NewEx(&readline.Config{ //nolint:exhaustruct
		Prompt:          Prompt,
		HistoryFile:     historyFile,
		AutoComplete:    readline.NewPrefixCompleter(items...),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
}

// Run reads commands from rl until the user quits, input ends, or ctx is
// canceled. Closing rl from another goroutine unblocks it.
func Run(ctx context.Context, rl *readline.Instance, t Target, logger zerolog.Logger) error {
	w := rl.Stdout()
	if err := RenderList(w, t.Snapshot()); nil != err {
		return err
	}
	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if strings.TrimSpace(line) == "" {
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			return nil
		case nil != err:
			if nil != ctx.Err() {
				return ctx.Err()
			}
			return err
		}
		if nil != ctx.Err() {
			return ctx.Err()
		}

		cmd, err := Parse(line)
		if nil != err {
			if !errors.Is(err, ErrEmptyLine) {
				fmt.Fprintf(w, "%v (type help for commands)\n", err)
			}
			continue
		}
		if err := Execute(ctx, t, cmd, w); nil != err {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			if nil != ctx.Err() {
				return ctx.Err()
			}
			logger.Debug().Func(log.Flaw(err)).Msg("Console command failed")
			fmt.Fprintf(w, "error: %v\n", err)
		}
	}
}

// Announcer prints the status line whenever it changes. Snapshots older than
// the last one seen are ignored.
type Announcer struct {
	mu      sync.Mutex
	w       io.Writer
	version uint64
	last    string
}

func NewAnnouncer(w io.Writer) *Announcer {
	return &Announcer{mu: sync.Mutex{}, w: w, version: 0, last: ""}
}

// Announce is suitable as player.Options.OnChange.
func (a *Announcer) Announce(snap player.Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if snap.Version < a.version {
		return
	}
	a.version = snap.Version
	line := Status(snap)
	if line == a.last {
		return
	}
	a.last = line
	fmt.Fprintln(a.w, line)
}
