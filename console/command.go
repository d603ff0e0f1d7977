package console

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

var (
	ErrEmptyLine       = errors.New("empty command line")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrInvalidArgument = errors.New("invalid argument")
)

type Kind int

const (
	KindList Kind = iota + 1
	KindSelect
	KindPick
	KindNext
	KindPrevious
	KindToggle
	KindVolume
	KindFilter
	KindStatus
	KindReload
	KindHelp
	KindQuit
)

// Command is a parsed console line. Index is zero-based; users type
// one-based numbers.
type Command struct {
	Kind   Kind
	Index  int
	Volume float64
	Text   string
}

type definition struct {
	names []string
	usage string
	kind  Kind
	parse func(cmd *Command, args []string) error
}

var commands = []definition{
	{names: []string{"list", "ls"}, usage: "list                 show tracks matching the filter", kind: KindList, parse: noArgs},
	{names: []string{"select", "s"}, usage: "select <n>           play catalog track number n", kind: KindSelect, parse: parseIndex},
	{names: []string{"pick"}, usage: "pick <n>             play the n-th track of the filtered list", kind: KindPick, parse: parseIndex},
	{names: []string{"next", "n"}, usage: "next                 move to the following track", kind: KindNext, parse: noArgs},
	{names: []string{"prev", "previous", "p"}, usage: "prev                 move to the preceding track", kind: KindPrevious, parse: noArgs},
	{names: []string{"toggle", "t", "play", "pause"}, usage: "toggle               play or pause", kind: KindToggle, parse: noArgs},
	{names: []string{"volume", "vol", "v"}, usage: "volume <0..1|0..100%> set the volume", kind: KindVolume, parse: parseVolume},
	{names: []string{"filter", "f"}, usage: "filter [text]        filter by title or creator, empty clears", kind: KindFilter, parse: parseText},
	{names: []string{"status", "st"}, usage: "status               show what is playing", kind: KindStatus, parse: noArgs},
	{names: []string{"reload", "r"}, usage: "reload               fetch the catalog again", kind: KindReload, parse: noArgs},
	{names: []string{"help", "h", "?"}, usage: "help                 show this help", kind: KindHelp, parse: noArgs},
	{names: []string{"quit", "q", "exit"}, usage: "quit                 leave", kind: KindQuit, parse: noArgs},
}

// Parse reads one console line.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrEmptyLine //nolint:exhaustruct
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	for _, s := range commands {
		for _, n := range s.names {
			if n != name {
				continue
			}
			cmd := Command{Kind: s.kind, Index: 0, Volume: 0, Text: ""}
			if err := s.parse(&cmd, args); nil != err {
				return Command{}, fmt.Errorf("%s: %w", name, err) //nolint:exhaustruct
			}
			return cmd, nil
		}
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name) //nolint:exhaustruct
}

func noArgs(_ *Command, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: takes no arguments", ErrInvalidArgument)
	}
	return nil
}

func parseIndex(cmd *Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: expected a track number", ErrInvalidArgument)
	}
	n, err := strconv.Atoi(args[0])
	if nil != err {
		return fmt.Errorf("%w: %q is not a number", ErrInvalidArgument, args[0])
	}
	cmd.Index = n - 1
	return nil
}

func parseVolume(cmd *Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: expected a volume", ErrInvalidArgument)
	}
	raw, percent := strings.CutSuffix(args[0], "%")
	v, err := strconv.ParseFloat(raw, 64)
	if nil != err || math.IsNaN(v) {
		return fmt.Errorf("%w: %q is not a volume", ErrInvalidArgument, args[0])
	}
	if percent {
		v /= 100
	}
	cmd.Volume = v
	return nil
}

func parseText(cmd *Command, args []string) error {
	cmd.Text = strings.Join(args, " ")
	return nil
}

func names() []string {
	return lo.Map(commands, func(s definition, _ int) string { return s.names[0] })
}
