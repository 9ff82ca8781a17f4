package session

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cosiner/argv"

	"memhack/process"
)

// Kind enumerates the commands a session understands.
type Kind int

const (
	KindNone Kind = iota
	KindPause
	KindResume
	KindLookup
	KindSetup
	KindExit
	KindList
	KindRegions
	KindPeek
	KindReset
	KindHelp
)

// Command is a parsed command line.
type Command struct {
	Kind Kind

	// Value is the argument of lookup and setup.
	Value int64

	// Address and Length are the arguments of peek. A zero Length means the
	// configured default.
	Address process.ProcessMemoryAddress
	Length  int

	// Topic is the optional argument of help.
	Topic string
}

// ErrUnknownCommand is returned for a command name that is not in the table.
var ErrUnknownCommand = errors.New("unknown command")

// UsageError reports a command given the wrong arguments.
type UsageError struct {
	Name  string
	Usage string
	Err   error
}

func (e *UsageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v (usage: %s)", e.Name, e.Err, e.Usage)
	}
	return fmt.Sprintf("%s: usage: %s", e.Name, e.Usage)
}

func (e *UsageError) Unwrap() error { return e.Err }

type command struct {
	aliases []string
	kind    Kind
	usage   string
	helpMsg string
}

func (c command) match(name string) bool {
	for _, v := range c.aliases {
		if v == name {
			return true
		}
	}
	return false
}

var commands = []command{
	{aliases: []string{"pause", "p"}, kind: KindPause, usage: "pause",
		helpMsg: "Stops the target process so its memory can be read and written."},
	{aliases: []string{"resume", "r"}, kind: KindResume, usage: "resume",
		helpMsg: "Detaches from the target process and lets it run."},
	{aliases: []string{"lookup", "l"}, kind: KindLookup, usage: "lookup <value>",
		helpMsg: "Searches for value, or narrows the previous results to addresses that now hold it."},
	{aliases: []string{"setup", "s"}, kind: KindSetup, usage: "setup <value>",
		helpMsg: "Writes value to the single remaining candidate."},
	{aliases: []string{"list", "ls"}, kind: KindList, usage: "list",
		helpMsg: "Prints every candidate."},
	{aliases: []string{"regions"}, kind: KindRegions, usage: "regions",
		helpMsg: "Prints the memory regions being scanned."},
	{aliases: []string{"peek", "x"}, kind: KindPeek, usage: "peek <address> [length]",
		helpMsg: "Dumps memory at address, highlighting candidates."},
	{aliases: []string{"reset"}, kind: KindReset, usage: "reset",
		helpMsg: "Drops all candidates so the next lookup starts a new search."},
	{aliases: []string{"help", "h"}, kind: KindHelp, usage: "help [command]",
		helpMsg: "Prints the help message."},
	{aliases: []string{"exit", "quit", "q"}, kind: KindExit, usage: "exit",
		helpMsg: "Ends the session without detaching."},
}

func findCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.match(name) {
			return c, true
		}
	}
	return command{}, false
}

// CommandNames returns every name and alias, sorted.
func CommandNames() []string {
	var names []string
	for _, c := range commands {
		names = append(names, c.aliases...)
	}
	sort.Strings(names)
	return names
}

// ParseCommand turns one input line into a Command. Blank lines parse to
// KindNone.
func ParseCommand(line string) (Command, error) {
	if strings.TrimSpace(line) == "" {
		return Command{Kind: KindNone}, nil
	}

	v, err := argv.Argv(line,
		func(s string) (string, error) {
			return "", fmt.Errorf("backtick not supported in '%s'", s)
		},
		nil)
	if err != nil {
		return Command{}, &UsageError{Name: "input", Usage: "<command> [args]", Err: err}
	}
	if len(v) == 0 || len(v[0]) == 0 {
		return Command{Kind: KindNone}, nil
	}
	if len(v) > 1 {
		return Command{}, &UsageError{Name: v[0][0], Usage: "<command> [args]", Err: errors.New("pipes are not supported")}
	}

	w := v[0]
	c, ok := findCommand(w[0])
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, w[0])
	}
	args := w[1:]
	usage := func(err error) error {
		return &UsageError{Name: c.aliases[0], Usage: c.usage, Err: err}
	}

	cmd := Command{Kind: c.kind}
	switch c.kind {
	case KindLookup, KindSetup:
		if len(args) != 1 {
			return Command{}, usage(nil)
		}
		cmd.Value, err = parseValue(args[0])
		if err != nil {
			return Command{}, usage(err)
		}

	case KindPeek:
		if len(args) < 1 || len(args) > 2 {
			return Command{}, usage(nil)
		}
		addr, err := strconv.ParseUint(args[0], 0, 64)
		if err != nil {
			return Command{}, usage(fmt.Errorf("bad address %q", args[0]))
		}
		cmd.Address = process.ProcessMemoryAddress(addr)
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return Command{}, usage(fmt.Errorf("bad length %q", args[1]))
			}
			cmd.Length = n
		}

	case KindHelp:
		if len(args) > 1 {
			return Command{}, usage(nil)
		}
		if len(args) == 1 {
			cmd.Topic = args[0]
		}

	default:
		if len(args) != 0 {
			return Command{}, usage(errors.New("takes no arguments"))
		}
	}

	return cmd, nil
}

// parseValue accepts decimal, or hex/octal/binary with a 0x/0o/0b prefix,
// optionally negative.
func parseValue(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("bad value %q", s)
	}
	return v, nil
}

// PrintHelp writes the command table, or the help of one command.
func PrintHelp(w io.Writer, topic string) error {
	if topic != "" {
		c, ok := findCommand(topic)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownCommand, topic)
		}
		fmt.Fprintf(w, "%s\n\n\t%s\n", c.helpMsg, c.usage)
		if len(c.aliases) > 1 {
			fmt.Fprintf(w, "\nAliases: %s\n", strings.Join(c.aliases[1:], ", "))
		}
		return nil
	}

	fmt.Fprintln(w, "The following commands are available:")
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	for _, c := range commands {
		fmt.Fprintf(tw, "    %s\t%s\n", c.usage, c.helpMsg)
	}
	tw.Flush()
	fmt.Fprintln(w, "Type help followed by a command for full documentation.")
	return nil
}
