package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"memhack/config"
	"memhack/session"
	"memhack/terminal"
)

type options struct {
	configPath   string
	maxRegions   int
	displayLimit int
	chunkSize    int
	peekSize     int
	history      string
	noColor      bool
}

func main() {
	if err := newRootCommand(&options{}).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(opts *options) *cobra.Command {
	rootCommand := &cobra.Command{
		Use:   "memhack [flags] PID|NAME",
		Short: "Search and edit the memory of a running process.",
		Long: `Attaches to a running process with ptrace and lets you search its writable
memory for a value, narrow the matches as the value changes, and overwrite
the variable once a single address remains. A process name is accepted in
place of the pid when exactly one process has that name.

Typical session:

	pause         stop the process
	lookup 100    find every address holding 100
	resume        let it run until the value changes
	pause
	lookup 95     keep the addresses now holding 95
	setup 9999    write 9999 to the remaining address`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parsePID(args[0])
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd.Flags(), opts)
			if err != nil {
				return err
			}
			return run(pid, cfg)
		},
	}

	flags := rootCommand.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config file (default is $XDG_CONFIG_HOME/memhack/config.yml).")
	flags.IntVar(&opts.maxRegions, "max-regions", 0, "Maximum number of memory regions to scan.")
	flags.IntVar(&opts.displayLimit, "display-limit", 0, "Number of candidates printed after a lookup.")
	flags.IntVar(&opts.chunkSize, "chunk-size", 0, "Bytes read at a time during the first pass.")
	flags.IntVar(&opts.peekSize, "peek-size", 0, "Default number of bytes shown by peek.")
	flags.StringVar(&opts.history, "history", "", "Line editor history file, empty to disable.")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable coloured output.")

	return rootCommand
}

// loadConfig reads the config file and applies the flags that were set.
func loadConfig(flags *pflag.FlagSet, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	if flags.Changed("max-regions") {
		cfg.MaxRegions = opts.maxRegions
	}
	if flags.Changed("display-limit") {
		cfg.DisplayLimit = opts.displayLimit
	}
	if flags.Changed("chunk-size") {
		cfg.ChunkSize = opts.chunkSize
	}
	if flags.Changed("peek-size") {
		cfg.PeekSize = opts.peekSize
	}
	if flags.Changed("history") {
		cfg.HistoryFile = opts.history
	}
	if opts.noColor {
		cfg.Color = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parsePID accepts a pid or the name of a single running process.
func parsePID(arg string) (int, error) {
	pid, err := strconv.Atoi(arg)
	if err != nil {
		return findPID(arg)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("invalid pid %q", arg)
	}
	return pid, nil
}

func run(pid int, cfg *config.Config) error {
	var out io.Writer = os.Stdout
	if isatty.IsTerminal(os.Stdout.Fd()) {
		out = colorable.NewColorableStdout()
	} else {
		cfg.Color = false
	}

	tracer, catalog, err := getProcess(pid, cfg.MaxRegions, cfg.Color)
	if err != nil {
		return err
	}
	defer tracer.Close()

	fmt.Fprintf(out, "pid: %d, %d region(s), %d bytes to scan\n", pid, catalog.Len(), catalog.TotalSize())

	sess := session.New(cfg, tracer, catalog, out)

	var term *terminal.Term
	if isatty.IsTerminal(os.Stdin.Fd()) {
		term = terminal.New(sess, out, cfg.HistoryFile)
	} else {
		term = terminal.NewPiped(sess, os.Stdin, out)
	}
	defer term.Close()

	return term.Run()
}
