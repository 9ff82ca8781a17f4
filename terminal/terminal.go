// Package terminal reads commands from the user and hands them to a session.
package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/derekparker/trie"
	"github.com/go-delve/liner"

	"memhack/session"
)

const prompt = "(memhack) "

// Term is the read-eval loop of a session.
type Term struct {
	sess *session.Session
	out  io.Writer

	// line is nil when input is not a terminal; in is used instead.
	line *liner.State
	in   *bufio.Scanner

	historyFile string
	names       *trie.Trie
}

// New returns a Term reading from a line editor.
func New(sess *session.Session, out io.Writer, historyFile string) *Term {
	t := newTerm(sess, out)
	t.line = liner.NewLiner()
	t.historyFile = historyFile
	return t
}

// NewPiped returns a Term reading lines from in without editing or history.
func NewPiped(sess *session.Session, in io.Reader, out io.Writer) *Term {
	t := newTerm(sess, out)
	t.in = bufio.NewScanner(in)
	return t
}

func newTerm(sess *session.Session, out io.Writer) *Term {
	names := trie.New()
	for _, name := range session.CommandNames() {
		names.Add(name, nil)
	}
	return &Term{sess: sess, out: out, names: names}
}

// Complete returns the command names starting with line.
func (t *Term) Complete(line string) []string {
	if strings.ContainsAny(line, " \t") {
		return nil
	}
	return t.names.PrefixSearch(strings.ToLower(line))
}

// Close saves the history and returns the terminal to its previous mode.
func (t *Term) Close() {
	if t.line == nil {
		return
	}
	if t.historyFile != "" {
		if f, err := os.Create(t.historyFile); err != nil {
			fmt.Fprintf(os.Stderr, "Unable to save history: %v\n", err)
		} else {
			t.line.WriteHistory(f)
			f.Close()
		}
	}
	t.line.Close()
}

func (t *Term) loadHistory() {
	if t.line == nil || t.historyFile == "" {
		return
	}
	f, err := os.Open(t.historyFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Unable to open history file: %v\n", err)
		}
		return
	}
	t.line.ReadHistory(f)
	f.Close()
}

func (t *Term) promptForInput() (string, error) {
	if t.line == nil {
		if !t.in.Scan() {
			if err := t.in.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return t.in.Text(), nil
	}

	l, err := t.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(l) != "" {
		t.line.AppendHistory(l)
	}
	return l, nil
}

// Run reads and executes commands until exit, end of input or a fatal
// error. Recoverable errors are printed and the loop goes on. The caller
// closes the terminal.
func (t *Term) Run() error {
	if t.line != nil {
		t.line.SetCompleter(t.Complete)
		t.loadHistory()
		fmt.Fprintln(t.out, "Type 'help' for list of commands.")
	}

	for {
		cmdstr, err := t.promptForInput()
		if err != nil {
			if err == io.EOF {
				fmt.Fprintln(t.out, "exit")
				return nil
			}
			if err == liner.ErrPromptAborted {
				continue
			}
			return fmt.Errorf("prompt for input failed: %w", err)
		}

		cmd, err := session.ParseCommand(cmdstr)
		if err != nil {
			fmt.Fprintf(t.out, "Command failed: %s\n", err)
			continue
		}

		sig, err := t.sess.Execute(cmd)
		if err != nil {
			if !session.IsRecoverable(err) {
				return err
			}
			fmt.Fprintf(t.out, "Command failed: %s\n", err)
			continue
		}

		if sig == session.Terminate {
			return nil
		}
	}
}
