package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// Console reads answers line by line and writes colored messages.
// Everything the workflow shows the user goes through a Console so tests can
// script the input and inspect the output.
type Console struct {
	in       *bufio.Reader
	out      io.Writer
	err      io.Writer
	terminal bool
}

// NewConsole creates a console over arbitrary streams (never treated as a terminal)
func NewConsole(in io.Reader, out, errOut io.Writer) *Console {
	return &Console{
		in:  bufio.NewReader(in),
		out: out,
		err: errOut,
	}
}

// NewStdConsole creates a console over the process's standard streams
func NewStdConsole() *Console {
	c := NewConsole(os.Stdin, os.Stdout, os.Stderr)
	c.terminal = term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	return c
}

// IsTerminal reports whether both stdin and stdout are attached to a terminal
func (c *Console) IsTerminal() bool {
	return c.terminal
}

// Out returns the writer for regular output
func (c *Console) Out() io.Writer {
	return c.out
}

// Err returns the writer for error output
func (c *Console) Err() io.Writer {
	return c.err
}

// ShowSuccess displays a success message
func (c *Console) ShowSuccess(message string) {
	color.New(color.FgGreen).Fprintln(c.out, message)
}

// ShowError displays an error message on the error stream
func (c *Console) ShowError(message string) {
	color.New(color.FgRed).Fprintln(c.err, message)
}

// ShowWarning displays a warning or question
func (c *Console) ShowWarning(message string) {
	color.New(color.FgYellow).Fprintln(c.out, message)
}

// ShowInfo displays an info message
func (c *Console) ShowInfo(message string) {
	color.New(color.FgCyan).Fprintln(c.out, message)
}

// ShowCommand displays a command in bold cyan
func (c *Console) ShowCommand(command string) {
	color.New(color.FgCyan, color.Bold).Fprintln(c.out, command)
}

// ShowSection displays a bold section header
func (c *Console) ShowSection(title string) {
	color.New(color.FgGreen, color.Bold).Fprintln(c.out, title)
}

// ReadLine reads one line of input without its line terminator.
// io.EOF is only returned when no input at all was available.
func (c *Console) ReadLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// AskYesNo shows question and reads one line. Only "y" (any case, surrounding
// whitespace ignored) is affirmative; end of input counts as "no".
func (c *Console) AskYesNo(question string) (bool, error) {
	c.ShowWarning(question)

	line, err := c.ReadLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read answer: %w", err)
	}

	return IsYes(line), nil
}

// IsYes reports whether an answer line means yes
func IsYes(answer string) bool {
	return strings.ToLower(strings.TrimSpace(answer)) == "y"
}

// StartSpinner shows an animated spinner with message on the error stream
// while a blocking call runs. The returned function stops it. Outside a
// terminal nothing is shown.
func (c *Console) StartSpinner(message string) func() {
	if !c.terminal {
		return func() {}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(c.err))
	s.Suffix = " " + message
	s.Start()
	return s.Stop
}
