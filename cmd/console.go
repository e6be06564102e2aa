package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	agentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
)

// newConsole returns a huh prompt on a terminal and a plain line reader
// otherwise (pipes, CI).
func newConsole() *console {
	interactive := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
	return &console{
		in:          bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		interactive: interactive,
	}
}

// console is the operator side of the computer-use conversation.
type console struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool

	once  sync.Once
	lines chan lineResult
}

type lineResult struct {
	line string
	err  error
}

func (c *console) Show(text string) {
	if c.interactive {
		fmt.Fprintln(c.out, agentStyle.Render(text))
		return
	}
	fmt.Fprintln(c.out, text)
}

func (c *console) Notice(text string) {
	if c.interactive {
		fmt.Fprintln(c.out, noticeStyle.Render(text))
		return
	}
	fmt.Fprintln(c.out, text)
}

func (c *console) ReadLine(ctx context.Context, prompt string) (string, error) {
	if c.interactive {
		return c.readTerminal(ctx, prompt)
	}
	return c.readPlain(ctx, prompt)
}

func (c *console) readTerminal(ctx context.Context, prompt string) (string, error) {
	var value string
	inp := huh.NewInput().
		Title(prompt).
		Placeholder("empty line or exit to quit").
		Value(&value)
	err := huh.NewForm(huh.NewGroup(inp)).RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	fmt.Fprintf(c.out, "%s %s\n", prompt, value)
	return value, nil
}

// readPlain reads one line. A cancelled ctx abandons the wait, and the
// line still arriving is kept for the next call.
func (c *console) readPlain(ctx context.Context, prompt string) (string, error) {
	fmt.Fprintf(c.out, "%s ", prompt)
	c.once.Do(c.startReader)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return r.line, r.err
	}
}

// startReader runs the only goroutine that reads c.in. It stops at the
// first read error and closes lines after handing that error over.
func (c *console) startReader() {
	c.lines = make(chan lineResult)
	go func() {
		defer close(c.lines)
		for {
			line, err := c.in.ReadString('\n')
			if err != nil && line != "" && errors.Is(err, io.EOF) {
				c.lines <- lineResult{line: line}
				line = ""
			}
			c.lines <- lineResult{line, err}
			if err != nil {
				return
			}
		}
	}()
}
