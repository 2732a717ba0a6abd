// Package prompt reads form input for the interactive client.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// ErrClosed is returned once the input is exhausted.
var ErrClosed = errors.New("input closed")

// Prompter asks questions on out and reads answers from in.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
	// fd is the terminal descriptor used for hidden password input, or -1.
	fd int
}

// New returns a Prompter over arbitrary streams. Passwords are read as
// plain lines.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{scanner: bufio.NewScanner(in), out: out, fd: -1}
}

// Stdio returns a Prompter over the process's standard streams. When stdin
// is a terminal, passwords are read without echo.
func Stdio() *Prompter {
	p := New(os.Stdin, os.Stdout)
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		p.fd = fd
	}
	return p
}

// Scanner exposes the underlying line reader so a REPL can share it.
func (p *Prompter) Scanner() *bufio.Scanner { return p.scanner }

// Line prints label and returns the trimmed answer.
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", ErrClosed
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// Default is Line with a value used when the answer is empty.
func (p *Prompter) Default(label, def string) (string, error) {
	if def == "" {
		return p.Line(label)
	}
	v, err := p.Line(fmt.Sprintf("%s [%s]", label, def))
	if err != nil || v != "" {
		return v, err
	}
	return def, nil
}

// Password reads a secret. On a terminal nothing is echoed.
func (p *Prompter) Password(label string) (string, error) {
	if p.fd < 0 {
		fmt.Fprintf(p.out, "%s: ", label)
		if !p.scanner.Scan() {
			if err := p.scanner.Err(); err != nil {
				return "", err
			}
			return "", ErrClosed
		}
		return p.scanner.Text(), nil
	}
	fmt.Fprintf(p.out, "%s: ", label)
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

// Int reads a whole number.
func (p *Prompter) Int(label string) (int, error) {
	v, err := p.Line(label)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number", strings.ToLower(label))
	}
	return n, nil
}

// Confirm asks a yes/no question. Only "y" and "yes" count as yes.
func (p *Prompter) Confirm(question string) (bool, error) {
	v, err := p.Line(question + " [y/N]")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(v) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
