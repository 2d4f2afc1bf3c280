package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// passwordReader prompts for secrets. Input is hidden when in is a terminal; piped input is read
// line by line through one buffer so consecutive prompts each get their own line.
type passwordReader struct {
	in  *os.File
	out io.Writer
	buf *bufio.Reader
}

func newPasswordReader(in *os.File, out io.Writer) *passwordReader {
	return &passwordReader{in: in, out: out, buf: bufio.NewReader(in)}
}

func (p *passwordReader) Read(label string) (string, error) {
	fmt.Fprint(p.out, label)

	fd := int(p.in.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(secret), nil
	}

	line, err := p.buf.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
