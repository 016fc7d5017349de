package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// maxAnswerBytes bounds how much of a runaway answer line is read.
const maxAnswerBytes = 256

// Prompter asks a yes/no question and reports whether the answer was affirmative.
type Prompter interface {
	Confirm(question string) (bool, error)
}

// LinePrompter writes the question to Out and reads a single line from In.
// It never reads past the newline, so In can be handed to another reader
// afterwards. Only "y" and "yes" (any case) count as consent; everything else, including
// an empty line or end of input, is a refusal.
type LinePrompter struct {
	mu  sync.Mutex
	In  io.Reader
	Out io.Writer
}

// NewStdioPrompter returns a LinePrompter bound to the process's stdin and stdout.
func NewStdioPrompter() *LinePrompter {
	return &LinePrompter{In: os.Stdin, Out: os.Stdout}
}

// Confirm implements Prompter.
func (p *LinePrompter) Confirm(question string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := fmt.Fprintf(p.Out, "%s [y/N]: ", question); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}

	line, err := readLine(p.In)
	if err != nil {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}

	return IsAffirmative(line), nil
}

// readLine reads one byte at a time up to and including '\n'. Bytes beyond
// maxAnswerBytes are consumed but dropped. End of input ends the line.
func readLine(r io.Reader) (string, error) {
	var line []byte
	var b [1]byte
	for {
		n, err := r.Read(b[:])
		if n == 1 {
			if b[0] == '\n' {
				return string(line), nil
			}
			if len(line) < maxAnswerBytes {
				line = append(line, b[0])
			}
		}
		if errors.Is(err, io.EOF) {
			return string(line), nil
		}
		if err != nil {
			return "", err
		}
	}
}

// IsAffirmative reports whether answer is an explicit yes.
func IsAffirmative(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
