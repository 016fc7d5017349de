// Package sizegate decides whether a file is small enough to be opened
// without asking, large enough to need explicit consent, or too large to
// open at all.
package sizegate

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/isseis/go-wisty-fileio/internal/terminal"
)

// Default thresholds.
const (
	DefaultSoftLimit uint64 = 50 * 1024 * 1024   // 50 MiB
	DefaultHardLimit uint64 = 1024 * 1024 * 1024 // 1 GiB
)

// Decision is the outcome of comparing a size against the limits.
type Decision int

const (
	// Allow means the file may be opened without asking.
	Allow Decision = iota
	// Confirm means the file may only be opened after explicit consent.
	Confirm
	// Reject means the file must not be opened.
	Reject
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Confirm:
		return "confirm"
	case Reject:
		return "reject"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Decide classifies size against the soft and hard limits.
func Decide(size, soft, hard uint64) Decision {
	switch {
	case size >= hard:
		return Reject
	case size >= soft:
		return Confirm
	default:
		return Allow
	}
}

// Kind classifies size gate failures.
type Kind int

const (
	// KindTooLarge means the file is at or above the hard limit.
	KindTooLarge Kind = iota + 1
	// KindCancelled means the user declined to open a large file.
	KindCancelled
	// KindNeedsConfirmation means a large file was found but nobody can be asked.
	KindNeedsConfirmation
)

func (k Kind) String() string {
	switch k {
	case KindTooLarge:
		return "size_limit_exceeded"
	case KindCancelled:
		return "open_cancelled"
	case KindNeedsConfirmation:
		return "confirmation_unavailable"
	default:
		return "unknown"
	}
}

// Sentinel errors for errors.Is checks.
var (
	ErrTooLarge          = &Error{Kind: KindTooLarge}
	ErrCancelled         = &Error{Kind: KindCancelled}
	ErrNeedsConfirmation = &Error{Kind: KindNeedsConfirmation}
)

// Error describes why a file was not allowed through the gate.
type Error struct {
	Kind  Kind
	Path  string
	Size  uint64
	Limit uint64
	Err   error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTooLarge:
		return fmt.Sprintf("file %s is too large to open: %s (limit %s)",
			e.Path, humanize.IBytes(e.Size), humanize.IBytes(e.Limit))
	case KindCancelled:
		if e.Err != nil {
			return fmt.Sprintf("opening %s (%s) was cancelled: %v", e.Path, humanize.IBytes(e.Size), e.Err)
		}
		return fmt.Sprintf("opening %s (%s) was cancelled", e.Path, humanize.IBytes(e.Size))
	case KindNeedsConfirmation:
		return fmt.Sprintf("file %s is %s, which needs confirmation (over %s) but no interactive terminal is available",
			e.Path, humanize.IBytes(e.Size), humanize.IBytes(e.Limit))
	default:
		return "size gate error"
	}
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Gate applies the size policy, prompting when it has to.
type Gate struct {
	SoftLimit uint64
	HardLimit uint64
	Detector  terminal.InteractiveDetector
	Prompter  terminal.Prompter
}

// NewGate creates a gate with the given limits. Zero limits fall back to the defaults.
func NewGate(soft, hard uint64, detector terminal.InteractiveDetector, prompter terminal.Prompter) *Gate {
	if soft == 0 {
		soft = DefaultSoftLimit
	}
	if hard == 0 {
		hard = DefaultHardLimit
	}
	return &Gate{
		SoftLimit: soft,
		HardLimit: hard,
		Detector:  detector,
		Prompter:  prompter,
	}
}

// Check returns nil when the file at path with the given size may be opened.
func (g *Gate) Check(path string, size uint64) error {
	switch Decide(size, g.SoftLimit, g.HardLimit) {
	case Allow:
		return nil
	case Reject:
		return &Error{Kind: KindTooLarge, Path: path, Size: size, Limit: g.HardLimit}
	}

	if g.Detector == nil || g.Prompter == nil || !g.Detector.IsInteractive() {
		return &Error{Kind: KindNeedsConfirmation, Path: path, Size: size, Limit: g.SoftLimit}
	}

	question := fmt.Sprintf("%s is %s. Open it anyway?", path, humanize.IBytes(size))
	ok, err := g.Prompter.Confirm(question)
	if err != nil {
		return &Error{Kind: KindCancelled, Path: path, Size: size, Limit: g.SoftLimit, Err: err}
	}
	if !ok {
		return &Error{Kind: KindCancelled, Path: path, Size: size, Limit: g.SoftLimit}
	}
	return nil
}
