// Package diag is the single place that knows how to render a compiler
// phase's []error to stderr: it colorizes when stderr is a TTY, tags each
// invocation with a session id, and prints humanized size/duration stats,
// generalizing the per-mode `fmt.Fprintln(os.Stderr, "error:", err)` calls
// scattered through cmd/avenir/main.go into one formatter.
package diag

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cnf/structhash"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

// Session tags one compiler invocation with an id surfaced in diagnostics
// and rendered before the first error or stats line, so a report pasted
// from a bug report can be traced back to one run.
type Session struct {
	ID uuid.UUID
}

// NewSession mints a session id for one CLI invocation.
func NewSession() Session {
	return Session{ID: uuid.New()}
}

// Reporter renders errors and build stats to w, colorized only when w is a
// TTY (checked once, at construction, via go-isatty).
type Reporter struct {
	w      io.Writer
	color  bool
	sess   Session
	errors *pterm.PrefixPrinter
	info   *pterm.PrefixPrinter
}

// NewReporter builds a Reporter writing to w. If w is *os.File, color is
// enabled only when it refers to a real terminal.
func NewReporter(w io.Writer, sess Session) *Reporter {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	if color {
		pterm.EnableColor()
	} else {
		pterm.DisableColor()
	}
	errors := pterm.Error.WithWriter(w)
	info := pterm.Info.WithWriter(w)
	return &Reporter{w: w, color: color, sess: sess, errors: errors, info: info}
}

// Report prints every error in errs, prefixed with the session id on the
// first line so a multi-error run is traceable to one invocation.
func (r *Reporter) Report(phase string, errs []error) {
	if len(errs) == 0 {
		return
	}
	r.errors.Println(fmt.Sprintf("[%s] %s: %d error(s)", shortID(r.sess.ID), phase, len(errs)))
	for _, e := range errs {
		fmt.Fprintln(r.w, "  "+e.Error())
	}
}

// Stats prints a human-readable summary line: source size and elapsed
// wall-clock time for one compiler run, via go-humanize.
func (r *Reporter) Stats(sourceBytes int, elapsed time.Duration) {
	r.info.Println(fmt.Sprintf("[%s] compiled %s in %s",
		shortID(r.sess.ID), humanize.Bytes(uint64(sourceBytes)), humanize.RelTime(time.Now().Add(-elapsed), time.Now(), "", "")))
}

func shortID(id uuid.UUID) string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

// BuildSummary is the small, deterministic subset of a compiled module's
// shape fingerprinted into a build-id comment above the IR dump: counting
// declared entities rather than hashing internal/sema.Bindings' pointer-keyed
// maps directly keeps the fingerprint stable across two lowerings of
// identical source, which raw map iteration order would not guarantee.
type BuildSummary struct {
	ModuleName  string
	ObjectCount int
	FuncCount   int
	GlobalCount int
}

// Fingerprint returns a short structural hash of s, rendered as a comment
// above the IR text in -c mode so two runs over the same source produce the same
// build-id.
func Fingerprint(s BuildSummary) (string, error) {
	hash, err := structhash.Hash(s, 1)
	if err != nil {
		return "", fmt.Errorf("fingerprint build summary: %w", err)
	}
	return hash, nil
}
