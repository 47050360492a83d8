// Package corelog provides the core's trace logging: a verbosity-gated
// writer that color-codes unification/subtype trace lines when stdout is a
// terminal (detected with go-isatty, the way funxy's builtins_term.go
// gates its own terminal output) and emits plain text otherwise (NO_COLOR
// is also honored, same convention funxy documents at builtins_term.go).
//
// corelog never influences core semantics — every call site in internal/infer
// calls a Logger method purely for observation; a nil *Logger is valid and
// silent, so production callers that never configure one pay nothing.
package corelog

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Level selects how much trace detail a Logger emits.
type Level int

const (
	// Silent emits nothing. The zero value, so a zero Logger is inert.
	Silent Level = iota
	// Trace emits one line per traced inference step: unify/
	// sub_unify entry, link, generalize, instantiate, deref_toplevel.
	Trace
)

// Logger is the core's verbosity-gated trace writer.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	level   Level
	colored bool
}

// New creates a Logger writing to w at the given level. Color is enabled
// only when w is an *os.File attached to a real terminal (or a Cygwin
// pty), matching funxy's detectColorLevel gate, and disabled
// whenever NO_COLOR is set per https://no-color.org/.
func New(w io.Writer, level Level) *Logger {
	colored := false
	if f, ok := w.(*os.File); ok {
		if _, noColor := os.LookupEnv("NO_COLOR"); !noColor {
			colored = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
	}
	return &Logger{out: w, level: level, colored: colored}
}

// Discard is a Logger that never writes, usable as the default for callers
// that don't want trace output but still want to pass a non-nil Logger.
func Discard() *Logger { return New(io.Discard, Silent) }

// Point names one traced inference step.
type Point string

const (
	PointUnify       Point = "unify"
	PointSubUnify    Point = "sub_unify"
	PointReunify     Point = "reunify"
	PointLink        Point = "link"
	PointGeneralize  Point = "generalize"
	PointInstantiate Point = "instantiate"
	PointDerefTop    Point = "deref_toplevel"
)

var pointColor = map[Point]*color.Color{
	PointUnify:       color.New(color.FgCyan),
	PointSubUnify:    color.New(color.FgBlue),
	PointReunify:     color.New(color.FgHiBlue),
	PointLink:        color.New(color.FgGreen),
	PointGeneralize:  color.New(color.FgYellow),
	PointInstantiate: color.New(color.FgMagenta),
	PointDerefTop:    color.New(color.FgRed),
}

// Tracef emits one trace line for point p, formatted like Sprintf, if the
// Logger's level is at least Trace.
func (l *Logger) Tracef(p Point, format string, args ...interface{}) {
	if l == nil || l.level < Trace {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	if l.colored {
		if c, ok := pointColor[p]; ok {
			fmt.Fprintf(l.out, "[%s] %s\n", c.Sprint(p), msg)
			return
		}
	}
	fmt.Fprintf(l.out, "[%s] %s\n", p, msg)
}
