package corelog

import (
	"bytes"
	"strings"
	"testing"
)

func TestDiscardEmitsNothing(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Silent)
	l.Tracef(PointUnify, "Int =:= %s", "Str")
	if buf.Len() != 0 {
		t.Errorf("a Silent logger should emit nothing, got %q", buf.String())
	}
}

func TestNilLoggerIsSilent(t *testing.T) {
	var l *Logger
	// should not panic
	l.Tracef(PointUnify, "whatever")
}

func TestTraceEmitsOneLinePerCall(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Trace)
	l.Tracef(PointGeneralize, "%s -> %s", "?1", "T0")
	out := buf.String()
	if !strings.Contains(out, "generalize") {
		t.Errorf("expected the point name in the trace line, got %q", out)
	}
	if !strings.Contains(out, "?1 -> T0") {
		t.Errorf("expected the formatted message in the trace line, got %q", out)
	}
}

func TestDiscardLoggerNeverWrites(t *testing.T) {
	l := Discard()
	l.Tracef(PointReunify, "anything")
}
