package cs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInternal marks invariant violations inside the interpreter itself, as
// opposed to errors raised by scripts or hosts.
var ErrInternal = errors.New("internal interpreter error")

// Loop-control sentinels. Only the loop combinators catch these; every other
// propagation path passes them through untouched.
var (
	errBreak    = errors.New("loop break")
	errContinue = errors.New("loop continue")
)

// StackFrame is one entry of an error's alias call-stack snapshot.
type StackFrame struct {
	Index int    // 1-based position, outermost call is 1
	Name  string // alias name
}

// Error is the typed error raised through Run calls. It carries the message
// and a snapshot of the active alias frames, most recent first. Gap reports
// whether the snapshot was truncated to the configured depth.
type Error struct {
	Msg   string
	Stack []StackFrame
	Gap   bool
}

func (e *Error) Error() string { return e.Msg }

// Format renders the message followed by the stack snapshot in the
// conventional indented form.
func (e *Error) Format() string {
	var b strings.Builder
	b.WriteString(e.Msg)
	for i, f := range e.Stack {
		b.WriteByte('\n')
		if e.Gap && i == len(e.Stack)-1 {
			fmt.Fprintf(&b, "  ..%d) %s", f.Index, f.Name)
		} else {
			fmt.Fprintf(&b, "  %d) %s", f.Index, f.Name)
		}
	}
	return b.String()
}

// newError builds an *Error with the current alias stack attached.
func (s *State) newError(format string, args ...any) *Error {
	return &Error{
		Msg:   fmt.Sprintf(format, args...),
		Stack: s.stackSnapshot(),
		Gap:   s.stackTruncated(),
	}
}

// stackSnapshot walks the active alias frames, most recent first, keeping at
// most dbgalias entries (the oldest frame is always retained).
func (s *State) stackSnapshot() []StackFrame {
	limit := int(s.w.dbgAlias.storageI)
	if limit <= 0 {
		return nil
	}
	total := 0
	for l := s.stack; l != &s.noAlias; l = l.next {
		total++
	}
	var frames []StackFrame
	depth := 0
	for l := s.stack; l != &s.noAlias; l = l.next {
		depth++
		if depth < limit || l.next == &s.noAlias {
			frames = append(frames, StackFrame{Index: total - depth + 1, Name: l.id.name})
		}
	}
	return frames
}

func (s *State) stackTruncated() bool {
	limit := int(s.w.dbgAlias.storageI)
	if limit <= 0 {
		return false
	}
	total := 0
	for l := s.stack; l != &s.noAlias; l = l.next {
		total++
	}
	return total > limit
}

// debugCode reports a non-fatal diagnostic through the error sink, with the
// alias stack appended when dbgalias asks for it.
func (s *State) debugCode(format string, args ...any) {
	if s.noDebug > 0 {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if s.w.dbgAlias.storageI > 0 {
		if snap := s.stackSnapshot(); len(snap) > 0 {
			e := &Error{Msg: msg, Stack: snap, Gap: s.stackTruncated()}
			s.sink(e.Format())
			return
		}
	}
	s.sink(msg)
}

// debugCodeAt is debugCode with a source position: when the failing position
// lies inside the source currently being compiled, the message is prefixed
// with file:line: by scanning the source for newlines up to pos.
func (s *State) debugCodeAt(pos int, format string, args ...any) {
	if s.noDebug > 0 {
		return
	}
	s.debugCode("%s", s.locatePrefix(pos)+fmt.Sprintf(format, args...))
}

func (s *State) locatePrefix(pos int) string {
	if s.srcStr == "" || pos < 0 || pos > len(s.srcStr) {
		return ""
	}
	line := 1 + strings.Count(s.srcStr[:pos], "\n")
	if s.srcFile != "" {
		return fmt.Sprintf("%s:%d: ", s.srcFile, line)
	}
	return fmt.Sprintf("%d: ", line)
}
