// Package diag defines the structured diagnostic records the frontend
// collects instead of returning Go errors for user-facing problems (spec
// §7 Error Handling Design): the core never panics on user input, and every
// phase keeps running past recoverable diagnostics so a single compile
// surfaces as many problems as possible.
package diag

import (
	"fmt"
	"strings"

	"github.com/plcforge/stc/pkg/token"
)

// Severity classifies how serious a Diagnostic is.
type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// Kind enumerates the diagnostic kinds spec §7 names.
type Kind string

const (
	UnresolvedReference Kind = "UnresolvedReference"
	UnknownType         Kind = "UnknownType"
	DuplicateDeclaration Kind = "DuplicateDeclaration"
	TypeMismatch        Kind = "TypeMismatch"
	InvalidArrayAccess  Kind = "InvalidArrayAccess"
	CyclicInheritance   Kind = "CyclicInheritance"
	CyclicConstant      Kind = "CyclicConstant"
	OutOfRange          Kind = "OutOfRange"
	InvalidCast         Kind = "InvalidCast"
	MissingParameter    Kind = "MissingParameter"
	UnexpectedParameter Kind = "UnexpectedParameter"
	NotCallable         Kind = "NotCallable"
	SyntaxPlaceholder   Kind = "SyntaxPlaceholder"
	InternalError       Kind = "InternalError"
)

// Diagnostic is a single structured problem report.
type Diagnostic struct {
	Severity  Severity
	Kind      Kind
	Message   string
	Primary   token.Position
	Secondary []token.Position
	// NodeID, when non-zero, is the id of the AST node this diagnostic was
	// raised about, used by dedupe-by-(node,kind) in the Sink.
	NodeID uint64
}

func (d Diagnostic) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s [%s] at %s", d.Severity, d.Message, d.Kind, d.Primary)
	for _, sec := range d.Secondary {
		fmt.Fprintf(&sb, "\n  also see %s", sec)
	}
	return sb.String()
}

// Sink collects diagnostics across every phase of a compile. Appends are
// append-only and ordered (diagnostic-stability property, spec §8): the
// same input always reports diagnostics in the same order. Dedupe is keyed
// by (NodeID, Kind) so two passes that both notice the same bad node don't
// double-report (spec §9 Design Notes, Error recovery).
type Sink struct {
	items []Diagnostic
	seen  map[dedupeKey]bool
}

type dedupeKey struct {
	node uint64
	kind Kind
}

// NewSink returns an empty diagnostic sink.
func NewSink() *Sink {
	return &Sink{seen: make(map[dedupeKey]bool)}
}

// Add appends a diagnostic, silently dropping an exact (NodeID, Kind)
// repeat when NodeID is non-zero.
func (s *Sink) Add(d Diagnostic) {
	if d.NodeID != 0 {
		key := dedupeKey{d.NodeID, d.Kind}
		if s.seen[key] {
			return
		}
		s.seen[key] = true
	}
	s.items = append(s.items, d)
}

// All returns every collected diagnostic, in report order.
func (s *Sink) All() []Diagnostic { return s.items }

// HasErrors reports whether any Error-severity diagnostic was collected.
func (s *Sink) HasErrors() bool {
	for _, d := range s.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Count returns the number of diagnostics of the given severity.
func (s *Sink) Count(sev Severity) int {
	n := 0
	for _, d := range s.items {
		if d.Severity == sev {
			n++
		}
	}
	return n
}
