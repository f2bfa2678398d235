package diag

import (
	"testing"

	"github.com/plcforge/stc/pkg/token"
)

func TestSinkDedupesByNodeAndKind(t *testing.T) {
	s := NewSink()
	pos := token.Position{Line: 1, Column: 1}
	s.Add(Diagnostic{Severity: Error, Kind: UnresolvedReference, Message: "x", Primary: pos, NodeID: 7})
	s.Add(Diagnostic{Severity: Error, Kind: UnresolvedReference, Message: "x again", Primary: pos, NodeID: 7})
	s.Add(Diagnostic{Severity: Error, Kind: TypeMismatch, Message: "y", Primary: pos, NodeID: 7})

	if got := len(s.All()); got != 2 {
		t.Fatalf("len(All()) = %d, want 2 (dedupe by node+kind, distinct kind kept)", got)
	}
}

func TestSinkHasErrorsIgnoresWarnings(t *testing.T) {
	s := NewSink()
	s.Add(Diagnostic{Severity: Warning, Kind: OutOfRange, Message: "heads up"})
	if s.HasErrors() {
		t.Error("HasErrors() = true with only a warning present")
	}
	s.Add(Diagnostic{Severity: Error, Kind: TypeMismatch, Message: "bad"})
	if !s.HasErrors() {
		t.Error("HasErrors() = false with an Error-severity diagnostic present")
	}
}
