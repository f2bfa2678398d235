// Package ast defines the AST contract the semantic frontend consumes and
// annotates: every node carries a stable NodeID (unique within its
// ParsedUnit) and a source Position, per the External Interfaces section of
// the frontend specification.
package ast

import (
	"strings"

	"github.com/plcforge/stc/pkg/token"
)

// NodeID uniquely identifies a node within the ParsedUnit that owns it.
// IDs are assigned by the parser/node builder in construction order and are
// never reused; lowering participants that introduce new nodes allocate
// fresh IDs from the same unit-scoped counter.
type NodeID uint64

// Node is the base interface every AST node implements.
type Node interface {
	ID() NodeID
	Pos() token.Position
	TokenLiteral() string
	String() string
}

// Expression is any node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// Statement is any node that performs an action without itself producing a
// value (it may contain expressions that do).
type Statement interface {
	Node
	statementNode()
}

// BaseNode is embedded by every concrete node; it supplies NodeID, Token and
// Pos bookkeeping so individual node types only need their own fields.
type BaseNode struct {
	NodeIDValue NodeID
	Token       token.Token
}

func (b BaseNode) ID() NodeID              { return b.NodeIDValue }
func (b BaseNode) Pos() token.Position     { return b.Token.Pos }
func (b BaseNode) TokenLiteral() string    { return b.Token.Literal }

// IDAllocator hands out increasing NodeIDs for a single ParsedUnit. The
// parser owns one; lowering participants that synthesize nodes for that unit
// reuse it so synthesized nodes never collide with parsed ones.
type IDAllocator struct {
	next NodeID
}

// NewIDAllocator returns an allocator starting at 1 (0 is reserved to mean
// "no node").
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{next: 1}
}

func (a *IDAllocator) Next() NodeID {
	id := a.next
	a.next++
	return id
}

// joinStrings is a small formatting helper used by several node String()
// implementations.
func joinStrings(parts []string, sep string) string {
	return strings.Join(parts, sep)
}
