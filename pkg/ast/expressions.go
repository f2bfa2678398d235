package ast

import "fmt"

// Identifier references a name: a variable, a POU, a type, a constant — the
// Resolver decides which by attaching an Annotation.
type Identifier struct {
	BaseNode
	Value string
}

func (i *Identifier) expressionNode()   {}
func (i *Identifier) String() string    { return i.Value }

// QualifiedIdentifier is a dotted path (a.b.c): member access chained
// through identifiers, used for both variable paths (f.x) and scoped enum
// literals (Color.Red).
type QualifiedIdentifier struct {
	BaseNode
	Parts []string
}

func (q *QualifiedIdentifier) expressionNode() {}
func (q *QualifiedIdentifier) String() string  { return joinStrings(q.Parts, ".") }

// IntegerLiteral is a whole-number literal, possibly written with a
// `16#`/`8#`/`2#` base prefix and `_` digit separators (already stripped by
// the lexer; Raw preserves the original spelling for diagnostics).
type IntegerLiteral struct {
	BaseNode
	Value int64
	Raw   string
}

func (l *IntegerLiteral) expressionNode() {}
func (l *IntegerLiteral) String() string  { return l.Raw }

// RealLiteral is a floating-point literal.
type RealLiteral struct {
	BaseNode
	Value float64
	Raw   string
}

func (l *RealLiteral) expressionNode() {}
func (l *RealLiteral) String() string  { return l.Raw }

// BoolLiteral is TRUE/FALSE.
type BoolLiteral struct {
	BaseNode
	Value bool
}

func (l *BoolLiteral) expressionNode() {}
func (l *BoolLiteral) String() string {
	if l.Value {
		return "TRUE"
	}
	return "FALSE"
}

// StringLiteral is a 'single' or "double" quoted string literal. Encoding is
// resolved later (STRING vs WSTRING) based on the type hint at its use site.
type StringLiteral struct {
	BaseNode
	Value string
}

func (l *StringLiteral) expressionNode() {}
func (l *StringLiteral) String() string  { return fmt.Sprintf("%q", l.Value) }

// EnumLiteral is a bare (unqualified) enum variant name used as a value,
// e.g. `Green` in `c := Green;` where the hint disambiguates the enum type.
type EnumLiteral struct {
	BaseNode
	Name string
}

func (l *EnumLiteral) expressionNode() {}
func (l *EnumLiteral) String() string  { return l.Name }

// BinaryExpression is a binary operator application.
type BinaryExpression struct {
	BaseNode
	Left     Expression
	Operator string
	Right    Expression
}

func (b *BinaryExpression) expressionNode() {}
func (b *BinaryExpression) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left.String(), b.Operator, b.Right.String())
}

// UnaryExpression is a prefix operator application (NOT x, -x).
type UnaryExpression struct {
	BaseNode
	Operator string
	Operand  Expression
}

func (u *UnaryExpression) expressionNode() {}
func (u *UnaryExpression) String() string {
	return fmt.Sprintf("(%s%s)", u.Operator, u.Operand.String())
}

// RefExpression is the explicit address-of operator REF(x), producing a
// pointer-typed value. The reverse (implicit dereference of a pointer used
// where its pointee is expected) is not a syntax node — it is an
// AutoDeref flag the Resolver attaches to the Variable annotation.
type RefExpression struct {
	BaseNode
	Operand Expression
}

func (r *RefExpression) expressionNode() {}
func (r *RefExpression) String() string  { return fmt.Sprintf("REF(%s)", r.Operand.String()) }

// MemberAccessExpression is `a.b`: structure/instance member access,
// inherited-member access, or a qualified method/property reference.
type MemberAccessExpression struct {
	BaseNode
	Target Expression
	Member string
}

func (m *MemberAccessExpression) expressionNode() {}
func (m *MemberAccessExpression) String() string {
	return fmt.Sprintf("%s.%s", m.Target.String(), m.Member)
}

// IndexExpression is array subscripting, possibly multi-dimensional
// (`a[i, j]`).
type IndexExpression struct {
	BaseNode
	Target  Expression
	Indices []Expression
}

func (x *IndexExpression) expressionNode() {}
func (x *IndexExpression) String() string {
	parts := make([]string, len(x.Indices))
	for i, idx := range x.Indices {
		parts[i] = idx.String()
	}
	return fmt.Sprintf("%s[%s]", x.Target.String(), joinStrings(parts, ", "))
}

// CallExpression is a function/method/function-block call used in
// expression position (produces a value) or, via ExpressionStatement, in
// statement position (FB invocation with no result).
type CallExpression struct {
	BaseNode
	Callee    Expression
	Args      []Expression
	ArgNames  []string // parallel to Args; "" for positional arguments
}

func (c *CallExpression) expressionNode() {}
func (c *CallExpression) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		if c.ArgNames != nil && i < len(c.ArgNames) && c.ArgNames[i] != "" {
			parts[i] = fmt.Sprintf("%s := %s", c.ArgNames[i], a.String())
		} else {
			parts[i] = a.String()
		}
	}
	return fmt.Sprintf("%s(%s)", c.Callee.String(), joinStrings(parts, ", "))
}

// ArrayLiteral is an array initializer `[1, 2, 3]`.
type ArrayLiteral struct {
	BaseNode
	Elements []Expression
}

func (a *ArrayLiteral) expressionNode() {}
func (a *ArrayLiteral) String() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = e.String()
	}
	return fmt.Sprintf("[%s]", joinStrings(parts, ", "))
}

// StructFieldInit is one `field := value` pair inside a StructLiteral.
type StructFieldInit struct {
	Field string
	Value Expression
}

// StructLiteral is a struct initializer `(a := 1, b := 2)`.
type StructLiteral struct {
	BaseNode
	Fields []StructFieldInit
}

func (s *StructLiteral) expressionNode() {}
func (s *StructLiteral) String() string {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		parts[i] = fmt.Sprintf("%s := %s", f.Field, f.Value.String())
	}
	return fmt.Sprintf("(%s)", joinStrings(parts, ", "))
}

// ThisExpression is THIS inside a method body.
type ThisExpression struct{ BaseNode }

func (t *ThisExpression) expressionNode() {}
func (t *ThisExpression) String() string  { return "THIS" }

// SuperExpression is SUPER^ / SUPER. used for explicit parent dispatch.
type SuperExpression struct{ BaseNode }

func (s *SuperExpression) expressionNode() {}
func (s *SuperExpression) String() string  { return "SUPER" }
