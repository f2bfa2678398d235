package ast

import "fmt"

// TypeExpression is the syntactic spelling of a type reference: a bare name,
// or one of the composite shorthands (ARRAY OF, POINTER TO, inline STRUCT,
// subrange bounds, sized STRING). The TypeRegistry turns these into
// DataTypes; InlineTypePromoter rewrites inline shorthands into named
// references before the index is built.
type TypeExpression interface {
	Node
	typeExpressionNode()
}

// NamedTypeRef is a reference to a type by name (INT, MyStruct, MyEnum...).
type NamedTypeRef struct {
	BaseNode
	Name string
}

func (n *NamedTypeRef) typeExpressionNode() {}
func (n *NamedTypeRef) String() string      { return n.Name }

// ArrayBound is one `lo..hi` dimension of an array type. VariableLength
// marks a `[*]` open-array dimension (valid only on VAR_IN_OUT parameters).
type ArrayBound struct {
	Lo             Expression
	Hi             Expression
	VariableLength bool
}

// ArrayTypeNode is `ARRAY [lo..hi, ...] OF elementType`.
type ArrayTypeNode struct {
	BaseNode
	Bounds  []ArrayBound
	Element TypeExpression
}

func (a *ArrayTypeNode) typeExpressionNode() {}
func (a *ArrayTypeNode) String() string {
	return fmt.Sprintf("ARRAY [...] OF %s", a.Element.String())
}

// PointerTypeNode is `POINTER TO inner`.
type PointerTypeNode struct {
	BaseNode
	Inner TypeExpression
}

func (p *PointerTypeNode) typeExpressionNode() {}
func (p *PointerTypeNode) String() string      { return fmt.Sprintf("POINTER TO %s", p.Inner.String()) }

// SubrangeTypeNode is `base (lo..hi)`, e.g. `INT(0..100)`.
type SubrangeTypeNode struct {
	BaseNode
	Base TypeExpression
	Lo   Expression
	Hi   Expression
}

func (s *SubrangeTypeNode) typeExpressionNode() {}
func (s *SubrangeTypeNode) String() string      { return fmt.Sprintf("%s(..)", s.Base.String()) }

// StringTypeNode is `STRING[size]` or `WSTRING[size]` (size nil means
// implementation-default size).
type StringTypeNode struct {
	BaseNode
	Wide bool
	Size Expression // nil for default size
}

func (s *StringTypeNode) typeExpressionNode() {}
func (s *StringTypeNode) String() string {
	if s.Wide {
		return "WSTRING"
	}
	return "STRING"
}

// StructFieldDecl is one member of an inline or named STRUCT.
type StructFieldDecl struct {
	Name        string
	Type        TypeExpression
	Initializer Expression // nil if absent
	Pos         BaseNode
}

// StructTypeNode is an inline `STRUCT ... END_STRUCT` body. The
// InlineTypePromoter pass replaces every occurrence used as a Variable's
// declared type with a NamedTypeRef to a synthesized top-level type.
type StructTypeNode struct {
	BaseNode
	Fields []StructFieldDecl
}

func (s *StructTypeNode) typeExpressionNode() {}
func (s *StructTypeNode) String() string      { return "STRUCT ... END_STRUCT" }

// EnumVariant is one `Name` or `Name := value` entry of an ENUM type.
type EnumVariant struct {
	Name  string
	Value Expression // nil: implicitly previous+1 (or 0 for the first)
}

// EnumTypeNode is `(Variant, Variant := N, ...)`.
type EnumTypeNode struct {
	BaseNode
	Underlying TypeExpression // nil defaults to INT
	Variants   []EnumVariant
}

func (e *EnumTypeNode) typeExpressionNode() {}
func (e *EnumTypeNode) String() string      { return "(...)" }

// FunctionPointerTypeNode spells a callable signature type, used for
// function-pointer-typed variables (`f : POINTER TO FUNCTION : BOOL`) and
// generic-nature constraints.
type FunctionPointerTypeNode struct {
	BaseNode
	Params     []TypeExpression
	ReturnType TypeExpression // nil for a procedure pointer
}

func (f *FunctionPointerTypeNode) typeExpressionNode() {}
func (f *FunctionPointerTypeNode) String() string       { return "POINTER TO FUNCTION" }
