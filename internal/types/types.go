// Package types owns every DataType in a compilation unit: the TypeRegistry
// (spec component C1) plus the concrete type-information variants spec.md
// §3 names (Integer, Float, Bool, String, Pointer, Array, Struct, Enum,
// SubRange, Alias, Generic, Void, VarArgs).
//
// Types are arena-owned: cross-references between them (a struct member's
// type, a pointer's inner type) are plain Type values handed out by the
// registry, never reconstructed, so identity comparisons on *TypeBase work
// after a type has been registered.
package types

import "fmt"

// Type is the common interface every DataType variant implements.
type Type interface {
	// CanonicalName is the type's registered name — user-declared, or a
	// synthesized name like "__prg_field1" for a promoted inline type.
	CanonicalName() string
	String() string
	// Equals reports structural/nominal equality. Named types compare by
	// CanonicalName (case-insensitively); anonymous composites compare
	// structurally.
	Equals(other Type) bool
}

// TypeBase is embedded by every concrete Type and carries its canonical
// name.
type TypeBase struct {
	Name string
}

func (b TypeBase) CanonicalName() string { return b.Name }

func sameName(a, b string) bool {
	return normalizeName(a) == normalizeName(b)
}

func normalizeName(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// IntegerType is a signed or unsigned integer of a given bit width (SINT=8,
// INT=16, DINT=32, LINT=64, and the unsigned USINT/UINT/UDINT/ULINT).
type IntegerType struct {
	TypeBase
	Signed bool
	Bits   int
}

func (t *IntegerType) String() string { return t.Name }
func (t *IntegerType) Equals(o Type) bool {
	other, ok := o.(*IntegerType)
	return ok && other.Signed == t.Signed && other.Bits == t.Bits
}

// FloatType is REAL (32-bit) or LREAL (64-bit).
type FloatType struct {
	TypeBase
	Bits int
}

func (t *FloatType) String() string { return t.Name }
func (t *FloatType) Equals(o Type) bool {
	other, ok := o.(*FloatType)
	return ok && other.Bits == t.Bits
}

// BoolType is BOOL.
type BoolType struct{ TypeBase }

func (t *BoolType) String() string    { return "BOOL" }
func (t *BoolType) Equals(o Type) bool { _, ok := o.(*BoolType); return ok }

// StringEncoding distinguishes single-byte STRING from wide WSTRING.
type StringEncoding int

const (
	EncodingUTF8 StringEncoding = iota
	EncodingUTF16
)

// StringType is STRING/WSTRING with a declared maximum payload size (0
// means "implementation default", resolved by the registry on request via
// DefaultStringSize).
type StringType struct {
	TypeBase
	Encoding StringEncoding
	Size     int
}

func (t *StringType) String() string {
	if t.Encoding == EncodingUTF16 {
		return fmt.Sprintf("WSTRING[%d]", t.Size)
	}
	return fmt.Sprintf("STRING[%d]", t.Size)
}
func (t *StringType) Equals(o Type) bool {
	other, ok := o.(*StringType)
	return ok && other.Encoding == t.Encoding && other.Size == t.Size
}

// PointerType is POINTER TO inner. AutoDeref is set by the resolver (not at
// construction) on the annotation of a use site, not on the type itself —
// the type only carries whether the pointer is typed at all ("POINTER" with
// no inner is represented as Inner == nil, ANY pointer).
type PointerType struct {
	TypeBase
	Inner Type
}

func (t *PointerType) String() string {
	if t.Inner == nil {
		return "POINTER TO ANY"
	}
	return "POINTER TO " + t.Inner.String()
}
func (t *PointerType) Equals(o Type) bool {
	other, ok := o.(*PointerType)
	if !ok {
		return false
	}
	if t.Inner == nil || other.Inner == nil {
		return t.Inner == other.Inner
	}
	return t.Inner.Equals(other.Inner)
}

// ArrayBound is one `[lo..hi]` dimension; VariableLength marks an open-array
// dimension (`[*]`), legal only on VAR_IN_OUT parameters.
type ArrayBound struct {
	Lo, Hi         int64
	VariableLength bool
}

func (b ArrayBound) Length() int64 {
	if b.VariableLength {
		return -1
	}
	return b.Hi - b.Lo + 1
}

// ArrayType is ARRAY [bounds] OF inner.
type ArrayType struct {
	TypeBase
	Inner              Type
	Bounds             []ArrayBound
	IsVariableLength   bool
}

func (t *ArrayType) String() string { return "ARRAY OF " + t.Inner.String() }
func (t *ArrayType) Equals(o Type) bool {
	other, ok := o.(*ArrayType)
	if !ok || len(other.Bounds) != len(t.Bounds) || !t.Inner.Equals(other.Inner) {
		return false
	}
	for i := range t.Bounds {
		if t.Bounds[i] != other.Bounds[i] {
			return false
		}
	}
	return true
}

// Member is one field of a Struct type (spec: MemberRef).
type Member struct {
	Name string
	Type Type
	// Offset is the member's ordinal position in declaration order,
	// INCLUDING inherited members prepended by InheritanceFlattener as a
	// synthetic "__parent" member at offset 0 (spec §4.4 participant 2).
	Offset int
}

// StructType is a record/FB/class instance layout: an ordered member list.
// IsPOUInterface marks a struct that backs a Program/FunctionBlock/Class
// instance (as opposed to a plain user RECORD); IsVTable marks the
// synthesized per-type vtable struct (spec §4.4 participant 4).
type StructType struct {
	TypeBase
	Members        []Member
	IsPOUInterface bool
	IsVTable       bool
}

func (t *StructType) String() string { return "STRUCT " + t.Name }
func (t *StructType) Equals(o Type) bool {
	other, ok := o.(*StructType)
	return ok && sameName(t.Name, other.Name)
}

// FindMember returns the member with the given name (case-insensitive), or
// ok=false. It does NOT walk "__parent" chains — SymbolIndex.PouMembers
// does that by flattening at build time, so by the time a StructType exists
// inherited members are already physically present as ordinary members.
func (t *StructType) FindMember(name string) (Member, bool) {
	for _, m := range t.Members {
		if sameName(m.Name, name) {
			return m, true
		}
	}
	return Member{}, false
}

// EnumVariantConst is one `Name = value` pair of an Enum type.
type EnumVariantConst struct {
	Name  string
	Value int64
}

// EnumType is an enumeration with an explicit underlying integer type.
type EnumType struct {
	TypeBase
	Underlying Type
	Variants   []EnumVariantConst
}

func (t *EnumType) String() string { return t.Name }
func (t *EnumType) Equals(o Type) bool {
	other, ok := o.(*EnumType)
	return ok && sameName(t.Name, other.Name)
}

func (t *EnumType) VariantValue(name string) (int64, bool) {
	for _, v := range t.Variants {
		if sameName(v.Name, name) {
			return v.Value, true
		}
	}
	return 0, false
}

// SubRangeType restricts Base to [Lo, Hi].
type SubRangeType struct {
	TypeBase
	Base   Type
	Lo, Hi int64
}

func (t *SubRangeType) String() string { return fmt.Sprintf("%s(%d..%d)", t.Base.String(), t.Lo, t.Hi) }
func (t *SubRangeType) Equals(o Type) bool {
	other, ok := o.(*SubRangeType)
	return ok && t.Base.Equals(other.Base) && t.Lo == other.Lo && t.Hi == other.Hi
}

func (t *SubRangeType) InRange(v int64) bool { return v >= t.Lo && v <= t.Hi }

// AliasType is `TYPE Name : referenced; END_TYPE` with no range restriction.
type AliasType struct {
	TypeBase
	Referenced Type
}

func (t *AliasType) String() string { return t.Name }
func (t *AliasType) Equals(o Type) bool {
	other, ok := o.(*AliasType)
	return ok && sameName(t.Name, other.Name)
}

// GenericType is a constrained type parameter of a generic function
// (nature e.g. "ANY_NUM", "ANY_INT", "ANY").
type GenericType struct {
	TypeBase
	ParamName string
	Nature    string
}

func (t *GenericType) String() string { return t.ParamName }
func (t *GenericType) Equals(o Type) bool {
	other, ok := o.(*GenericType)
	return ok && t.ParamName == other.ParamName
}

// VoidType is the "no value" function/method return type.
type VoidType struct{ TypeBase }

func (t *VoidType) String() string    { return "VOID" }
func (t *VoidType) Equals(o Type) bool { _, ok := o.(*VoidType); return ok }

// VarArgsType marks a trailing `...` parameter, optionally constrained to a
// single element type (TypedAs == nil means any type, ST's ARRAY OF CONST
// style variadic).
type VarArgsType struct {
	TypeBase
	TypedAs Type // nil if untyped
}

func (t *VarArgsType) String() string { return "..." }
func (t *VarArgsType) Equals(o Type) bool {
	other, ok := o.(*VarArgsType)
	if !ok {
		return false
	}
	if t.TypedAs == nil || other.TypedAs == nil {
		return t.TypedAs == other.TypedAs
	}
	return t.TypedAs.Equals(other.TypedAs)
}

// Well-known primitive singletons, registered by NewTypeRegistry.
var (
	SInt  = &IntegerType{TypeBase: TypeBase{Name: "SINT"}, Signed: true, Bits: 8}
	Int   = &IntegerType{TypeBase: TypeBase{Name: "INT"}, Signed: true, Bits: 16}
	DInt  = &IntegerType{TypeBase: TypeBase{Name: "DINT"}, Signed: true, Bits: 32}
	LInt  = &IntegerType{TypeBase: TypeBase{Name: "LINT"}, Signed: true, Bits: 64}
	USInt = &IntegerType{TypeBase: TypeBase{Name: "USINT"}, Signed: false, Bits: 8}
	UInt  = &IntegerType{TypeBase: TypeBase{Name: "UINT"}, Signed: false, Bits: 16}
	UDInt = &IntegerType{TypeBase: TypeBase{Name: "UDINT"}, Signed: false, Bits: 32}
	ULInt = &IntegerType{TypeBase: TypeBase{Name: "ULINT"}, Signed: false, Bits: 64}

	Real  = &FloatType{TypeBase: TypeBase{Name: "REAL"}, Bits: 32}
	LReal = &FloatType{TypeBase: TypeBase{Name: "LREAL"}, Bits: 64}

	Bool = &BoolType{TypeBase: TypeBase{Name: "BOOL"}}
	Void = &VoidType{TypeBase: TypeBase{Name: "VOID"}}

	DefaultString  = &StringType{TypeBase: TypeBase{Name: "STRING"}, Encoding: EncodingUTF8, Size: 255}
	DefaultWString = &StringType{TypeBase: TypeBase{Name: "WSTRING"}, Encoding: EncodingUTF16, Size: 255}
)
