package types

import (
	"fmt"
)

// AssignabilityClass classifies how a source type may flow into a target
// type (spec §4.1 TypeRegistry.assignable).
type AssignabilityClass int

const (
	Incompatible AssignabilityClass = iota
	Exact
	Promotion          // widening (INT -> DINT, REAL -> LREAL)
	NarrowingWithWarning
	StringCoercion
	PointerCompatible
)

func (c AssignabilityClass) String() string {
	switch c {
	case Exact:
		return "Exact"
	case Promotion:
		return "Promotion"
	case NarrowingWithWarning:
		return "NarrowingWithWarning"
	case StringCoercion:
		return "StringCoercion"
	case PointerCompatible:
		return "PointerCompatible"
	default:
		return "Incompatible"
	}
}

// AlreadyDefinedError is returned by Register when a type with that
// canonical name already exists.
type AlreadyDefinedError struct{ Name string }

func (e *AlreadyDefinedError) Error() string {
	return fmt.Sprintf("type %q is already defined", e.Name)
}

// CyclicChainError is returned when registering an Alias/SubRange whose
// reference chain would cycle back to itself.
type CyclicChainError struct{ Name string }

func (e *CyclicChainError) Error() string {
	return fmt.Sprintf("type %q participates in a cyclic alias/subrange chain", e.Name)
}

// TypeID is the stable handle Register returns. Types are looked up
// primarily by name, so TypeID is simply the canonical name — but it is a
// distinct type so callers can't accidentally pass an arbitrary string
// where a confirmed-registered identity is expected.
type TypeID string

// TypeRegistry owns every DataType in a compilation unit (spec component
// C1). It never panics: missing lookups return ok=false, and registration
// failures are returned as errors for the caller to turn into diagnostics.
type TypeRegistry struct {
	byName        map[string]Type // normalized name -> type
	classParents  map[string]string
	interfaces    map[string][]string // normalized class name -> implemented interface names
}

// NewTypeRegistry creates a registry pre-seeded with every ST primitive.
func NewTypeRegistry() *TypeRegistry {
	r := &TypeRegistry{
		byName:       make(map[string]Type),
		classParents: make(map[string]string),
		interfaces:   make(map[string][]string),
	}
	for _, t := range []Type{
		SInt, Int, DInt, LInt, USInt, UInt, UDInt, ULInt,
		Real, LReal, Bool, Void, DefaultString, DefaultWString,
	} {
		r.byName[normalizeName(t.CanonicalName())] = t
	}
	return r
}

// Register adds a new DataType to the registry under its CanonicalName.
// Registering an Alias/SubRange that would introduce a cycle is rejected;
// registering a name that already exists is rejected (spec: "Every
// qualified name is unique across the index").
func (r *TypeRegistry) Register(t Type) (TypeID, error) {
	key := normalizeName(t.CanonicalName())
	if _, exists := r.byName[key]; exists {
		return "", &AlreadyDefinedError{Name: t.CanonicalName()}
	}
	if err := r.checkAcyclic(t); err != nil {
		return "", err
	}
	r.byName[key] = t
	return TypeID(key), nil
}

// checkAcyclic walks an about-to-be-registered Alias/SubRange's reference
// chain, failing if it would ever reach back to itself. Chains through
// already-registered types terminate safely since the registry itself is
// guaranteed acyclic by induction.
func (r *TypeRegistry) checkAcyclic(t Type) error {
	seen := map[string]bool{normalizeName(t.CanonicalName()): true}
	cur := t
	for {
		var next Type
		switch v := cur.(type) {
		case *AliasType:
			next = v.Referenced
		case *SubRangeType:
			next = v.Base
		default:
			return nil
		}
		if next == nil {
			return nil
		}
		key := normalizeName(next.CanonicalName())
		if seen[key] {
			return &CyclicChainError{Name: t.CanonicalName()}
		}
		seen[key] = true
		cur = next
	}
}

// RegisterClassHierarchy records an explicit parent/interfaces relationship
// for a Class/FunctionBlock's StructType, used by IsSubtypeOf and
// method_resolution (index package) without re-deriving it from the AST.
func (r *TypeRegistry) RegisterClassHierarchy(name, parent string, interfaces []string) {
	if parent != "" {
		r.classParents[normalizeName(name)] = normalizeName(parent)
	}
	r.interfaces[normalizeName(name)] = interfaces
}

// Find looks up a type by name, case-insensitively.
func (r *TypeRegistry) Find(name string) (Type, bool) {
	t, ok := r.byName[normalizeName(name)]
	return t, ok
}

// EffectiveType walks an Alias/SubRange chain to the first non-alias,
// non-subrange ancestor. If name isn't found, returns (nil, false).
func (r *TypeRegistry) EffectiveType(name string) (Type, bool) {
	t, ok := r.Find(name)
	if !ok {
		return nil, false
	}
	return r.effectiveTypeOf(t), true
}

func (r *TypeRegistry) effectiveTypeOf(t Type) Type {
	for {
		switch v := t.(type) {
		case *AliasType:
			t = v.Referenced
		case *SubRangeType:
			t = v.Base
		default:
			return t
		}
	}
}

// IsSubtypeOf reports whether candidate is base or (transitively) extends
// base, via the explicit hierarchy RegisterClassHierarchy recorded.
func (r *TypeRegistry) IsSubtypeOf(candidate, base string) bool {
	if sameName(candidate, base) {
		return true
	}
	cur := normalizeName(candidate)
	baseN := normalizeName(base)
	visited := map[string]bool{}
	for {
		if visited[cur] {
			return false // defensive: hierarchy is guaranteed acyclic on registration
		}
		visited[cur] = true
		for _, iface := range r.interfaces[cur] {
			if iface == baseN {
				return true
			}
		}
		parent, ok := r.classParents[cur]
		if !ok {
			return false
		}
		if parent == baseN {
			return true
		}
		cur = parent
	}
}

// Assignable classifies whether a value of type source may be used where
// target is expected.
func (r *TypeRegistry) Assignable(target, source Type) AssignabilityClass {
	if target == nil || source == nil {
		return Incompatible
	}
	if target.Equals(source) {
		return Exact
	}

	effTarget := r.effectiveTypeOf(target)
	effSource := r.effectiveTypeOf(source)

	if st, ok := effTarget.(*StringType); ok {
		if _, isString := effSource.(*StringType); isString {
			return StringCoercion
		}
		_ = st
	}

	tInt, tIsInt := effTarget.(*IntegerType)
	sInt, sIsInt := effSource.(*IntegerType)
	if tIsInt && sIsInt {
		if tInt.Bits >= sInt.Bits && tInt.Signed == sInt.Signed {
			if tInt.Bits == sInt.Bits {
				return Exact
			}
			return Promotion
		}
		if tInt.Bits > sInt.Bits {
			return Promotion
		}
		return NarrowingWithWarning
	}

	tFloat, tIsFloat := effTarget.(*FloatType)
	sFloat, sIsFloat := effSource.(*FloatType)
	if tIsFloat && sIsInt {
		_ = sInt
		return Promotion
	}
	if tIsFloat && sIsFloat {
		if tFloat.Bits >= sFloat.Bits {
			return Promotion
		}
		return NarrowingWithWarning
	}

	tPtr, tIsPtr := effTarget.(*PointerType)
	sPtr, sIsPtr := effSource.(*PointerType)
	if tIsPtr && sIsPtr {
		if tPtr.Inner == nil || sPtr.Inner == nil {
			return PointerCompatible
		}
		if r.IsSubtypeOf(sPtr.Inner.CanonicalName(), tPtr.Inner.CanonicalName()) {
			return PointerCompatible
		}
		return Incompatible
	}

	if tStruct, ok := effTarget.(*StructType); ok {
		if sStruct, ok := effSource.(*StructType); ok {
			if r.IsSubtypeOf(sStruct.CanonicalName(), tStruct.CanonicalName()) {
				return PointerCompatible
			}
		}
	}

	if tSub, ok := target.(*SubRangeType); ok {
		return r.Assignable(tSub.Base, source)
	}

	return Incompatible
}

// CommonType computes the least-upper-bound arithmetic type of a and b, per
// spec §4.1 numeric promotion rules: integer widens to float; smaller
// widens to larger; same-width signed+unsigned widens to the next larger
// signed type.
func (r *TypeRegistry) CommonType(a, b Type) (Type, bool) {
	if a == nil || b == nil {
		return nil, false
	}
	effA, effB := r.effectiveTypeOf(a), r.effectiveTypeOf(b)

	if effA.Equals(effB) {
		return a, true
	}

	aFloat, aIsFloat := effA.(*FloatType)
	bFloat, bIsFloat := effB.(*FloatType)
	aInt, aIsInt := effA.(*IntegerType)
	bInt, bIsInt := effB.(*IntegerType)

	switch {
	case aIsFloat && bIsFloat:
		if aFloat.Bits >= bFloat.Bits {
			return a, true
		}
		return b, true
	case aIsFloat && bIsInt:
		return a, true
	case bIsFloat && aIsInt:
		return b, true
	case aIsInt && bIsInt:
		if aInt.Signed == bInt.Signed {
			if aInt.Bits >= bInt.Bits {
				return a, true
			}
			return b, true
		}
		// mixed signed/unsigned: widen to the next-larger signed type
		maxBits := aInt.Bits
		if bInt.Bits > maxBits {
			maxBits = bInt.Bits
		}
		nextBits := maxBits * 2
		if nextBits > 64 {
			nextBits = 64
		}
		return r.signedOfWidth(nextBits), true
	}

	return nil, false
}

func (r *TypeRegistry) signedOfWidth(bits int) Type {
	switch {
	case bits <= 8:
		return SInt
	case bits <= 16:
		return Int
	case bits <= 32:
		return DInt
	default:
		return LInt
	}
}

// SizeAndAlignment returns (bits, alignment-bits) for a type, for
// layout-aware generation. Struct sizes sum member sizes at their natural
// alignment; this is a frontend-level estimate the backend may refine.
func (r *TypeRegistry) SizeAndAlignment(t Type) (int, int) {
	switch v := r.effectiveTypeOf(t).(type) {
	case *IntegerType:
		return v.Bits, v.Bits
	case *FloatType:
		return v.Bits, v.Bits
	case *BoolType:
		return 8, 8
	case *StringType:
		unit := 8
		if v.Encoding == EncodingUTF16 {
			unit = 16
		}
		return (v.Size + 1) * unit, unit
	case *PointerType:
		return 64, 64
	case *EnumType:
		return r.SizeAndAlignment(v.Underlying)
	case *ArrayType:
		elemBits, elemAlign := r.SizeAndAlignment(v.Inner)
		count := int64(1)
		for _, b := range v.Bounds {
			if b.VariableLength {
				continue
			}
			count *= b.Length()
		}
		return int(count) * elemBits, elemAlign
	case *StructType:
		total, maxAlign := 0, 8
		for _, m := range v.Members {
			bits, align := r.SizeAndAlignment(m.Type)
			if align > maxAlign {
				maxAlign = align
			}
			if rem := total % align; rem != 0 {
				total += align - rem
			}
			total += bits
		}
		return total, maxAlign
	default:
		return 0, 8
	}
}

// DefaultStringSize is used when a STRING/WSTRING declaration omits an
// explicit [size].
const DefaultStringSize = 255

// AllNames returns every registered type's canonical (original-cased) name,
// used by diagnostics and by idempotent-indexing property tests.
func (r *TypeRegistry) AllNames() []string {
	names := make([]string, 0, len(r.byName))
	for _, t := range r.byName {
		names = append(names, t.CanonicalName())
	}
	return names
}
