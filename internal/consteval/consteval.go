// Package consteval implements the ConstantEvaluator (spec component C2):
// deterministic, side-effect-free folding of compile-time-constant
// expressions — array bounds, case labels, VAR CONSTANT initializers, enum
// values.
package consteval

import (
	"fmt"
	"strings"

	"github.com/plcforge/stc/pkg/ast"
	"github.com/plcforge/stc/pkg/diag"
)

// LiteralKind classifies a folded constant value.
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitReal
	LitBool
	LitString
	LitArray
)

// Literal is a folded compile-time value.
type Literal struct {
	Kind  LiteralKind
	Int   int64
	Real  float64
	Bool  bool
	Str   string
	Array []Literal
}

func IntLiteral(v int64) Literal    { return Literal{Kind: LitInt, Int: v} }
func RealLiteral(v float64) Literal { return Literal{Kind: LitReal, Real: v} }
func BoolLiteral(v bool) Literal    { return Literal{Kind: LitBool, Bool: v} }
func StringLit(v string) Literal    { return Literal{Kind: LitString, Str: v} }

// AsFloat returns the literal's value widened to float64, for arithmetic
// between an int and a real operand.
func (l Literal) AsFloat() float64 {
	if l.Kind == LitReal {
		return l.Real
	}
	return float64(l.Int)
}

// Status is the three-way outcome of a Fold call (spec §4.2 Contract).
type Status int

const (
	Resolved Status = iota
	Unresolvable
	Errored
)

// Result is the outcome of folding one AST fragment.
type Result struct {
	Status     Status
	Value      Literal
	Reason     string // populated when Status == Unresolvable
	Diagnostic *diag.Diagnostic
}

func resolved(v Literal) Result { return Result{Status: Resolved, Value: v} }
func unresolvable(reason string) Result {
	return Result{Status: Unresolvable, Reason: reason}
}
func errored(d *diag.Diagnostic) Result { return Result{Status: Errored, Diagnostic: d} }

// Env supplies names already known to be constant — other VAR CONSTANT
// declarations and enum variants — so a single Fold call doesn't need to
// re-derive the whole program; the fixed-point loop (lowering.ConstantFolder)
// rebuilds Env with newly-resolved names between rounds.
type Env struct {
	values map[string]Literal
}

// NewEnv returns an empty environment.
func NewEnv() *Env { return &Env{values: make(map[string]Literal)} }

func (e *Env) Define(name string, v Literal) { e.values[normalize(name)] = v }

func (e *Env) Lookup(name string) (Literal, bool) {
	v, ok := e.values[normalize(name)]
	return v, ok
}

func normalize(s string) string { return strings.ToLower(s) }

// Evaluator folds AST expression fragments to Literals. It holds no mutable
// state of its own — memoization across the fixed-point loop is the
// caller's responsibility (lowering.ConstantFolder keyed by ast.NodeID) —
// so a single Evaluator value may be reused freely and concurrently.
type Evaluator struct{}

// NewEvaluator returns a stateless constant evaluator.
func NewEvaluator() *Evaluator { return &Evaluator{} }

// Fold evaluates expr to a constant Literal using env for named lookups.
func (ev *Evaluator) Fold(expr ast.Expression, env *Env) Result {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return resolved(IntLiteral(e.Value))
	case *ast.RealLiteral:
		return resolved(RealLiteral(e.Value))
	case *ast.BoolLiteral:
		return resolved(BoolLiteral(e.Value))
	case *ast.StringLiteral:
		return resolved(StringLit(e.Value))
	case *ast.EnumLiteral:
		if v, ok := env.Lookup(e.Name); ok {
			return resolved(v)
		}
		return unresolvable(fmt.Sprintf("enum variant %q is not yet resolved", e.Name))
	case *ast.Identifier:
		if v, ok := env.Lookup(e.Value); ok {
			return resolved(v)
		}
		return unresolvable(fmt.Sprintf("%q is not a resolved constant", e.Value))
	case *ast.QualifiedIdentifier:
		if v, ok := env.Lookup(strings.Join(e.Parts, ".")); ok {
			return resolved(v)
		}
		return unresolvable(fmt.Sprintf("%q is not a resolved constant", strings.Join(e.Parts, ".")))
	case *ast.UnaryExpression:
		operand := ev.Fold(e.Operand, env)
		if operand.Status != Resolved {
			return operand
		}
		return ev.applyUnary(e.Operator, operand.Value, e)
	case *ast.BinaryExpression:
		left := ev.Fold(e.Left, env)
		if left.Status != Resolved {
			return left
		}
		right := ev.Fold(e.Right, env)
		if right.Status != Resolved {
			return right
		}
		return ev.applyBinary(e.Operator, left.Value, right.Value, e)
	case *ast.ArrayLiteral:
		values := make([]Literal, len(e.Elements))
		for i, el := range e.Elements {
			r := ev.Fold(el, env)
			if r.Status != Resolved {
				return r
			}
			values[i] = r.Value
		}
		return resolved(Literal{Kind: LitArray, Array: values})
	default:
		return unresolvable("expression is not constant-foldable")
	}
}

func (ev *Evaluator) applyUnary(op string, v Literal, node ast.Expression) Result {
	switch op {
	case "-":
		if v.Kind == LitReal {
			return resolved(RealLiteral(-v.Real))
		}
		return resolved(IntLiteral(-v.Int))
	case "+":
		return resolved(v)
	case "NOT", "not":
		return resolved(BoolLiteral(!v.Bool))
	default:
		return errored(&diag.Diagnostic{
			Severity: diag.Error,
			Kind:     diag.InvalidCast,
			Message:  fmt.Sprintf("unknown unary constant operator %q", op),
			Primary:  node.Pos(),
		})
	}
}

func (ev *Evaluator) applyBinary(op string, l, r Literal, node ast.Expression) Result {
	opU := strings.ToUpper(op)
	isReal := l.Kind == LitReal || r.Kind == LitReal
	isString := l.Kind == LitString || r.Kind == LitString

	switch opU {
	case "+":
		if isString {
			return resolved(StringLit(l.Str + r.Str))
		}
		if isReal {
			return resolved(RealLiteral(l.AsFloat() + r.AsFloat()))
		}
		return resolved(IntLiteral(l.Int + r.Int))
	case "&":
		return resolved(StringLit(l.Str + r.Str))
	case "-":
		if isReal {
			return resolved(RealLiteral(l.AsFloat() - r.AsFloat()))
		}
		return resolved(IntLiteral(l.Int - r.Int))
	case "*":
		if isReal {
			return resolved(RealLiteral(l.AsFloat() * r.AsFloat()))
		}
		return resolved(IntLiteral(l.Int * r.Int))
	case "/":
		if isReal {
			if r.AsFloat() == 0 {
				return errored(divByZero(node))
			}
			return resolved(RealLiteral(l.AsFloat() / r.AsFloat()))
		}
		if r.Int == 0 {
			return errored(divByZero(node))
		}
		return resolved(IntLiteral(l.Int / r.Int))
	case "MOD":
		if r.Int == 0 {
			return errored(divByZero(node))
		}
		return resolved(IntLiteral(l.Int % r.Int))
	case "=":
		return resolved(BoolLiteral(literalsEqual(l, r)))
	case "<>":
		return resolved(BoolLiteral(!literalsEqual(l, r)))
	case "<":
		return resolved(BoolLiteral(compareLiterals(l, r) < 0))
	case "<=":
		return resolved(BoolLiteral(compareLiterals(l, r) <= 0))
	case ">":
		return resolved(BoolLiteral(compareLiterals(l, r) > 0))
	case ">=":
		return resolved(BoolLiteral(compareLiterals(l, r) >= 0))
	case "AND":
		return resolved(BoolLiteral(l.Bool && r.Bool))
	case "OR":
		return resolved(BoolLiteral(l.Bool || r.Bool))
	case "XOR":
		return resolved(BoolLiteral(l.Bool != r.Bool))
	default:
		return errored(&diag.Diagnostic{
			Severity: diag.Error,
			Kind:     diag.InvalidCast,
			Message:  fmt.Sprintf("unknown constant binary operator %q", op),
			Primary:  node.Pos(),
		})
	}
}

func divByZero(node ast.Expression) *diag.Diagnostic {
	return &diag.Diagnostic{
		Severity: diag.Error,
		Kind:     diag.OutOfRange,
		Message:  "division by zero in constant expression",
		Primary:  node.Pos(),
	}
}

func literalsEqual(l, r Literal) bool {
	if l.Kind == LitReal || r.Kind == LitReal {
		return l.AsFloat() == r.AsFloat()
	}
	switch l.Kind {
	case LitString:
		return l.Str == r.Str
	case LitBool:
		return l.Bool == r.Bool
	default:
		return l.Int == r.Int
	}
}

func compareLiterals(l, r Literal) int {
	if l.Kind == LitString {
		return strings.Compare(l.Str, r.Str)
	}
	lf, rf := l.AsFloat(), r.AsFloat()
	switch {
	case lf < rf:
		return -1
	case lf > rf:
		return 1
	default:
		return 0
	}
}

// InRange checks a folded integer literal against an inclusive [lo, hi]
// bound, used by TYPE ... : base(lo..hi); END_TYPE initializer checks
// (spec §8 scenario 4) and array-bound validation.
func InRange(v Literal, lo, hi int64) bool {
	return v.Kind == LitInt && v.Int >= lo && v.Int <= hi
}
