package consteval

import (
	"testing"

	"github.com/plcforge/stc/pkg/ast"
)

func intLit(v int64) *ast.IntegerLiteral { return &ast.IntegerLiteral{Value: v} }

func TestFoldIntegerLiteral(t *testing.T) {
	ev := NewEvaluator()
	r := ev.Fold(intLit(42), NewEnv())
	if r.Status != Resolved || r.Value.Int != 42 {
		t.Fatalf("Fold(42) = %+v, want Resolved/42", r)
	}
}

func TestFoldBinaryArithmetic(t *testing.T) {
	ev := NewEvaluator()
	expr := &ast.BinaryExpression{Left: intLit(3), Operator: "+", Right: intLit(4)}
	r := ev.Fold(expr, NewEnv())
	if r.Status != Resolved || r.Value.Int != 7 {
		t.Fatalf("Fold(3+4) = %+v, want Resolved/7", r)
	}
}

func TestFoldPromotesToReal(t *testing.T) {
	ev := NewEvaluator()
	expr := &ast.BinaryExpression{
		Left:     intLit(2),
		Operator: "*",
		Right:    &ast.RealLiteral{Value: 1.5},
	}
	r := ev.Fold(expr, NewEnv())
	if r.Status != Resolved || r.Value.Kind != LitReal || r.Value.Real != 3.0 {
		t.Fatalf("Fold(2*1.5) = %+v, want Resolved real 3.0", r)
	}
}

func TestFoldDivisionByZeroErrors(t *testing.T) {
	ev := NewEvaluator()
	expr := &ast.BinaryExpression{Left: intLit(1), Operator: "/", Right: intLit(0)}
	r := ev.Fold(expr, NewEnv())
	if r.Status != Errored || r.Diagnostic == nil {
		t.Fatalf("Fold(1/0) = %+v, want Errored with a diagnostic", r)
	}
}

func TestFoldUnresolvedIdentifier(t *testing.T) {
	ev := NewEvaluator()
	r := ev.Fold(&ast.Identifier{Value: "MAX_COUNT"}, NewEnv())
	if r.Status != Unresolvable {
		t.Fatalf("Fold(unresolved identifier) = %+v, want Unresolvable", r)
	}
}

func TestFoldResolvesForwardReferenceOnceEnvPopulated(t *testing.T) {
	ev := NewEvaluator()
	env := NewEnv()
	ref := &ast.Identifier{Value: "MAX_COUNT"}

	if r := ev.Fold(ref, env); r.Status != Unresolvable {
		t.Fatalf("first pass: expected Unresolvable before MAX_COUNT is defined, got %+v", r)
	}

	env.Define("MAX_COUNT", IntLiteral(10))
	r := ev.Fold(ref, env)
	if r.Status != Resolved || r.Value.Int != 10 {
		t.Fatalf("second pass: expected Resolved/10 once MAX_COUNT is defined, got %+v", r)
	}
}

func TestFoldArrayLiteral(t *testing.T) {
	ev := NewEvaluator()
	expr := &ast.ArrayLiteral{Elements: []ast.Expression{intLit(1), intLit(2), intLit(3)}}
	r := ev.Fold(expr, NewEnv())
	if r.Status != Resolved || len(r.Value.Array) != 3 {
		t.Fatalf("Fold([1,2,3]) = %+v, want a resolved 3-element array", r)
	}
}

func TestFoldComparisonAndLogic(t *testing.T) {
	ev := NewEvaluator()
	cmp := &ast.BinaryExpression{Left: intLit(5), Operator: "<", Right: intLit(10)}
	r := ev.Fold(cmp, NewEnv())
	if r.Status != Resolved || r.Value.Kind != LitBool || !r.Value.Bool {
		t.Fatalf("Fold(5<10) = %+v, want Resolved/true", r)
	}

	conj := &ast.BinaryExpression{
		Left:     &ast.BoolLiteral{Value: true},
		Operator: "AND",
		Right:    &ast.BoolLiteral{Value: false},
	}
	r = ev.Fold(conj, NewEnv())
	if r.Status != Resolved || r.Value.Bool {
		t.Fatalf("Fold(TRUE AND FALSE) = %+v, want Resolved/false", r)
	}
}

func TestInRange(t *testing.T) {
	if !InRange(IntLiteral(50), 0, 100) {
		t.Error("50 should be in [0, 100]")
	}
	if InRange(IntLiteral(150), 0, 100) {
		t.Error("150 should not be in [0, 100]")
	}
}

func TestNestedForwardReferenceFixedPoint(t *testing.T) {
	// B := A + 1; A := 10  -- B depends on A, resolved only once A is in env,
	// modeling the ConstantFolder's fixed-point loop across declaration order.
	ev := NewEvaluator()
	env := NewEnv()
	bExpr := &ast.BinaryExpression{Left: &ast.Identifier{Value: "A"}, Operator: "+", Right: intLit(1)}

	if r := ev.Fold(bExpr, env); r.Status != Unresolvable {
		t.Fatalf("expected B unresolvable before A is defined, got %+v", r)
	}

	env.Define("A", IntLiteral(10))
	r := ev.Fold(bExpr, env)
	if r.Status != Resolved || r.Value.Int != 11 {
		t.Fatalf("expected B resolved to 11 once A is defined, got %+v", r)
	}
}
