package index

import (
	"testing"

	"github.com/plcforge/stc/internal/types"
	"github.com/plcforge/stc/pkg/ast"
)

func namedType(name string) ast.TypeExpression { return &ast.NamedTypeRef{Name: name} }

func varBlock(kind ast.VarKind, names ...string) *ast.VarBlock {
	decls := make([]*ast.VarDecl, len(names))
	for i, n := range names {
		decls[i] = &ast.VarDecl{Name: n, Type: namedType("INT")}
	}
	return &ast.VarBlock{Kind: kind, Decls: decls}
}

func method(name string) *ast.MethodDecl { return &ast.MethodDecl{Name: name} }

func TestFindVariableWalksMemberPath(t *testing.T) {
	inner := &ast.POUDecl{
		Kind:      ast.POUFunctionBlock,
		Name:      "Motor",
		VarBlocks: []*ast.VarBlock{varBlock(ast.VarLocal, "speed")},
	}
	outer := &ast.POUDecl{
		Kind: ast.POUProgram,
		Name: "Main",
		VarBlocks: []*ast.VarBlock{
			{Kind: ast.VarLocal, Decls: []*ast.VarDecl{{Name: "m1", Type: namedType("Motor")}}},
		},
	}
	program := &ast.Program{Units: []*ast.ParsedUnit{{POUs: []*ast.POUDecl{inner, outer}}}}

	ix := NewIndex(types.NewTypeRegistry())
	if diags := ix.Rebuild(program); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	v, ok := ix.FindVariable("Main", []string{"m1", "speed"})
	if !ok {
		t.Fatal("FindVariable(Main, [m1, speed]) not found")
	}
	if v.Name != "speed" || v.Owner != "Motor" {
		t.Errorf("FindVariable resolved to %+v, want speed member of Motor", v)
	}
}

func TestPOUMembersParentFirst(t *testing.T) {
	parent := &ast.POUDecl{
		Kind:      ast.POUFunctionBlock,
		Name:      "Base",
		VarBlocks: []*ast.VarBlock{varBlock(ast.VarLocal, "a")},
	}
	child := &ast.POUDecl{
		Kind:       ast.POUFunctionBlock,
		Name:       "Derived",
		SuperClass: "Base",
		VarBlocks:  []*ast.VarBlock{varBlock(ast.VarLocal, "b")},
	}
	program := &ast.Program{Units: []*ast.ParsedUnit{{POUs: []*ast.POUDecl{parent, child}}}}

	ix := NewIndex(types.NewTypeRegistry())
	ix.Rebuild(program)

	members := ix.POUMembers("Derived")
	if len(members) != 2 {
		t.Fatalf("POUMembers(Derived) = %d members, want 2", len(members))
	}
	if members[0].Name != "a" || members[1].Name != "b" {
		t.Errorf("POUMembers order = [%s, %s], want [a, b] (parent first)", members[0].Name, members[1].Name)
	}
}

func TestMethodResolutionFindsOverride(t *testing.T) {
	parent := &ast.POUDecl{
		Kind:    ast.POUFunctionBlock,
		Name:    "Base",
		Methods: []*ast.MethodDecl{method("Run"), method("Stop")},
	}
	child := &ast.POUDecl{
		Kind:       ast.POUFunctionBlock,
		Name:       "Derived",
		SuperClass: "Base",
		Methods:    []*ast.MethodDecl{method("Run")},
	}
	program := &ast.Program{Units: []*ast.ParsedUnit{{POUs: []*ast.POUDecl{parent, child}}}}

	ix := NewIndex(types.NewTypeRegistry())
	ix.Rebuild(program)

	owner, ok := ix.MethodResolution("Derived", "Run")
	if !ok || owner != "Derived" {
		t.Errorf("MethodResolution(Derived, Run) = %q, want Derived (overridden)", owner)
	}
	owner, ok = ix.MethodResolution("Derived", "Stop")
	if !ok || owner != "Base" {
		t.Errorf("MethodResolution(Derived, Stop) = %q, want Base (inherited, not overridden)", owner)
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	pou := &ast.POUDecl{Kind: ast.POUProgram, Name: "Main"}
	program := &ast.Program{Units: []*ast.ParsedUnit{{POUs: []*ast.POUDecl{pou}}}}

	ix := NewIndex(types.NewTypeRegistry())
	ix.Rebuild(program)
	first := ix.AllPOUNames()
	ix.Rebuild(program)
	second := ix.AllPOUNames()

	if len(first) != len(second) || len(first) != 1 {
		t.Fatalf("rebuild was not idempotent: %v vs %v", first, second)
	}
}

func TestDuplicatePOUReportsDiagnostic(t *testing.T) {
	a := &ast.POUDecl{Kind: ast.POUProgram, Name: "Main"}
	b := &ast.POUDecl{Kind: ast.POUProgram, Name: "Main"}
	program := &ast.Program{Units: []*ast.ParsedUnit{{POUs: []*ast.POUDecl{a, b}}}}

	ix := NewIndex(types.NewTypeRegistry())
	diags := ix.Rebuild(program)
	if len(diags) != 1 {
		t.Fatalf("Rebuild() diagnostics = %d, want 1 duplicate-declaration diagnostic", len(diags))
	}
}

func TestFindCallableResolvesInstanceVariable(t *testing.T) {
	fb := &ast.POUDecl{Kind: ast.POUFunctionBlock, Name: "Motor"}
	prog := &ast.POUDecl{
		Kind: ast.POUProgram,
		Name: "Main",
		VarBlocks: []*ast.VarBlock{
			{Kind: ast.VarLocal, Decls: []*ast.VarDecl{{Name: "m1", Type: namedType("Motor")}}},
		},
	}
	program := &ast.Program{Units: []*ast.ParsedUnit{{POUs: []*ast.POUDecl{fb, prog}}}}

	ix := NewIndex(types.NewTypeRegistry())
	ix.Rebuild(program)

	p, ok := ix.FindCallable("Main", "m1")
	if !ok || p.QualifiedName != "Motor" {
		t.Errorf("FindCallable(Main, m1) = %+v, want Motor", p)
	}
}
