package lowering

import (
	"testing"

	"github.com/plcforge/stc/pkg/ast"
)

func namedType(name string) ast.TypeExpression { return &ast.NamedTypeRef{Name: name} }

func unitWith(pous ...*ast.POUDecl) *ast.ParsedUnit {
	u := ast.NewParsedUnit("test.st")
	u.POUs = pous
	return u
}

func TestPropertyLowererRewritesReadsAndWrites(t *testing.T) {
	getter := &ast.Block{Statements: []ast.Statement{
		&ast.ReturnStatement{Value: &ast.Identifier{Value: "speed"}},
	}}
	setter := &ast.Block{Statements: []ast.Statement{
		&ast.AssignmentStatement{Target: &ast.Identifier{Value: "speed"}, Value: &ast.Identifier{Value: "value"}},
	}}
	pou := &ast.POUDecl{
		Kind: ast.POUFunctionBlock,
		Name: "Motor",
		VarBlocks: []*ast.VarBlock{
			{Kind: ast.VarLocal, Decls: []*ast.VarDecl{{Name: "speed", Type: namedType("INT")}}},
		},
		Properties: []*ast.PropertyDecl{
			{Name: "Speed", Type: namedType("INT"), Getter: getter, Setter: setter},
		},
		Implementation: &ast.Implementation{Body: &ast.Block{Statements: []ast.Statement{
			&ast.AssignmentStatement{Target: &ast.Identifier{Value: "Speed"}, Value: &ast.IntegerLiteral{Value: 5}},
		}}},
	}
	program := &ast.Program{Units: []*ast.ParsedUnit{unitWith(pou)}}

	(PropertyLowerer{}).PreIndex(program, NewContext())

	if len(pou.Properties) != 0 {
		t.Fatalf("Properties = %v, want none left after lowering", pou.Properties)
	}
	var names []string
	for _, m := range pou.Methods {
		names = append(names, m.Name)
	}
	if len(names) != 2 || names[0] != "GetSpeed" || names[1] != "SetSpeed" {
		t.Fatalf("synthesized methods = %v, want [GetSpeed SetSpeed]", names)
	}

	stmt := pou.Implementation.Body.Statements[0]
	exprStmt, ok := stmt.(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("body statement = %T, want *ast.ExpressionStatement (rewritten Speed := 5)", stmt)
	}
	call, ok := exprStmt.Expr.(*ast.CallExpression)
	if !ok || call.Callee.(*ast.Identifier).Value != "SetSpeed" {
		t.Fatalf("rewritten call = %+v, want SetSpeed(5)", exprStmt.Expr)
	}
}

func TestInheritanceFlattenerAddsParentField(t *testing.T) {
	pou := &ast.POUDecl{Kind: ast.POUFunctionBlock, Name: "Derived", SuperClass: "Base"}
	program := &ast.Program{Units: []*ast.ParsedUnit{unitWith(pou)}}

	(InheritanceFlattener{}).PreIndex(program, NewContext())

	if len(pou.VarBlocks) != 1 || len(pou.VarBlocks[0].Decls) != 1 {
		t.Fatalf("VarBlocks = %+v, want one block with one decl", pou.VarBlocks)
	}
	field := pou.VarBlocks[0].Decls[0]
	if field.Name != "__parent" || field.Type.String() != "Base" {
		t.Errorf("field 0 = %+v, want __parent : Base", field)
	}
}

func TestInlineTypePromoterExtractsNamedType(t *testing.T) {
	ctx := NewContext()
	pou := &ast.POUDecl{
		Kind: ast.POUProgram,
		Name: "Main",
		VarBlocks: []*ast.VarBlock{
			{Kind: ast.VarLocal, Decls: []*ast.VarDecl{
				{Name: "point", Type: &ast.StructTypeNode{Fields: []ast.StructFieldDecl{
					{Name: "x", Type: namedType("INT")},
					{Name: "y", Type: namedType("INT")},
				}}},
			}},
		},
	}
	program := &ast.Program{Units: []*ast.ParsedUnit{unitWith(pou)}}

	(InlineTypePromoter{}).PreIndex(program, ctx)

	decl := pou.VarBlocks[0].Decls[0]
	named, ok := decl.Type.(*ast.NamedTypeRef)
	if !ok || named.Name != "__Main_point" {
		t.Fatalf("promoted type = %+v, want NamedTypeRef __Main_point", decl.Type)
	}
	st, ok := ctx.Types.Find("__Main_point")
	if !ok {
		t.Fatal("__Main_point was not registered in the type registry")
	}
	if st.String() != "STRUCT __Main_point" {
		t.Errorf("registered type = %q", st.String())
	}
}

func TestVTableSynthesizerOrdersInheritedSlotsFirst(t *testing.T) {
	ctx := NewContext()
	base := &ast.POUDecl{Kind: ast.POUFunctionBlock, Name: "Base", Methods: []*ast.MethodDecl{{Name: "Run"}, {Name: "Stop"}}}
	derived := &ast.POUDecl{Kind: ast.POUFunctionBlock, Name: "Derived", SuperClass: "Base", Methods: []*ast.MethodDecl{{Name: "Run"}, {Name: "Reset"}}}
	program := &ast.Program{Units: []*ast.ParsedUnit{unitWith(base, derived)}}

	(VTableSynthesizer{}).PreIndex(program, ctx)

	if _, ok := ctx.Types.Find("__vtable_Derived"); !ok {
		t.Fatal("__vtable_Derived was not registered")
	}
	slots := vtableSlots(derived, pousByName(program))
	want := []string{"Run", "Stop", "Reset"}
	if len(slots) != len(want) {
		t.Fatalf("slots = %v, want %v", slots, want)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Errorf("slot %d = %q, want %q", i, slots[i], want[i])
		}
	}
}

func TestInitializerBuilderSynthesizesInitAndProjectEntry(t *testing.T) {
	ctx := NewContext()
	pou := &ast.POUDecl{
		Kind: ast.POUProgram,
		Name: "Main",
		VarBlocks: []*ast.VarBlock{
			{Kind: ast.VarLocal, Decls: []*ast.VarDecl{
				{Name: "x", Type: namedType("INT"), Initializer: &ast.IntegerLiteral{Value: 42}},
			}},
		},
	}
	unit := unitWith(pou)
	program := &ast.Program{Units: []*ast.ParsedUnit{unit}}
	ctx.Index.Rebuild(program)

	(InitializerBuilder{}).PostIndex(program, ctx)

	if !hasAction(pou, "__init_Main") || !hasAction(pou, "__user_init_Main") {
		t.Fatalf("actions = %+v, want __init_Main and __user_init_Main", pou.Actions)
	}
	found := false
	for _, p := range unit.POUs {
		if p.Name == "__init___test.st" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a synthesized __init___<project> POU")
	}
}

func TestConstantFolderResolvesForwardReferenceAndEnum(t *testing.T) {
	ctx := NewContext()
	a := &ast.VarDecl{Name: "A", Type: namedType("INT"), Initializer: &ast.Identifier{BaseNode: ast.BaseNode{NodeIDValue: 1}, Value: "B"}}
	b := &ast.VarDecl{Name: "B", Type: namedType("INT"), Initializer: &ast.IntegerLiteral{BaseNode: ast.BaseNode{NodeIDValue: 2}, Value: 7}}
	unit := unitWith()
	unit.GlobalVarBlocks = []*ast.VarBlock{{Kind: ast.VarConstant, Decls: []*ast.VarDecl{a, b}}}
	unit.TypeDecls = []*ast.TypeDecl{
		{Name: "Color", Type: &ast.EnumTypeNode{Variants: []ast.EnumVariant{{Name: "Red"}, {Name: "Green"}}}},
	}
	program := &ast.Program{Units: []*ast.ParsedUnit{unit}}
	ctx.Index.Rebuild(program)

	(ConstantFolder{}).PostIndex(program, ctx)

	ce, ok := ctx.Index.Constant(a.Initializer.ID())
	if !ok || !ce.Resolved || ce.Value.Int != 7 {
		t.Fatalf("constant A = %+v, want resolved 7", ce)
	}
	if ctx.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", ctx.Diags.All())
	}
}

func TestPipelineRunsParticipantsInOrder(t *testing.T) {
	pipeline := NewPipeline()
	pou := &ast.POUDecl{
		Kind:       ast.POUFunctionBlock,
		Name:       "Derived",
		SuperClass: "Base",
		Properties: []*ast.PropertyDecl{{Name: "Speed", Type: namedType("INT")}},
		Implementation: &ast.Implementation{Body: &ast.Block{}},
	}
	base := &ast.POUDecl{Kind: ast.POUFunctionBlock, Name: "Base"}
	program := &ast.Program{Units: []*ast.ParsedUnit{unitWith(base, pou)}}
	ctx := NewContext()

	pipeline.RunPreIndex(program, ctx)
	diags := ctx.Index.Rebuild(program)
	if len(diags) != 0 {
		t.Fatalf("unexpected index diagnostics: %v", diags)
	}
	pipeline.RunPostIndex(program, ctx)

	if len(pou.Properties) != 0 {
		t.Error("PropertyLowerer did not run before indexing")
	}
	if pou.VarBlocks[0].Decls[0].Name != "__parent" {
		t.Error("InheritanceFlattener did not run")
	}
}
