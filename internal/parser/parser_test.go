package parser

import (
	"testing"

	"github.com/plcforge/stc/internal/lexer"
	"github.com/plcforge/stc/pkg/ast"
)

func parse(t *testing.T, src string) *ast.ParsedUnit {
	t.Helper()
	toks, lerrs := lexer.Tokenize(src)
	if len(lerrs) != 0 {
		t.Fatalf("lex errors: %v", lerrs)
	}
	unit, diags := Parse("test.st", toks)
	if len(diags) != 0 {
		t.Fatalf("parse diagnostics: %v", diags)
	}
	return unit
}

func TestParseSimpleProgram(t *testing.T) {
	src := `
PROGRAM Main
VAR
	x : INT;
	y : INT := 10;
END_VAR

x := y + 1;
END_PROGRAM`
	unit := parse(t, src)
	if len(unit.POUs) != 1 {
		t.Fatalf("got %d POUs, want 1", len(unit.POUs))
	}
	pou := unit.POUs[0]
	if pou.Kind != ast.POUProgram || pou.Name != "Main" {
		t.Fatalf("pou = %+v", pou)
	}
	if len(pou.VarBlocks) != 1 || len(pou.VarBlocks[0].Decls) != 2 {
		t.Fatalf("var blocks = %+v", pou.VarBlocks)
	}
	if len(pou.Implementation.Body.Statements) != 1 {
		t.Fatalf("body statements = %d, want 1", len(pou.Implementation.Body.Statements))
	}
	assign, ok := pou.Implementation.Body.Statements[0].(*ast.AssignmentStatement)
	if !ok {
		t.Fatalf("statement = %T, want *ast.AssignmentStatement", pou.Implementation.Body.Statements[0])
	}
	if _, ok := assign.Value.(*ast.BinaryExpression); !ok {
		t.Errorf("assignment value = %T, want *ast.BinaryExpression", assign.Value)
	}
}

func TestParseFunctionBlockWithMethodAndInheritance(t *testing.T) {
	src := `
FUNCTION_BLOCK Derived EXTENDS Base
VAR
	speed : INT;
END_VAR

METHOD Run : BOOL
VAR_INPUT
	target : INT;
END_VAR
RETURN TRUE;
END_METHOD

speed := 0;
END_FUNCTION_BLOCK`
	unit := parse(t, src)
	pou := unit.POUs[0]
	if pou.SuperClass != "Base" {
		t.Errorf("SuperClass = %q, want Base", pou.SuperClass)
	}
	if len(pou.Methods) != 1 || pou.Methods[0].Name != "Run" {
		t.Fatalf("methods = %+v", pou.Methods)
	}
	if len(pou.Methods[0].Params) != 1 {
		t.Errorf("method params = %+v", pou.Methods[0].Params)
	}
}

func TestParseIfElsifElse(t *testing.T) {
	src := `
PROGRAM P
VAR x : INT; END_VAR
IF x > 0 THEN
	x := 1;
ELSIF x < 0 THEN
	x := -1;
ELSE
	x := 0;
END_IF
END_PROGRAM`
	unit := parse(t, src)
	stmt := unit.POUs[0].Implementation.Body.Statements[0].(*ast.IfStatement)
	if len(stmt.ElseIfs) != 1 {
		t.Fatalf("elseifs = %d, want 1", len(stmt.ElseIfs))
	}
	if stmt.Else == nil {
		t.Fatal("expected an else branch")
	}
}

func TestParseForLoopWithStep(t *testing.T) {
	src := `
PROGRAM P
VAR i : INT; END_VAR
FOR i := 1 TO 10 BY 2 DO
	i := i;
END_FOR
END_PROGRAM`
	unit := parse(t, src)
	stmt := unit.POUs[0].Implementation.Body.Statements[0].(*ast.ForStatement)
	if stmt.Variable != "i" {
		t.Errorf("loop var = %q, want i", stmt.Variable)
	}
	if stmt.Step == nil {
		t.Fatal("expected a BY step expression")
	}
}

func TestParseArrayAndPointerTypes(t *testing.T) {
	src := `
PROGRAM P
VAR
	arr : ARRAY[0..9] OF INT;
	p : POINTER TO INT;
END_VAR
END_PROGRAM`
	unit := parse(t, src)
	blocks := unit.POUs[0].VarBlocks[0].Decls
	if _, ok := blocks[0].Type.(*ast.ArrayTypeNode); !ok {
		t.Errorf("arr type = %T, want *ast.ArrayTypeNode", blocks[0].Type)
	}
	if _, ok := blocks[1].Type.(*ast.PointerTypeNode); !ok {
		t.Errorf("p type = %T, want *ast.PointerTypeNode", blocks[1].Type)
	}
}

func TestParseTypeDeclSubrange(t *testing.T) {
	src := `TYPE Percent : INT(0..100); END_TYPE`
	unit := parse(t, src)
	if len(unit.TypeDecls) != 1 {
		t.Fatalf("type decls = %d, want 1", len(unit.TypeDecls))
	}
	sub, ok := unit.TypeDecls[0].Type.(*ast.SubrangeTypeNode)
	if !ok {
		t.Fatalf("type = %T, want *ast.SubrangeTypeNode", unit.TypeDecls[0].Type)
	}
	if sub.Base.String() != "INT" {
		t.Errorf("subrange base = %q, want INT", sub.Base.String())
	}
}

func TestParseCallExpressionWithNamedArgs(t *testing.T) {
	src := `
PROGRAM P
VAR r : BOOL; END_VAR
r := Compute(x := 1, y := 2);
END_PROGRAM`
	unit := parse(t, src)
	assign := unit.POUs[0].Implementation.Body.Statements[0].(*ast.AssignmentStatement)
	call, ok := assign.Value.(*ast.CallExpression)
	if !ok {
		t.Fatalf("value = %T, want *ast.CallExpression", assign.Value)
	}
	if len(call.Args) != 2 || call.ArgNames[0] != "x" || call.ArgNames[1] != "y" {
		t.Errorf("call = %+v", call)
	}
}

func TestParseDirectAddressVariable(t *testing.T) {
	src := `
PROGRAM P
VAR
	sensor AT %IX0.1 : BOOL;
END_VAR
END_PROGRAM`
	unit := parse(t, src)
	decl := unit.POUs[0].VarBlocks[0].Decls[0]
	if decl.HardwareAddress != "%IX0.1" {
		t.Errorf("HardwareAddress = %q, want %%IX0.1", decl.HardwareAddress)
	}
}

func TestSyntaxErrorReportedAsDiagnostic(t *testing.T) {
	toks, _ := lexer.Tokenize(`PROGRAM P VAR x INT; END_VAR END_PROGRAM`)
	_, diags := Parse("bad.st", toks)
	if len(diags) == 0 {
		t.Fatal("expected a syntax diagnostic for the missing ':'")
	}
}
