package lowering

import "github.com/plcforge/stc/pkg/ast"

// InitializerBuilder is LoweringPipeline participant 5 (spec §4.4,
// post_index): for every POU with at least one member carrying a non-nil
// initializer it synthesizes an __init_<Name> action that assigns each
// member its initial value and then invokes a __user_init_<Name> hook
// (added empty if the POU doesn't already declare one), so user code can
// extend construction without editing the synthesized assignments. A single
// __init___<Project> function POU, added to the first unit, calls every synthesized
// initializer in declaration order — a dependency-order approximation
// documented in the design notes, since a full dependency graph over
// composite member types is out of scope here.
type InitializerBuilder struct{}

func (InitializerBuilder) Name() string { return "InitializerBuilder" }

func (InitializerBuilder) PostIndex(program *ast.Program, ctx *Context) {
	var rootCalls []string
	for _, unit := range program.Units {
		for _, pou := range unit.POUs {
			if buildInitializer(unit, pou) {
				rootCalls = append(rootCalls, pou.Name)
			}
		}
	}
	if len(rootCalls) == 0 || len(program.Units) == 0 {
		return
	}
	synthesizeProjectInit(program.Units[0], rootCalls)
}

func buildInitializer(unit *ast.ParsedUnit, pou *ast.POUDecl) bool {
	var assigns []ast.Statement
	for _, blk := range pou.VarBlocks {
		for _, decl := range blk.Decls {
			if decl.Initializer == nil || decl.Name == "__parent" {
				continue
			}
			assigns = append(assigns, &ast.AssignmentStatement{
				BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()},
				Target:   &ast.Identifier{BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()}, Value: decl.Name},
				Value:    decl.Initializer,
			})
		}
	}
	if len(assigns) == 0 {
		return false
	}

	userInitName := "__user_init_" + pou.Name
	if !hasAction(pou, userInitName) {
		pou.Actions = append(pou.Actions, &ast.ActionDecl{
			BaseNode:       ast.BaseNode{NodeIDValue: unit.IDs().Next()},
			Name:           userInitName,
			Owner:          pou.Name,
			Implementation: &ast.Implementation{BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()}, Body: &ast.Block{BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()}}},
		})
	}

	assigns = append(assigns, &ast.ExpressionStatement{
		BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()},
		Expr: &ast.CallExpression{
			BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()},
			Callee:   &ast.Identifier{BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()}, Value: userInitName},
		},
	})

	pou.Actions = append(pou.Actions, &ast.ActionDecl{
		BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()},
		Name:     "__init_" + pou.Name,
		Owner:    pou.Name,
		Implementation: &ast.Implementation{
			BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()},
			Body:     &ast.Block{BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()}, Statements: assigns},
		},
	})
	return true
}

func hasAction(pou *ast.POUDecl, name string) bool {
	for _, a := range pou.Actions {
		if normalize(a.Name) == normalize(name) {
			return true
		}
	}
	return false
}

func synthesizeProjectInit(unit *ast.ParsedUnit, pouNames []string) {
	projectName := unit.FileName
	var calls []ast.Statement
	for _, name := range pouNames {
		calls = append(calls, &ast.ExpressionStatement{
			BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()},
			Expr: &ast.CallExpression{
				BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()},
				Callee:   &ast.Identifier{BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()}, Value: "__init_" + name},
			},
		})
	}
	unit.POUs = append(unit.POUs, &ast.POUDecl{
		BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()},
		Kind:     ast.POUFunction,
		Name:     "__init___" + projectName,
		Linkage:  ast.LinkageInternal,
		Implementation: &ast.Implementation{
			BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()},
			Body:     &ast.Block{BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()}, Statements: calls},
		},
	})
}
