package lowering

import "github.com/plcforge/stc/pkg/ast"

// PropertyLowerer is LoweringPipeline participant 1 (spec §4.4): it
// translates each PROPERTY into a Get<Name>/Set<Name> method pair and
// rewrites every read/write of the property name inside the owning POU into
// the corresponding call, so later passes never see a PropertyDecl again.
type PropertyLowerer struct{}

func (PropertyLowerer) Name() string { return "PropertyLowerer" }

func (PropertyLowerer) PreIndex(program *ast.Program, ctx *Context) {
	for _, unit := range program.Units {
		for _, pou := range unit.POUs {
			lowerProperties(unit, pou)
		}
	}
}

func lowerProperties(unit *ast.ParsedUnit, pou *ast.POUDecl) {
	if len(pou.Properties) == 0 {
		return
	}
	byName := make(map[string]*ast.PropertyDecl, len(pou.Properties))
	for _, p := range pou.Properties {
		byName[normalize(p.Name)] = p
		if p.Getter != nil {
			pou.Methods = append(pou.Methods, &ast.MethodDecl{
				BaseNode:   ast.BaseNode{NodeIDValue: unit.IDs().Next()},
				Name:       "Get" + p.Name,
				Owner:      pou.Name,
				ReturnType: p.Type,
				Implementation: &ast.Implementation{
					BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()},
					Body:     p.Getter,
				},
			})
		}
		if p.Setter != nil {
			valueParam := &ast.VarDecl{
				BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()},
				Name:     "value",
				Type:     p.Type,
			}
			pou.Methods = append(pou.Methods, &ast.MethodDecl{
				BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()},
				Name:     "Set" + p.Name,
				Owner:    pou.Name,
				Params: []*ast.VarBlock{{
					BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()},
					Kind:     ast.VarInput,
					Decls:    []*ast.VarDecl{valueParam},
				}},
				Implementation: &ast.Implementation{
					BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()},
					Body:     p.Setter,
				},
			})
		}
	}

	er := func(id *ast.Identifier) (ast.Expression, bool) {
		p, ok := byName[normalize(id.Value)]
		if !ok || p.Getter == nil {
			return nil, false
		}
		return &ast.CallExpression{
			BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()},
			Callee:   &ast.Identifier{BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()}, Value: "Get" + p.Name},
		}, true
	}
	ar := func(target *ast.Identifier, value ast.Expression) (ast.Statement, bool) {
		p, ok := byName[normalize(target.Value)]
		if !ok || p.Setter == nil {
			return nil, false
		}
		call := &ast.CallExpression{
			BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()},
			Callee:   &ast.Identifier{BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()}, Value: "Set" + p.Name},
			Args:     []ast.Expression{value},
			ArgNames: []string{""},
		}
		return &ast.ExpressionStatement{BaseNode: ast.BaseNode{NodeIDValue: unit.IDs().Next()}, Expr: call}, true
	}

	everyImplementation(pou, func(b *ast.Block) { rewriteBlock(b, er, ar) })

	pou.Properties = nil
}
