package lowering

import (
	"fmt"

	"github.com/plcforge/stc/internal/consteval"
	"github.com/plcforge/stc/pkg/ast"
	"github.com/plcforge/stc/pkg/diag"
)

// ConstantFolder is LoweringPipeline participant 6 (spec §4.4, post_index):
// it drives the ConstantEvaluator to a fixed point over every VAR_CONSTANT
// initializer and enum variant value in the program, registering each
// resolved value in the Index by its initializer's stable node id so later
// phases (array bounds, CASE labels, subrange checks) can re-query it
// without re-folding.
type ConstantFolder struct{}

func (ConstantFolder) Name() string { return "ConstantFolder" }

type constCandidate struct {
	id    ast.NodeID
	expr  ast.Expression
	names []string // every name this value should be Define()'d under
}

func (ConstantFolder) PostIndex(program *ast.Program, ctx *Context) {
	var candidates []constCandidate
	resolved := make(map[string]consteval.Literal)

	for _, unit := range program.Units {
		candidates = append(candidates, enumCandidates(unit, resolved)...)
	}
	for _, unit := range program.Units {
		candidates = append(candidates, constantVarCandidates(unit)...)
	}

	pending := candidates
	for {
		env := consteval.NewEnv()
		for name, v := range resolved {
			env.Define(name, v)
		}

		var next []constCandidate
		progress := false
		for _, c := range pending {
			res := ctx.Eval.Fold(c.expr, env)
			switch res.Status {
			case consteval.Resolved:
				for _, n := range c.names {
					resolved[normalize(n)] = res.Value
				}
				ctx.Index.DefineConstant(c.id, c.expr, res.Value, true)
				progress = true
			case consteval.Errored:
				ctx.Diags.Add(*res.Diagnostic)
				ctx.Index.DefineConstant(c.id, c.expr, consteval.Literal{}, false)
			default:
				next = append(next, c)
			}
		}
		pending = next
		if !progress || len(pending) == 0 {
			break
		}
	}

	for _, c := range pending {
		ctx.Diags.Add(diag.Diagnostic{
			Severity: diag.Error,
			Kind:     diag.CyclicConstant,
			Message:  fmt.Sprintf("constant expression %v could not be resolved (cyclic or forward-unreachable reference)", c.names),
			Primary:  c.expr.Pos(),
			NodeID:   uint64(c.id),
		})
		ctx.Index.DefineConstant(c.id, c.expr, consteval.Literal{}, false)
	}
}

func enumCandidates(unit *ast.ParsedUnit, resolved map[string]consteval.Literal) []constCandidate {
	var out []constCandidate
	for _, td := range unit.TypeDecls {
		enum, ok := td.Type.(*ast.EnumTypeNode)
		if !ok {
			continue
		}
		next := int64(0)
		for _, v := range enum.Variants {
			if v.Value == nil {
				lit := consteval.IntLiteral(next)
				resolved[normalize(v.Name)] = lit
				resolved[normalize(td.Name+"."+v.Name)] = lit
				next++
				continue
			}
			out = append(out, constCandidate{
				id:    v.Value.ID(),
				expr:  v.Value,
				names: []string{v.Name, td.Name + "." + v.Name},
			})
			// Best-effort sequential default for any later bare variant:
			// the explicit value is folded against the variants resolved so
			// far and, when it is a plain integer, later bare variants
			// continue from it, as in the common `(A := 1, B, C)` shape.
			env := consteval.NewEnv()
			for name, lit := range resolved {
				env.Define(name, lit)
			}
			if r := consteval.NewEvaluator().Fold(v.Value, env); r.Status == consteval.Resolved && r.Value.Kind == consteval.LitInt {
				next = r.Value.Int + 1
			}
		}
	}
	return out
}

func constantVarCandidates(unit *ast.ParsedUnit) []constCandidate {
	var out []constCandidate
	collect := func(blk *ast.VarBlock) {
		if blk.Kind != ast.VarConstant {
			return
		}
		for _, decl := range blk.Decls {
			if decl.Initializer == nil {
				continue
			}
			out = append(out, constCandidate{id: decl.Initializer.ID(), expr: decl.Initializer, names: []string{decl.Name}})
		}
	}
	for _, blk := range unit.GlobalVarBlocks {
		collect(blk)
	}
	for _, pou := range unit.POUs {
		for _, blk := range pou.VarBlocks {
			collect(blk)
		}
	}
	return out
}
