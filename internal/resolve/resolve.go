// Package resolve implements the Resolver (spec component C5): the
// two-phase visitor that attaches, to every AST node, its referent and
// resulting type (phase 1, bottom-up) and propagates type hints into
// contexts that demand a specific type (phase 2, top-down). It is the last
// LoweringPipeline participant named in spec §4.4, but lives in its own
// package since it runs at a different lifecycle stage (pre_annotate /
// post_annotate, after the SymbolIndex exists) and reads rather than
// mutates the AST.
package resolve

import (
	"fmt"
	"strings"

	"github.com/plcforge/stc/internal/index"
	"github.com/plcforge/stc/internal/lowering"
	"github.com/plcforge/stc/internal/types"
	"github.com/plcforge/stc/pkg/ast"
	"github.com/plcforge/stc/pkg/diag"
)

// Resolver is stateless; every call takes the shared Context explicitly,
// mirroring the teacher's Pass implementations.
type Resolver struct{}

func (Resolver) Name() string { return "Resolver" }

// scope carries the per-implementation scope triple the walker threads through
// every statement/expression visit: methodScope is the qualified name whose
// own params/locals/temps are in direct scope (a POU's own name when
// resolving its top-level Implementation, or "Owner.Method" for a method
// body); ownerScope is the containing POU's qualified name, whose (possibly
// inherited) fields are reachable unqualified once methodScope's own
// members miss.
type scope struct {
	methodScope string
	ownerScope  string
	returnType  types.Type
}

// PreAnnotate runs phase 1 (bottom-up type assignment) over every
// implementation in the program.
func (Resolver) PreAnnotate(program *ast.Program, ctx *lowering.Context) {
	walkImplementations(program, ctx, func(sc scope, body *ast.Block) {
		assignBlock(ctx, sc, body)
	})
}

// PostAnnotate runs phase 2 (top-down type-hint propagation).
func (Resolver) PostAnnotate(program *ast.Program, ctx *lowering.Context) {
	walkImplementations(program, ctx, func(sc scope, body *ast.Block) {
		propagateBlock(ctx, sc, body)
	})
}

// walkImplementations visits every POU's own implementation plus every
// method/action it declares, building the (methodScope, ownerScope,
// returnType) triple for each.
func walkImplementations(program *ast.Program, ctx *lowering.Context, visit func(scope, *ast.Block)) {
	for _, unit := range program.Units {
		for _, pou := range unit.POUs {
			qn := qualifiedName(pou)
			if pou.Implementation != nil {
				visit(scope{methodScope: qn, ownerScope: qn, returnType: returnTypeOf(ctx, pou.ReturnType)}, pou.Implementation.Body)
			}
			for _, m := range pou.Methods {
				if m.Implementation == nil {
					continue
				}
				mqn := qn + "." + m.Name
				visit(scope{methodScope: mqn, ownerScope: qn, returnType: returnTypeOf(ctx, m.ReturnType)}, m.Implementation.Body)
			}
			for _, a := range pou.Actions {
				if a.Implementation == nil {
					continue
				}
				aqn := qn + "." + a.Name
				visit(scope{methodScope: aqn, ownerScope: qn}, a.Implementation.Body)
			}
		}
	}
}

func qualifiedName(pou *ast.POUDecl) string {
	if pou.Parent == "" {
		return pou.Name
	}
	return pou.Parent + "." + pou.Name
}

func returnTypeOf(ctx *lowering.Context, te ast.TypeExpression) types.Type {
	if te == nil {
		return nil
	}
	t, _ := ctx.Types.Find(te.String())
	return t
}

// lookupVariable resolves a bare name against the active scope chain (spec
// §4.5: "local POU members → inherited members via __parent chains →
// globals"). FindVariable already covers "own members of methodScope, else
// globals"; the inherited-member fallback is layered on top here since
// internal/index.FindVariable intentionally does not walk a POU's SuperClass
// chain (that flattening only happens for internal/index.POUMembers).
func lookupVariable(ix *index.Index, sc scope, name string) (*index.Variable, bool) {
	if v, ok := ix.FindVariable(sc.methodScope, []string{name}); ok {
		return v, true
	}
	if sc.ownerScope == "" {
		return nil, false
	}
	for _, v := range ix.POUMembers(sc.ownerScope) {
		if normalizeEq(v.Name, name) {
			return v, true
		}
	}
	return nil, false
}

func normalizeEq(a, b string) bool { return strings.EqualFold(a, b) }

func unresolvedRef(ctx *lowering.Context, node ast.Node, name string) {
	ctx.Diags.Add(diag.Diagnostic{
		Severity: diag.Error,
		Kind:     diag.UnresolvedReference,
		Message:  fmt.Sprintf("unresolved reference %q", name),
		Primary:  node.Pos(),
		NodeID:   uint64(node.ID()),
	})
	ctx.Info.SetAnnotation(node.ID(), ast.NoneAnnotation{})
}
