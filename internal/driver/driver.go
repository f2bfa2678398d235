// Package driver implements the DriverOrchestrator (spec component C6): it
// wires a parsed program through LoweringPipeline, SymbolIndex construction
// and the Resolver in the strict order spec §4.6 requires, from outside
// those packages: none of them imports driver, and resolve imports lowering
// only for the shared Context, the way internal/interp/runner wires the
// teacher's interpreter and evaluator together from outside both.
package driver

import (
	"github.com/plcforge/stc/internal/index"
	"github.com/plcforge/stc/internal/lowering"
	"github.com/plcforge/stc/internal/resolve"
	"github.com/plcforge/stc/pkg/ast"
	"github.com/plcforge/stc/pkg/diag"
)

// Result is the (AnnotatedAst, Index, Diagnostics) triple spec §4.6 hands to
// an external backend. Program and Context.Info together are the
// "AnnotatedAst": the AST nodes plus the SemanticInfo tables keyed by their
// ids. Backend is false when fatal diagnostics were emitted and the
// orchestrator therefore stopped short of producing backend-ready output,
// even though every phase still ran for diagnostic coverage.
type Result struct {
	Program *ast.Program
	Context *lowering.Context
	Backend bool
}

// Compile runs program through the full frontend pipeline: Pipeline's
// pre_index participants, an Index rebuild, Pipeline's post_index
// participants, a second Index rebuild (to absorb declarations InitializerBuilder
// synthesizes during post_index — see DESIGN.md's C4 entry), then the
// Resolver's pre_annotate and post_annotate phases, in the order spec §4.6
// fixes. It never stops early on error: later phases keep running even after
// fatal diagnostics so a single compile surfaces as many problems as
// possible (spec §7), and Result.Backend reports whether the output is
// clean enough to hand to a backend.
func Compile(program *ast.Program) Result {
	return CompileWithPrelude(program, index.Snapshot{})
}

// CompileWithPrelude is Compile, seeded with a prelude Snapshot (internal/cache's
// restored cross-unit prelude index, spec §5). Rebuild clears the Index, so
// the prelude is imported again after each Rebuild of program's own units;
// a cache hit skips nothing but the prelude's own lowering/indexing work.
func CompileWithPrelude(program *ast.Program, prelude index.Snapshot) Result {
	ctx := lowering.NewContext()
	pipeline := lowering.NewPipeline()
	resolver := resolve.Resolver{}

	pipeline.RunPreIndex(program, ctx)
	ctx.Index.Rebuild(program)
	ctx.Index.ImportSnapshot(prelude)
	pipeline.RunPostIndex(program, ctx)
	ctx.Index.Rebuild(program)
	ctx.Index.ImportSnapshot(prelude)
	resolver.PreAnnotate(program, ctx)
	resolver.PostAnnotate(program, ctx)

	return Result{
		Program: program,
		Context: ctx,
		Backend: !ctx.Diags.HasErrors(),
	}
}

// Diagnostics is a convenience accessor mirroring the teacher's habit of
// exposing collected diagnostics off the top-level result rather than
// making callers reach into Context themselves.
func (r Result) Diagnostics() []diag.Diagnostic {
	return r.Context.Diags.All()
}
