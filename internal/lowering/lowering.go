// Package lowering implements the LoweringPipeline (spec component C4): an
// ordered sequence of AST-mutating participants, each a pure function from
// parsed program to transformed parsed program, run at the lifecycle stage
// the orchestrator (internal/driver) schedules it at.
package lowering

import (
	"strings"

	"github.com/plcforge/stc/internal/consteval"
	"github.com/plcforge/stc/internal/index"
	"github.com/plcforge/stc/internal/types"
	"github.com/plcforge/stc/pkg/ast"
	"github.com/plcforge/stc/pkg/diag"
)

func normalize(s string) string { return strings.ToLower(s) }

// pousByName indexes every POU across every unit by normalized name, for
// pre_index participants that need to walk a SuperClass chain before the
// real SymbolIndex exists.
func pousByName(program *ast.Program) map[string]*ast.POUDecl {
	out := make(map[string]*ast.POUDecl)
	for _, pou := range program.AllPOUs() {
		key := pou.Name
		if pou.Parent != "" {
			key = pou.Parent + "." + pou.Name
		}
		out[normalize(key)] = pou
	}
	return out
}

// Context is the shared state participants read and write, analogous to the
// teacher's PassContext: one value threaded through every participant call
// for a single compilation.
type Context struct {
	Types *types.TypeRegistry
	Index *index.Index
	Diags *diag.Sink
	Eval  *consteval.Evaluator
	// Info holds the Resolver's (internal/resolve, C5) annotation/hint
	// tables. It lives here rather than in internal/resolve so the
	// DriverOrchestrator can thread one Context through every phase of a
	// compilation without the lowering and resolve packages importing each
	// other.
	Info *ast.SemanticInfo
}

// NewContext returns a Context with a fresh TypeRegistry/Index/Sink.
func NewContext() *Context {
	reg := types.NewTypeRegistry()
	return &Context{
		Types: reg,
		Index: index.NewIndex(reg),
		Diags: diag.NewSink(),
		Eval:  consteval.NewEvaluator(),
		Info:  ast.NewSemanticInfo(),
	}
}

// PreIndexParticipant runs before the SymbolIndex is built; it may add or
// rewrite declarations (spec §4.4: "participants that introduce new
// declarations must run before index construction").
type PreIndexParticipant interface {
	Name() string
	PreIndex(program *ast.Program, ctx *Context)
}

// PostIndexParticipant runs after the SymbolIndex is built from the
// pre-index result; it may depend on resolved types/members. Declarations
// it adds (InitializerBuilder's init actions and project init function) are
// indexed by the driver's second Rebuild.
type PostIndexParticipant interface {
	Name() string
	PostIndex(program *ast.Program, ctx *Context)
}

// Pipeline runs the required participants in the strict order spec §4.4
// names: PropertyLowerer, InheritanceFlattener, InlineTypePromoter,
// VTableSynthesizer (pre_index), then InitializerBuilder, ConstantFolder
// (post_index). The Resolver (participant 7, pre_annotate/post_annotate) is
// orchestrated separately by internal/driver since it belongs to a
// different package layer.
type Pipeline struct {
	preIndex  []PreIndexParticipant
	postIndex []PostIndexParticipant
}

// NewPipeline returns the pipeline with every required participant wired in
// its mandated order.
func NewPipeline() *Pipeline {
	return &Pipeline{
		preIndex: []PreIndexParticipant{
			&PropertyLowerer{},
			&InheritanceFlattener{},
			&InlineTypePromoter{},
			&VTableSynthesizer{},
		},
		postIndex: []PostIndexParticipant{
			&InitializerBuilder{},
			&ConstantFolder{},
		},
	}
}

// RunPreIndex runs every pre_index participant in order.
func (p *Pipeline) RunPreIndex(program *ast.Program, ctx *Context) {
	for _, participant := range p.preIndex {
		participant.PreIndex(program, ctx)
	}
}

// RunPostIndex runs every post_index participant in order.
func (p *Pipeline) RunPostIndex(program *ast.Program, ctx *Context) {
	for _, participant := range p.postIndex {
		participant.PostIndex(program, ctx)
	}
}
