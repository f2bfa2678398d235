package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/plcforge/stc/internal/driver"
	"github.com/plcforge/stc/internal/lexer"
	"github.com/plcforge/stc/internal/parser"
	"github.com/plcforge/stc/pkg/ast"
)

var inspectShowSymbols bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Print the resolved POU structure and symbol table of a source file",
	Long: `Inspect parses and fully resolves a single source file, then prints:

  - every declared POU, its VAR blocks, methods and actions
  - (with --symbols) every reference node's resolved annotation

It is meant for exploring how the resolver reads a program, not for
compiling a project end to end — see "stc compile" for that.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&inspectShowSymbols, "symbols", false, "also print resolved reference annotations")
}

func runInspect(_ *cobra.Command, args []string) error {
	file := args[0]
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", file, err)
	}

	toks, lexErrs := lexer.Tokenize(string(data), lexer.WithFileName(file))
	for _, le := range lexErrs {
		fmt.Fprintln(os.Stderr, le.Error())
	}

	unit, parseDiags := parser.Parse(file, toks)
	for _, d := range parseDiags {
		fmt.Fprintln(os.Stderr, d.String())
	}

	program := &ast.Program{Units: []*ast.ParsedUnit{unit}}
	result := driver.Compile(program)

	for _, d := range result.Diagnostics() {
		fmt.Fprintln(os.Stderr, d.String())
	}

	printPOUs(program)

	if inspectShowSymbols {
		fmt.Println()
		printSymbols(program, result)
	}

	if !result.Backend {
		return fmt.Errorf("inspect: %s did not fully resolve", file)
	}
	return nil
}

func printPOUs(program *ast.Program) {
	for _, pou := range program.AllPOUs() {
		fmt.Printf("%s %s", pou.Kind, pou.Name)
		if pou.SuperClass != "" {
			fmt.Printf(" EXTENDS %s", pou.SuperClass)
		}
		if len(pou.Interfaces) > 0 {
			fmt.Printf(" IMPLEMENTS %v", pou.Interfaces)
		}
		fmt.Println()

		for _, vb := range pou.VarBlocks {
			fmt.Printf("  %s\n", vb.Kind)
			for _, d := range vb.Decls {
				fmt.Printf("    %s\n", d.String())
			}
		}
		if pou.Implementation != nil {
			fmt.Println("  implementation:")
			for _, line := range splitLines(pou.Implementation.String()) {
				fmt.Printf("    %s\n", line)
			}
		}
		for _, m := range pou.Methods {
			fmt.Printf("  METHOD %s\n", m.Name)
		}
		for _, a := range pou.Actions {
			fmt.Printf("  ACTION %s\n", a.Name)
		}
	}
}

// printSymbols walks every implementation/method/action body in program and
// prints the resolved annotation for each reference expression it finds,
// using walkExpressions since pkg/ast has no built-in visitor.
func printSymbols(program *ast.Program, result driver.Result) {
	type row struct {
		pos  string
		text string
		desc string
	}
	var rows []row

	collect := func(body *ast.Block) {
		if body == nil {
			return
		}
		walkExpressions(body, func(e ast.Expression) {
			switch e.(type) {
			case *ast.Identifier, *ast.MemberAccessExpression, *ast.CallExpression,
				*ast.ThisExpression, *ast.SuperExpression, *ast.QualifiedIdentifier:
			default:
				return
			}
			anno, ok := result.Context.Info.Annotation(e.ID())
			rows = append(rows, row{pos: e.Pos().String(), text: e.String(), desc: describeAnnotation(anno, ok)})
		})
	}

	for _, pou := range program.AllPOUs() {
		if pou.Implementation != nil {
			collect(pou.Implementation.Body)
		}
		for _, m := range pou.Methods {
			if m.Implementation != nil {
				collect(m.Implementation.Body)
			}
		}
		for _, a := range pou.Actions {
			if a.Implementation != nil {
				collect(a.Implementation.Body)
			}
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].pos < rows[j].pos })

	fmt.Println("resolved symbols:")
	for _, r := range rows {
		fmt.Printf("  %-20s %-30s %s\n", r.pos, r.text, r.desc)
	}
}

func describeAnnotation(a ast.Annotation, ok bool) string {
	if !ok {
		return "(unannotated)"
	}
	switch v := a.(type) {
	case ast.VariableAnnotation:
		return fmt.Sprintf("variable %s", v.QualifiedName)
	case ast.FunctionAnnotation:
		if v.IsDynamicDispatch {
			return fmt.Sprintf("callable %s (vtable slot %d)", v.QualifiedName, v.VTableSlot)
		}
		return fmt.Sprintf("callable %s", v.QualifiedName)
	case ast.InstanceAnnotation:
		return fmt.Sprintf("instance %s", v.QualifiedName)
	case ast.TypeAnnotation:
		return fmt.Sprintf("type %s", v.Name)
	case ast.ValueAnnotation:
		return "value"
	case ast.SuperAnnotation:
		return fmt.Sprintf("super (%s)", v.OwnerType)
	case ast.ThisAnnotation:
		return fmt.Sprintf("this (%s)", v.OwnerType)
	case ast.NoneAnnotation:
		return "(unresolved)"
	default:
		return "(unknown)"
	}
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}
