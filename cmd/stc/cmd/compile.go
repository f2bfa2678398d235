package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/plcforge/stc/internal/config"
	"github.com/plcforge/stc/internal/driver"
	"github.com/plcforge/stc/internal/lexer"
	"github.com/plcforge/stc/internal/parser"
	"github.com/plcforge/stc/pkg/ast"
	"github.com/plcforge/stc/pkg/diag"
)

var compileVerbose bool

var compileCmd = &cobra.Command{
	Use:   "compile [patterns...]",
	Short: "Lex, parse and resolve Structured Text sources",
	Long: `Compile runs every named source through the full frontend pipeline
(lexer, parser, LoweringPipeline, SymbolIndex, Resolver) and reports every
diagnostic collected along the way.

Arguments may be plain file paths or glob patterns (e.g. "src/**/*.st").

Examples:
  stc compile main.st
  stc compile "src/**/*.st"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().BoolVarP(&compileVerbose, "verbose", "v", false, "print per-file progress")
}

func runCompile(_ *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath, envPath)
	if err != nil {
		return err
	}

	files, err := expandSources(args)
	if err != nil {
		return err
	}

	start := time.Now()
	program := &ast.Program{}
	sources := make(map[string][]string, len(files))
	sink := diag.NewSink()

	for _, file := range files {
		if compileVerbose {
			fmt.Fprintf(os.Stderr, "parsing %s...\n", file)
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}
		input := string(data)
		sources[file] = strings.Split(input, "\n")

		toks, lexErrs := lexer.Tokenize(input, lexer.WithFileName(file))
		for _, le := range lexErrs {
			sink.Add(diag.Diagnostic{Severity: diag.Error, Kind: diag.SyntaxPlaceholder, Message: le.Message, Primary: le.Pos})
		}

		unit, parseDiags := parser.Parse(file, toks)
		for _, d := range parseDiags {
			sink.Add(d)
		}
		program.Units = append(program.Units, unit)
	}

	result := driver.Compile(program)
	for _, d := range result.Diagnostics() {
		sink.Add(d)
	}

	color := colorEnabled()
	for _, d := range sink.All() {
		fmt.Fprint(os.Stderr, formatDiagnostic(d, sources[d.Primary.File], color))
		fmt.Fprintln(os.Stderr)
	}

	fmt.Println(summarize(time.Since(start), sink))
	_ = cfg // reserved for target-width-dependent diagnostics once a backend consumes this frontend's output

	if sink.HasErrors() || !result.Backend {
		return fmt.Errorf("compilation failed with %d error(s)", sink.Count(diag.Error))
	}
	return nil
}
