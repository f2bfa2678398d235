package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/plcforge/stc/pkg/diag"
)

// colorEnabled reports whether diagnostics should carry ANSI color codes:
// --no-color always wins, otherwise autodetect via go-isatty the way the
// teacher's CompilerError.Format(color bool) expects its caller to decide.
func colorEnabled() bool {
	if noColor {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// formatDiagnostic renders one diag.Diagnostic as a single line plus, when a
// source line is available, a caret pointing at the column — the same
// header-line-caret shape as the teacher's CompilerError.Format, adapted to
// diag.Diagnostic's fields and an optional source slice instead of a single
// compiler-error struct.
func formatDiagnostic(d diag.Diagnostic, source []string, color bool) string {
	var sb strings.Builder

	sev := strings.ToUpper(d.Severity.String())
	if color {
		sb.WriteString(severityColor(d.Severity))
	}
	fmt.Fprintf(&sb, "%s", sev)
	if color {
		sb.WriteString("\033[0m")
	}
	fmt.Fprintf(&sb, ": %s [%s] at %s\n", d.Message, d.Kind, d.Primary)

	line := d.Primary.Line - 1
	if line >= 0 && line < len(source) {
		lineNumStr := fmt.Sprintf("%4d | ", d.Primary.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(source[line])
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+d.Primary.Column-1))
		if color {
			sb.WriteString(severityColor(d.Severity))
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
	}
	return sb.String()
}

func severityColor(sev diag.Severity) string {
	switch sev {
	case diag.Error:
		return "\033[1;31m" // bold red
	case diag.Warning:
		return "\033[1;33m" // bold yellow
	default:
		return "\033[1;34m" // bold blue
	}
}

// summarize formats a human-readable compile summary: elapsed wall time and
// the number of diagnostics by severity, the way a CLI's closing status
// line reads more naturally than raw nanoseconds and counts.
func summarize(elapsed time.Duration, sink *diag.Sink) string {
	return fmt.Sprintf("compiled in %s (%s error(s), %s warning(s))",
		humanizeDuration(elapsed),
		humanize.Comma(int64(sink.Count(diag.Error))),
		humanize.Comma(int64(sink.Count(diag.Warning))),
	)
}

func humanizeDuration(d time.Duration) string {
	if d < time.Millisecond {
		return d.String()
	}
	return humanize.CommafWithDigits(d.Seconds()*1000, 1) + "ms"
}

// expandSources resolves each argument to one or more .st files: an
// argument containing glob metacharacters is expanded with doublestar
// (supporting `**`), anything else is taken as a literal path, so a single
// ordinary filename still works without needing glob syntax.
func expandSources(args []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, arg := range args {
		matches := []string{arg}
		if strings.ContainsAny(arg, "*?[{") {
			m, err := doublestar.FilepathGlob(arg)
			if err != nil {
				return nil, fmt.Errorf("invalid glob pattern %q: %w", arg, err)
			}
			matches = m
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no source files matched: %s", strings.Join(args, ", "))
	}
	return out, nil
}

// formatByteSize formats a byte count in the same humanize idiom as the
// compile summary's duration; no command calls it.
func formatByteSize(n int) string {
	return humanize.Bytes(uint64(n))
}
