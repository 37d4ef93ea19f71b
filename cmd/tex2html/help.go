package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/alnah/go-tex2html/internal/dateutil"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tex2html <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Convert LaTeX-like sources to HTML (default)")
	fmt.Fprintln(w, "  styles     List built-in page styles")
	fmt.Fprintln(w, "  config     Print the effective configuration as YAML")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'tex2html help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tex2html convert <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert .tex, .latex and .txt sources to HTML pages.")
	fmt.Fprintln(w, "Malformed input never fails a file: it is repaired or kept as text.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Source file or directory (optional if config has input.defaultDir)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory")
	fmt.Fprintln(w, "  -f, --format <s>          Output format: html, json, markdown")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w, "      --max-size <n>        Maximum source size in bytes")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Content:")
	fmt.Fprintln(w, "      --date-format <s>     Format for \\today")
	fmt.Fprintln(w, "                            Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D, dddd, ddd")
	fmt.Fprintf(w, "                            Presets: %s\n", strings.Join(dateutil.Presets(), ", "))
	fmt.Fprintln(w, "                            Use [text] to escape literals: [Day] D")
	fmt.Fprintln(w, "      --safe-phrase <s>     Phrase whose & is escaped, e.g. Q&A (repeatable)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "  -s, --style <s>           Style name, CSS file, or inline CSS")
	fmt.Fprintln(w, "      --css <path>          Extra CSS file appended to the style")
	fmt.Fprintln(w, "      --lang <tag>          Page language (default: en)")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom styles/ and templates/ directory")
	fmt.Fprintln(w, "      --no-title            Do not print the title block")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Table of Contents:")
	fmt.Fprintln(w, "      --toc                 Always add a table of contents")
	fmt.Fprintln(w, "      --toc-title <s>       TOC heading text")
	fmt.Fprintln(w, "      --toc-min-depth <n>   Min heading depth (1-6)")
	fmt.Fprintln(w, "      --toc-max-depth <n>   Max heading depth (1-6)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Log each degradation and timing")
	fmt.Fprintln(w, "      --no-color            Disable colored output")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  TEX2HTML_CONFIG, TEX2HTML_STYLE, TEX2HTML_WORKERS, TEX2HTML_INPUT_DIR,")
	fmt.Fprintln(w, "  TEX2HTML_OUTPUT_DIR, TEX2HTML_FORMAT, TEX2HTML_LANG, TEX2HTML_DATE_FORMAT")
}

// printConfigUsage prints usage for the config command.
func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tex2html config [--config <name>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the effective configuration as YAML.")
	fmt.Fprintln(w, "Names are searched as ./<name>.yaml then ~/.config/go-tex2html/<name>.yaml.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "config":
		printConfigUsage(env.Stdout)
	case "styles":
		fmt.Fprintln(env.Stdout, "Usage: tex2html styles")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "List built-in page styles.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: tex2html version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: tex2html help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
