package pipeline

import (
	"regexp"
	"strings"

	"github.com/alnah/go-tex2html/internal/texscan"
)

// Document body markers.
const (
	beginDocument = `\begin{document}`
	endDocument   = `\end{document}`
)

// noopCommands have no HTML equivalent. The value is the number of
// mandatory arguments dropped with the command.
var noopCommands = map[string]int{
	"documentclass": 1, "usepackage": 1, "RequirePackage": 1,
	"setlength": 2, "addtolength": 2, "setcounter": 2, "addtocounter": 2,
	"renewenvironment": 3, "newenvironment": 3,
	"pagenumbering": 1, "geometry": 1, "hypersetup": 1, "graphicspath": 1,
	"usetikzlibrary": 1, "tikzset": 1, "pgfplotsset": 1, "definecolor": 3,
	"bibliographystyle": 1, "bibliography": 1, "addbibresource": 1, "nocite": 1,
	"addcontentsline": 3, "linespread": 1, "hspace": 1, "hspace*": 1,
	"vspace": 1, "vspace*": 1, "theoremstyle": 1, "numberwithin": 2,
	"centering": 0, "raggedright": 0, "raggedleft": 0, "par": 0, "indent": 0,
	"noindent": 0, "hfill": 0, "vfill": 0, "protect": 0, "phantomsection": 0,
	"listoffigures": 0, "listoftables": 0, "appendix": 0, "frontmatter": 0,
	"mainmatter": 0, "backmatter": 0, "printbibliography": 0, "balance": 0,
	"small": 0, "footnotesize": 0, "scriptsize": 0, "tiny": 0, "normalsize": 0,
	"large": 0, "Large": 0, "LARGE": 0, "huge": 0, "Huge": 0,
	"newpage": 0, "clearpage": 0, "pagebreak": 0, "nopagebreak": 0,
	"smallskip": 0, "medskip": 0, "bigskip": 0, "FloatBarrier": 0,
	"makeatletter": 0, "makeatother": 0, "normalfont": 0,
}

var blankRuns = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)

// cleanup keeps the document body only, drops full-line comments,
// residual no-op commands and the markers of unknown environments.
func cleanup(_ *state, text string) string {
	if i := strings.Index(text, beginDocument); i >= 0 && !texscan.IsEscaped(text, i) {
		text = text[i+len(beginDocument):]
	}
	if i := strings.LastIndex(text, endDocument); i >= 0 {
		text = text[:i]
	}
	text = stripComments(text)
	text = stripNoopCommands(text)
	text = stripEnvMarkers(text)
	return blankRuns.ReplaceAllString(text, "\n\n")
}

// stripNoopCommands removes every noopCommands occurrence with its
// arguments, optional ones included.
func stripNoopCommands(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	for name, nargs := range noopCommands {
		if !strings.Contains(s, `\`+name) {
			continue
		}
		s = texscan.ReplaceCommand(s, name, nargs, func(string, []string) string { return "" })
	}
	return s
}

// envArgs is the number of mandatory arguments after \begin{name} for
// wrapper environments whose content is kept.
var envArgs = map[string]int{
	"minipage": 1, "multicols": 1, "multicols*": 1, "adjustbox": 1,
	"tabular": 1, "tabular*": 2, "tabularx": 2, "longtable": 1, "array": 1,
	"spacing": 1, "otherlanguage": 1, "wrapfloat": 3,
}

// stripEnvMarkers removes \begin{name} and \end{name} of environments no
// earlier stage recognised, keeping their content.
func stripEnvMarkers(s string) string {
	s = texscan.ReplaceCommand(s, "end", 1, func(string, []string) string { return "" })
	var b strings.Builder
	pos := 0
	for range texscan.MaxIterations {
		i := texscan.IndexCommand(s, "begin", pos)
		if i < 0 {
			break
		}
		name, end, ok := texscan.ReadGroup(s, i+len(`\begin`))
		if !ok {
			b.WriteString(s[pos : i+1])
			pos = i + 1
			continue
		}
		if _, e, ok := texscan.ReadOptional(s, end); ok {
			end = e
		}
		if n := envArgs[strings.TrimSpace(name)]; n > 0 {
			if _, e, ok := texscan.ReadArgs(s, end, n); ok {
				end = e
			}
		}
		b.WriteString(s[pos:i])
		pos = end
	}
	b.WriteString(s[pos:])
	return b.String()
}
