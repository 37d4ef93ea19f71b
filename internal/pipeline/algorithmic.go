package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alnah/go-tex2html/internal/texscan"
)

// indentStep is the left padding per nesting level, in em.
const indentStep = 1.5

// algoKeyword describes one algorithmic(x) command. Names are matched
// case-insensitively so the algorithmic and algpseudocode spellings
// (\IF, \If) share an entry; lowercase TeX primitives such as \if never
// match.
type algoKeyword struct {
	text     string // keyword shown before the line content
	suffix   string // keyword shown after the first argument
	args     int
	dedent   bool // line sits one level left of the current level
	indent   bool // following lines sit one level right
	numbered bool
	call     bool // two arguments rendered as name(args)
}

var algoKeywords = map[string]algoKeyword{
	"STATE":        {numbered: true},
	"STATEX":       {},
	"IF":           {text: "if", suffix: "then", args: 1, indent: true, numbered: true},
	"ELSIF":        {text: "else if", suffix: "then", args: 1, dedent: true, indent: true, numbered: true},
	"ELSE":         {text: "else", dedent: true, indent: true, numbered: true},
	"ENDIF":        {text: "end if", dedent: true, numbered: true},
	"FOR":          {text: "for", suffix: "do", args: 1, indent: true, numbered: true},
	"FORALL":       {text: "for all", suffix: "do", args: 1, indent: true, numbered: true},
	"ENDFOR":       {text: "end for", dedent: true, numbered: true},
	"WHILE":        {text: "while", suffix: "do", args: 1, indent: true, numbered: true},
	"ENDWHILE":     {text: "end while", dedent: true, numbered: true},
	"REPEAT":       {text: "repeat", indent: true, numbered: true},
	"UNTIL":        {text: "until", args: 1, dedent: true, numbered: true},
	"LOOP":         {text: "loop", indent: true, numbered: true},
	"ENDLOOP":      {text: "end loop", dedent: true, numbered: true},
	"FUNCTION":     {text: "function", args: 2, call: true, indent: true, numbered: true},
	"ENDFUNCTION":  {text: "end function", dedent: true, numbered: true},
	"PROCEDURE":    {text: "procedure", args: 2, call: true, indent: true, numbered: true},
	"ENDPROCEDURE": {text: "end procedure", dedent: true, numbered: true},
	"REQUIRE":      {text: "Require:"},
	"ENSURE":       {text: "Ensure:"},
	"INPUT":        {text: "Input:"},
	"OUTPUT":       {text: "Output:"},
	"RETURN":       {text: "return", numbered: true},
	"PRINT":        {text: "print", numbered: true},
}

var algorithmicNames = []string{"algorithmic", "algorithmic*"}

// algoLine is one logical line of pseudo-code.
type algoLine struct {
	kw   algoKeyword
	args []string
	rest string
}

// algorithmic renders algorithmic environments as numbered, indented lines.
func (p *Processor) algorithmic(st *state, text string) string {
	return texscan.ReplaceEnvs(text, algorithmicNames, func(_ string, body string) string {
		return st.block(p.renderAlgorithm(st, body))
	})
}

func (p *Processor) renderAlgorithm(st *state, body string) string {
	if _, end, ok := texscan.ReadOptional(body, 0); ok {
		body = body[end:]
	}
	var b strings.Builder
	b.WriteString(`<div class="algorithm">`)
	level, number := 0, 0
	for _, line := range splitAlgorithm(body) {
		if line.kw.dedent && level > 0 {
			level--
		}
		b.WriteString(fmt.Sprintf(`<div class="algorithm-line" style="padding-left:%.1fem">`, float64(level)*indentStep))
		if line.kw.numbered {
			number++
			b.WriteString(`<span class="line-number">` + strconv.Itoa(number) + ":</span> ")
		}
		b.WriteString(renderAlgoLine(st, line))
		b.WriteString("</div>")
		if line.kw.indent {
			level++
		}
	}
	b.WriteString("</div>")
	return b.String()
}

func renderAlgoLine(st *state, line algoLine) string {
	var comment string
	rest := texscan.ReplaceCommand(line.rest, "Comment", 1, func(_ string, args []string) string {
		comment = args[0]
		return ""
	})
	rest = texscan.ReplaceCommand(rest, "COMMENT", 1, func(_ string, args []string) string {
		comment = args[0]
		return ""
	})
	rest = texscan.ReplaceCommand(rest, "Call", 2, func(_ string, args []string) string {
		return `\textsc{` + args[0] + `}(` + args[1] + `)`
	})

	var parts []string
	keyword := func(s string) {
		if s != "" {
			parts = append(parts, `<span class="algorithm-keyword">`+s+`</span>`)
		}
	}
	keyword(line.kw.text)
	switch {
	case line.kw.call && len(line.args) == 2:
		parts = append(parts, `<span class="smallcaps">`+formatInline(st, line.args[0])+"</span>("+formatInline(st, line.args[1])+")")
	case len(line.args) > 0:
		parts = append(parts, formatInline(st, line.args[0]))
	}
	keyword(line.kw.suffix)
	if text := formatInline(st, strings.TrimSpace(rest)); text != "" {
		parts = append(parts, text)
	}
	if comment != "" {
		parts = append(parts, `<span class="algorithm-comment">▷ `+formatInline(st, comment)+"</span>")
	}
	return strings.Join(parts, " ")
}

// splitAlgorithm cuts body at every keyword command outside braces. Text
// before the first keyword becomes an unnumbered line.
func splitAlgorithm(body string) []algoLine {
	var lines []algoLine
	var cur *algoLine
	start, depth := 0, 0
	flush := func(end int) {
		rest := body[start:end]
		if cur == nil {
			if strings.TrimSpace(rest) != "" {
				lines = append(lines, algoLine{rest: rest})
			}
			return
		}
		cur.rest = rest
		lines = append(lines, *cur)
	}
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '{':
			if !texscan.IsEscaped(body, i) {
				depth++
			}
		case '}':
			if !texscan.IsEscaped(body, i) && depth > 0 {
				depth--
			}
		case '\\':
			if texscan.IsEscaped(body, i) {
				continue
			}
			name, end := texscan.ReadCommandName(body, i)
			kw, ok := algoKeywords[strings.ToUpper(name)]
			if !ok || depth > 0 || name == "" || name[0] < 'A' || name[0] > 'Z' {
				if end > i+1 {
					i = end - 1
				}
				continue
			}
			flush(i)
			args, argEnd, _ := texscan.ReadArgs(body, end, kw.args)
			cur = &algoLine{kw: kw, args: args}
			start = argEnd
			i = argEnd - 1
		}
	}
	flush(len(body))
	return lines
}
