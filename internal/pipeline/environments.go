package pipeline

import (
	"html"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/alnah/go-tex2html/internal/texscan"
)

// EnvKind is the closed set of named environments the normalizer renders.
type EnvKind int

const (
	// EnvUnknown environments are left for later stages.
	EnvUnknown EnvKind = iota
	EnvTheorem
	EnvLemma
	EnvProposition
	EnvCorollary
	EnvDefinition
	EnvRemark
	EnvHypothesis
	EnvExample
	EnvConjecture
	EnvAssumption
	EnvClaim
	// EnvDeclared is a theorem-like environment declared with \newtheorem
	// under a name outside the list above.
	EnvDeclared
	EnvProof
	EnvAbstract
	EnvQuote
	EnvVerse
	EnvCenter
	EnvFlushLeft
	EnvFlushRight
)

var envKindNames = map[EnvKind]string{
	EnvUnknown: "unknown", EnvTheorem: "theorem", EnvLemma: "lemma",
	EnvProposition: "proposition", EnvCorollary: "corollary", EnvDefinition: "definition",
	EnvRemark: "remark", EnvHypothesis: "hypothesis", EnvExample: "example",
	EnvConjecture: "conjecture", EnvAssumption: "assumption", EnvClaim: "claim",
	EnvDeclared: "declared", EnvProof: "proof", EnvAbstract: "abstract",
	EnvQuote: "quote", EnvVerse: "verse", EnvCenter: "center",
	EnvFlushLeft: "flushleft", EnvFlushRight: "flushright",
}

func (k EnvKind) String() string {
	if s, ok := envKindNames[k]; ok {
		return s
	}
	return "EnvKind(" + strconv.Itoa(int(k)) + ")"
}

// TheoremLike reports whether k renders as a numbered, labeled block.
func (k EnvKind) TheoremLike() bool {
	return k >= EnvTheorem && k <= EnvDeclared
}

// envNames maps environment names, common abbreviations included, to kinds.
var envNames = map[string]EnvKind{
	"theorem": EnvTheorem, "thm": EnvTheorem,
	"lemma": EnvLemma, "lem": EnvLemma,
	"proposition": EnvProposition, "prop": EnvProposition,
	"corollary": EnvCorollary, "cor": EnvCorollary,
	"definition": EnvDefinition, "defn": EnvDefinition, "def": EnvDefinition,
	"remark": EnvRemark, "rem": EnvRemark,
	"hypothesis": EnvHypothesis, "hyp": EnvHypothesis,
	"example": EnvExample, "ex": EnvExample,
	"conjecture": EnvConjecture, "conj": EnvConjecture,
	"assumption": EnvAssumption,
	"claim":      EnvClaim,
	"proof":      EnvProof,
	"abstract":   EnvAbstract,
	"quote":      EnvQuote, "quotation": EnvQuote,
	"verse":  EnvVerse,
	"center": EnvCenter, "flushleft": EnvFlushLeft, "flushright": EnvFlushRight,
}

// ClassifyEnv returns the kind of an environment name and, for
// theorem-like kinds, the label it displays. declared holds \newtheorem
// names and takes precedence.
func ClassifyEnv(name string, declared map[string]string) (EnvKind, string) {
	base := strings.TrimSuffix(strings.TrimSpace(name), "*")
	if display, ok := declared[base]; ok {
		if k, ok := envNames[strings.ToLower(display)]; ok && k.TheoremLike() {
			return k, display
		}
		return EnvDeclared, display
	}
	k, ok := envNames[base]
	if !ok {
		return EnvUnknown, ""
	}
	if k.TheoremLike() {
		return k, cases.Title(language.English).String(k.String())
	}
	return k, ""
}

// environments renders theorem-like and text environments. Unknown
// environments are skipped, but known ones nested inside them are still
// rendered.
func (p *Processor) environments(st *state, text string) string {
	var b strings.Builder
	pos := 0
	// pos strictly increases, so the walk terminates.
	for pos < len(text) {
		i := texscan.IndexCommand(text, "begin", pos)
		if i < 0 {
			break
		}
		name, e, ok := texscan.ReadGroup(text, i+len(`\begin`))
		if !ok {
			b.WriteString(text[pos : i+1])
			pos = i + 1
			continue
		}
		kind, display := ClassifyEnv(name, st.theorems)
		env, found := texscan.FindEnv(text, name, i)
		if kind == EnvUnknown || !found || env.Start != i {
			b.WriteString(text[pos:e])
			pos = e
			continue
		}
		b.WriteString(text[pos:i])
		b.WriteString(st.block(p.renderEnv(st, kind, name, display, env.Body(text))))
		pos = env.End
	}
	b.WriteString(text[pos:])
	return b.String()
}

func (p *Processor) renderEnv(st *state, kind EnvKind, name, display, body string) string {
	note, end, hasNote := texscan.ReadOptional(body, 0)
	if hasNote && kind != EnvCenter && kind != EnvFlushLeft && kind != EnvFlushRight {
		body = body[end:]
	}
	content := func() string {
		return p.nested(st, body, hasParagraphs(body))
	}

	switch {
	case kind.TheoremLike():
		return p.renderTheorem(st, kind, name, display, note, hasNote, body)
	case kind == EnvProof:
		title := "Proof"
		if hasNote {
			title = formatInline(st, note)
		}
		return `<div class="proof"><span class="proof-label">` + title + `.</span> ` + content() + ` <span class="qed">∎</span></div>`
	case kind == EnvAbstract:
		return `<div class="abstract"><span class="abstract-title">Abstract</span>` + content() + "</div>"
	case kind == EnvQuote:
		return "<blockquote>" + content() + "</blockquote>"
	case kind == EnvVerse:
		return `<blockquote class="verse">` + content() + "</blockquote>"
	case kind == EnvCenter:
		return `<div class="align-center">` + content() + "</div>"
	case kind == EnvFlushLeft:
		return `<div class="align-left">` + content() + "</div>"
	case kind == EnvFlushRight:
		return `<div class="align-right">` + content() + "</div>"
	default:
		p.logger.Debug("environment kept as text", "name", name)
		return content()
	}
}

// renderTheorem numbers theorem-like blocks per kind. Starred variants are
// unnumbered. The first \label in the body points at the block.
func (p *Processor) renderTheorem(st *state, kind EnvKind, name, display, note string, hasNote bool, body string) string {
	var key string
	body = texscan.ReplaceCommand(body, "label", 1, func(_ string, args []string) string {
		if key == "" {
			key = strings.TrimSpace(args[0])
		}
		return ""
	})

	heading := html.EscapeString(display)
	var b strings.Builder
	b.WriteString(`<div class="theorem kind-` + kind.String() + `"`)
	if !strings.HasSuffix(name, "*") {
		n := strconv.Itoa(st.next("theorem:" + display))
		heading += " " + n
		if key != "" {
			anchor := anchorID(key)
			st.labels[key] = label{Number: n, Anchor: anchor}
			b.WriteString(` id="` + anchor + `"`)
		}
	}
	b.WriteString(`><span class="theorem-label">` + heading)
	if hasNote && strings.TrimSpace(note) != "" {
		b.WriteString(` <span class="theorem-note">(` + formatInline(st, note) + `)</span>`)
	}
	b.WriteString(".</span> ")
	b.WriteString(`<div class="theorem-body">` + p.nested(st, body, hasParagraphs(body)) + "</div></div>")
	return b.String()
}

func hasParagraphs(body string) bool {
	return paragraphBreak.MatchString(strings.TrimSpace(body))
}
