// Package cite canonicalizes citations into numeric markers and builds the
// document bibliography.
//
// Citations arrive in many shapes from generated text: \cite-family
// commands, parenthesized key lists, bracketed keys, and \ref used where a
// citation was meant. Each becomes a plain-text marker such as "[1]–[3]".
// Ids are assigned in order of appearance across all shapes.
package cite

import (
	"sort"
	"strings"

	"github.com/alnah/go-tex2html/internal/texscan"
)

// Commands lists the citation commands recognized, without backslash.
var Commands = []string{
	"cite", "citep", "citet", "citealp", "citealt", "citeauthor",
	"parencite", "textcite", "autocite", "footcite", "supercite", "Cite",
}

// refCommands are cross-reference commands that generated text misuses for
// citations.
var refCommands = []string{"ref", "eqref", "autoref"}

// ignoredCommands produce no output in a web preview.
var ignoredCommands = []string{"bibliographystyle", "bibliography", "nocite", "addbibresource"}

// Result is the outcome of citation processing.
type Result struct {
	Text string
	// Entries holds the bibliography in display order.
	Entries []Entry
	// Manual is true when the source supplied its own thebibliography.
	Manual bool
	// Citations counts citation occurrences rewritten.
	Citations int
}

// HasBibliography reports whether a bibliography should be shown.
func (r Result) HasBibliography() bool { return len(r.Entries) > 0 }

// occurrence is one citation found in the buffer.
type occurrence struct {
	start, end int
	keys       []string
	literal    string // replacement used when keys is empty
}

// processor carries per-document citation state.
type processor struct {
	reg    *Registry
	manual map[string]int
}

// Process rewrites every citation in text and extracts or synthesizes the
// bibliography. It never fails; anything it cannot parse stays verbatim.
func Process(text string) Result {
	p := &processor{reg: NewRegistry()}

	entries, text, manual := extractBibliography(text)
	if manual {
		p.manual = make(map[string]int, len(entries))
		for _, e := range entries {
			p.manual[e.Key] = e.ID
		}
	}

	var found []occurrence
	found = append(found, p.findCommands(text)...)
	found = append(found, p.findRefs(text)...)
	found = append(found, p.findGroups(text, '(', ')')...)
	found = append(found, p.findGroups(text, '[', ']')...)
	sort.SliceStable(found, func(i, j int) bool { return found[i].start < found[j].start })

	kept := found[:0]
	for _, o := range found {
		if len(kept) > 0 && o.start < kept[len(kept)-1].end {
			continue
		}
		kept = append(kept, o)
		for _, k := range o.keys {
			p.reg.Reserve(k)
		}
	}

	var b strings.Builder
	pos, count := 0, 0
	for _, o := range kept {
		b.WriteString(text[pos:o.start])
		if len(o.keys) == 0 {
			b.WriteString(o.literal)
		} else {
			b.WriteString(p.marker(o.keys))
			count++
		}
		pos = o.end
	}
	b.WriteString(text[pos:])
	text = b.String()

	for _, name := range ignoredCommands {
		text = texscan.ReplaceCommand(text, name, 1, func(string, []string) string { return "" })
	}

	if !manual && p.reg.Len() > 0 {
		entries = synthesize(p.reg)
	}
	return Result{Text: text, Entries: entries, Manual: manual, Citations: count}
}

// idFor maps a key to an id. With a manual bibliography only its keys are
// known; a numbered key may still address an entry by position.
func (p *processor) idFor(key string) int {
	if p.manual == nil {
		return p.reg.Assign(key)
	}
	if id, ok := p.manual[key]; ok {
		p.reg.Assign(key)
		return id
	}
	if n, ok := ExplicitNumber(key); ok && n <= len(p.manual) {
		return n
	}
	return 0
}

func (p *processor) marker(keys []string) string {
	ids := make([]int, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, p.idFor(k))
	}
	return FormatMarker(ids)
}

// splitKeys splits a key list on commas, semicolons and whitespace, and
// undoes the escaping generated text applies to keys.
func splitKeys(s string) []string {
	s = strings.NewReplacer(`\_`, "_", `\&`, "&", "~", " ").Replace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n'
	})
	var keys []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			keys = append(keys, f)
		}
	}
	return keys
}

// isKnownKey reports whether key may appear in a parenthesized or bracketed
// citation: numbered keys always, other keys only when the bibliography
// defines them.
func (p *processor) isKnownKey(key string) bool {
	if IsCitationLike(key) {
		return true
	}
	_, ok := p.manual[key]
	return ok
}

func (p *processor) allKnown(keys []string) bool {
	if len(keys) == 0 {
		return false
	}
	for _, k := range keys {
		if !p.isKnownKey(k) {
			return false
		}
	}
	return true
}

// findCommands locates \cite[pre][post]{keys} and its variants. A command
// whose key list is empty is replaced by its own escaped text.
func (p *processor) findCommands(s string) []occurrence {
	var out []occurrence
	for _, name := range Commands {
		pos := 0
		for range texscan.MaxIterations {
			i := texscan.IndexCommand(s, name, pos)
			if i < 0 {
				break
			}
			pos = i + 1
			end := i + len(name) + 1
			if end < len(s) && s[end] == '*' {
				end++
			}
			for range 2 {
				if _, e, ok := texscan.ReadOptional(s, end); ok {
					end = e
				}
			}
			body, e, ok := texscan.ReadGroup(s, end)
			if !ok {
				continue
			}
			o := occurrence{start: i, end: e, keys: splitKeys(body)}
			if len(o.keys) == 0 {
				o.literal = `\textbackslash{}` + name + `\{` + body + `\}`
			}
			out = append(out, o)
			pos = e
		}
	}
	return out
}

// findRefs locates \ref{ref_3}. Real cross references such as \ref{fig:1}
// are left for later stages.
func (p *processor) findRefs(s string) []occurrence {
	var out []occurrence
	for _, name := range refCommands {
		pos := 0
		for range texscan.MaxIterations {
			i := texscan.IndexCommand(s, name, pos)
			if i < 0 {
				break
			}
			pos = i + 1
			body, e, ok := texscan.ReadGroup(s, i+len(name)+1)
			if !ok {
				continue
			}
			if keys := splitKeys(body); p.allKnown(keys) {
				out = append(out, occurrence{start: i, end: e, keys: keys})
				pos = e
			}
		}
	}
	return out
}

// findGroups locates runs of adjacent delimited key groups, such as
// (ref_1), (ref_1, ref_2; ref_3), (ref_1)(ref_2) or [ref_3]. Every member of
// every group must be a known key.
func (p *processor) findGroups(s string, open, close byte) []occurrence {
	var out []occurrence
	for pos := 0; pos < len(s); {
		i := texscan.IndexUnescaped(s, open, pos)
		if i < 0 {
			break
		}
		var keys []string
		end := i
		for {
			j := i
			if end > i {
				j = texscan.SkipSpace(s, end)
			}
			if j >= len(s) || s[j] != open || texscan.IsEscaped(s, j) {
				break
			}
			k := strings.IndexByte(s[j:], close)
			if k < 0 {
				break
			}
			inner := s[j+1 : j+k]
			if strings.ContainsAny(inner, "\n()[]{}") {
				break
			}
			group := splitKeys(inner)
			if !p.allKnown(group) {
				break
			}
			keys = append(keys, group...)
			end = j + k + 1
		}
		if len(keys) == 0 {
			pos = i + 1
			continue
		}
		out = append(out, occurrence{start: i, end: end, keys: keys})
		pos = end
	}
	return out
}
