package cite

import (
	"html"
	"strconv"
	"strings"

	"github.com/alnah/go-tex2html/internal/texscan"
)

// Entry is one bibliography item.
type Entry struct {
	ID   int
	Key  string
	Text string // raw LaTeX-like text; empty for synthesized entries
}

// extractBibliography removes every thebibliography environment from text
// and returns its entries, numbered in entry order.
func extractBibliography(text string) (entries []Entry, rest string, found bool) {
	rest = texscan.ReplaceEnv(text, "thebibliography", func(body string) string {
		found = true
		// Skip the widest-label argument.
		if _, end, ok := texscan.ReadGroup(body, 0); ok {
			body = body[end:]
		}
		for _, e := range parseBibitems(body) {
			e.ID = len(entries) + 1
			entries = append(entries, e)
		}
		return ""
	})
	return entries, rest, found
}

// parseBibitems splits an environment body on \bibitem. Items without a
// key get a positional one.
func parseBibitems(body string) []Entry {
	var out []Entry
	pos := texscan.IndexCommand(body, "bibitem", 0)
	for range texscan.MaxIterations {
		if pos < 0 {
			break
		}
		p := pos + len(`\bibitem`)
		_, p, _ = texscan.ReadOptional(body, p)
		key, p2, ok := texscan.ReadGroup(body, p)
		if ok {
			p = p2
		}
		next := texscan.IndexCommand(body, "bibitem", p)
		end := next
		if end < 0 {
			end = len(body)
		}
		key = strings.TrimSpace(strings.ReplaceAll(key, `\_`, "_"))
		if key == "" {
			key = "bibitem-" + strconv.Itoa(len(out)+1)
		}
		out = append(out, Entry{Key: key, Text: strings.TrimSpace(body[p:end])})
		pos = next
	}
	return out
}

// synthesize builds a bibliography from discovered keys, in discovery order.
func synthesize(reg *Registry) []Entry {
	keys := reg.Keys()
	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		id, _ := reg.Lookup(k)
		out = append(out, Entry{ID: id, Key: k})
	}
	return out
}

// RenderHTML renders entries as an ordered list. format converts an entry's
// raw text to HTML; nil escapes it. Synthesized entries show their key.
func RenderHTML(entries []Entry, format func(string) string) string {
	if len(entries) == 0 {
		return ""
	}
	if format == nil {
		format = html.EscapeString
	}
	var b strings.Builder
	b.WriteString(`<section class="bibliography"><h2>References</h2><ol class="references">`)
	for _, e := range entries {
		id := strconv.Itoa(e.ID)
		b.WriteString(`<li id="ref-` + id + `"><span class="ref-label">[` + id + `]</span> `)
		if e.Text == "" {
			b.WriteString(`<span class="ref-key">` + html.EscapeString(e.Key) + `</span>`)
		} else {
			b.WriteString(format(e.Text))
		}
		b.WriteString("</li>")
	}
	b.WriteString("</ol></section>")
	return b.String()
}
