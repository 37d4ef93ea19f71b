package pipeline

import (
	"strconv"
	"strings"

	"github.com/alnah/go-tex2html/internal/cite"
	"github.com/alnah/go-tex2html/internal/placeholder"
	"github.com/alnah/go-tex2html/internal/table"
)

// citationStage numbers citations. The bibliography is rendered by
// bibliographyStage once every label is known.
func (p *Processor) citationStage(st *state) {
	res := cite.Process(st.text)
	st.text = res.Text
	st.bib = res.Entries
	st.doc.HasBibliography = res.HasBibliography()
	st.doc.Stats.Citations = res.Citations
	if res.Manual {
		p.logger.Debug("manual bibliography found", "entries", len(res.Entries))
	}
}

func (p *Processor) bibliographyStage(st *state) {
	if len(st.bib) == 0 {
		return
	}
	st.bibHTML = cite.RenderHTML(st.bib, func(s string) string { return formatInline(st, s) })
}

// tables renders tabular environments. Cell content goes through the
// block renderer so lists and nested tables inside cells still work.
func (p *Processor) tables(st *state, text string) string {
	res := table.Process(text, st.reg, func(cell string) string {
		return p.nested(st, cell, false)
	})
	st.doc.Stats.Tables += len(res.Tables)
	st.doc.Stats.AbandonedTables += res.Abandoned
	if res.Abandoned > 0 {
		p.logger.Warn("table left as text", "count", res.Abandoned)
	}
	return res.Text
}

// footnotes numbers footnote markers in reading order and appends the
// notes section. Markers may sit inside other fragments, so the order is
// taken from the resolved text.
func (p *Processor) footnotes(st *state) {
	if len(st.notes) == 0 {
		return
	}
	byToken := make(map[string]pendingNote, len(st.notes))
	for _, n := range st.notes {
		byToken[n.tok] = n
	}
	var ordered []pendingNote
	for _, tok := range placeholder.Find(st.reg.Resolve(st.text)) {
		if n, ok := byToken[tok]; ok {
			ordered = append(ordered, n)
			delete(byToken, tok)
		}
	}
	// Notes whose marker was lost, e.g. inside an abandoned region.
	for _, n := range st.notes {
		if _, ok := byToken[n.tok]; ok {
			ordered = append(ordered, n)
		}
	}

	var b strings.Builder
	b.WriteString(`<section class="footnotes"><ol>`)
	for i, n := range ordered {
		num := strconv.Itoa(i + 1)
		marker := `<sup class="footnote-ref" id="fnref-` + num + `"><a href="#fn-` + num + `">` + num + "</a></sup>"
		if err := st.reg.Fill(n.tok, marker); err != nil {
			p.logger.Debug("footnote marker already filled", "error", err)
		}
		b.WriteString(`<li id="fn-` + num + `">` + n.html + ` <a class="footnote-back" href="#fnref-` + num + `">↩</a></li>`)
	}
	b.WriteString("</ol></section>")
	st.text = strings.TrimRight(st.text, "\n") + "\n" + strings.TrimSpace(st.block(b.String()))
	st.doc.Stats.Footnotes = len(ordered)
	st.notes = nil
}

// finish fills reserved tokens no stage claimed and resolves the
// bibliography.
func (p *Processor) finish(st *state) {
	for _, tok := range st.reg.Pending() {
		p.logger.Debug("unfilled placeholder", "token", placeholder.StripDelimiters(tok))
		_ = st.reg.Fill(tok, "")
	}
	st.doc.Bibliography = st.reg.Resolve(st.bibHTML)
}
