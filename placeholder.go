package hantranslate

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Placeholder tokens wrap the unit index and a per-unit sequential counter
// in mathematical white square brackets (U+27E6/U+27E7). The format has no
// natural-language reading, is not split by word segmentation, and passes
// through translation output verbatim.
func placeholderToken(unitIndex, seq int) string {
	return fmt.Sprintf("⟦%d-%d⟧", unitIndex, seq)
}

// protect fills a unit's translatableMarkup, text, and placeholder list by
// scanning its subtree left to right and substituting each protected
// fragment with a freshly minted token. Nested protected fragments match
// once: the outermost fragment wins and its interior is never revisited.
func (e *Engine) protect(u *unit) {
	seq := 0
	clones := make([]*html.Node, 0, 4)
	for c := u.owner.FirstChild; c != nil; c = c.NextSibling {
		clones = append(clones, e.protectClone(c, u, &seq))
	}

	var markup strings.Builder
	for _, c := range clones {
		_ = html.Render(&markup, c)
	}
	u.translatableMarkup = markup.String()

	var text strings.Builder
	for _, c := range clones {
		text.WriteString(renderedText(c))
	}
	u.text = strings.TrimSpace(text.String())
}

// protectClone copies a subtree for translation. Protected fragments become
// token text nodes (recorded in appearance order); everything else is cloned
// as-is. The rule is evaluated against the original node so ancestor-based
// heuristics (e.g. "not inside <pre>") see the real tree.
func (e *Engine) protectClone(n *html.Node, u *unit, seq *int) *html.Node {
	if e.rules.Protected != nil && e.rules.Protected(n) {
		tok := placeholderToken(u.index, *seq)
		*seq++
		u.placeholders = append(u.placeholders, Placeholder{
			Token:            tok,
			OriginalFragment: renderNode(n),
		})
		return &html.Node{Type: html.TextNode, Data: tok}
	}

	clone := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		clone.AppendChild(e.protectClone(c, u, seq))
	}
	return clone
}

// renderNode serializes a single node including its own tags.
func renderNode(n *html.Node) string {
	var sb strings.Builder
	_ = html.Render(&sb, n)
	return sb.String()
}
