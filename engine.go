package hantranslate

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Engine is the extraction/protection/reinsertion core for one document
// tree. It owns the current extraction session: the ordered unit list and
// the registry mapping unit ids to their owner nodes and stored markup.
//
// The engine holds non-owning references into the live tree; the tree owns
// the nodes. Methods are synchronous and not safe for concurrent use — the
// intended model is a single logical writer applying asynchronous
// translation results in whatever order they arrive.
type Engine struct {
	root  *html.Node
	rules Rules

	// Current pass. Replaced wholesale by ExtractUnits; entries from a
	// superseded pass become permanently unresolvable.
	units    []*unit
	registry map[string]*unit
	pass     int
}

// unit is the registry-side record of one content unit. The public
// ContentUnit view never exposes the placeholder map or original snapshot.
type unit struct {
	id                 string
	index              int
	owner              *html.Node
	originalMarkup     string
	translatableMarkup string
	text               string
	context            string
	placeholders       []Placeholder
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRules sets a custom classifier rule set.
func WithRules(r Rules) EngineOption {
	return func(e *Engine) {
		e.rules = r
	}
}

// NewEngine creates an engine over a parsed document tree. The tree is
// typically the root node of a goquery.Document or a node returned by
// html.Parse.
func NewEngine(root *html.Node, opts ...EngineOption) *Engine {
	e := &Engine{
		root:     root,
		rules:    DefaultRules(),
		registry: make(map[string]*unit),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ParseDocument parses page markup into a document tree suitable for
// NewEngine.
func ParseDocument(content string) (*html.Node, error) {
	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, &ParseError{Message: "failed to parse HTML document", Cause: err}
	}
	return root, nil
}

// ExtractUnits runs a fresh extraction pass: candidate collection in document
// order, single-pass leaf detection, exclusion and whitespace filtering,
// markup snapshotting, and placeholder protection. The previous pass's
// registry is discarded wholesale; its unit ids become permanently stale.
//
// An empty result is a valid terminal state, not an error.
func (e *Engine) ExtractUnits() []ContentUnit {
	e.pass++
	e.units = nil
	e.registry = make(map[string]*unit)

	candidates := collectCandidates(e.root, e.rules.Candidate)
	for _, n := range leafCandidates(candidates) {
		if e.rules.excludedByAncestry(n) {
			continue
		}
		if strings.TrimSpace(renderedText(n)) == "" {
			continue
		}
		u := &unit{
			index:   len(e.units),
			owner:   n,
			context: buildContext(n),
		}
		u.id = fmt.Sprintf("unit-%d-%d", e.pass, u.index)
		u.originalMarkup = renderChildren(n)
		e.protect(u)
		e.units = append(e.units, u)
		e.registry[u.id] = u
	}

	return e.Units()
}

// Units returns the public view of the current pass's units in document order.
func (e *Engine) Units() []ContentUnit {
	out := make([]ContentUnit, len(e.units))
	for i, u := range e.units {
		out[i] = ContentUnit{
			ID:                 u.id,
			TranslatableMarkup: u.translatableMarkup,
			Text:               u.text,
			Hash:               HashText(u.translatableMarkup),
			Context:            u.context,
			PlaceholderCount:   len(u.placeholders),
		}
	}
	return out
}

// Pass returns the current extraction pass sequence number.
func (e *Engine) Pass() int {
	return e.pass
}

// collectCandidates gathers candidate nodes in strict pre-order (document
// order). The leaf-detection algorithm depends on this ordering.
func collectCandidates(root *html.Node, candidate Rule) []*html.Node {
	if candidate == nil {
		return nil
	}
	var out []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if candidate(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

// leafCandidates filters a pre-ordered candidate list down to leaf
// candidates: candidates containing no nested candidate.
//
// Single pass over the input with a stack of currently open candidates: for
// each node, pop while the top does not contain it; a non-empty stack after
// popping means the new top has a nested candidate and is marked non-leaf.
// Requires strict pre-order input; candidate order is a structural
// precondition, not a recoverable runtime condition.
func leafCandidates(candidates []*html.Node) []*html.Node {
	nonLeaf := make(map[*html.Node]bool)
	var stack []*html.Node

	for _, n := range candidates {
		for len(stack) > 0 && !isAncestor(stack[len(stack)-1], n) {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			nonLeaf[stack[len(stack)-1]] = true
		}
		stack = append(stack, n)
	}

	leaves := make([]*html.Node, 0, len(candidates))
	for _, n := range candidates {
		if !nonLeaf[n] {
			leaves = append(leaves, n)
		}
	}
	return leaves
}

// isAncestor reports whether a is a proper ancestor of n.
func isAncestor(a, n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == a {
			return true
		}
	}
	return false
}

// attached reports whether n is still reachable from the engine's root.
func (e *Engine) attached(n *html.Node) bool {
	return n == e.root || isAncestor(e.root, n)
}

// renderedText returns the concatenated text content of a subtree.
func renderedText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// renderChildren serializes a node's children as a markup string. This is
// the snapshot format for originalMarkup: writing it back through
// setChildren reproduces the pre-extraction markup exactly.
func renderChildren(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		// Render only fails on unwritable writers; strings.Builder never errors.
		_ = html.Render(&sb, c)
	}
	return sb.String()
}

// buildContext creates a disambiguation context string for a unit's owner
// node: its own tag (with class or id when present) plus up to three
// ancestor tags, outermost first.
func buildContext(n *html.Node) string {
	var parts []string

	tag := n.Data
	var classAttr, idAttr string
	for _, attr := range n.Attr {
		if attr.Key == "class" {
			classAttr = attr.Val
		} else if attr.Key == "id" {
			idAttr = attr.Val
		}
	}
	if classAttr != "" {
		parts = append(parts, fmt.Sprintf("in <%s class=\"%s\">", tag, classAttr))
	} else if idAttr != "" {
		parts = append(parts, fmt.Sprintf("in <%s id=\"%s\">", tag, idAttr))
	} else {
		parts = append(parts, fmt.Sprintf("in <%s>", tag))
	}

	var ancestors []string
	ancestor := n.Parent
	for i := 0; i < 3 && ancestor != nil; i++ {
		if ancestor.Type == html.ElementNode {
			name := ancestor.Data
			if name != "html" && name != "body" {
				ancestors = append(ancestors, name)
			}
		}
		ancestor = ancestor.Parent
	}
	if len(ancestors) > 0 {
		// Reverse to show outer to inner
		for i, j := 0, len(ancestors)-1; i < j; i, j = i+1, j-1 {
			ancestors[i], ancestors[j] = ancestors[j], ancestors[i]
		}
		parts = append(parts, fmt.Sprintf("inside: %s", strings.Join(ancestors, " > ")))
	}

	return strings.Join(parts, " | ")
}
