package hantranslate

import (
	"strings"

	"golang.org/x/net/html"
)

// Rule is a predicate over a single HTML node. Rules are independently
// testable and decoupled from the traversal and leaf-detection algorithm.
type Rule func(n *html.Node) bool

// Rules classifies tree nodes for an extraction pass: which nodes are
// translation candidates, which subtrees are wholly excluded, and which
// inline fragments are protected (must survive translation unchanged).
type Rules struct {
	// Candidate decides whether a node is a content-unit candidate.
	Candidate Rule
	// Excluded decides whether a node roots an excluded subtree.
	// Exclusion applies to a candidate itself or any of its ancestors.
	Excluded Rule
	// Protected decides whether an inline fragment must be substituted
	// with a placeholder token before translation.
	Protected Rule
}

// CandidateTags contains block-level tags whose content forms a translation
// candidate.
var CandidateTags = map[string]bool{
	"p":          true,
	"h1":         true,
	"h2":         true,
	"h3":         true,
	"h4":         true,
	"h5":         true,
	"h6":         true,
	"li":         true,
	"dt":         true,
	"dd":         true,
	"td":         true,
	"th":         true,
	"caption":    true,
	"figcaption": true,
	"blockquote": true,
	"summary":    true,
	"div":        true,
	"article":    true,
	"section":    true,
}

// ExcludedTags contains tags whose subtrees should never be translated.
var ExcludedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"pre":      true,
	"code":     true,
	"textarea": true,
	"noscript": true,
	"svg":      true,
	"math":     true,
}

// ProtectedTags contains inline tags whose content passes through
// translation unchanged when not part of a larger code block.
var ProtectedTags = map[string]bool{
	"code": true,
	"kbd":  true,
	"samp": true,
	"var":  true,
	"tt":   true,
}

// preformattedTags mark ancestors that turn an inline code fragment into
// part of a multi-line code block (handled by exclusion, not protection).
var preformattedTags = map[string]bool{
	"pre": true,
}

// DefaultRules returns the rule set used when none is configured. It
// satisfies the classifier heuristics this engine was built around:
// block-level candidates, script/style/code-block exclusion (plus
// translate="no", data-no-translate, and the notranslate class), and
// inline-code protection for fragments outside <pre> that carry no
// syntax-highlight class marker.
func DefaultRules() Rules {
	return Rules{
		Candidate: func(n *html.Node) bool {
			return n.Type == html.ElementNode && CandidateTags[strings.ToLower(n.Data)]
		},
		Excluded: func(n *html.Node) bool {
			if n.Type != html.ElementNode {
				return false
			}
			if ExcludedTags[strings.ToLower(n.Data)] {
				return true
			}
			return hasNoTranslateMarker(n)
		},
		Protected: func(n *html.Node) bool {
			if n.Type != html.ElementNode || !ProtectedTags[strings.ToLower(n.Data)] {
				return false
			}
			if hasHighlightMarker(n) {
				return false
			}
			for a := n.Parent; a != nil; a = a.Parent {
				if a.Type == html.ElementNode && preformattedTags[strings.ToLower(a.Data)] {
					return false
				}
			}
			return true
		},
	}
}

// hasNoTranslateMarker reports whether an element opts out of translation
// via translate="no", a data-no-translate attribute, or the notranslate class.
func hasNoTranslateMarker(n *html.Node) bool {
	for _, attr := range n.Attr {
		switch attr.Key {
		case "data-no-translate":
			return true
		case "translate":
			if strings.EqualFold(attr.Val, "no") {
				return true
			}
		case "class":
			for _, c := range strings.Fields(attr.Val) {
				if c == "notranslate" {
					return true
				}
			}
		}
	}
	return false
}

// hasHighlightMarker reports whether an element carries a syntax-highlighter
// class convention (hljs, language-*, lang-*). Highlighted fragments belong
// to code blocks and are excluded rather than protected.
func hasHighlightMarker(n *html.Node) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == "hljs" || strings.HasPrefix(c, "language-") || strings.HasPrefix(c, "lang-") {
				return true
			}
		}
	}
	return false
}

// excludedByAncestry reports whether a node or any of its ancestors matches
// the excluded rule.
func (r Rules) excludedByAncestry(n *html.Node) bool {
	if r.Excluded == nil {
		return false
	}
	for a := n; a != nil; a = a.Parent {
		if r.Excluded(a) {
			return true
		}
	}
	return false
}
