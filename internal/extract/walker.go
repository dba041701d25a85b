package extract

import (
	"strings"

	"github.com/pagewarden/pagewarden/internal/util"
	"golang.org/x/net/html"
)

// visitSet tracks consumed nodes by pointer identity. The parse tree is
// never mutated; every pass walks the same read-only tree and skips what an
// earlier pass already claimed. Pointer identity avoids the collision risk
// of truncated-text keys, where two short elements can share a hash.
type visitSet map[*html.Node]struct{}

func (v visitSet) seen(n *html.Node) bool {
	_, ok := v[n]
	return ok
}

func (v visitSet) mark(n *html.Node) {
	v[n] = struct{}{}
}

// markTree consumes a node together with its whole subtree, so children of
// an already-flattened list or table are never independently re-emitted.
func (v visitSet) markTree(n *html.Node) {
	v.mark(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		v.markTree(c)
	}
}

// containsMarked reports whether the subtree holds any already-consumed
// node. Noise removal must not claim ancestors of located anchor content.
func (v visitSet) containsMarked(n *html.Node) bool {
	if v.seen(n) {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if v.containsMarked(c) {
			return true
		}
	}
	return false
}

// findFirst returns the first node in document order matching the predicate.
func findFirst(root *html.Node, pred func(*html.Node) bool) *html.Node {
	var result *html.Node
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if pred(n) {
			result = n
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(root)
	return result
}

// findAll returns all nodes in document order matching the predicate.
func findAll(root *html.Node, pred func(*html.Node) bool) []*html.Node {
	var results []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if pred(n) {
			results = append(results, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return results
}

// following iterates document-order successors of n: following siblings,
// then the parent chain's following siblings. Used for sibling-order
// metadata search so an unrelated element elsewhere on the page is never
// picked up by an unordered global scan.
func following(n *html.Node, visit func(*html.Node) bool) {
	for cur := n; cur != nil; cur = cur.Parent {
		for sib := cur.NextSibling; sib != nil; sib = sib.NextSibling {
			if sib.Type != html.ElementNode {
				continue
			}
			if !visit(sib) {
				return
			}
		}
	}
}

// isElement reports whether n is an element with one of the given tags.
func isElement(n *html.Node, tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, tag := range tags {
		if n.Data == tag {
			return true
		}
	}
	return false
}

// attr returns the value of the named attribute.
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// hasClass reports whether the element carries the class token.
func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, token := range strings.Fields(attr(n, "class")) {
		if token == class {
			return true
		}
	}
	return false
}

// hasClassPrefix reports whether any class token starts with the prefix.
func hasClassPrefix(n *html.Node, prefix string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, token := range strings.Fields(attr(n, "class")) {
		if strings.HasPrefix(token, prefix) {
			return true
		}
	}
	return false
}

// nodeText extracts cleaned visible text from a subtree.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteString(" ")
		case html.CommentNode:
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return util.CleanText(b.String())
}

// nodeTextExcluding extracts text while skipping the given subtrees.
func nodeTextExcluding(n *html.Node, skip visitSet) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if skip.seen(n) {
			return
		}
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteString(" ")
		case html.CommentNode:
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return util.CleanText(b.String())
}

// hasBoldDescendant reports whether the subtree contains <b>/<strong> or an
// inline bold style, the visual-header signal in exported documents.
func hasBoldDescendant(n *html.Node) bool {
	if n.Type == html.ElementNode {
		if n.Data == "b" || n.Data == "strong" {
			return true
		}
		style := strings.ToLower(attr(n, "style"))
		if strings.Contains(style, "font-weight") &&
			(strings.Contains(style, "700") || strings.Contains(style, "bold")) {
			return true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasBoldDescendant(c) {
			return true
		}
	}
	return false
}
