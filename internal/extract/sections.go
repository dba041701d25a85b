package extract

import (
	"strings"

	"github.com/pagewarden/pagewarden/internal/model"
	"github.com/pagewarden/pagewarden/internal/util"
	"golang.org/x/net/html"
)

// Tags that never contribute editorial content. The list deliberately
// excludes header: templates that wrap the page H1 in <header> would
// otherwise lose the title before the metadata pass can find it.
var noiseTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"nav":      true,
	"footer":   true,
	"aside":    true,
	"iframe":   true,
	"svg":      true,
	"form":     true,
}

// Block elements the section walk formats into tagged lines.
var contentTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "ul": true, "ol": true, "dl": true, "table": true,
	"blockquote": true,
}

var warningWords = []string{"WARNING", "UWAGA", "HOIATUS"}

// hasWarningMarker reports whether an element is a warning block: a visual
// warning class, the warning emoji, or a literal warning word.
func hasWarningMarker(n *html.Node, text string) bool {
	if hasClassPrefix(n, "warning") || hasClass(n, "alert") {
		return true
	}
	if strings.Contains(text, "⚠️") || strings.Contains(text, "⚠") {
		return true
	}
	for _, w := range warningWords {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// headingTag maps an hN element to its line prefix. h5/h6 collapse to H4,
// the deepest level in the vocabulary.
func headingTag(elem string) string {
	switch elem {
	case "h1":
		return model.TagH1
	case "h2":
		return model.TagH2
	case "h3":
		return model.TagH3
	default:
		return model.TagH4
	}
}

// flattenList joins list items into one LIST line.
func flattenList(n *html.Node) string {
	var items []string
	for _, li := range findAll(n, func(c *html.Node) bool {
		return isElement(c, "li", "dt", "dd")
	}) {
		if text := nodeText(li); text != "" {
			items = append(items, text)
		}
	}
	if len(items) == 0 {
		return ""
	}
	return model.Tagged(model.TagList, strings.Join(items, model.ListSeparator))
}

// flattenTable joins table rows into one TABLE line of pipe-joined cells.
func flattenTable(n *html.Node) string {
	var rows []string
	for _, tr := range findAll(n, func(c *html.Node) bool {
		return isElement(c, "tr")
	}) {
		var cells []string
		for _, td := range findAll(tr, func(c *html.Node) bool {
			return isElement(c, "td", "th")
		}) {
			if text := nodeText(td); text != "" {
				cells = append(cells, text)
			}
		}
		if len(cells) > 0 {
			rows = append(rows, strings.Join(cells, model.CellSeparator))
		}
	}
	if len(rows) == 0 {
		return ""
	}
	return model.Tagged(model.TagTable, strings.Join(rows, model.ListSeparator))
}

// formatElement converts a block element into its tagged line, or "" when
// the element carries nothing worth emitting.
func formatElement(n *html.Node) string {
	text := nodeText(n)
	if text == "" {
		return ""
	}

	// Warning blocks win regardless of tag type.
	if hasWarningMarker(n, text) {
		return model.Tagged(model.TagWarning, text)
	}

	switch n.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		tag := headingTag(n.Data)
		// Source text sometimes already carries the label ("H2: Title").
		if strings.HasPrefix(strings.ToUpper(text), tag+":") {
			return util.CleanText(text)
		}
		return model.Tagged(tag, text)
	case "p", "blockquote":
		return model.Tagged(model.TagContent, text)
	case "ul", "ol", "dl":
		return flattenList(n)
	case "table":
		return flattenTable(n)
	}
	return ""
}

// walkSections scans unconsumed block elements in document order and groups
// their lines into sections, flushing on every H2. Content before the first
// H2 forms an implicit Introduction section.
func walkSections(root *html.Node, visited visitSet) []section {
	var sections []section
	current := section{name: "Introduction"}

	flush := func() {
		if len(current.lines) > 0 {
			sections = append(sections, current)
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if visited.seen(n) {
			return
		}
		if n.Type == html.CommentNode {
			return
		}
		if n.Type == html.ElementNode {
			if noiseTags[n.Data] {
				return
			}
			if contentTags[n.Data] {
				line := formatElement(n)
				visited.markTree(n)
				if line == "" {
					return
				}
				if strings.HasPrefix(line, model.TagH2+":") {
					flush()
					current = section{
						name:  strings.TrimSpace(strings.TrimPrefix(line, model.TagH2+":")),
						lines: []string{line},
					}
					return
				}
				current.lines = append(current.lines, line)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	flush()
	return sections
}
