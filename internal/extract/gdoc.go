package extract

import (
	"regexp"
	"strings"

	"github.com/pagewarden/pagewarden/internal/model"
	"github.com/pagewarden/pagewarden/internal/util"
	"golang.org/x/net/html"
)

// metadataLabel is one hunted label: exported documents carry metadata as
// literal text prefixes ("H1: ...", "Lead text: ...", "MT: ...") anywhere
// in the document rather than as CSS-classed elements.
type metadataLabel struct {
	kind     string
	tag      string
	keywords []string
}

var docExportLabels = []metadataLabel{
	{kind: "h1", tag: model.TagH1, keywords: []string{"h1", "title"}},
	{kind: "subtitle", tag: model.TagSubtitle, keywords: []string{"subtitle", "sub title", "sub-title"}},
	{kind: "lead", tag: model.TagLead, keywords: []string{"lead", "lead text", "intro"}},
	{kind: "meta_title", tag: "MT", keywords: []string{"mt", "meta title", "meta_title"}},
	{kind: "meta_desc", tag: "MD", keywords: []string{"md", "meta description", "meta_desc"}},
}

// visualHeaderMaxLen bounds how long a bold paragraph can be and still be
// promoted to a section header.
const visualHeaderMaxLen = 100

// DocExportExtractor handles unstructured HTML exports of editing
// documents: label-prefix metadata hunting, visual-header promotion, table
// flattening, flexible FAQ detection and a linear H2 chunking pass.
type DocExportExtractor struct{}

// NewDocExportExtractor creates the document-export extractor.
func NewDocExportExtractor() *DocExportExtractor {
	return &DocExportExtractor{}
}

func (e *DocExportExtractor) Name() string {
	return "doc-export"
}

func (e *DocExportExtractor) Extract(htmlText string) (*model.ChunkDocument, error) {
	root, err := parseHTML(htmlText)
	if err != nil {
		return nil, err
	}
	body := documentBody(root)
	visited := make(visitSet)

	metaLines := e.huntMetadata(body, visited)
	backpack := buildBackpack(body)
	faqLines := e.extractFlexibleFAQ(body, visited)

	sections := make([]section, 0, 4)
	if len(metaLines) > 0 {
		sections = append(sections, section{name: "Metadata & Summary", lines: metaLines})
	}
	sections = append(sections, e.walkLinear(body, visited)...)
	if len(faqLines) > 0 {
		sections = append(sections, section{
			name:  "Frequently Asked Questions",
			lines: faqLines,
		})
	}

	doc := &model.ChunkDocument{BigChunks: numberSections(sections)}
	if backpack != nil {
		doc.BigChunks = append([]model.BigChunk{*backpack}, doc.BigChunks...)
	}
	return doc, nil
}

// huntMetadata scans paragraphs, list items and table cells for label
// prefixes, case-insensitively, taking the first match per label kind.
func (e *DocExportExtractor) huntMetadata(body *html.Node, visited visitSet) []string {
	found := make(map[string]bool)
	var lines []string

	candidates := findAll(body, func(n *html.Node) bool {
		return isElement(n, "p", "li", "td", "h1", "h2", "h3")
	})

	for _, n := range candidates {
		text := nodeText(n)
		if text == "" {
			continue
		}
		for _, label := range docExportLabels {
			if found[label.kind] {
				continue
			}
			value := matchLabel(text, label)
			if value == "" {
				continue
			}
			found[label.kind] = true
			lines = append(lines, model.Tagged(label.tag, value))
			visited.markTree(n)
			break
		}
	}

	// Fallback: a document without an "H1:" label may still carry a real
	// h1 element.
	if !found["h1"] {
		if h1 := findFirst(body, func(n *html.Node) bool {
			return !visited.seen(n) && isElement(n, "h1")
		}); h1 != nil {
			if text := nodeText(h1); text != "" {
				lines = append([]string{model.Tagged(model.TagH1, text)}, lines...)
				visited.markTree(h1)
			}
		}
	}
	return lines
}

// matchLabel tests a text against one label's keywords and returns the
// labeled value, or "".
func matchLabel(text string, label metadataLabel) string {
	for _, kw := range label.keywords {
		re := regexp.MustCompile(`(?is)^` + regexp.QuoteMeta(kw) + `[:\s]+(.*)`)
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		// Short keys like "MT" must be followed by a colon, or ordinary
		// prose starting with those letters would false-match.
		if len(kw) < 3 && !strings.Contains(text[:min(5, len(text))], ":") {
			continue
		}
		if value := util.CleanText(m[1]); value != "" {
			return value
		}
	}
	return ""
}

// isVisualHeader reports whether a paragraph looks like a section header:
// short, bold, and without terminal punctuation.
func isVisualHeader(n *html.Node, text string) bool {
	if !isElement(n, "p") || len(text) > visualHeaderMaxLen {
		return false
	}
	if strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!") || strings.HasSuffix(text, "?") {
		return false
	}
	return hasBoldDescendant(n)
}

// walkLinear groups content into sections, flushing on real headings and on
// bold visual headers alike.
func (e *DocExportExtractor) walkLinear(body *html.Node, visited visitSet) []section {
	var sections []section
	current := section{name: "Main Content"}

	flush := func() {
		if len(current.lines) > 0 {
			sections = append(sections, current)
		}
	}
	startSection := func(name, line string) {
		flush()
		current = section{name: name, lines: []string{line}}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if visited.seen(n) || n.Type == html.CommentNode {
			return
		}
		if n.Type == html.ElementNode {
			switch {
			case noiseTags[n.Data], n.Data == "head":
				return
			case isElement(n, "h1", "h2", "h3", "h4", "h5", "h6"):
				visited.markTree(n)
				text := nodeText(n)
				if text == "" {
					return
				}
				if n.Data == "h2" || n.Data == "h3" {
					startSection(text, model.Tagged(headingTag(n.Data), text))
				} else {
					current.lines = append(current.lines, model.Tagged(headingTag(n.Data), text))
				}
				return
			case isElement(n, "ul", "ol", "dl"):
				visited.markTree(n)
				if line := flattenList(n); line != "" {
					current.lines = append(current.lines, line)
				}
				return
			case isElement(n, "table"):
				visited.markTree(n)
				if line := flattenTable(n); line != "" {
					current.lines = append(current.lines, line)
				}
				return
			case isElement(n, "p"):
				visited.markTree(n)
				text := nodeText(n)
				if text == "" {
					return
				}
				if isVisualHeader(n, text) {
					startSection(text, model.Tagged(model.TagH2, text))
					return
				}
				tag := model.TagContent
				if hasWarningMarker(n, text) {
					tag = model.TagWarning
				}
				current.lines = append(current.lines, model.Tagged(tag, text))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(body)
	flush()
	return sections
}

// extractFlexibleFAQ mirrors the heading heuristic but also accepts a bold
// paragraph as the FAQ header, the common case in exported documents.
func (e *DocExportExtractor) extractFlexibleFAQ(body *html.Node, visited visitSet) []string {
	header := findFirst(body, func(n *html.Node) bool {
		if visited.seen(n) {
			return false
		}
		if !isElement(n, "h1", "h2", "h3", "p") {
			return false
		}
		text := nodeText(n)
		if text == "" || len(text) > 60 {
			return false
		}
		upper := strings.ToUpper(text)
		for _, w := range faqHeadingWords {
			if strings.Contains(upper, w) {
				return true
			}
		}
		return false
	})
	if header == nil {
		return nil
	}

	var questions, answers []string
	var region []*html.Node
	for sib := header.NextSibling; sib != nil; sib = sib.NextSibling {
		if sib.Type != html.ElementNode {
			continue
		}
		text := nodeText(sib)
		if isElement(sib, "h1", "h2") && text != "" {
			break
		}
		region = append(region, sib)

		if isElement(sib, "ul", "ol") {
			for _, li := range findAll(sib, func(n *html.Node) bool {
				return isElement(n, "li")
			}) {
				if t := nodeText(li); t != "" {
					questions = append(questions, t)
				}
			}
			continue
		}
		if text == "" {
			continue
		}
		if strings.Contains(text, "?") && len(text) < faqQuestionMaxLen {
			questions = append(questions, text)
		} else {
			answers = append(answers, text)
		}
	}

	lines := pairQA(questions, answers)
	if len(lines) > 0 {
		visited.markTree(header)
		for _, n := range region {
			visited.markTree(n)
		}
	}
	return lines
}
