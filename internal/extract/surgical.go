package extract

import (
	"strings"

	"github.com/pagewarden/pagewarden/internal/model"
	"golang.org/x/net/html"
)

// metadataLookahead bounds the sibling-order search for subtitle/lead after
// the H1, so a stray element far down the page is never matched.
const metadataLookahead = 10

// faqQuestionMaxLen is the length threshold above which a '?' line is
// treated as prose rather than a question.
const faqQuestionMaxLen = 150

// Widget regions identified by the template's element naming convention.
// Removed before the content walk, after the metadata/FAQ passes.
var noiseClasses = []string{
	"rating-panel",
	"related-posts",
	"details-table",
	"author-bio",
	"sticky-header",
	"sticky-footer",
	"breadcrumbs",
}

// SurgicalExtractor is the selector-driven strategy for the known review
// page template: a metadata pass, a FAQ pass, widget noise removal, then
// the shared H2-sectioning walk over what remains.
type SurgicalExtractor struct{}

// NewSurgicalExtractor creates the surgical extractor.
func NewSurgicalExtractor() *SurgicalExtractor {
	return &SurgicalExtractor{}
}

func (e *SurgicalExtractor) Name() string {
	return "surgical"
}

func (e *SurgicalExtractor) Extract(htmlText string) (*model.ChunkDocument, error) {
	root, err := parseHTML(htmlText)
	if err != nil {
		return nil, err
	}
	body := documentBody(root)
	visited := make(visitSet)

	// Pass order matters: metadata and FAQ anchors are located before noise
	// removal so a region later classified as noise cannot be harvested as
	// metadata first, and noise is claimed before the walk so the walk
	// never sees it.
	metaLines := e.extractMetadata(body, visited)
	faqLines := extractFAQ(body, visited)
	e.removeNoise(body, visited)

	sections := make([]section, 0, 4)
	if len(metaLines) > 0 {
		sections = append(sections, section{name: "Metadata", lines: metaLines})
	}
	sections = append(sections, walkSections(body, visited)...)
	if len(faqLines) > 0 {
		sections = append(sections, section{
			name:  "Frequently Asked Questions",
			lines: faqLines,
		})
	}

	doc := &model.ChunkDocument{BigChunks: numberSections(sections)}
	if backpack := buildBackpack(body); backpack != nil {
		doc.BigChunks = append([]model.BigChunk{*backpack}, doc.BigChunks...)
	}
	return doc, nil
}

// extractMetadata locates H1, subtitle, lead and summary. Matched elements
// are marked consumed so the content walk cannot re-capture them.
func (e *SurgicalExtractor) extractMetadata(body *html.Node, visited visitSet) []string {
	var lines []string

	// H1 priority search: inside the intro container when one exists,
	// globally otherwise.
	var h1 *html.Node
	intro := findFirst(body, func(n *html.Node) bool {
		return hasClass(n, "intro") || hasClass(n, "page-intro") || attr(n, "id") == "intro"
	})
	if intro != nil {
		h1 = findFirst(intro, func(n *html.Node) bool { return isElement(n, "h1") })
	}
	if h1 == nil {
		h1 = findFirst(body, func(n *html.Node) bool { return isElement(n, "h1") })
	}
	if h1 == nil {
		return e.extractSummary(body, visited, lines)
	}

	if text := nodeText(h1); text != "" {
		lines = append(lines, model.Tagged(model.TagH1, text))
	}
	visited.markTree(h1)

	// Subtitle and lead are the next structurally-adjacent elements of the
	// expected type after H1, found by sibling-order search.
	var subtitle, lead *html.Node
	scanned := 0
	following(h1, func(n *html.Node) bool {
		scanned++
		if subtitle == nil {
			if m := matchByClass(n, "sub-title", "subtitle"); m != nil {
				subtitle = m
			}
		}
		if lead == nil {
			if m := matchByClass(n, "lead", "lead-text"); m != nil && m != subtitle {
				lead = m
			}
		}
		return (subtitle == nil || lead == nil) && scanned < metadataLookahead
	})

	if subtitle != nil {
		if text := nodeText(subtitle); text != "" {
			lines = append(lines, model.Tagged(model.TagSubtitle, text))
		}
		visited.markTree(subtitle)
	}
	if lead != nil {
		if text := nodeText(lead); text != "" {
			lines = append(lines, model.Tagged(model.TagLead, text))
		}
		visited.markTree(lead)
	}

	return e.extractSummary(body, visited, lines)
}

// extractSummary captures the summary block under its known marker, with
// the block's own heading discarded to avoid duplicate titling.
func (e *SurgicalExtractor) extractSummary(body *html.Node, visited visitSet, lines []string) []string {
	summary := findFirst(body, func(n *html.Node) bool {
		return hasClass(n, "summary") || hasClass(n, "page-summary")
	})
	if summary == nil || visited.seen(summary) {
		return lines
	}

	skip := make(visitSet)
	if heading := findFirst(summary, func(n *html.Node) bool {
		return isElement(n, "h2", "h3", "h4")
	}); heading != nil {
		skip.markTree(heading)
	}
	if text := nodeTextExcluding(summary, skip); text != "" {
		lines = append(lines, model.Tagged(model.TagSummary, text))
	}
	visited.markTree(summary)
	return lines
}

// matchByClass returns n itself or its first descendant carrying one of the
// class tokens.
func matchByClass(n *html.Node, classes ...string) *html.Node {
	for _, c := range classes {
		if hasClass(n, c) {
			return n
		}
	}
	return findFirst(n, func(d *html.Node) bool {
		for _, c := range classes {
			if hasClass(d, c) {
				return true
			}
		}
		return false
	})
}

// removeNoise claims known widget regions so the content walk skips them.
// A region that contains already-located anchor content is left alone:
// noise removal must not remove ancestors of consumed anchors.
func (e *SurgicalExtractor) removeNoise(body *html.Node, visited visitSet) {
	noise := findAll(body, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		if hasClassPrefix(n, "widget-") {
			return true
		}
		for _, c := range noiseClasses {
			if hasClass(n, c) {
				return true
			}
		}
		return false
	})
	for _, n := range noise {
		if visited.containsMarked(n) {
			continue
		}
		visited.markTree(n)
	}
}

// extractFAQ tries, in priority order: structured Q/A markup, semantic
// microdata, then the heading heuristic. Finding no FAQ is not an error.
func extractFAQ(body *html.Node, visited visitSet) []string {
	if lines := faqFromStructured(body, visited); len(lines) > 0 {
		return lines
	}
	if lines := faqFromMicrodata(body, visited); len(lines) > 0 {
		return lines
	}
	return faqFromHeading(body, visited)
}

func faqPair(q, a string) string {
	return model.Tagged(model.TagFAQQ, q) + model.ListSeparator + model.Tagged(model.TagFAQA, a)
}

// faqFromStructured handles a dedicated FAQ container with question/answer
// classed elements or dt/dd pairs.
func faqFromStructured(body *html.Node, visited visitSet) []string {
	container := findFirst(body, func(n *html.Node) bool {
		return !visited.seen(n) && (hasClass(n, "faq") || attr(n, "id") == "faq")
	})
	if container == nil {
		return nil
	}

	var questions, answers []string
	for _, n := range findAll(container, func(n *html.Node) bool {
		return hasClass(n, "faq-question") || hasClass(n, "faq-answer") ||
			isElement(n, "dt", "dd")
	}) {
		text := nodeText(n)
		if text == "" {
			continue
		}
		if hasClass(n, "faq-question") || isElement(n, "dt") {
			questions = append(questions, text)
		} else {
			answers = append(answers, text)
		}
	}

	lines := pairQA(questions, answers)
	if len(lines) > 0 {
		visited.markTree(container)
	}
	return lines
}

// faqFromMicrodata handles schema.org Question/Answer markup.
func faqFromMicrodata(body *html.Node, visited visitSet) []string {
	var lines []string
	for _, q := range findAll(body, func(n *html.Node) bool {
		return !visited.seen(n) && strings.Contains(attr(n, "itemtype"), "Question")
	}) {
		name := findFirst(q, func(n *html.Node) bool {
			return attr(n, "itemprop") == "name"
		})
		answer := findFirst(q, func(n *html.Node) bool {
			return attr(n, "itemprop") == "text"
		})
		if name == nil || answer == nil {
			continue
		}
		qText, aText := nodeText(name), nodeText(answer)
		if qText == "" || aText == "" {
			continue
		}
		lines = append(lines, faqPair(qText, aText))
		visited.markTree(q)
	}
	return lines
}

var faqHeadingWords = []string{"FAQ", "KKK", "PYTANIA"}

// faqFromHeading finds a heading containing "FAQ" (or a localized
// equivalent) and gathers following siblings until the next top-level
// heading, classifying short '?' lines as questions.
func faqFromHeading(body *html.Node, visited visitSet) []string {
	heading := findFirst(body, func(n *html.Node) bool {
		if visited.seen(n) || !isElement(n, "h1", "h2", "h3") {
			return false
		}
		text := strings.ToUpper(nodeText(n))
		if len(text) > 60 {
			return false
		}
		for _, w := range faqHeadingWords {
			if strings.Contains(text, w) {
				return true
			}
		}
		return false
	})
	if heading == nil {
		return nil
	}

	var questions, answers []string
	var region []*html.Node
	for sib := heading.NextSibling; sib != nil; sib = sib.NextSibling {
		if sib.Type != html.ElementNode {
			continue
		}
		if isElement(sib, "h1", "h2") {
			break
		}
		region = append(region, sib)

		if isElement(sib, "ul", "ol") {
			for _, li := range findAll(sib, func(n *html.Node) bool {
				return isElement(n, "li")
			}) {
				text := nodeText(li)
				if text == "" {
					continue
				}
				if strings.Contains(text, "?") && len(text) < faqQuestionMaxLen {
					questions = append(questions, text)
				} else {
					answers = append(answers, text)
				}
			}
			continue
		}

		text := nodeText(sib)
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
		visited.markTree(heading)
		for _, n := range region {
			visited.markTree(n)
		}
	}
	return lines
}

// pairQA pairs the i-th question with the i-th answer. This handles both
// alternating Q/A markup and the grouped "all questions, then all answers"
// layout with the same index-wise rule.
func pairQA(questions, answers []string) []string {
	n := len(questions)
	if len(answers) < n {
		n = len(answers)
	}
	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		lines = append(lines, faqPair(questions[i], answers[i]))
	}
	return lines
}
