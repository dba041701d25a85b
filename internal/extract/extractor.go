package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pagewarden/pagewarden/internal/model"
	"golang.org/x/net/html"
)

// Mode selects the extraction strategy requested by the caller.
type Mode string

const (
	// ModeGeneric uses H2-sectioning over arbitrary page markup.
	ModeGeneric Mode = "generic"
	// ModeSurgical uses selector-driven extraction tuned to the known
	// review-page template (casino mode).
	ModeSurgical Mode = "surgical"
)

// ParseMode normalizes a mode flag, defaulting to generic.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "surgical", "casino":
		return ModeSurgical
	default:
		return ModeGeneric
	}
}

// Format identifies which concrete extractor handles the input.
type Format int

const (
	FormatGeneric Format = iota
	FormatSurgical
	FormatDocExport
)

func (f Format) String() string {
	switch f {
	case FormatSurgical:
		return "surgical"
	case FormatDocExport:
		return "doc-export"
	default:
		return "generic"
	}
}

// Extractor turns raw HTML into an ordered chunk document.
type Extractor interface {
	Name() string
	Extract(htmlText string) (*model.ChunkDocument, error)
}

// Exported editing-document signatures: the copy-paste GUID marker and the
// generated .cNN style classes.
var (
	docExportGUID  = "docs-internal-guid"
	docExportStyle = regexp.MustCompile(`\.c\d+\s*\{`)
	docExportMeta  = regexp.MustCompile(`(?i)content="Google Docs"`)
)

// DetectFormat routes input to a concrete extractor: document-export
// signatures win over the requested mode, since exported documents carry
// none of the template structure the surgical extractor relies on.
func DetectFormat(htmlText string, mode Mode) Format {
	if strings.Contains(htmlText, docExportGUID) ||
		docExportStyle.MatchString(htmlText) ||
		docExportMeta.MatchString(htmlText) {
		return FormatDocExport
	}
	if mode == ModeSurgical {
		return FormatSurgical
	}
	return FormatGeneric
}

// ForFormat returns the extractor implementing the given format.
func ForFormat(f Format) Extractor {
	switch f {
	case FormatSurgical:
		return NewSurgicalExtractor()
	case FormatDocExport:
		return NewDocExportExtractor()
	default:
		return NewGenericExtractor()
	}
}

// Content is the boundary function consumed by collaborators: it never
// panics or returns a partial document. On success the JSON text is a
// well-formed chunk document; on failure the error string describes why.
func Content(htmlText string, mode Mode) (ok bool, jsonText string, errMsg string) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			jsonText = ""
			errMsg = fmt.Sprintf("extraction panic: %v", r)
		}
	}()

	extractor := ForFormat(DetectFormat(htmlText, mode))
	doc, err := extractor.Extract(htmlText)
	if err != nil {
		return false, "", fmt.Sprintf("%s extraction: %v", extractor.Name(), err)
	}
	doc.Finalize()

	text, err := doc.MarshalJSONText()
	if err != nil {
		return false, "", err.Error()
	}
	return true, text, ""
}

// parseHTML parses the raw input into a node tree.
func parseHTML(htmlText string) (*html.Node, error) {
	root, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	return root, nil
}

// documentBody returns the body element, or the root when absent.
func documentBody(root *html.Node) *html.Node {
	if body := findFirst(root, func(n *html.Node) bool {
		return isElement(n, "body")
	}); body != nil {
		return body
	}
	return root
}

// section accumulates tagged lines under one heading during the walk.
type section struct {
	name  string
	lines []string
}

// numberSections converts accumulated sections into contiguous, strictly
// increasing big chunks starting at index 1.
func numberSections(sections []section) []model.BigChunk {
	chunks := make([]model.BigChunk, 0, len(sections))
	index := 1
	for _, s := range sections {
		if len(s.lines) == 0 {
			continue
		}
		chunks = append(chunks, model.BigChunk{
			Index:       index,
			ContentName: s.name,
			SmallChunks: s.lines,
		})
		index++
	}
	return chunks
}
