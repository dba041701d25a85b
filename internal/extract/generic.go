package extract

import (
	"github.com/pagewarden/pagewarden/internal/model"
)

// GenericExtractor is the fallback strategy for arbitrary page markup: one
// H2-sectioning walk over the whole body.
type GenericExtractor struct{}

// NewGenericExtractor creates the generic extractor.
func NewGenericExtractor() *GenericExtractor {
	return &GenericExtractor{}
}

func (e *GenericExtractor) Name() string {
	return "generic"
}

// Extract parses the HTML and groups block content by H2 headings.
func (e *GenericExtractor) Extract(htmlText string) (*model.ChunkDocument, error) {
	root, err := parseHTML(htmlText)
	if err != nil {
		return nil, err
	}
	body := documentBody(root)
	visited := make(visitSet)

	sections := walkSections(body, visited)

	doc := &model.ChunkDocument{BigChunks: numberSections(sections)}
	if backpack := buildBackpack(body); backpack != nil {
		doc.BigChunks = append([]model.BigChunk{*backpack}, doc.BigChunks...)
	}
	return doc, nil
}
