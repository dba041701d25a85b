package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Small-chunk tag prefixes. The vocabulary is closed: consumers must treat
// any unrecognized prefix as plain CONTENT text rather than erroring.
const (
	TagH1       = "H1"
	TagH2       = "H2"
	TagH3       = "H3"
	TagH4       = "H4"
	TagContent  = "CONTENT"
	TagList     = "LIST"
	TagTable    = "TABLE"
	TagWarning  = "WARNING"
	TagFAQQ     = "FAQ_Q"
	TagFAQA     = "FAQ_A"
	TagSubtitle = "SUBTITLE"
	TagLead     = "LEAD"
	TagSummary  = "SUMMARY"
)

// ListSeparator joins flattened list items and table rows inside one line.
const ListSeparator = " // "

// CellSeparator joins table cells within a row.
const CellSeparator = " | "

// PlaceholderChunkText is emitted when extraction finds nothing, so
// downstream consumers never see an empty document.
const PlaceholderChunkText = "CONTENT: No content extracted"

// BackpackIndex is the reserved big_chunk_index for the global context
// backpack (licenses, age/safety warnings, restriction notices).
const BackpackIndex = 0

// BigChunk is one logical section of the source document: an ordered group
// of tagged text lines.
type BigChunk struct {
	Index       int      `json:"big_chunk_index"`
	ContentName string   `json:"content_name,omitempty"`
	SmallChunks []string `json:"small_chunks"`
}

// ChunkDocument is the extraction output. Chunk order is document reading
// order. Index 0, if present, is the global context backpack.
type ChunkDocument struct {
	BigChunks []BigChunk `json:"big_chunks"`
}

// Tagged builds a small-chunk line from a tag prefix and text.
func Tagged(tag, text string) string {
	return tag + ": " + text
}

// TagOf returns the tag prefix of a small-chunk line, or TagContent when the
// prefix is not recognized.
func TagOf(line string) string {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return TagContent
	}
	switch tag := line[:idx]; tag {
	case TagH1, TagH2, TagH3, TagH4, TagContent, TagList, TagTable,
		TagWarning, TagFAQQ, TagFAQA, TagSubtitle, TagLead, TagSummary:
		return tag
	default:
		return TagContent
	}
}

// IsEmpty reports whether the document carries no content chunks at all.
func (d *ChunkDocument) IsEmpty() bool {
	return d == nil || len(d.BigChunks) == 0
}

// Backpack returns the global context chunk, or nil when absent.
func (d *ChunkDocument) Backpack() *BigChunk {
	for i := range d.BigChunks {
		if d.BigChunks[i].Index == BackpackIndex {
			return &d.BigChunks[i]
		}
	}
	return nil
}

// ContentChunks returns the numbered content chunks, excluding the backpack.
func (d *ChunkDocument) ContentChunks() []BigChunk {
	out := make([]BigChunk, 0, len(d.BigChunks))
	for _, c := range d.BigChunks {
		if c.Index != BackpackIndex {
			out = append(out, c)
		}
	}
	return out
}

// Finalize enforces the non-empty invariant: a document with no chunks gets
// a single placeholder chunk.
func (d *ChunkDocument) Finalize() {
	if len(d.BigChunks) == 0 {
		d.BigChunks = []BigChunk{{
			Index:       1,
			SmallChunks: []string{PlaceholderChunkText},
		}}
	}
}

// PrimaryTopic scans the first chunks for an H1 line and returns its text.
// Used to hoist the page title into the analyzer payload.
func (d *ChunkDocument) PrimaryTopic() string {
	limit := len(d.BigChunks)
	if limit > 3 {
		limit = 3
	}
	for _, chunk := range d.BigChunks[:limit] {
		for _, line := range chunk.SmallChunks {
			if strings.HasPrefix(line, TagH1+":") {
				return strings.TrimSpace(strings.TrimPrefix(line, TagH1+":"))
			}
		}
	}
	return "Unknown Title"
}

// MarshalJSONText serializes the document to the wire format that crosses
// the core boundary.
func (d *ChunkDocument) MarshalJSONText() (string, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal chunk document: %w", err)
	}
	return string(data), nil
}

// ParseChunkDocument parses the wire format back into a document.
func ParseChunkDocument(jsonText string) (*ChunkDocument, error) {
	var doc ChunkDocument
	if err := json.Unmarshal([]byte(jsonText), &doc); err != nil {
		return nil, fmt.Errorf("parse chunk document: %w", err)
	}
	return &doc, nil
}
