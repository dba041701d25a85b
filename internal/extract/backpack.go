package extract

import (
	"regexp"
	"strings"

	"github.com/pagewarden/pagewarden/internal/model"
	"github.com/pagewarden/pagewarden/internal/util"
	"golang.org/x/net/html"
)

// Context-backpack line prefixes. Outside the core tag vocabulary on
// purpose: consumers treat them as opaque content lines.
const (
	prefixLicenseCtx     = "LICENSE_CTX"
	prefixSafetyCtx      = "SAFETY_CTX"
	prefixRestrictionCtx = "RESTRICTION_CTX"
)

// licenseKeywords flag regulator/licensing sentences anywhere on the page.
var licenseKeywords = []string{
	"UKGC", "MGA", "Curacao", "license", "licencja", "regulated", "commission",
}

// restrictionPhrases flag territorial/eligibility restriction sentences.
var restrictionPhrases = []string{
	"not available in", "restricted in", "prohibited", "self-exclusion",
}

// maxSentencesPerKeyword bounds backpack growth on keyword-dense pages.
const maxSentencesPerKeyword = 2

// buildBackpack scans the whole document text for license sentences,
// age/safety markers and restriction phrases, and collects them as the
// zero-indexed global context chunk. Returns nil when nothing is found.
func buildBackpack(body *html.Node) *model.BigChunk {
	fullText := nodeText(body)
	if fullText == "" {
		return nil
	}

	var items []string
	seen := make(map[string]bool)
	add := func(line string) {
		if !seen[line] {
			seen[line] = true
			items = append(items, line)
		}
	}

	for _, kw := range licenseKeywords {
		re := regexp.MustCompile(`(?i)([^.]*` + regexp.QuoteMeta(kw) + `[^.]*\.)`)
		matches := re.FindAllString(fullText, maxSentencesPerKeyword)
		for _, m := range matches {
			add(prefixLicenseCtx + ": " + util.CleanText(m))
		}
	}

	if strings.Contains(fullText, "⚠") || strings.Contains(fullText, "18+") {
		add(prefixSafetyCtx + ": Age/safety warnings present in document.")
	}

	// Case-insensitive match via regexp so the offset indexes fullText
	// itself: lowercasing can change byte lengths and shift offsets.
	for _, phrase := range restrictionPhrases {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(phrase))
		if loc := re.FindStringIndex(fullText); loc != nil {
			add(prefixRestrictionCtx + ": " + util.CleanText(sentenceAround(fullText, loc[0])))
		}
	}

	if len(items) == 0 {
		return nil
	}
	return &model.BigChunk{
		Index:       model.BackpackIndex,
		ContentName: "GLOBAL CONTEXT",
		SmallChunks: items,
	}
}

// sentenceAround returns the period-delimited sentence containing offset.
func sentenceAround(text string, offset int) string {
	start := strings.LastIndex(text[:offset], ".")
	if start < 0 {
		start = 0
	} else {
		start++
	}
	end := strings.Index(text[offset:], ".")
	if end < 0 {
		end = len(text)
	} else {
		end += offset + 1
	}
	return text[start:end]
}

// injectMarker prefixes the synthetic context line added to every chunk.
const injectMarker = "GLOBAL_CTX (applies to this section)"

// InjectGlobalContext returns a copy of the document where every content
// chunk starts with one synthetic line carrying the backpack, so a
// per-section auditor never loses page-level context. Payload size grows
// per call in exchange for context completeness.
func InjectGlobalContext(doc *model.ChunkDocument) *model.ChunkDocument {
	backpack := doc.Backpack()
	if backpack == nil || len(backpack.SmallChunks) == 0 {
		return doc
	}
	contextLine := injectMarker + ": " + strings.Join(backpack.SmallChunks, model.ListSeparator)

	out := &model.ChunkDocument{BigChunks: make([]model.BigChunk, 0, len(doc.BigChunks))}
	for _, chunk := range doc.BigChunks {
		if chunk.Index == model.BackpackIndex {
			out.BigChunks = append(out.BigChunks, chunk)
			continue
		}
		injected := chunk
		injected.SmallChunks = append([]string{contextLine}, chunk.SmallChunks...)
		out.BigChunks = append(out.BigChunks, injected)
	}
	return out
}
