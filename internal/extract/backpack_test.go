package extract

import (
	"strings"
	"testing"

	"github.com/pagewarden/pagewarden/internal/model"
)

func TestBackpackCollection(t *testing.T) {
	html := `<body>
		<h1>Casino Review</h1>
		<p>The operator holds an MGA license issued in Malta.</p>
		<p>Players must be 18+ to register.</p>
		<p>The service is not available in the United Kingdom.</p>
	</body>`

	doc, err := NewGenericExtractor().Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	backpack := doc.Backpack()
	if backpack == nil {
		t.Fatal("no backpack built")
	}
	if backpack.Index != model.BackpackIndex {
		t.Errorf("backpack index = %d, want %d", backpack.Index, model.BackpackIndex)
	}
	if backpack.ContentName != "GLOBAL CONTEXT" {
		t.Errorf("backpack name = %q", backpack.ContentName)
	}

	var hasLicense, hasSafety, hasRestriction bool
	for _, line := range backpack.SmallChunks {
		switch {
		case strings.HasPrefix(line, "LICENSE_CTX:"):
			hasLicense = true
		case strings.HasPrefix(line, "SAFETY_CTX:"):
			hasSafety = true
		case strings.HasPrefix(line, "RESTRICTION_CTX:"):
			hasRestriction = true
		}
	}
	if !hasLicense {
		t.Error("license sentence not collected")
	}
	if !hasSafety {
		t.Error("18+ marker not collected")
	}
	if !hasRestriction {
		t.Error("restriction sentence not collected")
	}
}

func TestBackpackAbsentWhenNothingFound(t *testing.T) {
	doc, err := NewGenericExtractor().Extract(`<body><p>Plain article text.</p></body>`)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if doc.Backpack() != nil {
		t.Errorf("unexpected backpack: %+v", doc.Backpack())
	}
}

func TestBackpackDeduplicatesLines(t *testing.T) {
	// One sentence matching two keywords must appear once.
	html := `<body><p>The site is regulated under an MGA license.</p></body>`

	doc, err := NewGenericExtractor().Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	backpack := doc.Backpack()
	if backpack == nil {
		t.Fatal("no backpack built")
	}
	seen := make(map[string]int)
	for _, line := range backpack.SmallChunks {
		seen[line]++
	}
	for line, count := range seen {
		if count > 1 {
			t.Errorf("line repeated %d times: %q", count, line)
		}
	}
}

func TestBackpackRestrictionSurvivesCaseFolding(t *testing.T) {
	// Dotted capital İ grows when lowercased; earlier occurrences must not
	// shift the restriction phrase's offset into the wrong sentence.
	html := `<body><p>` + strings.Repeat("İ", 40) +
		` market note. Access is Prohibited here</p></body>`

	doc, err := NewGenericExtractor().Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	backpack := doc.Backpack()
	if backpack == nil {
		t.Fatal("no backpack built")
	}
	var restriction string
	for _, line := range backpack.SmallChunks {
		if strings.HasPrefix(line, "RESTRICTION_CTX:") {
			restriction = line
		}
	}
	if !strings.Contains(restriction, "Access is Prohibited here") {
		t.Errorf("restriction sentence misaligned: %q", restriction)
	}
}

func TestInjectGlobalContext(t *testing.T) {
	doc := &model.ChunkDocument{BigChunks: []model.BigChunk{
		{
			Index:       model.BackpackIndex,
			ContentName: "GLOBAL CONTEXT",
			SmallChunks: []string{"LICENSE_CTX: MGA license held."},
		},
		{Index: 1, SmallChunks: []string{"H2: Games", "CONTENT: Slots."}},
		{Index: 2, SmallChunks: []string{"H2: Payments", "CONTENT: Fast."}},
	}}

	injected := InjectGlobalContext(doc)

	// The backpack chunk itself is untouched.
	if got := injected.BigChunks[0].SmallChunks[0]; got != "LICENSE_CTX: MGA license held." {
		t.Errorf("backpack line = %q", got)
	}

	for _, chunk := range injected.ContentChunks() {
		first := chunk.SmallChunks[0]
		if !strings.HasPrefix(first, "GLOBAL_CTX") {
			t.Errorf("chunk %d first line = %q, want injected context", chunk.Index, first)
		}
		if !strings.Contains(first, "MGA license held.") {
			t.Errorf("chunk %d context missing backpack content: %q", chunk.Index, first)
		}
	}

	// The input document is not mutated.
	if doc.BigChunks[1].SmallChunks[0] != "H2: Games" {
		t.Errorf("input mutated: %v", doc.BigChunks[1].SmallChunks)
	}
}

func TestInjectGlobalContextNoBackpack(t *testing.T) {
	doc := &model.ChunkDocument{BigChunks: []model.BigChunk{
		{Index: 1, SmallChunks: []string{"CONTENT: text"}},
	}}
	if got := InjectGlobalContext(doc); got != doc {
		t.Error("document without backpack should pass through unchanged")
	}
}
