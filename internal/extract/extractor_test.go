package extract

import (
	"strings"
	"testing"

	"github.com/pagewarden/pagewarden/internal/model"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input string
		want  Mode
	}{
		{"generic", ModeGeneric},
		{"surgical", ModeSurgical},
		{"casino", ModeSurgical},
		{"CASINO", ModeSurgical},
		{"", ModeGeneric},
		{"unknown", ModeGeneric},
	}
	for _, tt := range tests {
		if got := ParseMode(tt.input); got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		html string
		mode Mode
		want Format
	}{
		{
			name: "doc export GUID marker",
			html: `<b id="docs-internal-guid-abc123"><p>text</p></b>`,
			mode: ModeGeneric,
			want: FormatDocExport,
		},
		{
			name: "doc export generated style classes",
			html: `<style>.c14 { font-weight: 700 }</style><p class="c14">text</p>`,
			mode: ModeSurgical,
			want: FormatDocExport,
		},
		{
			name: "doc export generator meta",
			html: `<meta name="generator" content="Google Docs"><p>text</p>`,
			mode: ModeGeneric,
			want: FormatDocExport,
		},
		{
			name: "surgical mode requested",
			html: `<div class="intro"><h1>Review</h1></div>`,
			mode: ModeSurgical,
			want: FormatSurgical,
		},
		{
			name: "plain page defaults to generic",
			html: `<h2>Section</h2><p>text</p>`,
			mode: ModeGeneric,
			want: FormatGeneric,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.html, tt.mode); got != tt.want {
				t.Errorf("DetectFormat = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenericExtraction(t *testing.T) {
	html := `<html><body>
		<h1>Health Advice</h1>
		<p>Intro paragraph.</p>
		<h2>Treatment Options</h2>
		<p>First option.</p>
		<ul><li>Rest</li><li>Hydration</li></ul>
		<h2>Risks</h2>
		<table><tr><th>Risk</th><th>Level</th></tr><tr><td>Dehydration</td><td>High</td></tr></table>
	</body></html>`

	doc, err := NewGenericExtractor().Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	chunks := doc.ContentChunks()
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3 (Introduction + 2 sections)", len(chunks))
	}

	if chunks[0].ContentName != "Introduction" {
		t.Errorf("chunk 0 name = %q, want Introduction", chunks[0].ContentName)
	}
	wantIntro := []string{"H1: Health Advice", "CONTENT: Intro paragraph."}
	if len(chunks[0].SmallChunks) != 2 ||
		chunks[0].SmallChunks[0] != wantIntro[0] ||
		chunks[0].SmallChunks[1] != wantIntro[1] {
		t.Errorf("intro lines = %v, want %v", chunks[0].SmallChunks, wantIntro)
	}

	if chunks[1].ContentName != "Treatment Options" {
		t.Errorf("chunk 1 name = %q", chunks[1].ContentName)
	}
	found := false
	for _, line := range chunks[1].SmallChunks {
		if line == "LIST: Rest // Hydration" {
			found = true
		}
	}
	if !found {
		t.Errorf("list line missing from %v", chunks[1].SmallChunks)
	}

	wantTable := "TABLE: Risk | Level // Dehydration | High"
	gotTable := ""
	for _, line := range chunks[2].SmallChunks {
		if strings.HasPrefix(line, "TABLE:") {
			gotTable = line
		}
	}
	if gotTable != wantTable {
		t.Errorf("table line = %q, want %q", gotTable, wantTable)
	}
}

func TestChunkIndicesContiguous(t *testing.T) {
	html := `<body>
		<h2>One</h2><p>a</p>
		<h2>Empty</h2>
		<h2>Two</h2><p>b</p>
	</body>`

	doc, err := NewGenericExtractor().Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	for i, chunk := range doc.ContentChunks() {
		if chunk.Index != i+1 {
			t.Errorf("chunk %d has index %d, want %d", i, chunk.Index, i+1)
		}
	}
}

func TestWarningBlockDetection(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"warning class", `<body><p class="warning-box">Gambling can be addictive.</p></body>`},
		{"warning emoji", `<body><p>⚠️ Play responsibly.</p></body>`},
		{"warning word", `<body><p>WARNING: for adults only.</p></body>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := NewGenericExtractor().Extract(tt.html)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			found := false
			for _, chunk := range doc.ContentChunks() {
				for _, line := range chunk.SmallChunks {
					if strings.HasPrefix(line, "WARNING:") {
						found = true
					}
				}
			}
			if !found {
				t.Errorf("no WARNING line in output")
			}
		})
	}
}

func TestNoiseTagsExcluded(t *testing.T) {
	html := `<body>
		<nav><p>Menu item</p></nav>
		<p>Real content.</p>
		<footer><p>Copyright notice</p></footer>
		<script>var x = "script text";</script>
	</body>`

	doc, err := NewGenericExtractor().Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	for _, chunk := range doc.ContentChunks() {
		for _, line := range chunk.SmallChunks {
			if strings.Contains(line, "Menu item") || strings.Contains(line, "Copyright") ||
				strings.Contains(line, "script text") {
				t.Errorf("noise leaked into output: %q", line)
			}
		}
	}
}

func TestHeadingLevelCollapse(t *testing.T) {
	html := `<body><h2>S</h2><h5>Deep</h5><h6>Deeper</h6></body>`

	doc, err := NewGenericExtractor().Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	chunks := doc.ContentChunks()
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	want := []string{"H2: S", "H4: Deep", "H4: Deeper"}
	for i, line := range want {
		if chunks[0].SmallChunks[i] != line {
			t.Errorf("line %d = %q, want %q", i, chunks[0].SmallChunks[i], line)
		}
	}
}

func TestPreTaggedHeadingNotDoubled(t *testing.T) {
	html := `<body><h2>H2: Already Tagged</h2></body>`

	doc, err := NewGenericExtractor().Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	chunks := doc.ContentChunks()
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if got := chunks[0].SmallChunks[0]; got != "H2: Already Tagged" {
		t.Errorf("line = %q, want no doubled prefix", got)
	}
}

func TestContentEmptyInputPlaceholder(t *testing.T) {
	ok, jsonText, errMsg := Content("", ModeGeneric)
	if !ok {
		t.Fatalf("Content failed: %s", errMsg)
	}

	doc, err := model.ParseChunkDocument(jsonText)
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(doc.BigChunks) != 1 {
		t.Fatalf("got %d chunks, want 1 placeholder", len(doc.BigChunks))
	}
	if doc.BigChunks[0].SmallChunks[0] != model.PlaceholderChunkText {
		t.Errorf("placeholder = %q", doc.BigChunks[0].SmallChunks[0])
	}
}

func TestContentRoundTrip(t *testing.T) {
	html := `<body><h2>Section</h2><p>Text here.</p></body>`

	ok, jsonText, errMsg := Content(html, ModeGeneric)
	if !ok {
		t.Fatalf("Content failed: %s", errMsg)
	}

	doc, err := model.ParseChunkDocument(jsonText)
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	chunks := doc.ContentChunks()
	if len(chunks) != 1 || chunks[0].ContentName != "Section" {
		t.Errorf("unexpected document: %+v", doc)
	}
}
