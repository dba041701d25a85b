package extract

import (
	"strings"
	"testing"
)

func TestSurgicalMetadataOrdering(t *testing.T) {
	html := `<body>
		<div class="intro">
			<h1>Royal Casino Review</h1>
			<span class="sub-title">Trusted since 2010</span>
			<p class="lead">Our expert verdict on Royal Casino.</p>
		</div>
		<h2>Games</h2>
		<p>Slots and table games.</p>
	</body>`

	doc, err := NewSurgicalExtractor().Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	chunks := doc.ContentChunks()
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(chunks))
	}
	if chunks[0].ContentName != "Metadata" {
		t.Fatalf("chunk 0 name = %q, want Metadata", chunks[0].ContentName)
	}

	want := []string{
		"H1: Royal Casino Review",
		"SUBTITLE: Trusted since 2010",
		"LEAD: Our expert verdict on Royal Casino.",
	}
	if len(chunks[0].SmallChunks) != len(want) {
		t.Fatalf("metadata lines = %v, want %v", chunks[0].SmallChunks, want)
	}
	for i, line := range want {
		if chunks[0].SmallChunks[i] != line {
			t.Errorf("metadata line %d = %q, want %q", i, chunks[0].SmallChunks[i], line)
		}
	}

	// Consumed metadata must not reappear in the content walk.
	for _, chunk := range chunks[1:] {
		for _, line := range chunk.SmallChunks {
			if strings.Contains(line, "Trusted since 2010") ||
				strings.Contains(line, "Our expert verdict") {
				t.Errorf("metadata reappeared in chunk %d: %q", chunk.Index, line)
			}
		}
	}
}

func TestSurgicalSummaryExtraction(t *testing.T) {
	html := `<body>
		<h1>Title</h1>
		<div class="summary">
			<h3>Quick Summary</h3>
			<p>Licensed operator with fast payouts.</p>
		</div>
	</body>`

	doc, err := NewSurgicalExtractor().Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	chunks := doc.ContentChunks()
	var summary string
	for _, line := range chunks[0].SmallChunks {
		if strings.HasPrefix(line, "SUMMARY:") {
			summary = line
		}
	}
	if summary != "SUMMARY: Licensed operator with fast payouts." {
		t.Errorf("summary line = %q", summary)
	}
	// The summary block's own heading is discarded.
	if strings.Contains(summary, "Quick Summary") {
		t.Errorf("summary heading leaked: %q", summary)
	}
}

func TestSurgicalNoiseRemoval(t *testing.T) {
	html := `<body>
		<h1>Title</h1>
		<div class="rating-panel"><p>9.5 out of 10 stars</p></div>
		<div class="widget-newsletter"><p>Subscribe now</p></div>
		<h2>Review</h2>
		<p>Actual review text.</p>
	</body>`

	doc, err := NewSurgicalExtractor().Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	for _, chunk := range doc.ContentChunks() {
		for _, line := range chunk.SmallChunks {
			if strings.Contains(line, "9.5 out of 10") || strings.Contains(line, "Subscribe now") {
				t.Errorf("widget content leaked: %q", line)
			}
		}
	}
}

func TestSurgicalNoiseKeepsAnchorAncestors(t *testing.T) {
	// The noise region wraps the already-consumed H1; removal must leave the
	// region alone rather than claim the anchor's ancestor.
	html := `<body>
		<div class="sticky-header">
			<h1>Page Title</h1>
		</div>
		<p>Body text.</p>
	</body>`

	doc, err := NewSurgicalExtractor().Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	found := false
	for _, chunk := range doc.ContentChunks() {
		for _, line := range chunk.SmallChunks {
			if line == "H1: Page Title" {
				found = true
			}
		}
	}
	if !found {
		t.Error("H1 lost to noise removal of its ancestor")
	}
}

func TestFAQStructuredPairing(t *testing.T) {
	html := `<body>
		<h1>Title</h1>
		<div class="faq">
			<p class="faq-question">Is it legal?</p>
			<p class="faq-answer">Yes, under an MGA license.</p>
			<p class="faq-question">Can I withdraw instantly?</p>
			<p class="faq-answer">Withdrawals take 24 hours.</p>
		</div>
	</body>`

	doc, err := NewSurgicalExtractor().Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	var faqChunkLines []string
	for _, chunk := range doc.ContentChunks() {
		if chunk.ContentName == "Frequently Asked Questions" {
			faqChunkLines = chunk.SmallChunks
		}
	}
	if len(faqChunkLines) != 2 {
		t.Fatalf("got %d FAQ lines, want 2: %v", len(faqChunkLines), faqChunkLines)
	}
	want := "FAQ_Q: Is it legal? // FAQ_A: Yes, under an MGA license."
	if faqChunkLines[0] != want {
		t.Errorf("pair 0 = %q, want %q", faqChunkLines[0], want)
	}
}

func TestFAQHeadingHeuristic(t *testing.T) {
	html := `<body>
		<h1>Title</h1>
		<h2>FAQ</h2>
		<p>Is this site safe?</p>
		<p>The site holds a UKGC license and uses SSL throughout, which is standard practice.</p>
		<p>What is the minimum deposit?</p>
		<p>The minimum deposit is ten euros for all payment methods available on the platform.</p>
	</body>`

	doc, err := NewSurgicalExtractor().Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	var faqLines []string
	for _, chunk := range doc.ContentChunks() {
		if chunk.ContentName == "Frequently Asked Questions" {
			faqLines = chunk.SmallChunks
		}
	}
	if len(faqLines) != 2 {
		t.Fatalf("got %d FAQ lines, want 2: %v", len(faqLines), faqLines)
	}
	if !strings.HasPrefix(faqLines[0], "FAQ_Q: Is this site safe?") {
		t.Errorf("pair 0 = %q", faqLines[0])
	}
	if !strings.Contains(faqLines[1], "FAQ_A: The minimum deposit is ten euros") {
		t.Errorf("pair 1 = %q", faqLines[1])
	}
}

func TestFAQMicrodata(t *testing.T) {
	html := `<body>
		<h1>Title</h1>
		<div itemscope itemtype="https://schema.org/Question">
			<h3 itemprop="name">How long do payouts take?</h3>
			<div itemprop="text">Payouts complete within two business days.</div>
		</div>
	</body>`

	doc, err := NewSurgicalExtractor().Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	var faqLines []string
	for _, chunk := range doc.ContentChunks() {
		if chunk.ContentName == "Frequently Asked Questions" {
			faqLines = chunk.SmallChunks
		}
	}
	if len(faqLines) != 1 {
		t.Fatalf("got %d FAQ lines, want 1: %v", len(faqLines), faqLines)
	}
	want := "FAQ_Q: How long do payouts take? // FAQ_A: Payouts complete within two business days."
	if faqLines[0] != want {
		t.Errorf("pair = %q, want %q", faqLines[0], want)
	}
}

func TestFAQUnpairedTrailingQuestionDropped(t *testing.T) {
	html := `<body>
		<h1>Title</h1>
		<div class="faq">
			<p class="faq-question">First question?</p>
			<p class="faq-answer">First answer text.</p>
			<p class="faq-question">Orphan question with no answer?</p>
		</div>
	</body>`

	doc, err := NewSurgicalExtractor().Extract(html)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	for _, chunk := range doc.ContentChunks() {
		if chunk.ContentName == "Frequently Asked Questions" {
			if len(chunk.SmallChunks) != 1 {
				t.Errorf("got %d pairs, want 1: %v", len(chunk.SmallChunks), chunk.SmallChunks)
			}
		}
	}
}
