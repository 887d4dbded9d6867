// Package pdftext extracts plain text from uploaded report files on a
// best-effort basis. Extraction never fails the caller: a parse error or an
// empty result degrades to a deterministic placeholder identifying the file.
package pdftext

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// MinUsableChars is the shortest extraction considered meaningful; anything
// shorter degrades to the placeholder.
const MinUsableChars = 5

const salvageCap = 1000

var (
	whitespace   = regexp.MustCompile(`\s+`)
	printableRun = regexp.MustCompile(`[a-zA-Z0-9\s.,;:!?()-]{10,}`)
)

// Extractor turns file bytes into plain text, capped at MaxChars.
type Extractor struct {
	MaxChars int
}

func New(maxChars int) *Extractor {
	return &Extractor{MaxChars: maxChars}
}

// Result carries the extracted (or substituted) text and whether extraction
// degraded to the placeholder.
type Result struct {
	Text     string
	Degraded bool
}

// ExtractBestEffort attempts structured PDF extraction and substitutes the
// manual-review placeholder on failure or an empty result. It never returns
// an error; the upload pipeline creates the record either way.
func (e *Extractor) ExtractBestEffort(fileName string, data []byte) Result {
	text, err := extractPDF(data)
	if err != nil {
		return Result{Text: FallbackParseFailed(fileName), Degraded: true}
	}

	text = whitespace.ReplaceAllString(strings.TrimSpace(text), " ")
	if len(text) < MinUsableChars {
		return Result{Text: FallbackEmpty(fileName), Degraded: true}
	}
	return Result{Text: e.cap(text)}
}

// ExtractLoose is the ad-hoc variant behind the standalone extraction
// endpoint: on parse failure it additionally tries to pull printable runs out
// of the raw bytes before giving up.
func (e *Extractor) ExtractLoose(fileName string, data []byte) Result {
	text, err := extractPDF(data)
	if err == nil {
		text = whitespace.ReplaceAllString(strings.TrimSpace(text), " ")
		if len(text) >= MinUsableChars {
			return Result{Text: e.cap(text)}
		}
	}

	if salvaged := salvage(data); len(salvaged) >= MinUsableChars {
		return Result{Text: e.cap(salvaged)}
	}
	return Result{Text: FallbackParseFailed(fileName), Degraded: true}
}

// FallbackParseFailed is the placeholder substituted when parsing fails.
func FallbackParseFailed(fileName string) string {
	return fmt.Sprintf("Medical document: %s. PDF parsing failed - manual review required.", fileName)
}

// FallbackEmpty is the placeholder substituted when parsing yields no text.
func FallbackEmpty(fileName string) string {
	return fmt.Sprintf("Medical document: %s. No text could be extracted.", fileName)
}

func (e *Extractor) cap(text string) string {
	if e.MaxChars > 0 && len(text) > e.MaxChars {
		return text[:e.MaxChars]
	}
	return text
}

// extractPDF recovers from panics: the parser is not hardened against
// malformed input and uploads are untrusted bytes.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("reading text: %w", err)
	}
	return buf.String(), nil
}

// salvage pulls printable runs out of bytes that failed structured parsing.
func salvage(data []byte) string {
	runs := printableRun.FindAllString(string(data), -1)
	if len(runs) == 0 {
		return ""
	}
	joined := strings.TrimSpace(whitespace.ReplaceAllString(strings.Join(runs, " "), " "))
	if len(joined) > salvageCap {
		joined = joined[:salvageCap]
	}
	return joined
}
