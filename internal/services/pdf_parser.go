package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const pdfMediaType = "application/pdf"

// TextExtractor recovers plain text and page count from a document.
type TextExtractor interface {
	ExtractTextWithMetaData(ctx context.Context, data []byte) (*PDFContent, error)
}

type PDFContent struct {
	Text      string
	PageCount int
}

type pdfParserService struct {
	conf *model.Configuration
}

func NewPDFParserService() TextExtractor {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	return &pdfParserService{conf: conf}
}

// ExtractTextWithMetaData implements TextExtractor.
func (p *pdfParserService) ExtractTextWithMetaData(ctx context.Context, data []byte) (*PDFContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if mt := mimetype.Detect(data); !mt.Is(pdfMediaType) {
		return nil, &ExtractionError{Message: fmt.Sprintf("content is %s, not a PDF", mt.String())}
	}

	// pdfcpu rejects corrupt and encrypted files before the text pass.
	pdfCtx, err := api.ReadContext(bytes.NewReader(data), p.conf)
	if err != nil {
		return nil, &ExtractionError{Message: "failed to read PDF", Cause: err}
	}
	if err := api.ValidateContext(pdfCtx); err != nil {
		return nil, &ExtractionError{Message: "invalid PDF", Cause: err}
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ExtractionError{Message: "failed to open PDF", Cause: err}
	}

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// unreadable pages are skipped; an empty result is caught below
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}

	text := CleanText(textBuilder.String())
	if text == "" {
		return nil, &ExtractionError{Message: "no text content found in PDF"}
	}

	return &PDFContent{
		Text:      text,
		PageCount: pdfCtx.PageCount,
	}, nil
}

// CleanText trims every line and drops blank ones.
func CleanText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	cleanedLines := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}
