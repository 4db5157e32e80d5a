package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF extracts text from a PDF document. The primary path reads each
// page's plain text and skips pages that fail to parse. When that yields
// nothing, a second pass reassembles the text row by row, which recovers
// content from documents whose font encodings confuse the plain-text path.
func extractPDF(data []byte) (string, error) {
	text, err := pdfPlainText(data)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}

	rowText, rowErr := pdfRowText(data)
	if rowErr == nil && strings.TrimSpace(rowText) != "" {
		return rowText, nil
	}

	if err != nil {
		return "", fmt.Errorf("failed to parse PDF: %w", err)
	}
	if rowErr != nil {
		return "", fmt.Errorf("failed to parse PDF: %w", rowErr)
	}
	return "", ErrEmptyDocument
}

func pdfPlainText(data []byte) (text string, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser failure: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var content strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail to parse.
			continue
		}

		if content.Len() > 0 {
			content.WriteString("\n\n")
		}
		content.WriteString(strings.TrimSpace(pageText))
	}

	return content.String(), nil
}

func pdfRowText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser failure: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var content strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}

		var pageContent strings.Builder
		for _, row := range rows {
			var line strings.Builder
			for _, word := range row.Content {
				line.WriteString(word.S)
			}
			if s := strings.TrimSpace(line.String()); s != "" {
				if pageContent.Len() > 0 {
					pageContent.WriteString("\n")
				}
				pageContent.WriteString(s)
			}
		}

		if pageContent.Len() > 0 {
			if content.Len() > 0 {
				content.WriteString("\n\n")
			}
			content.WriteString(pageContent.String())
		}
	}

	return content.String(), nil
}
