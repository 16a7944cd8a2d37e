package ingestion

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/maxwell-labs/ragbench/pkg/apperrors"
)

// extract decodes the file at path into plain text using the extractor
// keyed by contentType (spec §4.D stage 1). Per-page/per-section errors are
// appended to the output as diagnostic context rather than failing the
// stage outright; only a complete inability to extract any text fails with
// apperrors.KindExtractEmpty.
func extract(contentType, path string) (string, error) {
	var text string
	var err error

	switch {
	case strings.Contains(contentType, "pdf"):
		text, err = extractPDF(path)
	case strings.Contains(contentType, "officedocument.wordprocessingml"), strings.Contains(contentType, "docx"):
		text, err = extractDOCX(path)
	case strings.Contains(contentType, "html"):
		text, err = extractHTML(path)
	case strings.Contains(contentType, "csv"):
		text, err = extractCSV(path)
	default:
		// text/plain, text/markdown, code files, and anything else readable
		// as UTF-8 text pass through unchanged.
		text, err = extractPlain(path)
	}
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", apperrors.New(apperrors.KindExtractEmpty, "no text extracted from %s (content-type %s)", path, contentType)
	}
	return text, nil
}

func extractPlain(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindExtractEmpty, err, "reading plain text document")
	}
	return string(b), nil
}

func extractHTML(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindExtractEmpty, err, "reading html document")
	}
	md, err := htmltomarkdown.ConvertString(string(b))
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindExtractEmpty, err, "converting html to markdown")
	}
	return md, nil
}

func extractCSV(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindExtractEmpty, err, "opening csv document")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // tolerate ragged rows rather than failing the whole file

	var buf strings.Builder
	rowNum := 0
	for {
		record, readErr := reader.Read()
		if readErr != nil {
			if readErr.Error() == "EOF" {
				break
			}
			fmt.Fprintf(&buf, "[row %d: %v]\n", rowNum, readErr)
			rowNum++
			continue
		}
		buf.WriteString(strings.Join(record, ", "))
		buf.WriteString("\n")
		rowNum++
	}
	return buf.String(), nil
}

func extractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindExtractEmpty, err, "opening pdf document")
	}
	defer r.Close()

	var buf strings.Builder
	totalPages := f.NumPage()
	for pageIndex := 1; pageIndex <= totalPages; pageIndex++ {
		page := f.Page(pageIndex)
		if page.V.IsNull() {
			fmt.Fprintf(&buf, "[page %d: empty or unreadable]\n", pageIndex)
			continue
		}
		content, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			fmt.Fprintf(&buf, "[page %d: %v]\n", pageIndex, pageErr)
			continue
		}
		buf.WriteString(content)
		buf.WriteString("\n")
	}
	return buf.String(), nil
}

func extractDOCX(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindExtractEmpty, err, "opening docx document")
	}
	defer r.Close()

	content := r.Editable().GetContent()
	var buf bytes.Buffer
	buf.WriteString(content)
	return buf.String(), nil
}
