package parser

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
)

// Extraction holds the per-page text pulled out of a document. PDF pages
// map to real pages; other formats produce logical pages (one per sheet,
// or a single page for flat text).
type Extraction struct {
	NumPages int
	Metadata map[string]string
	Pages    []string
	Text     string
}

// Extract reads a document and returns its per-page text. The file format
// is selected by extension.
func Extract(filePath string) (*Extraction, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		return extractPDF(filePath)
	case ".docx":
		return extractDOCX(filePath)
	case ".pptx":
		return extractPPTX(filePath)
	case ".xlsx":
		return extractXLSX(filePath)
	case ".ods":
		return extractODS(filePath)
	case ".md", ".markdown":
		return extractMarkdown(filePath)
	case ".txt":
		return extractText(filePath)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

func newExtraction(pages []string, metadata map[string]string) *Extraction {
	if metadata == nil {
		metadata = map[string]string{}
	}
	return &Extraction{
		NumPages: len(pages),
		Metadata: metadata,
		Pages:    pages,
		Text:     strings.Join(pages, "\n\n"),
	}
}

func extractPDF(filePath string) (*Extraction, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{}
	info := reader.Trailer().Key("Info")
	if !info.IsNull() {
		for _, key := range []string{"Title", "Author", "Subject"} {
			if v := info.Key(key); v.Kind() == pdf.String {
				metadata[strings.ToLower(key)] = v.Text()
			}
		}
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// A broken page yields an empty entry so page numbering
			// stays aligned with the document.
			log.Debug().Err(err).Int("page", i).Str("path", filePath).Msg("failed to read page text")
			pageText = ""
		}
		pages = append(pages, pageText)
	}
	return newExtraction(pages, metadata), nil
}

func extractDOCX(filePath string) (*Extraction, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	doc := r.Editable()
	var paragraphs []string
	for _, p := range strings.Split(doc.GetContent(), "\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	// DOCX has no page numbers; the whole document is one logical page
	// with paragraph boundaries preserved for the paragraph chunker.
	return newExtraction([]string{strings.Join(paragraphs, "\n\n")}, nil), nil
}

func extractPPTX(filePath string) (*Extraction, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	// Each non-empty slide becomes one logical page.
	var pages []string
	for _, file := range r.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		slideText := strings.TrimSpace(extractDrawingText(string(data)))
		if slideText != "" {
			pages = append(pages, slideText)
		}
	}
	return newExtraction(pages, nil), nil
}

// extractDrawingText pulls the text runs out of DrawingML markup.
func extractDrawingText(xmlContent string) string {
	var text strings.Builder
	parts := strings.Split(xmlContent, "<a:t>")
	for i, part := range parts {
		if i == 0 {
			continue
		}
		if end := strings.Index(part, "</a:t>"); end >= 0 {
			text.WriteString(part[:end] + " ")
		}
	}
	return text.String()
}

func extractXLSX(filePath string) (*Extraction, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, err
	}

	var pages []string
	for _, sheet := range f.Sheets {
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		pages = append(pages, text.String())
	}
	return newExtraction(pages, nil), nil
}

func extractODS(filePath string) (*Extraction, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []string
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
		pages = append(pages, text.String())
	}
	return newExtraction(pages, nil), nil
}

func extractText(filePath string) (*Extraction, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return newExtraction([]string{string(data)}, nil), nil
}
