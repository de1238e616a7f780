// Package docparse извлекает текст из загружаемых документов.
//
// Поддерживаются PDF, DOCX и TXT. DOCX читается напрямую как zip-архив
// с word/document.xml, PDF — через библиотеку ledongthuc/pdf.
package docparse

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Ошибки разбора. Обработчики переводят обе в HTTP 400.
var (
	// ErrUnsupportedFormat возвращается для неизвестного расширения файла.
	ErrUnsupportedFormat = fmt.Errorf("unsupported document format")
	// ErrInvalidDocument возвращается, когда содержимое не удаётся разобрать:
	// повреждённый архив, старый бинарный .doc, нечитаемый PDF.
	ErrInvalidDocument = fmt.Errorf("invalid or corrupt document")
)

// ExtractText извлекает текст документа по расширению имени файла.
func ExtractText(fileName string, data []byte) (string, error) {
	const op = "docparse.ExtractText"

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".txt":
		return string(data), nil
	case ".pdf":
		text, err := extractPDF(data)
		if err != nil {
			return "", fmt.Errorf("%s: %w: %v", op, ErrInvalidDocument, err)
		}
		return text, nil
	case ".docx", ".doc":
		// Старый бинарный формат .doc (OLE) — не zip-архив.
		if !bytes.HasPrefix(data, []byte("PK")) {
			return "", fmt.Errorf("%s: %w: not a zip archive", op, ErrInvalidDocument)
		}
		text, err := extractDOCX(data)
		if err != nil {
			return "", fmt.Errorf("%s: %w: %v", op, ErrInvalidDocument, err)
		}
		return text, nil
	default:
		return "", fmt.Errorf("%s: %w: %s", op, ErrUnsupportedFormat, fileName)
	}
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	totalPage := reader.NumPage()
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// docxDocument покрывает минимально необходимую часть word/document.xml:
// абзацы и текстовые прогоны.
type docxDocument struct {
	Body struct {
		Paragraphs []struct {
			Runs []struct {
				Text string `xml:"t"`
			} `xml:"r"`
		} `xml:"p"`
	} `xml:"body"`
}

func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		raw, err := io.ReadAll(rc)
		closeErr := rc.Close()
		if err != nil {
			return "", err
		}
		if closeErr != nil {
			return "", closeErr
		}

		var doc docxDocument
		if err := xml.Unmarshal(raw, &doc); err != nil {
			return "", err
		}
		var sb strings.Builder
		for _, p := range doc.Body.Paragraphs {
			for _, r := range p.Runs {
				sb.WriteString(r.Text)
			}
			sb.WriteString("\n")
		}
		return sb.String(), nil
	}
	return "", fmt.Errorf("word/document.xml not found in archive")
}
