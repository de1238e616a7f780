package docparse

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDOCX(t *testing.T, documentXML string) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractText_TXT(t *testing.T) {
	text, err := ExtractText("agreement.txt", []byte("This agreement is made between the parties."))

	require.NoError(t, err)
	assert.Equal(t, "This agreement is made between the parties.", text)
}

func TestExtractText_TXTUppercaseExtension(t *testing.T) {
	text, err := ExtractText("AGREEMENT.TXT", []byte("content"))

	require.NoError(t, err)
	assert.Equal(t, "content", text)
}

func TestExtractText_DOCX(t *testing.T) {
	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`

	text, err := ExtractText("contract.docx", buildDOCX(t, docXML))

	require.NoError(t, err)
	assert.Contains(t, text, "First paragraph.")
	assert.Contains(t, text, "Second paragraph.")
}

func TestExtractText_DOCXWithoutDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/other.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<foo/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = ExtractText("broken.docx", buf.Bytes())

	require.ErrorIs(t, err, ErrInvalidDocument)
}

func TestExtractText_CorruptDOCX(t *testing.T) {
	_, err := ExtractText("broken.docx", []byte("not a zip archive"))

	require.ErrorIs(t, err, ErrInvalidDocument)
}

func TestExtractText_LegacyBinaryDOC(t *testing.T) {
	// Сигнатура OLE-контейнера, которым пишется старый бинарный .doc.
	oleHeader := []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	data := append(oleHeader, bytes.Repeat([]byte{0x00}, 64)...)

	_, err := ExtractText("old.doc", data)

	require.ErrorIs(t, err, ErrInvalidDocument)
	require.NotErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractText_CorruptPDF(t *testing.T) {
	_, err := ExtractText("broken.pdf", []byte("definitely not a pdf"))

	require.ErrorIs(t, err, ErrInvalidDocument)
}

func TestExtractText_UnsupportedFormat(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
	}{
		{name: "image", fileName: "scan.png"},
		{name: "spreadsheet", fileName: "data.xlsx"},
		{name: "no extension", fileName: "document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractText(tt.fileName, []byte("data"))
			require.ErrorIs(t, err, ErrUnsupportedFormat)
		})
	}
}
