package extract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat_ByExtension(t *testing.T) {
	tests := []struct {
		url  string
		want Format
	}{
		{"https://example.com/policy.pdf", FormatPDF},
		{"https://example.com/policy.PDF?sig=abc", FormatPDF},
		{"https://example.com/contract.docx", FormatDOCX},
		{"https://example.com/mail.eml", FormatEML},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.url, "", nil)
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.want, got, tt.url)
	}
}

func TestDetectFormat_ByContentType(t *testing.T) {
	got, err := DetectFormat("https://example.com/download?id=1", "application/pdf", nil)
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, got)

	got, err = DetectFormat("https://example.com/download", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", nil)
	require.NoError(t, err)
	assert.Equal(t, FormatDOCX, got)

	got, err = DetectFormat("https://example.com/download", "message/rfc822", nil)
	require.NoError(t, err)
	assert.Equal(t, FormatEML, got)
}

func TestDetectFormat_ByMagicBytes(t *testing.T) {
	got, err := DetectFormat("https://example.com/blob", "application/octet-stream", []byte("%PDF-1.7 rest"))
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, got)

	got, err = DetectFormat("https://example.com/blob", "", []byte("PK\x03\x04rest"))
	require.NoError(t, err)
	assert.Equal(t, FormatDOCX, got)

	got, err = DetectFormat("https://example.com/blob", "", []byte("Subject: hello\r\n\r\nbody"))
	require.NoError(t, err)
	assert.Equal(t, FormatEML, got)
}

func TestDetectFormat_Unknown(t *testing.T) {
	_, err := DetectFormat("https://example.com/blob", "text/csv", []byte("a,b,c"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

// makeDOCX builds a minimal DOCX container with the given paragraphs.
func makeDOCX(t *testing.T, paragraphs []string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	doc := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	for _, p := range paragraphs {
		doc += `<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`
	}
	doc += `</w:body></w:document>`

	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func TestExtractDOCX(t *testing.T) {
	data := makeDOCX(t, []string{"First paragraph of the policy.", "Second paragraph with terms."})

	text, err := extractDOCX(data)
	require.NoError(t, err)
	assert.Contains(t, text, "First paragraph of the policy.")
	assert.Contains(t, text, "Second paragraph with terms.")
	// Paragraphs separate with a blank line so chunking sees them.
	assert.Contains(t, text, "policy.\n\nSecond")
}

func TestExtractDOCX_MissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte("<styles/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = extractDOCX(buf.Bytes())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractDOCX_NotAZip(t *testing.T) {
	_, err := extractDOCX([]byte("definitely not a zip"))
	assert.Error(t, err)
}

func TestExtractEML_PlainText(t *testing.T) {
	raw := "From: sender@example.com\r\n" +
		"To: receiver@example.com\r\n" +
		"Subject: Policy renewal notice\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Your policy renews on the first of next month.\r\n"

	text, err := extractEML([]byte(raw))
	require.NoError(t, err)
	assert.Contains(t, text, "Subject: Policy renewal notice")
	assert.Contains(t, text, "Your policy renews on the first of next month.")
}

func TestExtractEML_MultipartPrefersPlainText(t *testing.T) {
	raw := "From: a@example.com\r\n" +
		"Subject: Multipart message\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/alternative; boundary=BOUND\r\n" +
		"\r\n" +
		"--BOUND\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>html version</p>\r\n" +
		"--BOUND\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"plain version\r\n" +
		"--BOUND--\r\n"

	text, err := extractEML([]byte(raw))
	require.NoError(t, err)
	assert.Contains(t, text, "plain version")
	assert.NotContains(t, text, "html version")
}

func TestExtractEML_HTMLOnlyStripsTags(t *testing.T) {
	raw := "From: a@example.com\r\n" +
		"Subject: HTML only\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<html><body><p>rendered content</p></body></html>\r\n"

	text, err := extractEML([]byte(raw))
	require.NoError(t, err)
	assert.Contains(t, text, "rendered content")
	assert.NotContains(t, text, "<p>")
}

func TestExtract_EmptyDocument(t *testing.T) {
	data := makeDOCX(t, []string{"   "})
	_, err := Extract(data, FormatDOCX)
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestExtract_UnknownFormat(t *testing.T) {
	_, err := Extract([]byte("data"), Format("rtf"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
