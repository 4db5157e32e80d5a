// Package extract downloads remote documents and extracts their plain text.
// Supported formats are PDF, DOCX and RFC 822 email.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/kart-io/docqa/internal/pkg/textutil"
	"github.com/kart-io/docqa/pkg/utils/httpclient"
)

var (
	// ErrUnsupportedFormat indicates the document format could not be handled.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrEmptyDocument indicates extraction produced no usable text.
	ErrEmptyDocument = errors.New("document contains no extractable text")
)

// Format identifies a supported document format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatEML  Format = "eml"
)

// DefaultMaxBytes caps downloaded document size.
const DefaultMaxBytes = 50 << 20

// Extractor fetches documents over HTTP and converts them to plain text.
type Extractor struct {
	client   *httpclient.Client
	maxBytes int64
}

// NewExtractor creates an Extractor. maxBytes <= 0 applies DefaultMaxBytes.
func NewExtractor(timeout time.Duration, maxRetries int, maxBytes int64) *Extractor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Extractor{
		client:   httpclient.NewClient(timeout, maxRetries),
		maxBytes: maxBytes,
	}
}

// Fetch downloads the document and returns its raw bytes and the response
// content type.
func (e *Extractor) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	resp, err := e.client.Get(ctx, rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download document: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download document: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read document body: %w", err)
	}
	if int64(len(data)) > e.maxBytes {
		return nil, "", fmt.Errorf("document exceeds size limit of %d bytes", e.maxBytes)
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// DetectFormat resolves the document format from the URL extension first,
// then the content type, then magic bytes.
func DetectFormat(rawURL, contentType string, data []byte) (Format, error) {
	if u, err := url.Parse(rawURL); err == nil {
		switch strings.ToLower(path.Ext(u.Path)) {
		case ".pdf":
			return FormatPDF, nil
		case ".docx":
			return FormatDOCX, nil
		case ".eml":
			return FormatEML, nil
		}
	}

	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "application/pdf"):
		return FormatPDF, nil
	case strings.Contains(ct, "wordprocessingml"):
		return FormatDOCX, nil
	case strings.Contains(ct, "message/rfc822"):
		return FormatEML, nil
	}

	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return FormatPDF, nil
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		// Office documents are zip containers.
		return FormatDOCX, nil
	case looksLikeEmail(data):
		return FormatEML, nil
	}

	return "", fmt.Errorf("%w: url=%s content_type=%s", ErrUnsupportedFormat, rawURL, contentType)
}

// looksLikeEmail reports whether data starts with RFC 822 style headers.
func looksLikeEmail(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	for _, prefix := range []string{"From:", "Received:", "Return-Path:", "Subject:", "MIME-Version:"} {
		if bytes.HasPrefix(head, []byte(prefix)) {
			return true
		}
	}
	return false
}

// Extract converts raw document bytes of the given format to plain text.
// The result is normalized; an empty result is ErrEmptyDocument.
func Extract(data []byte, format Format) (string, error) {
	var (
		text string
		err  error
	)

	switch format {
	case FormatPDF:
		text, err = extractPDF(data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	case FormatEML:
		text, err = extractEML(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return "", err
	}

	text = textutil.Clean(text)
	if text == "" {
		return "", ErrEmptyDocument
	}

	return text, nil
}

// ExtractFromURL downloads and extracts a document in one step.
func (e *Extractor) ExtractFromURL(ctx context.Context, rawURL string) (string, error) {
	data, contentType, err := e.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}

	format, err := DetectFormat(rawURL, contentType, data)
	if err != nil {
		return "", err
	}

	return Extract(data, format)
}
