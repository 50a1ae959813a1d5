package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat reports a body whose format has no extractor.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// ErrEmptyDocument reports a document that yielded no text.
var ErrEmptyDocument = errors.New("document contains no extractable text")

// Text extracts plain text from a fetched body. The format is chosen
// from the URL's extension first and the Content-Type header second;
// unknown formats pass through when they look like text.
func Text(rawURL string, body []byte, contentType string) (string, error) {
	if len(body) == 0 {
		return "", ErrEmptyDocument
	}

	switch format(rawURL, contentType) {
	case formatPDF:
		return fromPDF(body)
	case formatDOCX:
		return fromDOCX(body)
	case formatHTML:
		return fromHTML(rawURL, body)
	default:
		if !utf8.Valid(body) {
			return "", fmt.Errorf("%w: binary body with no known extractor", ErrUnsupportedFormat)
		}
		return string(body), nil
	}
}

type docFormat int

const (
	formatPlain docFormat = iota
	formatPDF
	formatDOCX
	formatHTML
)

// format picks the extractor for a body.
func format(rawURL, contentType string) docFormat {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	}
	lower := strings.ToLower(path)

	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return formatPDF
	case strings.HasSuffix(lower, ".docx"):
		return formatDOCX
	case strings.HasSuffix(lower, ".html"), strings.HasSuffix(lower, ".htm"):
		return formatHTML
	}

	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "application/pdf"):
		return formatPDF
	case strings.Contains(ct, "wordprocessingml"):
		return formatDOCX
	case strings.Contains(ct, "text/html"), strings.Contains(ct, "application/xhtml"):
		return formatHTML
	}
	return formatPlain
}

// fromPDF extracts the text runs of a PDF body.
func fromPDF(body []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", fmt.Errorf("failed to parse PDF: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract PDF text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

// fromDOCX extracts paragraph text from a Word document. A .docx file
// is a zip archive; the text lives in word/document.xml as <w:t> runs
// grouped into <w:p> paragraphs.
func fromDOCX(body []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", fmt.Errorf("failed to open document archive: %w", err)
	}

	var docXML io.ReadCloser
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			docXML, err = f.Open()
			if err != nil {
				return "", fmt.Errorf("failed to open document body: %w", err)
			}
			break
		}
	}
	if docXML == nil {
		return "", fmt.Errorf("%w: archive has no word/document.xml", ErrUnsupportedFormat)
	}
	defer docXML.Close() //nolint:errcheck

	var paragraphs []string
	var current strings.Builder
	decoder := xml.NewDecoder(docXML)
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to decode document body: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				if current.Len() > 0 {
					paragraphs = append(paragraphs, current.String())
					current.Reset()
				}
			}
		case xml.CharData:
			if inText {
				current.Write(el)
			}
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	text := strings.TrimSpace(strings.Join(paragraphs, "\n"))
	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

// fromHTML reduces an HTML body to its readable text content.
func fromHTML(rawURL string, body []byte) (string, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		pageURL = &url.URL{}
	}

	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to extract readable content: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		// Readability found no article body. Fall back to the raw
		// markup so short pages still reach analysis.
		if utf8.Valid(body) {
			return string(body), nil
		}
		return "", ErrEmptyDocument
	}
	return text, nil
}
