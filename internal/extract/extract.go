// Package extract turns uploaded resume documents into plain text.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeText = "text/plain"
	mimeZip  = "application/zip"
)

var (
	ErrUnsupportedDocument = errors.New("unsupported document")
	// ErrNoText means the document parsed but held no extractable text, e.g. a scanned PDF.
	ErrNoText = errors.New("document contains no extractable text")
)

// Metadata is what the client told us about an upload.
type Metadata struct {
	FileName    string
	ContentType string
	Size        int64
}

// IsSupported reports whether the declared type and extension name a PDF,
// DOCX or plain-text file. Both must agree; empty uploads never pass.
func IsSupported(meta Metadata) bool {
	if meta.Size <= 0 {
		return false
	}
	_, ok := kindOf(normalizeMimeType(meta.ContentType), extOf(meta.FileName))
	return ok
}

// Text extracts plain text from data after re-checking its type against the content.
func Text(ctx context.Context, data []byte, meta Metadata) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrUnsupportedDocument
	}
	mime := normalizeMimeType(meta.ContentType)
	if mime == mimeZip {
		if mapped := mapOOXMLFromZip(data); mapped != "" {
			mime = mapped
		}
	}
	kind, ok := kindOf(mime, extOf(meta.FileName))
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDocument, mime)
	}

	var (
		text string
		err  error
	)
	switch kind {
	case mimePDF:
		text, err = extractPDF(data)
	case mimeDOCX:
		text, err = extractDOCX(data)
	default:
		text = string(data)
	}
	if err != nil {
		return "", fmt.Errorf("extract %s %q: %w", kind, meta.FileName, err)
	}
	text = normalizeWhitespace(text)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

func kindOf(mime, ext string) (string, bool) {
	switch {
	case mime == mimePDF && ext == ".pdf":
		return mimePDF, true
	case (mime == mimeDOCX || mime == mimeZip) && ext == ".docx":
		return mimeDOCX, true
	case mime == mimeText && (ext == ".txt" || ext == ".md"):
		return mimeText, true
	}
	return "", false
}

func extOf(name string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
}

func extractPDF(data []byte) (string, error) {
	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	defer doc.Close()
	return stripDocxXML(doc.Editable().GetContent()), nil
}

// stripDocxXML keeps character data and turns paragraph and break ends into newlines.
func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.Join(strings.Fields(line), " "); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return strings.Join(out, "\n")
}

func normalizeMimeType(mimeType string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
}

func mapOOXMLFromZip(data []byte) string {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return mimeDOCX
		}
	}
	return ""
}
