package resume

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/lu4p/cat/docxtxt"
)

const (
	TypePDF  = "application/pdf"
	TypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypeDOC  = "application/msword"
	TypeText = "text/plain"

	// MinContentLength is the shortest extracted text accepted as a resume.
	MinContentLength = 50
)

var (
	ErrUnsupportedType = errors.New("invalid file type: only PDF, DOC, DOCX, and TXT files are allowed")
	ErrTooShort        = errors.New("resume content too short or could not be parsed")
	// ErrLegacyFormat is returned for binary Word 97-2003 documents, which
	// have no text extractor.
	ErrLegacyFormat = errors.New("unsupported format: legacy .doc files must be saved as DOCX or PDF")
	// ErrUnreadable wraps extractor failures on a damaged or mislabelled file.
	ErrUnreadable = errors.New("resume could not be parsed")
)

// DetectType resolves the content type of an upload. Browsers often send
// application/octet-stream, so the file extension is the fallback.
func DetectType(contentType, fileName string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch ct {
	case TypePDF, TypeDOCX, TypeDOC, TypeText:
		return ct, nil
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return TypePDF, nil
	case ".docx":
		return TypeDOCX, nil
	case ".doc":
		return TypeDOC, nil
	case ".txt":
		return TypeText, nil
	}
	return "", ErrUnsupportedType
}

// Extract returns the trimmed plain text of a resume file.
func Extract(data []byte, contentType string) (string, error) {
	var (
		text string
		err  error
	)
	switch contentType {
	case TypePDF:
		text, err = extractPDF(data)
	case TypeDOCX:
		text, err = extractDOCX(data)
	case TypeDOC:
		return "", ErrLegacyFormat
	case TypeText:
		text = string(data)
	default:
		return "", ErrUnsupportedType
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	text = strings.TrimSpace(text)
	if len(text) < MinContentLength {
		return "", ErrTooShort
	}
	return text, nil
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func extractDOCX(data []byte) (string, error) {
	return docxtxt.BytesToStr(data)
}
