package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a file format the readers understand.
type Format string

// Supported formats.
const (
	FormatPDF  Format = "pdf"
	FormatTXT  Format = "txt"
	FormatDOCX Format = "docx"
)

var formatMIMETypes = map[string]Format{
	"application/pdf": FormatPDF,
	"text/plain":      FormatTXT,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": FormatDOCX,
}

var formatExtensions = map[string]Format{
	".pdf":  FormatPDF,
	".txt":  FormatTXT,
	".text": FormatTXT,
	".docx": FormatDOCX,
}

// IsValid returns true if the format is recognised.
func (f Format) IsValid() bool {
	switch f {
	case FormatPDF, FormatTXT, FormatDOCX:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (f Format) String() string {
	return string(f)
}

// MIMEType returns the canonical MIME type for the format.
func (f Format) MIMEType() string {
	for mime, format := range formatMIMETypes {
		if format == f {
			return mime
		}
	}
	return ""
}

// AllFormats returns every supported format.
func AllFormats() []Format {
	return []Format{FormatPDF, FormatTXT, FormatDOCX}
}

// FormatFromMIME resolves a MIME type. Parameters such as charset are ignored.
func FormatFromMIME(mimeType string) (Format, error) {
	base := strings.TrimSpace(strings.ToLower(mimeType))
	if i := strings.IndexByte(base, ';'); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}
	if f, ok := formatMIMETypes[base]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: mime type %q", ErrUnsupportedFormat, mimeType)
}

// FormatFromPath resolves a file path by its extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := formatExtensions[ext]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Base(path))
}
