package extract

import (
	"errors"
	"path/filepath"
	"strings"
)

// Format is the document kind resolved from a file name.
type Format int

const (
	FormatUnsupported Format = iota
	FormatPlainText
	FormatPDF
	FormatDOCX
)

func (f Format) String() string {
	switch f {
	case FormatPlainText:
		return "txt"
	case FormatPDF:
		return "pdf"
	case FormatDOCX:
		return "docx"
	default:
		return "unsupported"
	}
}

// ErrUnsupportedFormat matches any *UnsupportedFormatError via errors.Is.
var ErrUnsupportedFormat = errors.New("unsupported file type")

// UnsupportedFormatError carries the rejected extension, lower-cased with its
// leading dot. Ext is empty for files without an extension.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return "Unsupported file type: " + e.Ext
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// DetectFormat maps a file name to a Format by extension, case-insensitively.
// The normalized extension is returned alongside for error reporting.
func DetectFormat(fileName string) (Format, string) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(fileName)))
	switch ext {
	case ".txt":
		return FormatPlainText, ext
	case ".pdf":
		return FormatPDF, ext
	case ".docx":
		return FormatDOCX, ext
	default:
		return FormatUnsupported, ext
	}
}

// SupportedExtensions lists the extensions DetectFormat recognizes.
func SupportedExtensions() []string {
	return []string{".txt", ".pdf", ".docx"}
}
